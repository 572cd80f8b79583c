package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"ayanna/internal/core/apperror"
	"ayanna/internal/core/id"
	"ayanna/internal/domain/catalog"
	"ayanna/internal/domain/sales"
	"ayanna/internal/infrastructure/storage/postgres"
)

var _ sales.Repository = (*CartRepo)(nil)

// CartRepo implements sales.Repository over the per-module table sets.
type CartRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewCartRepo creates a new cart repository.
func NewCartRepo(txm *postgres.TxManager) *CartRepo {
	return &CartRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts the header, then the lines and payments the cart already carries.
func (r *CartRepo) Create(ctx context.Context, cart *sales.Cart) error {
	t, err := TablesFor(cart.Module)
	if err != nil {
		return err
	}

	values := t.headerValues(cart)
	values["id"] = cart.ID
	values["pos_id"] = cart.POSID
	values["enterprise_id"] = cart.EnterpriseID
	values[t.Number] = cart.Number
	values["user_id"] = cart.UserID
	values["created_at"] = cart.CreatedAt

	sql, args, err := r.builder.Insert(t.Header).SetMap(values).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err, "") {
			return apperror.NewDuplicate("cart", "number", cart.Number).WithCause(err)
		}
		return fmt.Errorf("insert %s: %w", t.Header, err)
	}

	for i := range cart.Lines {
		cart.Lines[i].CartID = cart.ID
		if err := r.AddLine(ctx, cart.Module, &cart.Lines[i]); err != nil {
			return err
		}
	}
	for i := range cart.Payments {
		cart.Payments[i].CartID = cart.ID
		if err := r.AddPayment(ctx, cart.Module, &cart.Payments[i]); err != nil {
			return err
		}
	}
	return nil
}

// Get returns a cart with its lines and payments.
func (r *CartRepo) Get(ctx context.Context, module catalog.Module, cartID id.ID) (*sales.Cart, error) {
	return r.get(ctx, module, cartID, false)
}

// GetForUpdate locks the header row until the session ends.
func (r *CartRepo) GetForUpdate(ctx context.Context, module catalog.Module, cartID id.ID) (*sales.Cart, error) {
	return r.get(ctx, module, cartID, true)
}

func (r *CartRepo) get(ctx context.Context, module catalog.Module, cartID id.ID, lock bool) (*sales.Cart, error) {
	t, err := TablesFor(module)
	if err != nil {
		return nil, err
	}

	query := r.builder.Select(t.headerSelect()...).
		From(t.Header).
		Where(squirrel.Eq{"id": cartID})
	if lock {
		query = query.Suffix("FOR UPDATE")
	}
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	q := r.txm.GetQuerier(ctx)
	var cart sales.Cart
	if err := pgxscan.Get(ctx, q, &cart, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("cart", cartID)
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	cart.Module = module

	sql, args, err = linesQuery(t, cartID)
	if err != nil {
		return nil, fmt.Errorf("build lines query: %w", err)
	}
	if err := pgxscan.Select(ctx, q, &cart.Lines, sql, args...); err != nil {
		return nil, fmt.Errorf("select cart lines: %w", err)
	}

	sql, args, err = r.builder.Select("id", t.Parent+" AS cart_id", "amount", "payment_method", "payment_date", "user_id").
		From(t.Payments).
		Where(squirrel.Eq{t.Parent: cartID}).
		OrderBy("payment_date", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build payments query: %w", err)
	}
	if err := pgxscan.Select(ctx, q, &cart.Payments, sql, args...); err != nil {
		return nil, fmt.Errorf("select cart payments: %w", err)
	}

	return &cart, nil
}

// linesQuery reads product and service lines as one list ordered by line number.
func linesQuery(t Tables, cartID id.ID) (string, []any, error) {
	part := func(table, itemCol string, kind sales.LineKind) squirrel.SelectBuilder {
		return squirrel.Select(
			"id", t.Parent+" AS cart_id", fmt.Sprintf("'%s' AS kind", kind), itemCol+" AS item_id",
			"quantity", "price_unit", "total_price", "line_no",
		).From(table).Where(squirrel.Eq{t.Parent: cartID})
	}

	query := part(t.Products, "product_id", sales.LineProduct)
	if t.Services != "" {
		query = query.Suffix("UNION ALL").SuffixExpr(part(t.Services, "service_id", sales.LineService))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return "", nil, err
	}
	sql, err = squirrel.Dollar.ReplacePlaceholders(sql + " ORDER BY line_no")
	return sql, args, err
}

// UpdateHeader writes the mutable header columns.
func (r *CartRepo) UpdateHeader(ctx context.Context, cart *sales.Cart) error {
	t, err := TablesFor(cart.Module)
	if err != nil {
		return err
	}

	sql, args, err := r.builder.Update(t.Header).
		SetMap(t.headerValues(cart)).
		Where(squirrel.Eq{"id": cart.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", t.Header, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("cart", cart.ID)
	}
	return nil
}

// AddLine inserts a line into the product or service table of the module.
func (r *CartRepo) AddLine(ctx context.Context, module catalog.Module, line *sales.Line) error {
	t, err := TablesFor(module)
	if err != nil {
		return err
	}
	table, itemCol := t.lineTable(line.Kind)
	if table == "" {
		return apperror.NewValidation(fmt.Sprintf("%s carts do not sell services", module))
	}

	sql, args, err := r.builder.Insert(table).
		Columns("id", t.Parent, itemCol, "quantity", "price_unit", "total_price", "line_no").
		Values(line.ID, line.CartID, line.ItemID, line.Quantity, line.UnitPrice, line.Total, line.LineNo).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return apperror.NewValidation("line references an unknown cart or item").
				WithDetail("item_id", line.ItemID).WithCause(err)
		}
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

// RemoveLine deletes a line of the cart from whichever table holds it.
func (r *CartRepo) RemoveLine(ctx context.Context, module catalog.Module, cartID, lineID id.ID) error {
	t, err := TablesFor(module)
	if err != nil {
		return err
	}

	q := r.txm.GetQuerier(ctx)
	for _, table := range []string{t.Products, t.Services} {
		if table == "" {
			continue
		}
		sql, args, err := r.builder.Delete(table).
			Where(squirrel.Eq{"id": lineID, t.Parent: cartID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build delete: %w", err)
		}
		tag, err := q.Exec(ctx, sql, args...)
		if err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
		if tag.RowsAffected() > 0 {
			return nil
		}
	}
	return apperror.NewNotFound("cart line", lineID)
}

// AddPayment inserts a payment row.
func (r *CartRepo) AddPayment(ctx context.Context, module catalog.Module, p *sales.Payment) error {
	t, err := TablesFor(module)
	if err != nil {
		return err
	}

	sql, args, err := r.builder.Insert(t.Payments).
		Columns("id", t.Parent, "amount", "payment_method", "payment_date", "user_id").
		Values(p.ID, p.CartID, p.Amount, p.Method, p.Date, p.UserID).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return apperror.NewNotFound("cart", p.CartID).WithCause(err)
		}
		return fmt.Errorf("insert %s: %w", t.Payments, err)
	}
	return nil
}

// ZeroPayments keeps the payment rows of a cart and sets their amounts to zero.
func (r *CartRepo) ZeroPayments(ctx context.Context, module catalog.Module, cartID id.ID) error {
	t, err := TablesFor(module)
	if err != nil {
		return err
	}

	sql, args, err := r.builder.Update(t.Payments).
		Set("amount", 0).
		Where(squirrel.Eq{t.Parent: cartID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("zero payments: %w", err)
	}
	return nil
}

// NumberExists reports whether posID already used number.
func (r *CartRepo) NumberExists(ctx context.Context, module catalog.Module, posID id.ID, number string) (bool, error) {
	t, err := TablesFor(module)
	if err != nil {
		return false, err
	}

	sql, args, err := r.builder.Select("1").
		From(t.Header).
		Where(squirrel.Eq{"pos_id": posID, t.Number: number}).
		Prefix("SELECT EXISTS (").
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var exists bool
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check cart number: %w", err)
	}
	return exists, nil
}
