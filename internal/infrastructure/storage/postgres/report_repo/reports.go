// Package report_repo provides the PostgreSQL read queries behind the order list,
// order detail, period financials and the products summary.
package report_repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"ayanna/internal/core/apperror"
	"ayanna/internal/core/id"
	"ayanna/internal/domain/catalog"
	"ayanna/internal/domain/reports"
	"ayanna/internal/domain/sales"
	"ayanna/internal/domain/stock"
	"ayanna/internal/infrastructure/storage/postgres"
	"ayanna/internal/infrastructure/storage/postgres/catalog_repo"
	"ayanna/internal/infrastructure/storage/postgres/document_repo"
)

var _ reports.Repository = (*ReportRepo)(nil)

// ReportRepo implements reports.Repository.
type ReportRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewReportRepo creates a new report repository.
func NewReportRepo(txm *postgres.TxManager) *ReportRepo {
	return &ReportRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// ListOrders returns the orders of module matching f, newest first.
func (r *ReportRepo) ListOrders(ctx context.Context, module catalog.Module, f reports.OrderFilter) ([]reports.Order, error) {
	query, err := ordersQuery(r.builder, module)
	if err != nil {
		return nil, err
	}
	sql, args, err := applyOrderFilter(query, document_repo.ModuleTables[module].Number, f).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var orders []reports.Order
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &orders, sql, args...); err != nil {
		return nil, fmt.Errorf("select %s orders: %w", module, err)
	}
	return orders, nil
}

// GetOrder returns one order with its named lines and its payments.
func (r *ReportRepo) GetOrder(ctx context.Context, module catalog.Module, orderID id.ID) (*reports.OrderDetail, error) {
	t, err := document_repo.TablesFor(module)
	if err != nil {
		return nil, err
	}
	query, err := ordersQuery(r.builder, module)
	if err != nil {
		return nil, err
	}
	sql, args, err := query.Where(squirrel.Eq{"h.id": orderID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	q := r.txm.GetQuerier(ctx)
	var detail reports.OrderDetail
	if err := pgxscan.Get(ctx, q, &detail.Order, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("order", orderID)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	lines := fmt.Sprintf(
		"SELECT kind, item_id, name, quantity, price_unit, total_price FROM (%s) x ORDER BY x.line_no",
		namedLines(module, t, "$1"),
	)
	if err := pgxscan.Select(ctx, q, &detail.Lines, lines, orderID); err != nil {
		return nil, fmt.Errorf("select order lines: %w", err)
	}

	sql, args, err = r.builder.Select("id", "amount", "payment_method", "payment_date").
		From(t.Payments).
		Where(squirrel.Eq{t.Parent: orderID}).
		OrderBy("payment_date", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build payments query: %w", err)
	}
	if err := pgxscan.Select(ctx, q, &detail.Payments, sql, args...); err != nil {
		return nil, fmt.Errorf("select order payments: %w", err)
	}

	return &detail, nil
}

// PeriodOrders returns net and paid of the non-cancelled orders created in [from, to].
func (r *ReportRepo) PeriodOrders(ctx context.Context, module catalog.Module, from, to time.Time) ([]reports.OrderAmounts, error) {
	sql, args, err := periodOrdersQuery(r.builder, module, from, to)
	if err != nil {
		return nil, err
	}

	var out []reports.OrderAmounts
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("select period orders: %w", err)
	}
	return out, nil
}

// WarehouseProducts lists the products stocked in, or moved through, a warehouse.
func (r *ReportRepo) WarehouseProducts(ctx context.Context, warehouseID id.ID) ([]reports.ProductRef, error) {
	sql, args, err := r.builder.Select("p.id", "p.name", "p.price").
		From("core_products p").
		Where(squirrel.Or{
			squirrel.Expr("p.id IN (SELECT product_id FROM stock_produits_entrepot WHERE warehouse_id = ?)", warehouseID),
			squirrel.Expr(`p.id IN (SELECT product_id FROM stock_mouvements
				WHERE warehouse_id = ? OR (movement_type = ? AND destination_warehouse_id = ?))`,
				warehouseID, stock.KindTransfer, warehouseID),
		}).
		OrderBy("p.name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []reports.ProductRef
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("select warehouse products: %w", err)
	}
	return out, nil
}

// ordersQuery selects order rows of module with the client name, an items summary
// "Name xQty, ..." in line order, the quantity total and the amount paid.
func ordersQuery(b squirrel.StatementBuilderType, module catalog.Module) (squirrel.SelectBuilder, error) {
	t, err := document_repo.TablesFor(module)
	if err != nil {
		return squirrel.SelectBuilder{}, err
	}

	items := fmt.Sprintf(`LEFT JOIN LATERAL (
		SELECT string_agg(x.name || ' x' || trim_scale(x.quantity)::text, ', ' ORDER BY x.line_no) AS items_summary,
		       SUM(x.quantity) AS qty_total
		FROM (%s) x
	) li ON TRUE`, namedLines(module, t, "h.id"))
	paid := fmt.Sprintf(`LEFT JOIN LATERAL (
		SELECT SUM(amount) AS amount_paid FROM %s WHERE %s = h.id
	) pa ON TRUE`, t.Payments, t.Parent)

	return b.Select(
		"h.id",
		fmt.Sprintf("'%s' AS module", module),
		"h."+t.Number+" AS number",
		"h.pos_id",
		"h.created_at",
		"COALESCE(c.name, '') AS client_name",
		"h.subtotal",
		"h.tax_amount",
		"h.remise_amount",
		"h."+t.Total+" AS total_final",
		"h.payment_method",
		"h.status",
		"COALESCE(li.items_summary, '') AS items_summary",
		"COALESCE(li.qty_total, 0) AS qty_total",
		"COALESCE(pa.amount_paid, 0) AS amount_paid",
	).
		From(t.Header + " h").
		LeftJoin(fmt.Sprintf("core_clients c ON c.id = h.%s", t.Client)).
		JoinClause(items).
		JoinClause(paid), nil
}

func applyOrderFilter(q squirrel.SelectBuilder, numberCol string, f reports.OrderFilter) squirrel.SelectBuilder {
	if !f.From.IsZero() {
		q = q.Where(squirrel.GtOrEq{"h.created_at": f.From})
	}
	if !f.To.IsZero() {
		q = q.Where(squirrel.LtOrEq{"h.created_at": f.To})
	}
	if f.Method != "" {
		q = q.Where("LOWER(h.payment_method) = LOWER(?)", f.Method)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		q = q.Where(squirrel.Or{
			squirrel.ILike{"h." + numberCol: "%" + s + "%"},
			squirrel.ILike{"c.name": "%" + s + "%"},
		})
	}
	q = q.OrderBy("h.created_at DESC")
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	return q
}

// namedLines is a subquery of the lines of the cart whose id is parent, with the
// item name resolved, the line kind and the line number.
func namedLines(module catalog.Module, t document_repo.Tables, parent string) string {
	parts := []string{fmt.Sprintf(
		`SELECT '%s' AS kind, l.product_id AS item_id, COALESCE(p.name, '') AS name,
		        l.quantity, l.price_unit, l.total_price, l.line_no
		 FROM %s l LEFT JOIN core_products p ON p.id = l.product_id
		 WHERE l.%s = %s`,
		sales.LineProduct, t.Products, t.Parent, parent,
	)}
	if services, ok := catalog_repo.ServiceTables[module]; ok && t.Services != "" {
		parts = append(parts, fmt.Sprintf(
			`SELECT '%s' AS kind, l.service_id AS item_id, COALESCE(s.name, '') AS name,
			        l.quantity, l.price_unit, l.total_price, l.line_no
			 FROM %s l LEFT JOIN %s s ON s.id = l.service_id
			 WHERE l.%s = %s`,
			sales.LineService, t.Services, services, t.Parent, parent,
		))
	}
	return strings.Join(parts, " UNION ALL ")
}

func periodOrdersQuery(b squirrel.StatementBuilderType, module catalog.Module, from, to time.Time) (string, []any, error) {
	t, err := document_repo.TablesFor(module)
	if err != nil {
		return "", nil, err
	}

	sql, args, err := b.Select(
		"h.id",
		fmt.Sprintf("h.%s - h.remise_amount AS net", t.Total),
		"COALESCE(pa.paid, 0) AS paid",
	).
		From(t.Header + " h").
		JoinClause(fmt.Sprintf(
			"LEFT JOIN LATERAL (SELECT SUM(amount) AS paid FROM %s WHERE %s = h.id) pa ON TRUE",
			t.Payments, t.Parent,
		)).
		Where(squirrel.GtOrEq{"h.created_at": from}).
		Where(squirrel.LtOrEq{"h.created_at": to}).
		Where(squirrel.NotEq{"LOWER(TRIM(h.status))": reports.CancelledStatuses}).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build query: %w", err)
	}
	return sql, args, nil
}
