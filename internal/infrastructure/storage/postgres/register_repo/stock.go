// Package register_repo provides the PostgreSQL stock ledger: warehouses, stock
// lines and the immutable movement journal.
package register_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"ayanna/internal/core/apperror"
	"ayanna/internal/core/id"
	"ayanna/internal/domain/stock"
	"ayanna/internal/infrastructure/storage/postgres"
)

const (
	warehousesTable = "stock_warehouses"
	linesTable      = "stock_produits_entrepot"
	movementsTable  = "stock_mouvements"
)

var (
	lineColumns     = []string{"product_id", "warehouse_id", "quantity", "unit_cost", "updated_at"}
	movementColumns = []string{
		"id", "movement_type", "product_id", "warehouse_id", "destination_warehouse_id",
		"quantity", "unit_cost", "total_cost", "reference", "movement_date", "user_id", "created_at",
	}
)

var _ stock.Repository = (*StockRepo)(nil)

// StockRepo implements stock.Repository.
type StockRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewStockRepo creates a new stock repository.
func NewStockRepo(txm *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateMovement inserts one movement row.
func (r *StockRepo) CreateMovement(ctx context.Context, m *stock.Movement) error {
	sql, args, err := r.builder.Insert(movementsTable).
		Columns(movementColumns...).
		Values(
			m.ID, m.Kind, m.ProductID, m.WarehouseID, m.DestinationWarehouseID,
			m.Quantity, m.UnitCost, m.TotalCost, m.Reference, m.MovementDate, m.UserID, m.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// GetLine returns the stock line for product+warehouse, or a zero line.
func (r *StockRepo) GetLine(ctx context.Context, productID, warehouseID id.ID) (stock.Line, error) {
	sql, args, err := r.lineQuery(productID, warehouseID).ToSql()
	if err != nil {
		return stock.Line{}, fmt.Errorf("build query: %w", err)
	}
	return r.scanLine(ctx, productID, warehouseID, sql, args)
}

// GetLineForUpdate locks the line until the session ends. An absent line is
// created at zero first so concurrent sessions still serialize on it.
func (r *StockRepo) GetLineForUpdate(ctx context.Context, productID, warehouseID id.ID) (stock.Line, error) {
	q := r.txm.GetQuerier(ctx)

	sql, args, err := r.builder.Insert(linesTable).
		Columns(lineColumns...).
		Values(productID, warehouseID, decimal.Zero, decimal.Zero, time.Now().UTC()).
		Suffix("ON CONFLICT (product_id, warehouse_id) DO NOTHING").
		ToSql()
	if err != nil {
		return stock.Line{}, fmt.Errorf("build insert: %w", err)
	}
	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return stock.Line{}, fmt.Errorf("ensure stock line: %w", err)
	}

	sql, args, err = r.lineQuery(productID, warehouseID).Suffix("FOR UPDATE").ToSql()
	if err != nil {
		return stock.Line{}, fmt.Errorf("build query: %w", err)
	}
	return r.scanLine(ctx, productID, warehouseID, sql, args)
}

func (r *StockRepo) lineQuery(productID, warehouseID id.ID) squirrel.SelectBuilder {
	return r.builder.Select(lineColumns...).
		From(linesTable).
		Where(squirrel.Eq{"product_id": productID, "warehouse_id": warehouseID})
}

func (r *StockRepo) scanLine(ctx context.Context, productID, warehouseID id.ID, sql string, args []any) (stock.Line, error) {
	var line stock.Line
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &line, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return stock.Line{ProductID: productID, WarehouseID: warehouseID}, nil
		}
		return line, fmt.Errorf("get stock line: %w", err)
	}
	return line, nil
}

// SaveLine upserts a stock line.
func (r *StockRepo) SaveLine(ctx context.Context, line stock.Line) error {
	sql, args, err := r.builder.Insert(linesTable).
		Columns(lineColumns...).
		Values(line.ProductID, line.WarehouseID, line.Quantity, line.UnitCost, line.UpdatedAt).
		Suffix(`ON CONFLICT (product_id, warehouse_id) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			unit_cost = EXCLUDED.unit_cost,
			updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsCheckViolation(err) {
			return apperror.NewInsufficientStock(
				line.ProductID.String(), line.WarehouseID.String(), "", line.Quantity.String(),
			).WithCause(err)
		}
		return fmt.Errorf("save stock line: %w", err)
	}
	return nil
}

// ListLines returns the lines of a warehouse ordered by product.
func (r *StockRepo) ListLines(ctx context.Context, warehouseID id.ID) ([]stock.Line, error) {
	sql, args, err := r.builder.Select(lineColumns...).
		From(linesTable).
		Where(squirrel.Eq{"warehouse_id": warehouseID}).
		OrderBy("product_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []stock.Line
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("select stock lines: %w", err)
	}
	return lines, nil
}

// MovementsByReference returns the movements of a kind booked under reference.
func (r *StockRepo) MovementsByReference(ctx context.Context, reference string, kind stock.Kind) ([]stock.Movement, error) {
	sql, args, err := r.builder.Select(movementColumns...).
		From(movementsTable).
		Where(squirrel.Eq{"reference": reference, "movement_type": kind}).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []stock.Movement
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}
	return movements, nil
}

// GetWarehouse returns a warehouse by id.
func (r *StockRepo) GetWarehouse(ctx context.Context, warehouseID id.ID) (*stock.Warehouse, error) {
	sql, args, err := r.builder.Select("id", "enterprise_id", "code", "name", "is_active").
		From(warehousesTable).
		Where(squirrel.Eq{"id": warehouseID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var w stock.Warehouse
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &w, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("warehouse", warehouseID)
		}
		return nil, fmt.Errorf("get warehouse: %w", err)
	}
	return &w, nil
}

// CreateWarehouse inserts a warehouse.
func (r *StockRepo) CreateWarehouse(ctx context.Context, w *stock.Warehouse) error {
	sql, args, err := r.builder.Insert(warehousesTable).
		Columns("id", "enterprise_id", "code", "name", "is_active").
		Values(w.ID, w.EnterpriseID, w.Code, w.Name, w.IsActive).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err, "") {
			return apperror.NewDuplicate("warehouse", "code", w.Code).WithCause(err)
		}
		return fmt.Errorf("insert warehouse: %w", err)
	}
	return nil
}

// QuantityBefore is the signed sum of movements touching the warehouse strictly before t.
func (r *StockRepo) QuantityBefore(ctx context.Context, productID, warehouseID id.ID, t time.Time) (decimal.Decimal, error) {
	return r.sum(ctx, quantityBeforeQuery(r.builder, productID, warehouseID, t))
}

func quantityBeforeQuery(b squirrel.StatementBuilderType, productID, warehouseID id.ID, t time.Time) squirrel.SelectBuilder {
	return b.Select().
		Column(squirrel.Expr(`COALESCE(SUM(CASE
			WHEN warehouse_id = ? AND movement_type IN ('ENTRY', 'ADJUSTMENT') THEN quantity
			WHEN warehouse_id = ? AND movement_type IN ('EXIT', 'TRANSFER') THEN -quantity
			WHEN destination_warehouse_id = ? AND movement_type = 'TRANSFER' THEN quantity
			ELSE 0 END), 0)`, warehouseID, warehouseID, warehouseID)).
		From(movementsTable).
		Where(squirrel.Eq{"product_id": productID}).
		Where(squirrel.Or{
			squirrel.Eq{"warehouse_id": warehouseID},
			squirrel.Eq{"destination_warehouse_id": warehouseID},
		}).
		Where(squirrel.Lt{"movement_date": t})
}

// QuantityAddedIn sums ENTRY and incoming TRANSFER quantities over [from, to].
// Entries restoring cancelled carts are left out; QuantitySoldIn nets them.
func (r *StockRepo) QuantityAddedIn(ctx context.Context, productID, warehouseID id.ID, from, to time.Time) (decimal.Decimal, error) {
	return r.sum(ctx, quantityAddedQuery(r.builder, productID, warehouseID, from, to))
}

func quantityAddedQuery(b squirrel.StatementBuilderType, productID, warehouseID id.ID, from, to time.Time) squirrel.SelectBuilder {
	return b.Select("COALESCE(SUM(quantity), 0)").
		From(movementsTable).
		Where(squirrel.Eq{"product_id": productID}).
		Where(squirrel.Or{
			squirrel.And{
				squirrel.Eq{"movement_type": stock.KindEntry, "warehouse_id": warehouseID},
				squirrel.NotLike{"reference": stock.CancelReferencePrefix + "%"},
			},
			squirrel.Eq{"movement_type": stock.KindTransfer, "destination_warehouse_id": warehouseID},
		}).
		Where(squirrel.GtOrEq{"movement_date": from}).
		Where(squirrel.LtOrEq{"movement_date": to})
}

// QuantitySoldIn sums cart EXIT movements out of a warehouse over [from, to], less
// the entries restoring cancelled carts.
func (r *StockRepo) QuantitySoldIn(ctx context.Context, productID, warehouseID id.ID, from, to time.Time) (decimal.Decimal, error) {
	return r.sum(ctx, quantitySoldQuery(r.builder, productID, warehouseID, from, to))
}

func quantitySoldQuery(b squirrel.StatementBuilderType, productID, warehouseID id.ID, from, to time.Time) squirrel.SelectBuilder {
	sale := stock.SaleReferencePrefix + "%"
	restock := stock.CancelReferencePrefix + stock.SaleReferencePrefix + "%"
	return b.Select().
		Column(squirrel.Expr(`COALESCE(SUM(CASE
			WHEN movement_type = 'EXIT' AND reference LIKE ? THEN quantity
			WHEN movement_type = 'ENTRY' AND reference LIKE ? THEN -quantity
			ELSE 0 END), 0)`, sale, restock)).
		From(movementsTable).
		Where(squirrel.Eq{"product_id": productID, "warehouse_id": warehouseID}).
		Where(squirrel.GtOrEq{"movement_date": from}).
		Where(squirrel.LtOrEq{"movement_date": to})
}

// PurchasesAndTransfersIn splits a product's incoming quantities over [from, to].
func (r *StockRepo) PurchasesAndTransfersIn(ctx context.Context, productID id.ID, from, to time.Time) (stock.PurchaseSummary, error) {
	sql, args, err := purchasesQuery(r.builder, productID, from, to).ToSql()
	if err != nil {
		return stock.PurchaseSummary{}, fmt.Errorf("build query: %w", err)
	}

	var out stock.PurchaseSummary
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&out.Purchases, &out.Transfers); err != nil {
		return out, fmt.Errorf("sum purchases: %w", err)
	}
	return out, nil
}

func purchasesQuery(b squirrel.StatementBuilderType, productID id.ID, from, to time.Time) squirrel.SelectBuilder {
	return b.Select().
		Column(squirrel.Expr(
			"COALESCE(SUM(quantity) FILTER (WHERE movement_type = 'ENTRY' AND reference NOT LIKE ?), 0)",
			stock.CancelReferencePrefix+"%")).
		Column("COALESCE(SUM(quantity) FILTER (WHERE movement_type = 'TRANSFER'), 0)").
		From(movementsTable).
		Where(squirrel.Eq{"product_id": productID}).
		Where(squirrel.GtOrEq{"movement_date": from}).
		Where(squirrel.LtOrEq{"movement_date": to})
}

func (r *StockRepo) sum(ctx context.Context, q squirrel.SelectBuilder) (decimal.Decimal, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return decimal.Zero, fmt.Errorf("build query: %w", err)
	}

	var total decimal.Decimal
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum movements: %w", err)
	}
	return total, nil
}
