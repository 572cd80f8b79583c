package stock

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"ayanna/internal/core/id"
)

const (
	// SaleReferencePrefix marks the EXIT movements of a finalized cart.
	SaleReferencePrefix = "CART-"

	// CancelReferencePrefix marks movements that compensate a cancelled sale.
	CancelReferencePrefix = "CANCEL-"
)

// Repository defines persistence for the stock ledger.
type Repository interface {
	// CreateMovement inserts one immutable movement row.
	CreateMovement(ctx context.Context, m *Movement) error

	// GetLine returns the stock line for product+warehouse, or a zero line when absent.
	GetLine(ctx context.Context, productID, warehouseID id.ID) (Line, error)

	// GetLineForUpdate returns the stock line with a row lock held until the session ends.
	GetLineForUpdate(ctx context.Context, productID, warehouseID id.ID) (Line, error)

	// SaveLine inserts or updates a stock line.
	SaveLine(ctx context.Context, line Line) error

	// ListLines returns the lines of a warehouse ordered by product.
	ListLines(ctx context.Context, warehouseID id.ID) ([]Line, error)

	// MovementsByReference returns movements of a kind with the given reference.
	MovementsByReference(ctx context.Context, reference string, kind Kind) ([]Movement, error)

	// GetWarehouse returns a warehouse by id.
	GetWarehouse(ctx context.Context, warehouseID id.ID) (*Warehouse, error)

	// Reporting (committed rows only)

	// QuantityBefore is the quantity held in a warehouse strictly before t.
	QuantityBefore(ctx context.Context, productID, warehouseID id.ID, t time.Time) (decimal.Decimal, error)

	// QuantityAddedIn sums ENTRY (cancel restocks excluded) and incoming TRANSFER
	// quantities into a warehouse over [from, to].
	QuantityAddedIn(ctx context.Context, productID, warehouseID id.ID, from, to time.Time) (decimal.Decimal, error)

	// PurchasesAndTransfersIn sums purchases (ENTRY not prefixed CANCEL-) and transfers
	// of a product over [from, to] across all warehouses.
	PurchasesAndTransfersIn(ctx context.Context, productID id.ID, from, to time.Time) (PurchaseSummary, error)

	// QuantitySoldIn is the quantity that left a warehouse through sales over
	// [from, to]: EXIT movements of carts less the entries restoring cancelled ones.
	QuantitySoldIn(ctx context.Context, productID, warehouseID id.ID, from, to time.Time) (decimal.Decimal, error)
}
