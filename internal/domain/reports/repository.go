package reports

import (
	"context"
	"time"

	"ayanna/internal/core/id"
	"ayanna/internal/domain/catalog"
)

// Repository reads committed sales rows for reporting.
type Repository interface {
	// ListOrders returns the orders of one module matching filter, newest first.
	ListOrders(ctx context.Context, module catalog.Module, filter OrderFilter) ([]Order, error)

	// GetOrder returns one order with lines and payments.
	GetOrder(ctx context.Context, module catalog.Module, orderID id.ID) (*OrderDetail, error)

	// PeriodOrders returns net and paid of the orders created in [from, to] whose
	// status is not cancelled (see IsCancelled).
	PeriodOrders(ctx context.Context, module catalog.Module, from, to time.Time) ([]OrderAmounts, error)

	// WarehouseProducts lists the products stocked in, or moved through, a warehouse.
	WarehouseProducts(ctx context.Context, warehouseID id.ID) ([]ProductRef, error)
}
