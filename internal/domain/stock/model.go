// Package stock provides the stock ledger: warehouses, per-(product, warehouse)
// quantities and the immutable movement journal that changes them.
package stock

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"ayanna/internal/core/apperror"
	"ayanna/internal/core/entity"
	"ayanna/internal/core/id"
)

// Kind is the type of a stock movement.
type Kind string

const (
	KindEntry      Kind = "ENTRY"
	KindExit       Kind = "EXIT"
	KindTransfer   Kind = "TRANSFER"
	KindAdjustment Kind = "ADJUSTMENT"
)

// Valid reports whether k is a known movement kind.
func (k Kind) Valid() bool {
	switch k {
	case KindEntry, KindExit, KindTransfer, KindAdjustment:
		return true
	}
	return false
}

// Distinguished warehouse codes.
const (
	WarehouseShop       = "POS_2"
	WarehouseRestaurant = "POS_4"
)

// Warehouse is a stock location. Code is unique within an enterprise.
type Warehouse struct {
	entity.BaseEntity
	EnterpriseID id.ID  `db:"enterprise_id" json:"enterpriseId"`
	Code         string `db:"code" json:"code"`
	Name         string `db:"name" json:"name"`
	IsActive     bool   `db:"is_active" json:"isActive"`
}

// Line is the quantity of a product held in a warehouse.
// Quantity is never negative after a committed session.
type Line struct {
	ProductID   id.ID           `db:"product_id" json:"productId"`
	WarehouseID id.ID           `db:"warehouse_id" json:"warehouseId"`
	Quantity    decimal.Decimal `db:"quantity" json:"quantity"`
	UnitCost    decimal.Decimal `db:"unit_cost" json:"unitCost"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updatedAt"`
}

// Movement is an immutable stock movement row. Corrections are new inverse movements.
// Quantity is positive for every kind except ADJUSTMENT, where its sign is the direction.
type Movement struct {
	entity.BaseEntity
	Kind                   Kind            `db:"movement_type" json:"kind"`
	ProductID              id.ID           `db:"product_id" json:"productId"`
	WarehouseID            id.ID           `db:"warehouse_id" json:"warehouseId"`
	DestinationWarehouseID *id.ID          `db:"destination_warehouse_id" json:"destinationWarehouseId,omitempty"`
	Quantity               decimal.Decimal `db:"quantity" json:"quantity"`
	UnitCost               decimal.Decimal `db:"unit_cost" json:"unitCost"`
	TotalCost              decimal.Decimal `db:"total_cost" json:"totalCost"`
	Reference              string          `db:"reference" json:"reference"`
	MovementDate           time.Time       `db:"movement_date" json:"movementDate"`
	UserID                 *id.ID          `db:"user_id" json:"userId,omitempty"`
	CreatedAt              time.Time       `db:"created_at" json:"createdAt"`
}

// MovementInput is the request to apply one movement.
type MovementInput struct {
	Kind                   Kind
	ProductID              id.ID
	WarehouseID            id.ID
	DestinationWarehouseID *id.ID
	Quantity               decimal.Decimal
	UnitCost               decimal.Decimal
	Reference              string
	When                   time.Time
}

// Validate implements entity.Validatable.
func (in *MovementInput) Validate(_ context.Context) error {
	if !in.Kind.Valid() {
		return apperror.NewValidation("unknown movement kind").WithDetail("kind", in.Kind)
	}
	if id.IsNil(in.ProductID) {
		return apperror.NewValidation("product is required").WithDetail("field", "productId")
	}
	if id.IsNil(in.WarehouseID) {
		return apperror.NewValidation("source warehouse is required").WithDetail("field", "warehouseId")
	}
	if in.UnitCost.IsNegative() {
		return apperror.NewValidation("unit cost cannot be negative").WithDetail("field", "unitCost")
	}

	switch in.Kind {
	case KindTransfer:
		if in.DestinationWarehouseID == nil || id.IsNil(*in.DestinationWarehouseID) {
			return apperror.NewValidation("transfer requires a destination warehouse").
				WithDetail("field", "destinationWarehouseId")
		}
		if *in.DestinationWarehouseID == in.WarehouseID {
			return apperror.NewValidation("transfer source and destination must differ").
				WithDetail("field", "destinationWarehouseId")
		}
	default:
		if in.DestinationWarehouseID != nil {
			return apperror.NewValidation("only transfers take a destination warehouse").
				WithDetail("field", "destinationWarehouseId")
		}
	}

	if in.Kind == KindAdjustment {
		if in.Quantity.IsZero() {
			return apperror.NewValidation("adjustment quantity cannot be zero").WithDetail("field", "quantity")
		}
	} else if !in.Quantity.IsPositive() {
		return apperror.NewValidation("quantity must be positive").WithDetail("field", "quantity")
	}
	return nil
}

// Requirement is a quantity of a product that must be available in a warehouse.
type Requirement struct {
	ProductID id.ID
	Quantity  decimal.Decimal
}

// PurchaseSummary splits incoming quantities over a period.
type PurchaseSummary struct {
	Purchases decimal.Decimal `json:"purchases"`
	Transfers decimal.Decimal `json:"transfers"`
}

// Total returns purchases plus transfers.
func (p PurchaseSummary) Total() decimal.Decimal {
	return p.Purchases.Add(p.Transfers)
}
