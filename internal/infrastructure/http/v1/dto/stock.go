package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"ayanna/internal/domain/stock"
)

// MovementRequest books a stock movement. Quantity is signed for adjustments only.
type MovementRequest struct {
	Kind                   string          `json:"kind" binding:"required,oneof=ENTRY EXIT TRANSFER ADJUSTMENT"`
	ProductID              string          `json:"productId" binding:"required"`
	WarehouseID            string          `json:"warehouseId" binding:"required"`
	DestinationWarehouseID *string         `json:"destinationWarehouseId"`
	Quantity               decimal.Decimal `json:"quantity"`
	UnitCost               decimal.Decimal `json:"unitCost"`
	Reference              string          `json:"reference" binding:"max=255"`
	When                   *time.Time      `json:"when"`
}

// ToInput converts the request to the service input.
func (r MovementRequest) ToInput() (stock.MovementInput, error) {
	in := stock.MovementInput{
		Kind:      stock.Kind(r.Kind),
		Quantity:  r.Quantity,
		UnitCost:  r.UnitCost,
		Reference: r.Reference,
	}
	var err error
	if in.ProductID, err = ParseID("productId", r.ProductID); err != nil {
		return in, err
	}
	if in.WarehouseID, err = ParseID("warehouseId", r.WarehouseID); err != nil {
		return in, err
	}
	if in.DestinationWarehouseID, err = ParseOptionalID("destinationWarehouseId", r.DestinationWarehouseID); err != nil {
		return in, err
	}
	if r.When != nil {
		in.When = r.When.UTC()
	}
	return in, nil
}

// StockLinesQuery selects the warehouse whose lines are listed.
type StockLinesQuery struct {
	WarehouseID string `form:"warehouseId" binding:"required"`
	ProductID   string `form:"productId"`
}
