package dto

import (
	"github.com/shopspring/decimal"

	"ayanna/internal/domain/purchase"
)

// PurchaseLineRequest is one product received.
type PurchaseLineRequest struct {
	ProductID string          `json:"productId" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"decimal_positive"`
	UnitCost  decimal.Decimal `json:"unitCost"`
}

// ReceivePurchaseRequest is a supplier delivery into the warehouse of a POS.
type ReceivePurchaseRequest struct {
	POSID     string                `json:"posId" binding:"required"`
	Reference string                `json:"reference" binding:"required,max=255"`
	Lines     []PurchaseLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ToInput converts the request to the service input.
func (r ReceivePurchaseRequest) ToInput() (purchase.ReceiveInput, error) {
	posID, err := ParseID("posId", r.POSID)
	if err != nil {
		return purchase.ReceiveInput{}, err
	}
	in := purchase.ReceiveInput{
		POSID:     posID,
		Reference: r.Reference,
		Lines:     make([]purchase.Line, 0, len(r.Lines)),
	}
	for _, l := range r.Lines {
		productID, err := ParseID("productId", l.ProductID)
		if err != nil {
			return purchase.ReceiveInput{}, err
		}
		in.Lines = append(in.Lines, purchase.Line{
			ProductID: productID,
			Quantity:  l.Quantity,
			UnitCost:  l.UnitCost,
		})
	}
	return in, nil
}
