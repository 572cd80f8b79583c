package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"ayanna/internal/domain/catalog"
	"ayanna/internal/domain/sales"
)

// CreateCartRequest opens a shop cart, a restaurant cart or an event reservation.
type CreateCartRequest struct {
	Module    string           `json:"module" binding:"required,oneof=shop restaurant event"`
	POSID     string           `json:"posId" binding:"required"`
	ClientID  *string          `json:"clientId"`
	TableID   *string          `json:"tableId"`
	ServerID  *string          `json:"serverId"`
	EventDate *time.Time       `json:"eventDate"`
	Guests    int              `json:"guests" binding:"min=0"`
	EventType string           `json:"eventType"`
	TaxRate   *decimal.Decimal `json:"taxRate" binding:"omitempty,percent"`
}

// ToInput converts the request to the service input.
func (r CreateCartRequest) ToInput() (sales.CreateInput, error) {
	posID, err := ParseID("posId", r.POSID)
	if err != nil {
		return sales.CreateInput{}, err
	}
	in := sales.CreateInput{
		Module:    catalog.Module(r.Module),
		POSID:     posID,
		EventDate: r.EventDate,
		Guests:    r.Guests,
		EventType: r.EventType,
		TaxRate:   r.TaxRate,
	}
	if in.ClientID, err = ParseOptionalID("clientId", r.ClientID); err != nil {
		return sales.CreateInput{}, err
	}
	if in.TableID, err = ParseOptionalID("tableId", r.TableID); err != nil {
		return sales.CreateInput{}, err
	}
	if in.ServerID, err = ParseOptionalID("serverId", r.ServerID); err != nil {
		return sales.CreateInput{}, err
	}
	return in, nil
}

// AddLineRequest appends a product or service line. Without unitPrice the catalog
// price applies.
type AddLineRequest struct {
	Kind      string           `json:"kind" binding:"required,oneof=product service"`
	ItemID    string           `json:"itemId" binding:"required"`
	Quantity  decimal.Decimal  `json:"quantity" binding:"decimal_positive"`
	UnitPrice *decimal.Decimal `json:"unitPrice"`
}

// ToInput converts the request to the service input.
func (r AddLineRequest) ToInput() (sales.AddLineInput, error) {
	itemID, err := ParseID("itemId", r.ItemID)
	if err != nil {
		return sales.AddLineInput{}, err
	}
	return sales.AddLineInput{
		Kind:      sales.LineKind(r.Kind),
		ItemID:    itemID,
		Quantity:  r.Quantity,
		UnitPrice: r.UnitPrice,
	}, nil
}

// DiscountRequest sets the discount percentage of a draft.
type DiscountRequest struct {
	Percent decimal.Decimal `json:"percent" binding:"percent"`
}

// TaxRateRequest sets the tax rate of a draft reservation.
type TaxRateRequest struct {
	Rate decimal.Decimal `json:"rate" binding:"percent"`
}

// FinalizeRequest validates a draft, optionally taking a first payment.
type FinalizeRequest struct {
	PaymentMethod  string          `json:"paymentMethod"`
	InitialPayment decimal.Decimal `json:"initialPayment"`
}

// ToInput converts the request to the service input.
func (r FinalizeRequest) ToInput() sales.FinalizeInput {
	return sales.FinalizeInput{PaymentMethod: r.PaymentMethod, InitialPayment: r.InitialPayment}
}

// PaymentRequest records a payment against a validated cart.
type PaymentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"decimal_positive"`
	Method string          `json:"method"`
}

// ToInput converts the request to the service input.
func (r PaymentRequest) ToInput() sales.PaymentInput {
	return sales.PaymentInput{Amount: r.Amount, Method: r.Method}
}

// CartResponse is a cart with its derived amounts.
type CartResponse struct {
	*sales.Cart
	Net       decimal.Decimal `json:"net"`
	Paid      decimal.Decimal `json:"paid"`
	Remaining decimal.Decimal `json:"remaining"`
}

// FromCart creates CartResponse from sales.Cart.
func FromCart(c *sales.Cart) CartResponse {
	return CartResponse{
		Cart:      c,
		Net:       c.Net(),
		Paid:      c.Paid(),
		Remaining: c.Remaining(),
	}
}
