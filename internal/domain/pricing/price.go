// Package pricing computes cart totals and ventilates amounts over accounts.
// Everything here is pure: no I/O, no clock.
package pricing

import (
	"github.com/shopspring/decimal"

	"ayanna/internal/core/apperror"
	"ayanna/internal/core/types"
)

// Line is a priced quantity.
type Line struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// Total returns quantity × unit price.
func (l Line) Total() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

// Breakdown is the result of Price. TTCPreDiscount is the amount stored on cart
// and reservation headers; Net is what the client owes.
type Breakdown struct {
	SubtotalHT      decimal.Decimal `json:"subtotalHt"`
	TaxRate         decimal.Decimal `json:"taxRate"`
	Tax             decimal.Decimal `json:"tax"`
	TTCPreDiscount  decimal.Decimal `json:"ttcPreDiscount"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	DiscountAmount  decimal.Decimal `json:"discountAmount"`
	Net             decimal.Decimal `json:"net"`
}

// Price runs the fixed pipeline HT → TVA → TTC → discount → net.
// Tax and discount are rounded half-even to cents; TTC and net are exact sums of
// rounded parts, so ttc = ht + tax and net = ttc − discount hold to the cent.
func Price(lines []Line, taxRate, discountPercent decimal.Decimal) (Breakdown, error) {
	if taxRate.IsNegative() {
		return Breakdown{}, apperror.NewValidation("tax rate cannot be negative").WithDetail("field", "taxRate")
	}
	if !types.IsValidPercent(discountPercent) {
		return Breakdown{}, apperror.NewValidation("discount percent must be between 0 and 100").
			WithDetail("field", "discountPercent").
			WithDetail("value", discountPercent.String())
	}

	subtotal := decimal.Zero
	for i, l := range lines {
		if !l.Quantity.IsPositive() {
			return Breakdown{}, apperror.NewValidation("line quantity must be positive").WithDetail("line", i)
		}
		if l.UnitPrice.IsNegative() {
			return Breakdown{}, apperror.NewValidation("line unit price cannot be negative").WithDetail("line", i)
		}
		subtotal = subtotal.Add(l.Total())
	}
	subtotal = types.RoundAmount(subtotal)

	tax := types.RoundAmount(types.PercentOf(subtotal, taxRate))
	ttc := subtotal.Add(tax)
	discount := types.RoundAmount(types.PercentOf(ttc, discountPercent))

	return Breakdown{
		SubtotalHT:      subtotal,
		TaxRate:         taxRate,
		Tax:             tax,
		TTCPreDiscount:  ttc,
		DiscountPercent: discountPercent,
		DiscountAmount:  discount,
		Net:             ttc.Sub(discount),
	}, nil
}
