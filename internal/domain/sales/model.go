// Package sales provides the cart and reservation lifecycle: composing a cart,
// finalizing it into stock exits and journals, accepting payments and cancelling.
//
// Shop carts, restaurant carts and event reservations share one state machine:
//
//	draft ──add/remove/price── draft
//	draft ──finalize──► validated
//	draft ──cancel──► cancelled
//	validated ──accept_payment──► validated
//	validated ──cancel──► cancelled (reversal)
package sales

import (
	"time"

	"github.com/shopspring/decimal"

	"ayanna/internal/core/entity"
	"ayanna/internal/core/id"
	"ayanna/internal/domain/catalog"
	"ayanna/internal/domain/pricing"
	"ayanna/internal/domain/stock"
)

// Status is the lifecycle state of a cart.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusValidated Status = "validated"
	StatusCancelled Status = "cancelled"
)

// LineKind tells what a line sells.
type LineKind string

const (
	LineProduct LineKind = "product"
	LineService LineKind = "service"
)

// Valid reports whether k is a known line kind.
func (k LineKind) Valid() bool {
	return k == LineProduct || k == LineService
}

// DefaultPaymentMethod is used when finalize does not name one.
const DefaultPaymentMethod = "cash"

// Cart is a shop or restaurant cart, or an event reservation.
//
// TotalFinal stores the tax-inclusive amount before discount for every module so a
// payment can be expressed as an exact share of the whole. The client owes Net.
type Cart struct {
	entity.BaseEntity
	Module          catalog.Module  `db:"-" json:"module"`
	POSID           id.ID           `db:"pos_id" json:"posId"`
	EnterpriseID    id.ID           `db:"enterprise_id" json:"enterpriseId"`
	ClientID        *id.ID          `db:"client_id" json:"clientId,omitempty"`
	Number          string          `db:"number" json:"number"`
	Status          Status          `db:"status" json:"status"`
	PaymentMethod   string          `db:"payment_method" json:"paymentMethod,omitempty"`
	Subtotal        decimal.Decimal `db:"subtotal" json:"subtotal"`
	TaxRate         decimal.Decimal `db:"tax_rate" json:"taxRate"`
	TaxAmount       decimal.Decimal `db:"tax_amount" json:"taxAmount"`
	DiscountPercent decimal.Decimal `db:"discount_percent" json:"discountPercent"`
	DiscountAmount  decimal.Decimal `db:"remise_amount" json:"discountAmount"`
	TotalFinal      decimal.Decimal `db:"total_final" json:"totalFinal"`

	// Restaurant
	TableID  *id.ID `db:"table_id" json:"tableId,omitempty"`
	ServerID *id.ID `db:"server_id" json:"serverId,omitempty"`

	// Events
	EventDate *time.Time `db:"event_date" json:"eventDate,omitempty"`
	Guests    int        `db:"guest_count" json:"guests,omitempty"`
	EventType string     `db:"event_type" json:"eventType,omitempty"`

	entity.Tracked

	Lines    []Line    `db:"-" json:"lines"`
	Payments []Payment `db:"-" json:"payments"`
}

// Line is one product or service on a cart.
type Line struct {
	ID        id.ID           `db:"id" json:"id"`
	CartID    id.ID           `db:"cart_id" json:"cartId"`
	Kind      LineKind        `db:"kind" json:"kind"`
	ItemID    id.ID           `db:"item_id" json:"itemId"`
	Quantity  decimal.Decimal `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"price_unit" json:"unitPrice"`
	Total     decimal.Decimal `db:"total_price" json:"total"`
	LineNo    int             `db:"line_no" json:"lineNo"`
}

// Payment is an amount received against a validated cart. Cancelling the cart zeroes
// Amount and keeps the row.
type Payment struct {
	ID     id.ID           `db:"id" json:"id"`
	CartID id.ID           `db:"cart_id" json:"cartId"`
	Amount decimal.Decimal `db:"amount" json:"amount"`
	Method string          `db:"payment_method" json:"method"`
	Date   time.Time       `db:"payment_date" json:"date"`
	UserID *id.ID          `db:"user_id" json:"userId,omitempty"`
}

// Net is what the client owes: TTC before discount minus the discount.
func (c *Cart) Net() decimal.Decimal {
	return c.TotalFinal.Sub(c.DiscountAmount)
}

// Paid sums the payments received.
func (c *Cart) Paid() decimal.Decimal {
	total := decimal.Zero
	for _, p := range c.Payments {
		total = total.Add(p.Amount)
	}
	return total
}

// Remaining is the amount still due.
func (c *Cart) Remaining() decimal.Decimal {
	return c.Net().Sub(c.Paid())
}

// Reference is the string stock movements and journals of this cart carry.
func (c *Cart) Reference() string {
	return Reference(c.ID)
}

// Reference formats the movement and journal reference of a cart.
func Reference(cartID id.ID) string {
	return stock.SaleReferencePrefix + cartID.String()
}

// CancelReference formats the reference of the movements restoring a cancelled cart.
func CancelReference(cartID id.ID) string {
	return stock.CancelReferencePrefix + Reference(cartID)
}

// Breakdown returns the priced totals stored on the header.
func (c *Cart) Breakdown() pricing.Breakdown {
	return pricing.Breakdown{
		SubtotalHT:      c.Subtotal,
		TaxRate:         c.TaxRate,
		Tax:             c.TaxAmount,
		TTCPreDiscount:  c.TotalFinal,
		DiscountPercent: c.DiscountPercent,
		DiscountAmount:  c.DiscountAmount,
		Net:             c.Net(),
	}
}

func (c *Cart) pricingLines() []pricing.Line {
	out := make([]pricing.Line, len(c.Lines))
	for i, l := range c.Lines {
		out[i] = pricing.Line{Quantity: l.Quantity, UnitPrice: l.UnitPrice}
	}
	return out
}

func (c *Cart) applyBreakdown(b pricing.Breakdown) {
	c.Subtotal = b.SubtotalHT
	c.TaxRate = b.TaxRate
	c.TaxAmount = b.Tax
	c.DiscountPercent = b.DiscountPercent
	c.DiscountAmount = b.DiscountAmount
	c.TotalFinal = b.TTCPreDiscount
}

func (c *Cart) nextLineNo() int {
	n := 0
	for _, l := range c.Lines {
		if l.LineNo > n {
			n = l.LineNo
		}
	}
	return n + 1
}
