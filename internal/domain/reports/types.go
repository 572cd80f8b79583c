// Package reports provides the read queries behind order lists, order detail,
// period financials and the products summary.
package reports

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ayanna/internal/core/id"
	"ayanna/internal/domain/catalog"
)

// CancelledStatuses are the status values, compared case-insensitively, that take an
// order out of financial totals. Legacy rows carry the French spellings.
var CancelledStatuses = []string{"cancelled", "annule", "annulé"}

// IsCancelled reports whether status is one of CancelledStatuses.
func IsCancelled(status string) bool {
	s := strings.ToLower(strings.TrimSpace(status))
	for _, c := range CancelledStatuses {
		if s == c {
			return true
		}
	}
	return false
}

// --- Orders ---

// OrderFilter narrows ListOrders. Zero values disable a criterion; an empty Module
// lists every module.
type OrderFilter struct {
	From   time.Time
	To     time.Time
	Search string
	Method string
	Module catalog.Module
	Limit  int
}

// Order is one row of the order list.
type Order struct {
	ID           id.ID           `db:"id" json:"id"`
	Module       catalog.Module  `db:"module" json:"module"`
	Number       string          `db:"number" json:"number"`
	POSID        id.ID           `db:"pos_id" json:"posId"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
	ClientName   string          `db:"client_name" json:"clientName"`
	Subtotal     decimal.Decimal `db:"subtotal" json:"subtotal"`
	TaxAmount    decimal.Decimal `db:"tax_amount" json:"taxAmount"`
	Discount     decimal.Decimal `db:"remise_amount" json:"discount"`
	TotalFinal   decimal.Decimal `db:"total_final" json:"totalFinal"`
	Method       string          `db:"payment_method" json:"method"`
	Status       string          `db:"status" json:"status"`
	ItemsSummary string          `db:"items_summary" json:"itemsSummary"`
	QtyTotal     decimal.Decimal `db:"qty_total" json:"qtyTotal"`
	AmountPaid   decimal.Decimal `db:"amount_paid" json:"amountPaid"`
}

// Net is the amount the client owes.
func (o Order) Net() decimal.Decimal {
	return o.TotalFinal.Sub(o.Discount)
}

// OrderLine is a line of OrderDetail with the item name resolved.
type OrderLine struct {
	Kind      string          `db:"kind" json:"kind"`
	ItemID    id.ID           `db:"item_id" json:"itemId"`
	Name      string          `db:"name" json:"name"`
	Quantity  decimal.Decimal `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"price_unit" json:"unitPrice"`
	Total     decimal.Decimal `db:"total_price" json:"total"`
}

// OrderPayment is a payment of OrderDetail.
type OrderPayment struct {
	ID     id.ID           `db:"id" json:"id"`
	Amount decimal.Decimal `db:"amount" json:"amount"`
	Method string          `db:"payment_method" json:"method"`
	Date   time.Time       `db:"payment_date" json:"date"`
}

// OrderDetail is an order with its lines and payments.
type OrderDetail struct {
	Order
	Net      decimal.Decimal `json:"net"`
	Lines    []OrderLine     `json:"lines"`
	Payments []OrderPayment  `json:"payments"`
}

// --- Financials ---

// OrderAmounts is what PeriodFinancials aggregates per order.
type OrderAmounts struct {
	ID   id.ID           `db:"id"`
	Net  decimal.Decimal `db:"net"`
	Paid decimal.Decimal `db:"paid"`
}

// Financials summarizes the orders of a period.
type Financials struct {
	From        time.Time       `json:"from"`
	To          time.Time       `json:"to"`
	CA          decimal.Decimal `json:"ca"`
	Paid        decimal.Decimal `json:"paid"`
	Unpaid      decimal.Decimal `json:"unpaid"`
	Receivables int             `json:"receivables"`
	Orders      int             `json:"nOrders"`
	AvgBasket   decimal.Decimal `json:"avgBasket"`
}

// --- Products ---

// ProductsFilter selects the POS whose warehouse and sales are summarized.
type ProductsFilter struct {
	POSID id.ID
	From  time.Time
	To    time.Time
}

// ProductRef is a product of the summary with its sale price.
type ProductRef struct {
	ID    id.ID           `db:"id"`
	Name  string          `db:"name"`
	Price decimal.Decimal `db:"price"`
}

// ProductRow is one product of the products summary.
type ProductRow struct {
	ProductID id.ID           `json:"productId"`
	Name      string          `json:"name"`
	Initial   decimal.Decimal `json:"initial"`
	Added     decimal.Decimal `json:"added"`
	Purchases decimal.Decimal `json:"purchases"`
	Sold      decimal.Decimal `json:"sold"`
	Remaining decimal.Decimal `json:"remaining"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Total     decimal.Decimal `json:"total"`
}
