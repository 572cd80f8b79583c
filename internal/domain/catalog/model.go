// Package catalog provides the reference data sales and purchases work against:
// enterprises, points of sale, products, services and clients.
package catalog

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"ayanna/internal/core/apperror"
	"ayanna/internal/core/entity"
	"ayanna/internal/core/id"
	"ayanna/internal/core/types"
)

// Module is the business line a point of sale belongs to.
type Module string

const (
	ModuleShop       Module = "shop"
	ModuleRestaurant Module = "restaurant"
	ModuleEvent      Module = "event"
)

// Valid reports whether m is a known module.
func (m Module) Valid() bool {
	switch m {
	case ModuleShop, ModuleRestaurant, ModuleEvent:
		return true
	}
	return false
}

// Modules lists every module in reporting order.
var Modules = []Module{ModuleShop, ModuleRestaurant, ModuleEvent}

// Currency is an enterprise's default currency.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyFC  Currency = "FC"
)

// CurrencySymbols maps each supported currency to its display symbol.
var CurrencySymbols = map[Currency]string{
	CurrencyUSD: "$",
	CurrencyFC:  "FC",
}

// Symbol returns the display symbol of c, or c itself when unknown.
func (c Currency) Symbol() string {
	if s, ok := CurrencySymbols[c]; ok {
		return s
	}
	return string(c)
}

// Valid reports whether c belongs to the supported set.
func (c Currency) Valid() bool {
	_, ok := CurrencySymbols[c]
	return ok
}

// Enterprise is the tenant every other record is scoped to.
type Enterprise struct {
	entity.BaseEntity
	Name     string   `db:"name" json:"name"`
	Address  string   `db:"address" json:"address,omitempty"`
	Phone    string   `db:"phone" json:"phone,omitempty"`
	Email    string   `db:"email" json:"email,omitempty"`
	RCCM     string   `db:"rccm" json:"rccm,omitempty"`
	IDNat    string   `db:"id_nat" json:"idNat,omitempty"`
	Currency Currency `db:"currency" json:"currency"`
	Logo     []byte   `db:"logo" json:"-"`
	entity.Tracked
}

// Validate implements entity.Validatable. A non-empty phone is normalized to E.164.
func (e *Enterprise) Validate(_ context.Context) error {
	if strings.TrimSpace(e.Name) == "" {
		return apperror.NewValidation("enterprise name is required").WithDetail("field", "name")
	}
	if !e.Currency.Valid() {
		return apperror.NewValidation("unsupported currency").
			WithDetail("field", "currency").
			WithDetail("value", e.Currency)
	}
	if e.Phone != "" {
		phone, err := NormalizePhone(e.Phone, DefaultPhoneRegion)
		if err != nil {
			return err
		}
		e.Phone = phone
	}
	return nil
}

// POS is a module-scoped selling point bound to one warehouse and one accounting configuration.
type POS struct {
	entity.BaseEntity
	EnterpriseID id.ID           `db:"enterprise_id" json:"enterpriseId"`
	Module       Module          `db:"module" json:"module"`
	Code         string          `db:"code" json:"code"`
	Name         string          `db:"name" json:"name"`
	WarehouseID  id.ID           `db:"warehouse_id" json:"warehouseId"`
	TaxRate      decimal.Decimal `db:"tax_rate" json:"taxRate"`
	IsActive     bool            `db:"is_active" json:"isActive"`
}

// Product is a stocked sellable item.
type Product struct {
	entity.BaseEntity
	EnterpriseID      id.ID           `db:"enterprise_id" json:"enterpriseId"`
	CategoryID        *id.ID          `db:"category_id" json:"categoryId,omitempty"`
	Name              string          `db:"name" json:"name"`
	Price             decimal.Decimal `db:"price" json:"price"`
	Cost              decimal.Decimal `db:"cost" json:"cost"`
	SalesAccountID    *id.ID          `db:"compte_vente_id" json:"salesAccountId,omitempty"`
	PurchaseAccountID *id.ID          `db:"compte_achat_id" json:"purchaseAccountId,omitempty"`
	IsActive          bool            `db:"is_active" json:"isActive"`
}

// Validate implements entity.Validatable.
func (p *Product) Validate(_ context.Context) error {
	if strings.TrimSpace(p.Name) == "" {
		return apperror.NewValidation("product name is required").WithDetail("field", "name")
	}
	if p.Price.IsNegative() || p.Cost.IsNegative() {
		return apperror.NewValidation("product price and cost cannot be negative").WithDetail("field", "price")
	}
	return nil
}

// ServiceItem is a sellable item that is never stocked. Services belong to the shop or
// event module.
type ServiceItem struct {
	entity.BaseEntity
	EnterpriseID   id.ID           `db:"enterprise_id" json:"enterpriseId"`
	Module         Module          `db:"module" json:"module"`
	Name           string          `db:"name" json:"name"`
	Price          decimal.Decimal `db:"price" json:"price"`
	SalesAccountID *id.ID          `db:"compte_vente_id" json:"salesAccountId,omitempty"`
	IsActive       bool            `db:"is_active" json:"isActive"`
}

// Client is a customer. Carts may have none.
type Client struct {
	entity.BaseEntity
	EnterpriseID id.ID  `db:"enterprise_id" json:"enterpriseId"`
	Name         string `db:"name" json:"name"`
	Phone        string `db:"phone" json:"phone,omitempty"`
	Email        string `db:"email" json:"email,omitempty"`
	entity.Tracked
}

// Validate implements entity.Validatable. A non-empty phone is normalized to E.164.
func (c *Client) Validate(_ context.Context) error {
	if id.IsNil(c.EnterpriseID) {
		return apperror.NewValidation("enterprise is required").WithDetail("field", "enterpriseId")
	}
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewValidation("client name is required").WithDetail("field", "name")
	}
	if c.Phone != "" {
		phone, err := NormalizePhone(c.Phone, DefaultPhoneRegion)
		if err != nil {
			return err
		}
		c.Phone = phone
	}
	return nil
}

// FormatAmount renders an amount with the currency symbol, rounded half-even.
func FormatAmount(amount decimal.Decimal, c Currency) string {
	return types.RoundAmount(amount).StringFixed(types.AmountPlaces) + " " + c.Symbol()
}
