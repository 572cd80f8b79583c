// Package accounting provides the chart-of-accounts registry and the
// per-POS posting configuration.
package accounting

import (
	"context"
	"strings"

	"ayanna/internal/core/apperror"
	"ayanna/internal/core/entity"
	"ayanna/internal/core/id"
)

// ClassNames are the default OHADA class labels, used when a class row is created on demand.
var ClassNames = map[int]string{
	1: "Comptes de ressources durables",
	2: "Comptes d'actif immobilisé",
	3: "Comptes de stocks",
	4: "Comptes de tiers",
	5: "Comptes de trésorerie",
	6: "Comptes de charges des activités ordinaires",
	7: "Comptes de produits des activités ordinaires",
	8: "Comptes des autres charges et des autres produits",
	9: "Comptes des engagements hors bilan et comptabilité analytique",
}

// Class is an account class (1-9), unique per (code, enterprise).
type Class struct {
	entity.BaseEntity
	EnterpriseID id.ID  `db:"enterprise_id" json:"enterpriseId"`
	Code         int    `db:"code" json:"code"`
	Name         string `db:"name" json:"name"`
}

// Account is a ledger account. (Code, EnterpriseID) is unique.
type Account struct {
	entity.BaseEntity
	EnterpriseID id.ID  `db:"enterprise_id" json:"enterpriseId"`
	ClassID      id.ID  `db:"classe_id" json:"classId"`
	ClassCode    int    `db:"class_code" json:"classCode"`
	Code         string `db:"numero" json:"code"`
	Name         string `db:"nom" json:"name"`
	IsActive     bool   `db:"is_active" json:"isActive"`
}

// Validate implements entity.Validatable.
func (a *Account) Validate(_ context.Context) error {
	if id.IsNil(a.EnterpriseID) {
		return apperror.NewValidation("enterprise is required").WithDetail("field", "enterpriseId")
	}
	if strings.TrimSpace(a.Code) == "" {
		return apperror.NewValidation("account code is required").WithDetail("field", "code")
	}
	if strings.TrimSpace(a.Name) == "" {
		return apperror.NewValidation("account name is required").WithDetail("field", "name")
	}
	if a.ClassCode < 1 || a.ClassCode > 9 {
		return apperror.NewValidation("account class must be between 1 and 9").
			WithDetail("field", "class").
			WithDetail("value", a.ClassCode)
	}
	return nil
}

// Config maps a point of sale to the accounts its postings use.
// Cash, client and sales accounts are mandatory; the others are optional and a
// journal that needs a missing one is skipped.
type Config struct {
	entity.BaseEntity
	POSID                id.ID  `db:"pos_id" json:"posId"`
	EnterpriseID         id.ID  `db:"enterprise_id" json:"enterpriseId"`
	CashAccountID        id.ID  `db:"compte_caisse_id" json:"cashAccountId"`
	ClientAccountID      id.ID  `db:"compte_client_id" json:"clientAccountId"`
	SalesAccountID       id.ID  `db:"compte_vente_id" json:"salesAccountId"`
	DiscountAccountID    *id.ID `db:"compte_remise_id" json:"discountAccountId,omitempty"`
	PurchaseAccountID    *id.ID `db:"compte_achat_id" json:"purchaseAccountId,omitempty"`
	TaxAccountID         *id.ID `db:"compte_tva_id" json:"taxAccountId,omitempty"`
	StockAccountID       *id.ID `db:"compte_stock_id" json:"stockAccountId,omitempty"`
	CostOfGoodsAccountID *id.ID `db:"compte_cout_id" json:"costOfGoodsAccountId,omitempty"`
}

// AccountIDs lists every account the configuration references.
func (c *Config) AccountIDs() []id.ID {
	ids := []id.ID{c.CashAccountID, c.ClientAccountID, c.SalesAccountID}
	for _, opt := range []*id.ID{c.DiscountAccountID, c.PurchaseAccountID, c.TaxAccountID, c.StockAccountID, c.CostOfGoodsAccountID} {
		if opt != nil {
			ids = append(ids, *opt)
		}
	}
	return ids
}

// Validate implements entity.Validatable.
func (c *Config) Validate(_ context.Context) error {
	required := map[string]id.ID{
		"posId":           c.POSID,
		"cashAccountId":   c.CashAccountID,
		"clientAccountId": c.ClientAccountID,
		"salesAccountId":  c.SalesAccountID,
	}
	for field, v := range required {
		if id.IsNil(v) {
			return apperror.NewValidation(field + " is required").WithDetail("field", field)
		}
	}
	return nil
}
