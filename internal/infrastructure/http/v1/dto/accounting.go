package dto

import (
	"ayanna/internal/domain/accounting"
)

// ListAccountsQuery filters the chart of accounts.
type ListAccountsQuery struct {
	EnterpriseID string `form:"enterpriseId" binding:"required"`
	Class        *int   `form:"class" binding:"omitempty,min=1,max=9"`
}

// CreateAccountRequest registers an account under a class.
type CreateAccountRequest struct {
	EnterpriseID string `json:"enterpriseId" binding:"required"`
	Code         string `json:"code" binding:"required,max=32"`
	Name         string `json:"name" binding:"required,max=255"`
	Class        int    `json:"class" binding:"required,min=1,max=9"`
}

// ToInput converts the request to the service input.
func (r CreateAccountRequest) ToInput() (accounting.UpsertAccountInput, error) {
	enterpriseID, err := ParseID("enterpriseId", r.EnterpriseID)
	if err != nil {
		return accounting.UpsertAccountInput{}, err
	}
	return accounting.UpsertAccountInput{
		EnterpriseID: enterpriseID,
		Code:         r.Code,
		Name:         r.Name,
		Class:        r.Class,
	}, nil
}

// AccountingConfigRequest sets the accounts a point of sale posts to.
type AccountingConfigRequest struct {
	EnterpriseID         string  `json:"enterpriseId" binding:"required"`
	CashAccountID        string  `json:"cashAccountId" binding:"required"`
	ClientAccountID      string  `json:"clientAccountId" binding:"required"`
	SalesAccountID       string  `json:"salesAccountId" binding:"required"`
	DiscountAccountID    *string `json:"discountAccountId"`
	PurchaseAccountID    *string `json:"purchaseAccountId"`
	TaxAccountID         *string `json:"taxAccountId"`
	StockAccountID       *string `json:"stockAccountId"`
	CostOfGoodsAccountID *string `json:"costOfGoodsAccountId"`
}

// ToConfig converts the request into the configuration of a point of sale.
func (r AccountingConfigRequest) ToConfig(cfg *accounting.Config) error {
	var err error
	if cfg.EnterpriseID, err = ParseID("enterpriseId", r.EnterpriseID); err != nil {
		return err
	}
	if cfg.CashAccountID, err = ParseID("cashAccountId", r.CashAccountID); err != nil {
		return err
	}
	if cfg.ClientAccountID, err = ParseID("clientAccountId", r.ClientAccountID); err != nil {
		return err
	}
	if cfg.SalesAccountID, err = ParseID("salesAccountId", r.SalesAccountID); err != nil {
		return err
	}
	if cfg.DiscountAccountID, err = ParseOptionalID("discountAccountId", r.DiscountAccountID); err != nil {
		return err
	}
	if cfg.PurchaseAccountID, err = ParseOptionalID("purchaseAccountId", r.PurchaseAccountID); err != nil {
		return err
	}
	if cfg.TaxAccountID, err = ParseOptionalID("taxAccountId", r.TaxAccountID); err != nil {
		return err
	}
	if cfg.StockAccountID, err = ParseOptionalID("stockAccountId", r.StockAccountID); err != nil {
		return err
	}
	cfg.CostOfGoodsAccountID, err = ParseOptionalID("costOfGoodsAccountId", r.CostOfGoodsAccountID)
	return err
}
