package dto

import (
	"ayanna/internal/domain/catalog"
)

// UpdateEnterpriseRequest replaces the editable fields of an enterprise.
type UpdateEnterpriseRequest struct {
	Name     string `json:"name" binding:"required,max=255"`
	Address  string `json:"address" binding:"max=500"`
	Phone    string `json:"phone" binding:"max=32"`
	Email    string `json:"email" binding:"omitempty,email"`
	RCCM     string `json:"rccm" binding:"max=64"`
	IDNat    string `json:"idNat" binding:"max=64"`
	Currency string `json:"currency" binding:"required,oneof=USD FC"`
}

// Apply copies the request onto e.
func (r UpdateEnterpriseRequest) Apply(e *catalog.Enterprise) {
	e.Name = r.Name
	e.Address = r.Address
	e.Phone = r.Phone
	e.Email = r.Email
	e.RCCM = r.RCCM
	e.IDNat = r.IDNat
	e.Currency = catalog.Currency(r.Currency)
}

// EnterpriseResponse is an enterprise with its currency symbol.
type EnterpriseResponse struct {
	*catalog.Enterprise
	CurrencySymbol string `json:"currencySymbol"`
}

// FromEnterprise creates EnterpriseResponse from catalog.Enterprise.
func FromEnterprise(e *catalog.Enterprise) EnterpriseResponse {
	return EnterpriseResponse{Enterprise: e, CurrencySymbol: e.Currency.Symbol()}
}
