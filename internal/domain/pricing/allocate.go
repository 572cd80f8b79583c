package pricing

import (
	"github.com/shopspring/decimal"

	"ayanna/internal/core/apperror"
	"ayanna/internal/core/id"
	"ayanna/internal/core/types"
)

// Share is the brut amount a line contributes to an account.
type Share struct {
	AccountID id.ID
	Brut      decimal.Decimal
}

// Allocation is the part of a ventilated amount credited to one account.
type Allocation struct {
	AccountID id.ID           `json:"accountId"`
	Brut      decimal.Decimal `json:"brut"`
	Amount    decimal.Decimal `json:"amount"`
}

// AllocateByAccount splits amount over the accounts of shares in proportion to their
// brut. Shares on the same account collapse into one allocation, kept in order of first
// appearance. Each part is rounded half-even to cents and the cumulative rounding
// residual goes to the largest group (the first one on ties), so the parts add up to
// amount exactly.
func AllocateByAccount(shares []Share, amount, totalBrut decimal.Decimal) ([]Allocation, error) {
	if !totalBrut.IsPositive() {
		return nil, apperror.NewValidation("total brut must be positive").WithDetail("totalBrut", totalBrut.String())
	}

	groups := make([]Allocation, 0, len(shares))
	index := make(map[id.ID]int, len(shares))
	for _, s := range shares {
		if s.Brut.IsNegative() {
			return nil, apperror.NewValidation("brut amount cannot be negative").WithDetail("accountId", s.AccountID)
		}
		i, ok := index[s.AccountID]
		if !ok {
			i = len(groups)
			index[s.AccountID] = i
			groups = append(groups, Allocation{AccountID: s.AccountID, Brut: decimal.Zero})
		}
		groups[i].Brut = groups[i].Brut.Add(s.Brut)
	}
	if len(groups) == 0 {
		return nil, apperror.NewValidation("nothing to allocate on")
	}

	allocated := decimal.Zero
	largest := 0
	for i := range groups {
		groups[i].Amount = types.RoundAmount(amount.Mul(groups[i].Brut).Div(totalBrut))
		allocated = allocated.Add(groups[i].Amount)
		if groups[i].Brut.GreaterThan(groups[largest].Brut) {
			largest = i
		}
	}
	groups[largest].Amount = groups[largest].Amount.Add(amount.Sub(allocated))

	return groups, nil
}

// AllocatePayment ventilates one payment over the accounts of a sale.
//
// The split is computed on cumulative amounts: allocation(paidBefore + payment) minus
// allocation(paidBefore). Every payment's parts add up to the payment exactly, and once
// the whole net is paid the per-account totals equal AllocateByAccount(shares, net, total).
func AllocatePayment(shares []Share, totalBrut, paidBefore, payment decimal.Decimal) ([]Allocation, error) {
	if !payment.IsPositive() {
		return nil, apperror.NewValidation("payment must be positive").WithDetail("field", "amount")
	}
	after, err := AllocateByAccount(shares, paidBefore.Add(payment), totalBrut)
	if err != nil {
		return nil, err
	}
	if !paidBefore.IsPositive() {
		return after, nil
	}
	before, err := AllocateByAccount(shares, paidBefore, totalBrut)
	if err != nil {
		return nil, err
	}
	for i := range after {
		after[i].Amount = after[i].Amount.Sub(before[i].Amount)
	}
	return after, nil
}
