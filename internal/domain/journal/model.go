// Package journal provides the double-entry journal engine.
// Journals are append-only: a correction is a new journal mirroring the original.
package journal

import (
	"time"

	"github.com/shopspring/decimal"

	"ayanna/internal/core/entity"
	"ayanna/internal/core/id"
)

// Kind is the operation type of a journal.
type Kind string

const (
	KindSale     Kind = "sale"
	KindPayment  Kind = "payment"
	KindStock    Kind = "stock"
	KindDiscount Kind = "discount"
	KindCancel   Kind = "cancel"
	KindPurchase Kind = "purchase"
)

// Journal is a journal header with its ordered lines.
type Journal struct {
	entity.BaseEntity
	Date         time.Time       `db:"date_operation" json:"date"`
	Label        string          `db:"libelle" json:"label"`
	Amount       decimal.Decimal `db:"montant" json:"amount"`
	Kind         Kind            `db:"type_operation" json:"kind"`
	Reference    string          `db:"reference" json:"reference"`
	Description  string          `db:"description" json:"description,omitempty"`
	EnterpriseID id.ID           `db:"enterprise_id" json:"enterpriseId"`
	POSID        *id.ID          `db:"pos_id" json:"posId,omitempty"`
	ReversalOf   *id.ID          `db:"reversal_of" json:"reversalOf,omitempty"`
	entity.Tracked

	Lines []Line `db:"-" json:"lines"`
}

// Line is one debit or credit of a journal. Exactly one of Debit and Credit is positive.
type Line struct {
	ID        id.ID           `db:"id" json:"id"`
	JournalID id.ID           `db:"journal_id" json:"journalId"`
	AccountID id.ID           `db:"compte_comptable_id" json:"accountId"`
	Debit     decimal.Decimal `db:"debit" json:"debit"`
	Credit    decimal.Decimal `db:"credit" json:"credit"`
	Ordinal   int             `db:"ordre" json:"ordinal"`
	Label     string          `db:"libelle" json:"label"`
}

// LineInput is a line to post; its ordinal is its position in the entry.
type LineInput struct {
	AccountID id.ID
	Debit     decimal.Decimal
	Credit    decimal.Decimal
	Label     string
}

// Debit builds a debit line.
func Debit(account id.ID, amount decimal.Decimal, label string) LineInput {
	return LineInput{AccountID: account, Debit: amount, Credit: decimal.Zero, Label: label}
}

// Credit builds a credit line.
func Credit(account id.ID, amount decimal.Decimal, label string) LineInput {
	return LineInput{AccountID: account, Debit: decimal.Zero, Credit: amount, Label: label}
}

// Entry is everything Post needs to emit a journal.
type Entry struct {
	Kind         Kind
	Label        string
	Reference    string
	Description  string
	EnterpriseID id.ID
	POSID        *id.ID
	Date         time.Time
	Lines        []LineInput
}

// Totals returns Σdebit and Σcredit of lines.
func Totals(lines []LineInput) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, l := range lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return debit, credit
}

// AccountBalances returns debit minus credit per account over journals.
func AccountBalances(journals []Journal) map[id.ID]decimal.Decimal {
	out := make(map[id.ID]decimal.Decimal)
	for _, j := range journals {
		for _, l := range j.Lines {
			out[l.AccountID] = out[l.AccountID].Add(l.Debit).Sub(l.Credit)
		}
	}
	return out
}
