package journal_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ayanna/internal/core/apperror"
	"ayanna/internal/core/entity"
	"ayanna/internal/core/id"
	"ayanna/internal/domain/accounting"
	"ayanna/internal/domain/journal"
	"ayanna/internal/infrastructure/storage/memstore"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func setup(t *testing.T, opts ...journal.Option) (*memstore.Store, *journal.Engine, id.ID, id.ID) {
	t.Helper()
	store := memstore.New()
	cash := accounting.Account{BaseEntity: entity.NewBaseEntity(), Code: "571", ClassCode: 5, IsActive: true}
	client := accounting.Account{BaseEntity: entity.NewBaseEntity(), Code: "411", ClassCode: 4, IsActive: true}
	store.PutAccount(cash)
	store.PutAccount(client)
	return store, journal.NewEngine(store.JournalStore(), store.Accounting(), store, opts...), cash.ID, client.ID
}

func TestPost_WritesOrderedLines(t *testing.T) {
	store, engine, cash, client := setup(t)

	j, err := engine.Post(context.Background(), journal.Entry{
		Kind:      journal.KindPayment,
		Label:     "Paiement CMD-1",
		Reference: "CART-1",
		Lines: []journal.LineInput{
			journal.Debit(cash, d("100"), "Paiement CMD-1"),
			journal.Credit(client, d("100"), "Paiement CMD-1"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "100", j.Amount.String())
	assert.False(t, j.Date.IsZero())

	stored := store.Journals()
	require.Len(t, stored, 1)
	require.Len(t, stored[0].Lines, 2)
	assert.Equal(t, 1, stored[0].Lines[0].Ordinal)
	assert.Equal(t, cash, stored[0].Lines[0].AccountID)
	assert.Equal(t, 2, stored[0].Lines[1].Ordinal)
}

func TestPost_RejectsBrokenEntries(t *testing.T) {
	_, engine, cash, client := setup(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		lines []journal.LineInput
		code  string
	}{
		{
			name:  "unbalanced",
			lines: []journal.LineInput{journal.Debit(cash, d("100"), ""), journal.Credit(client, d("99.99"), "")},
			code:  apperror.CodeUnbalancedJournal,
		},
		{
			name:  "single line",
			lines: []journal.LineInput{journal.Debit(cash, d("100"), "")},
			code:  apperror.CodeUnbalancedJournal,
		},
		{
			name:  "zero amounts",
			lines: []journal.LineInput{journal.Debit(cash, decimal.Zero, ""), journal.Credit(client, decimal.Zero, "")},
			code:  apperror.CodeUnbalancedJournal,
		},
		{
			name:  "unknown account",
			lines: []journal.LineInput{journal.Debit(cash, d("5"), ""), journal.Credit(id.New(), d("5"), "")},
			code:  apperror.CodeMissingAccount,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Post(ctx, journal.Entry{Kind: journal.KindSale, Lines: tt.lines})
			assert.True(t, apperror.HasCode(err, tt.code), "%v", err)
		})
	}
}

func TestPost_StrictInvariantsPanic(t *testing.T) {
	_, engine, cash, client := setup(t, journal.WithStrictInvariants(true))

	assert.Panics(t, func() {
		_, _ = engine.Post(context.Background(), journal.Entry{
			Kind:  journal.KindSale,
			Lines: []journal.LineInput{journal.Debit(cash, d("1"), ""), journal.Credit(client, d("2"), "")},
		})
	})
}

func TestReverse_MirrorsOnce(t *testing.T) {
	store, engine, cash, client := setup(t)
	ctx := context.Background()

	j, err := engine.Post(ctx, journal.Entry{
		Kind:      journal.KindSale,
		Label:     "Vente CMD-1",
		Reference: "CART-1",
		Lines: []journal.LineInput{
			journal.Debit(client, d("40"), "Vente CMD-1"),
			journal.Credit(cash, d("40"), "Vente CMD-1"),
		},
	})
	require.NoError(t, err)

	when := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	rev, err := engine.Reverse(ctx, j.ID, when, "-REV")
	require.NoError(t, err)
	assert.Equal(t, journal.KindCancel, rev.Kind)
	assert.Equal(t, "CART-1-REV", rev.Reference)
	assert.Equal(t, "Annulation Vente CMD-1", rev.Label)
	assert.Equal(t, when, rev.Date)
	require.NotNil(t, rev.ReversalOf)
	assert.Equal(t, j.ID, *rev.ReversalOf)
	assert.True(t, rev.Lines[0].Credit.Equal(d("40")))
	assert.True(t, rev.Lines[1].Debit.Equal(d("40")))

	for _, balance := range journal.AccountBalances(store.Journals()) {
		assert.True(t, balance.IsZero())
	}

	_, err = engine.Reverse(ctx, j.ID, when, "-REV")
	assert.True(t, apperror.HasCode(err, apperror.CodeAlreadyCancelled))
	assert.Len(t, store.Journals(), 2)
}
