package accounting_repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ayanna/internal/core/apperror"
	"ayanna/internal/core/id"
	"ayanna/internal/domain/accounting"
	"ayanna/internal/domain/journal"
	"ayanna/internal/infrastructure/storage/postgres/accounting_repo"
	"ayanna/internal/infrastructure/storage/postgres/pgtest"
)

func TestUpsertAccount_CodeUniquePerEnterprise(t *testing.T) {
	pool, txm := pgtest.Open(t)
	ctx := context.Background()
	svc := accounting.NewService(accounting_repo.NewAccountingRepo(txm), txm)

	enterprise := pgtest.NewEnterprise(t, pool)
	other := pgtest.NewEnterprise(t, pool)

	cash, err := svc.UpsertAccount(ctx, accounting.UpsertAccountInput{
		EnterpriseID: enterprise, Code: "571", Name: "Caisse", Class: 5,
	})
	require.NoError(t, err)

	_, err = svc.UpsertAccount(ctx, accounting.UpsertAccountInput{
		EnterpriseID: enterprise, Code: "571", Name: "Caisse bis", Class: 5,
	})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, apperror.CodeDuplicateAccountCode, appErr.Code)
	assert.Equal(t, "571", appErr.Details["code"])
	assert.Contains(t, appErr.Details["session_id"], "pg-")

	_, err = svc.UpsertAccount(ctx, accounting.UpsertAccountInput{
		EnterpriseID: other, Code: "571", Name: "Caisse", Class: 5,
	})
	require.NoError(t, err)

	// The failed insert rolled back without touching the first account or its class.
	accounts, err := svc.ListAccounts(ctx, enterprise, nil)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, cash.ID, accounts[0].ID)
	assert.Equal(t, "Caisse", accounts[0].Name)
	assert.Equal(t, 5, accounts[0].ClassCode)
}

func TestJournal_PostReverseRoundTrip(t *testing.T) {
	pool, txm := pgtest.Open(t)
	ctx := context.Background()
	accounts := accounting_repo.NewAccountingRepo(txm)
	svc := accounting.NewService(accounts, txm)
	engine := journal.NewEngine(accounting_repo.NewJournalRepo(txm), accounts, txm)

	enterprise := pgtest.NewEnterprise(t, pool)
	cash, err := svc.UpsertAccount(ctx, accounting.UpsertAccountInput{EnterpriseID: enterprise, Code: "571", Name: "Caisse", Class: 5})
	require.NoError(t, err)
	sales, err := svc.UpsertAccount(ctx, accounting.UpsertAccountInput{EnterpriseID: enterprise, Code: "701", Name: "Ventes", Class: 7})
	require.NoError(t, err)
	tax, err := svc.UpsertAccount(ctx, accounting.UpsertAccountInput{EnterpriseID: enterprise, Code: "443", Name: "TVA", Class: 4})
	require.NoError(t, err)

	ref := "CART-" + id.New().String()
	posted, err := engine.Post(ctx, journal.Entry{
		Kind:         journal.KindSale,
		Label:        "Vente",
		Reference:    ref,
		EnterpriseID: enterprise,
		Date:         time.Now().UTC(),
		Lines: []journal.LineInput{
			journal.Debit(cash.ID, decimal.RequireFromString("116.00"), "Caisse"),
			journal.Credit(sales.ID, decimal.RequireFromString("100.00"), "Ventes"),
			journal.Credit(tax.ID, decimal.RequireFromString("16.00"), "TVA"),
		},
	})
	require.NoError(t, err)

	// Lines written by COPY come back in ordinal order with their amounts.
	got, err := engine.Get(ctx, posted.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 3)
	for i, l := range got.Lines {
		assert.Equal(t, i+1, l.Ordinal)
		assert.Equal(t, posted.ID, l.JournalID)
	}
	assert.True(t, got.Lines[0].Debit.Equal(decimal.RequireFromString("116")))
	assert.True(t, got.Lines[2].Credit.Equal(decimal.RequireFromString("16")))
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("116")))

	_, err = engine.Reverse(ctx, posted.ID, time.Now().UTC(), "-ANN")
	require.NoError(t, err)
	_, err = engine.Reverse(ctx, posted.ID, time.Now().UTC(), "-ANN")
	assert.True(t, apperror.HasCode(err, apperror.CodeAlreadyCancelled), "got %v", err)

	var all []journal.Journal
	for _, r := range []string{ref, ref + "-ANN"} {
		js, err := engine.FindByReference(ctx, r, "")
		require.NoError(t, err)
		all = append(all, js...)
	}
	require.Len(t, all, 2)
	for account, balance := range journal.AccountBalances(all) {
		assert.True(t, balance.IsZero(), "account %s balance %s", account, balance)
	}

	_, err = engine.Post(ctx, journal.Entry{
		Kind: journal.KindSale, Label: "Vente", Reference: ref, EnterpriseID: enterprise, Date: time.Now().UTC(),
		Lines: []journal.LineInput{
			journal.Debit(cash.ID, decimal.NewFromInt(5), ""),
			journal.Credit(id.New(), decimal.NewFromInt(5), ""),
		},
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeMissingAccount), "got %v", err)
}
