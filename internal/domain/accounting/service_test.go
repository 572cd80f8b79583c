package accounting_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ayanna/internal/core/apperror"
	"ayanna/internal/core/id"
	"ayanna/internal/domain/accounting"
	"ayanna/internal/infrastructure/storage/memstore"
)

func TestUpsertAccount_CodeIsScopedToEnterprise(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := accounting.NewService(store.Accounting(), store)
	first, second := id.New(), id.New()

	a, err := svc.UpsertAccount(ctx, accounting.UpsertAccountInput{EnterpriseID: first, Code: "571", Name: "Caisse", Class: 5})
	require.NoError(t, err)
	assert.False(t, id.IsNil(a.ClassID))

	_, err = svc.UpsertAccount(ctx, accounting.UpsertAccountInput{EnterpriseID: second, Code: "571", Name: "Caisse", Class: 5})
	require.NoError(t, err)

	_, err = svc.UpsertAccount(ctx, accounting.UpsertAccountInput{EnterpriseID: first, Code: " 571 ", Name: "Autre caisse", Class: 5})
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicateAccountCode))

	accounts, err := svc.ListAccounts(ctx, first, nil)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestUpsertAccount_ReusesClass(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := accounting.NewService(store.Accounting(), store)
	ent := id.New()

	a, err := svc.UpsertAccount(ctx, accounting.UpsertAccountInput{EnterpriseID: ent, Code: "701", Name: "Ventes", Class: 7})
	require.NoError(t, err)
	b, err := svc.UpsertAccount(ctx, accounting.UpsertAccountInput{EnterpriseID: ent, Code: "706", Name: "Services", Class: 7})
	require.NoError(t, err)
	assert.Equal(t, a.ClassID, b.ClassID)

	_, err = svc.UpsertAccount(ctx, accounting.UpsertAccountInput{EnterpriseID: ent, Code: "0", Name: "Hors classe", Class: 0})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestListAccounts_FiltersByClassAndSortsByCode(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := accounting.NewService(store.Accounting(), store)
	ent := id.New()

	for _, in := range []accounting.UpsertAccountInput{
		{EnterpriseID: ent, Code: "706", Name: "Services", Class: 7},
		{EnterpriseID: ent, Code: "411", Name: "Clients", Class: 4},
		{EnterpriseID: ent, Code: "701", Name: "Ventes", Class: 7},
	} {
		_, err := svc.UpsertAccount(ctx, in)
		require.NoError(t, err)
	}

	seven := 7
	got, err := svc.ListAccounts(ctx, ent, &seven)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "701", got[0].Code)
	assert.Equal(t, "706", got[1].Code)

	ten := 10
	_, err = svc.ListAccounts(ctx, ent, &ten)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestGetConfig_MissingIsConfigMissing(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := accounting.NewService(store.Accounting(), store)

	_, err := svc.GetConfig(ctx, id.New())
	assert.True(t, apperror.IsConfigMissing(err))
}

func TestSaveConfig_RequiresKnownAccounts(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := accounting.NewService(store.Accounting(), store)
	ent, pos := id.New(), id.New()

	codes := map[string]id.ID{}
	for code, class := range map[string]int{"571": 5, "411": 4, "701": 7} {
		a, err := svc.UpsertAccount(ctx, accounting.UpsertAccountInput{EnterpriseID: ent, Code: code, Name: code, Class: class})
		require.NoError(t, err)
		codes[code] = a.ID
	}

	unknown := id.New()
	cfg := &accounting.Config{
		POSID:           pos,
		EnterpriseID:    ent,
		CashAccountID:   codes["571"],
		ClientAccountID: codes["411"],
		SalesAccountID:  codes["701"],
		TaxAccountID:    &unknown,
	}
	assert.True(t, apperror.HasCode(svc.SaveConfig(ctx, cfg), apperror.CodeValidation))

	cfg.TaxAccountID = nil
	require.NoError(t, svc.SaveConfig(ctx, cfg))

	got, err := svc.GetConfig(ctx, pos)
	require.NoError(t, err)
	assert.Equal(t, codes["701"], got.SalesAccountID)
	assert.Nil(t, got.TaxAccountID)
}
