package catalog_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ayanna/internal/core/apperror"
	"ayanna/internal/core/entity"
	"ayanna/internal/core/id"
	"ayanna/internal/domain/catalog"
	"ayanna/internal/infrastructure/storage/memstore"
)

func seedEnterprise(store *memstore.Store, currency catalog.Currency) catalog.Enterprise {
	e := catalog.Enterprise{
		BaseEntity: entity.NewBaseEntity(),
		Name:       "Ayanna",
		Currency:   currency,
	}
	store.PutEnterprise(e)
	return e
}

func TestEnterprise_CacheIsInvalidatedOnUpdate(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := catalog.NewService(store.Catalog(), store)
	e := seedEnterprise(store, catalog.CurrencyUSD)

	sym, err := svc.CurrencySymbol(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "$", sym)

	// A write that bypasses the service is not seen until the entry is dropped.
	stale := e
	stale.Currency = catalog.CurrencyFC
	store.PutEnterprise(stale)
	sym, err = svc.CurrencySymbol(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "$", sym)

	update := e
	update.Currency = catalog.CurrencyFC
	update.Phone = "0812345678"
	require.NoError(t, svc.UpdateEnterprise(ctx, &update))
	assert.Equal(t, "+243812345678", update.Phone)

	sym, err = svc.CurrencySymbol(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "FC", sym)
}

func TestUpdateEnterprise_Validates(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := catalog.NewService(store.Catalog(), store)
	e := seedEnterprise(store, catalog.CurrencyUSD)

	bad := e
	bad.Currency = "EUR"
	assert.True(t, apperror.HasCode(svc.UpdateEnterprise(ctx, &bad), apperror.CodeValidation))

	bad = e
	bad.Name = "  "
	assert.True(t, apperror.HasCode(svc.UpdateEnterprise(ctx, &bad), apperror.CodeValidation))

	unknown := e
	unknown.ID = id.New()
	assert.True(t, apperror.IsNotFound(svc.UpdateEnterprise(ctx, &unknown)))
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "national", raw: "0812345678", want: "+243812345678"},
		{name: "international", raw: "+243 99 123 4567", want: "+243991234567"},
		{name: "garbage", raw: "abc", wantErr: true},
		{name: "too short", raw: "123", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := catalog.NormalizePhone(tt.raw, catalog.DefaultPhoneRegion)
			if tt.wantErr {
				assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProducts_InactiveIsNotFound(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := catalog.NewService(store.Catalog(), store)

	active := catalog.Product{BaseEntity: entity.NewBaseEntity(), Name: "Fanta", Price: decimal.NewFromInt(2), IsActive: true}
	retired := catalog.Product{BaseEntity: entity.NewBaseEntity(), Name: "Primus", Price: decimal.NewFromInt(3)}
	store.PutProduct(active)
	store.PutProduct(retired)

	_, err := svc.Product(ctx, active.ID)
	require.NoError(t, err)
	_, err = svc.Product(ctx, retired.ID)
	assert.True(t, apperror.IsNotFound(err))

	_, err = svc.Products(ctx, []id.ID{active.ID, id.New()})
	assert.True(t, apperror.IsNotFound(err))
}

func TestCreateClient(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := catalog.NewService(store.Catalog(), store)

	c := &catalog.Client{BaseEntity: entity.NewBaseEntity(), EnterpriseID: id.New(), Name: "Mama Rose", Phone: "0991234567"}
	require.NoError(t, svc.CreateClient(ctx, c))
	assert.False(t, c.CreatedAt.IsZero())

	got, err := svc.Client(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "+243991234567", got.Phone)

	assert.True(t, apperror.HasCode(svc.CreateClient(ctx, &catalog.Client{EnterpriseID: id.New()}), apperror.CodeValidation))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "12.34 $", catalog.FormatAmount(decimal.RequireFromString("12.345"), catalog.CurrencyUSD))
	assert.Equal(t, "1000.00 FC", catalog.FormatAmount(decimal.NewFromInt(1000), catalog.CurrencyFC))
}
