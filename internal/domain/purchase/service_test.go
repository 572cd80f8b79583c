package purchase_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ayanna/internal/core/apperror"
	"ayanna/internal/core/entity"
	"ayanna/internal/core/id"
	"ayanna/internal/domain/accounting"
	"ayanna/internal/domain/catalog"
	"ayanna/internal/domain/events"
	"ayanna/internal/domain/journal"
	"ayanna/internal/domain/purchase"
	"ayanna/internal/domain/stock"
	"ayanna/internal/infrastructure/storage/memstore"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	store *memstore.Store
	svc   *purchase.Service
	pos   catalog.POS
	stock id.ID
	buy   id.ID
}

func newFixture(t *testing.T, configured bool) *fixture {
	t.Helper()
	store := memstore.New()
	f := &fixture{store: store}

	wh := stock.Warehouse{BaseEntity: entity.NewBaseEntity(), Code: stock.WarehouseShop, IsActive: true}
	store.PutWarehouse(wh)
	f.pos = catalog.POS{BaseEntity: entity.NewBaseEntity(), Module: catalog.ModuleShop, Code: wh.Code, WarehouseID: wh.ID, IsActive: true}
	store.PutPOS(f.pos)

	accounts := map[string]id.ID{}
	for code, class := range map[string]int{"571": 5, "411": 4, "701": 7, "31": 3, "601": 6} {
		a := accounting.Account{BaseEntity: entity.NewBaseEntity(), Code: code, ClassCode: class, IsActive: true}
		store.PutAccount(a)
		accounts[code] = a.ID
	}
	f.stock, f.buy = accounts["31"], accounts["601"]
	if configured {
		stockAccount, buyAccount := f.stock, f.buy
		store.PutConfig(accounting.Config{
			POSID:             f.pos.ID,
			CashAccountID:     accounts["571"],
			ClientAccountID:   accounts["411"],
			SalesAccountID:    accounts["701"],
			StockAccountID:    &stockAccount,
			PurchaseAccountID: &buyAccount,
		})
	}

	f.svc = purchase.NewService(
		catalog.NewService(store.Catalog(), store),
		accounting.NewService(store.Accounting(), store),
		stock.NewService(store.Stock(), store),
		journal.NewEngine(store.JournalStore(), store.Accounting(), store),
		store, store, store,
	)
	return f
}

func TestReceive_EntersStockAndPosts(t *testing.T) {
	f := newFixture(t, true)
	beer, soda := id.New(), id.New()

	r, err := f.svc.Receive(context.Background(), purchase.ReceiveInput{
		POSID:     f.pos.ID,
		Reference: "BL-2026-041",
		Lines: []purchase.Line{
			{ProductID: beer, Quantity: d("24"), UnitCost: d("1.25")},
			{ProductID: soda, Quantity: d("12"), UnitCost: d("0.8")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "39.60", r.Total.StringFixed(2))
	assert.Len(t, r.Movements, 2)
	require.NotNil(t, r.JournalID)

	assert.Equal(t, "24", f.store.StockLine(beer, f.pos.WarehouseID).Quantity.String())
	assert.Equal(t, "1.25", f.store.StockLine(beer, f.pos.WarehouseID).UnitCost.String())

	js := f.store.Journals()
	require.Len(t, js, 1)
	assert.Equal(t, journal.KindPurchase, js[0].Kind)
	assert.Equal(t, "Achat BL-2026-041", js[0].Label)
	assert.Equal(t, f.stock, js[0].Lines[0].AccountID)
	assert.Equal(t, f.buy, js[0].Lines[1].AccountID)

	require.Len(t, f.store.Events(), 1)
	assert.Equal(t, events.PurchaseReceived, f.store.Events()[0].Type)
}

func TestReceive_WithoutConfigOnlyMovesStock(t *testing.T) {
	f := newFixture(t, false)
	beer := id.New()

	r, err := f.svc.Receive(context.Background(), purchase.ReceiveInput{
		POSID:     f.pos.ID,
		Reference: "BL-7",
		Lines:     []purchase.Line{{ProductID: beer, Quantity: d("6"), UnitCost: d("2")}},
	})
	require.NoError(t, err)
	assert.Nil(t, r.JournalID)
	assert.Empty(t, f.store.Journals())
	assert.Equal(t, "6", f.store.StockLine(beer, f.pos.WarehouseID).Quantity.String())
}

func TestReceive_Validation(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	line := []purchase.Line{{ProductID: id.New(), Quantity: d("1"), UnitCost: d("1")}}

	for name, in := range map[string]purchase.ReceiveInput{
		"reserved prefix": {POSID: f.pos.ID, Reference: "CANCEL-CART-1", Lines: line},
		"no reference":    {POSID: f.pos.ID, Lines: line},
		"no lines":        {POSID: f.pos.ID, Reference: "BL-1"},
		"zero quantity":   {POSID: f.pos.ID, Reference: "BL-1", Lines: []purchase.Line{{ProductID: id.New(), Quantity: decimal.Zero}}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Receive(ctx, in)
			assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
		})
	}
	assert.Empty(t, f.store.Movements())
}
