package sales_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"ayanna/internal/core/entity"
	"ayanna/internal/core/id"
	"ayanna/internal/domain/accounting"
	"ayanna/internal/domain/catalog"
	"ayanna/internal/domain/journal"
	"ayanna/internal/domain/sales"
	"ayanna/internal/domain/stock"
	"ayanna/internal/infrastructure/storage/memstore"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// env is a seeded store with one enterprise, a POS per module sharing one
// configuration layout and the services wired the way the server wires them.
type env struct {
	store   *memstore.Store
	sales   *sales.Service
	stock   *stock.Service
	journal *journal.Engine

	enterprise id.ID
	pos        map[catalog.Module]catalog.POS
	accounts   map[string]id.ID
	now        time.Time
}

func newEnv(t *testing.T) *env {
	t.Helper()

	store := memstore.New()
	e := &env{
		store:      store,
		enterprise: id.New(),
		pos:        make(map[catalog.Module]catalog.POS),
		accounts:   make(map[string]id.ID),
		now:        time.Date(2026, 3, 14, 9, 5, 7, 0, time.UTC),
	}

	store.PutEnterprise(catalog.Enterprise{
		BaseEntity: entity.BaseEntity{ID: e.enterprise},
		Name:       "Ayanna Lodge",
		Currency:   catalog.CurrencyUSD,
	})

	for code, class := range map[string]int{
		"571": 5, "411": 4, "701": 7, "706": 7, "673": 6, "443": 4, "31": 3, "603": 6, "601": 6,
	} {
		a := accounting.Account{
			BaseEntity:   entity.NewBaseEntity(),
			EnterpriseID: e.enterprise,
			ClassCode:    class,
			Code:         code,
			Name:         "Compte " + code,
			IsActive:     true,
		}
		store.PutAccount(a)
		e.accounts[code] = a.ID
	}

	for i, m := range catalog.Modules {
		wh := stock.Warehouse{
			BaseEntity:   entity.NewBaseEntity(),
			EnterpriseID: e.enterprise,
			Code:         []string{stock.WarehouseShop, stock.WarehouseRestaurant, "POS_6"}[i],
			Name:         string(m),
			IsActive:     true,
		}
		store.PutWarehouse(wh)
		pos := catalog.POS{
			BaseEntity:   entity.NewBaseEntity(),
			EnterpriseID: e.enterprise,
			Module:       m,
			Code:         wh.Code,
			Name:         string(m) + " counter",
			WarehouseID:  wh.ID,
			TaxRate:      decimal.Zero,
			IsActive:     true,
		}
		store.PutPOS(pos)
		e.pos[m] = pos
		e.configure(pos.ID)
	}

	catalogSvc := catalog.NewService(store.Catalog(), store)
	e.stock = stock.NewService(store.Stock(), store)
	e.journal = journal.NewEngine(store.JournalStore(), store.Accounting(), store)
	e.sales = sales.NewService(sales.Deps{
		Repo:      store.Sales(),
		Catalog:   catalogSvc,
		Accounts:  accounting.NewService(store.Accounting(), store),
		Journals:  e.journal,
		Stock:     e.stock,
		TxManager: store,
		Sequencer: store,
		Events:    store,
		Audit:     store,
	}, sales.WithClock(func() time.Time { return e.now }))
	return e
}

func (e *env) configure(posID id.ID) {
	ptr := func(code string) *id.ID {
		v := e.accounts[code]
		return &v
	}
	e.store.PutConfig(accounting.Config{
		BaseEntity:           entity.NewBaseEntity(),
		POSID:                posID,
		EnterpriseID:         e.enterprise,
		CashAccountID:        e.accounts["571"],
		ClientAccountID:      e.accounts["411"],
		SalesAccountID:       e.accounts["701"],
		DiscountAccountID:    ptr("673"),
		PurchaseAccountID:    ptr("601"),
		TaxAccountID:         ptr("443"),
		StockAccountID:       ptr("31"),
		CostOfGoodsAccountID: ptr("603"),
	})
}

// product seeds a product held in qty units in the warehouse of module's POS.
func (e *env) product(module catalog.Module, price, cost, qty string) catalog.Product {
	p := catalog.Product{
		BaseEntity:   entity.NewBaseEntity(),
		EnterpriseID: e.enterprise,
		Name:         "Produit " + price,
		Price:        d(price),
		Cost:         d(cost),
		IsActive:     true,
	}
	e.store.PutProduct(p)
	if qty != "" {
		e.store.PutStockLine(stock.Line{
			ProductID:   p.ID,
			WarehouseID: e.pos[module].WarehouseID,
			Quantity:    d(qty),
			UnitCost:    d(cost),
		})
	}
	return p
}

func (e *env) service(module catalog.Module, price string, account *id.ID) catalog.ServiceItem {
	svc := catalog.ServiceItem{
		BaseEntity:     entity.NewBaseEntity(),
		EnterpriseID:   e.enterprise,
		Module:         module,
		Name:           "Service " + price,
		Price:          d(price),
		SalesAccountID: account,
		IsActive:       true,
	}
	e.store.PutService(svc)
	return svc
}

func (e *env) cart(t *testing.T, module catalog.Module, lines ...sales.AddLineInput) *sales.Cart {
	t.Helper()
	ctx := context.Background()

	cart, err := e.sales.Create(ctx, sales.CreateInput{Module: module, POSID: e.pos[module].ID})
	require.NoError(t, err)
	for _, l := range lines {
		cart, err = e.sales.AddLine(ctx, module, cart.ID, l)
		require.NoError(t, err)
	}
	return cart
}

func productLine(p catalog.Product, qty string) sales.AddLineInput {
	return sales.AddLineInput{Kind: sales.LineProduct, ItemID: p.ID, Quantity: d(qty)}
}

func serviceLine(s catalog.ServiceItem, qty string) sales.AddLineInput {
	return sales.AddLineInput{Kind: sales.LineService, ItemID: s.ID, Quantity: d(qty)}
}

// journalsOf returns the committed journals of a kind under reference.
func (e *env) journalsOf(reference string, kind journal.Kind) []journal.Journal {
	var out []journal.Journal
	for _, j := range e.store.Journals() {
		if j.Reference == reference && j.Kind == kind {
			out = append(out, j)
		}
	}
	return out
}

// amounts maps account id to the debit (positive) or credit (negative) of a journal.
func amounts(j journal.Journal) map[id.ID]string {
	sums := make(map[id.ID]decimal.Decimal)
	for _, l := range j.Lines {
		sums[l.AccountID] = sums[l.AccountID].Add(l.Debit).Sub(l.Credit)
	}
	out := make(map[id.ID]string, len(sums))
	for k, v := range sums {
		out[k] = v.StringFixed(2)
	}
	return out
}

// byCode rekeys an amounts map by account code.
func (e *env) byCode(in map[id.ID]string) map[string]string {
	codes := make(map[id.ID]string, len(e.accounts))
	for code, aid := range e.accounts {
		codes[aid] = code
	}
	out := make(map[string]string, len(in))
	for aid, v := range in {
		out[codes[aid]] = v
	}
	return out
}
