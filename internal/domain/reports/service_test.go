package reports_test

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
	"ayanna/internal/domain/catalog"
	"ayanna/internal/domain/reports"
	"ayanna/internal/domain/sales"
	"ayanna/internal/domain/stock"
	"ayanna/internal/infrastructure/storage/memstore"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var (
	day   = time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	start = day
	end   = day.Add(24*time.Hour - time.Second)
)

type fixture struct {
	store  *memstore.Store
	svc    *reports.Service
	pos    catalog.POS
	client catalog.Client
}

func newFixture() *fixture {
	store := memstore.New()
	wh := stock.Warehouse{BaseEntity: entity.NewBaseEntity(), Code: stock.WarehouseShop, IsActive: true}
	store.PutWarehouse(wh)
	pos := catalog.POS{BaseEntity: entity.NewBaseEntity(), Module: catalog.ModuleShop, Code: wh.Code, WarehouseID: wh.ID, IsActive: true}
	store.PutPOS(pos)

	f := &fixture{
		store: store,
		svc:   reports.NewService(store.Reports(), stock.NewService(store.Stock(), store), catalog.NewService(store.Catalog(), store)),
		pos:   pos,
		client: catalog.Client{
			BaseEntity: entity.NewBaseEntity(),
			Name:       "Jean Kabila",
		},
	}
	_ = store.Catalog().CreateClient(context.Background(), &f.client)
	return f
}

// order stores a cart as the sales service would leave it.
func (f *fixture) order(t *testing.T, module catalog.Module, number string, status sales.Status, at time.Time, ttc, discount, paid string, lines ...sales.Line) sales.Cart {
	t.Helper()
	c := sales.Cart{
		BaseEntity:     entity.NewBaseEntity(),
		Module:         module,
		POSID:          f.pos.ID,
		ClientID:       &f.client.ID,
		Number:         number,
		Status:         status,
		PaymentMethod:  "cash",
		Subtotal:       d(ttc),
		TaxAmount:      decimal.Zero,
		DiscountAmount: d(discount),
		TotalFinal:     d(ttc),
		Lines:          lines,
	}
	c.CreatedAt = at
	if paid != "0" {
		c.Payments = []sales.Payment{{ID: id.New(), CartID: c.ID, Amount: d(paid), Method: "cash", Date: at}}
	}
	require.NoError(t, f.store.Sales().Create(context.Background(), &c))
	return c
}

func TestListOrders_MergesModulesNewestFirst(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.order(t, catalog.ModuleShop, "CMD-POS_2-1", sales.StatusValidated, day.Add(9*time.Hour), "100", "0", "100")
	f.order(t, catalog.ModuleRestaurant, "7", sales.StatusValidated, day.Add(12*time.Hour), "40", "0", "0")
	f.order(t, catalog.ModuleEvent, "CMD-POS_6-1", sales.StatusDraft, day.Add(10*time.Hour), "500", "50", "0")

	got, err := f.svc.ListOrders(ctx, reports.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "7", got[0].Number)
	assert.Equal(t, "CMD-POS_6-1", got[1].Number)
	assert.Equal(t, "CMD-POS_2-1", got[2].Number)
	assert.Equal(t, "Jean Kabila", got[0].ClientName)

	got, err = f.svc.ListOrders(ctx, reports.OrderFilter{Search: "pos_6", Limit: 10})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, catalog.ModuleEvent, got[0].Module)
	assert.Equal(t, "450.00", got[0].Net().StringFixed(2))

	got, err = f.svc.ListOrders(ctx, reports.OrderFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = f.svc.ListOrders(ctx, reports.OrderFilter{From: end, To: start})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestPeriodFinancials_ExcludesCancelled(t *testing.T) {
	f := newFixture()
	f.order(t, catalog.ModuleShop, "A", sales.StatusValidated, day.Add(9*time.Hour), "100", "0", "100")
	f.order(t, catalog.ModuleEvent, "B", sales.StatusValidated, day.Add(10*time.Hour), "1080", "108", "500")
	f.order(t, catalog.ModuleShop, "C", sales.StatusCancelled, day.Add(11*time.Hour), "60", "0", "0")
	f.order(t, catalog.ModuleShop, "D", sales.StatusValidated, day.Add(-time.Hour), "30", "0", "30")

	got, err := f.svc.PeriodFinancials(context.Background(), start, end)
	require.NoError(t, err)
	assert.Equal(t, "1072.00", got.CA.StringFixed(2))
	assert.Equal(t, "600.00", got.Paid.StringFixed(2))
	assert.Equal(t, "472.00", got.Unpaid.StringFixed(2))
	assert.Equal(t, 2, got.Orders)
	assert.Equal(t, 1, got.Receivables)
	assert.Equal(t, "536.00", got.AvgBasket.StringFixed(2))
}

func TestIsCancelled(t *testing.T) {
	for _, s := range []string{"cancelled", "Annulé", " ANNULE "} {
		assert.True(t, reports.IsCancelled(s), s)
	}
	assert.False(t, reports.IsCancelled("validated"))
}

func TestOrderDetail(t *testing.T) {
	f := newFixture()
	product := catalog.Product{BaseEntity: entity.NewBaseEntity(), Name: "Simba", Price: d("2.5"), IsActive: true}
	f.store.PutProduct(product)
	c := f.order(t, catalog.ModuleShop, "A", sales.StatusValidated, day, "5", "0", "5",
		sales.Line{ID: id.New(), Kind: sales.LineProduct, ItemID: product.ID, Quantity: d("2"), UnitPrice: d("2.5"), Total: d("5"), LineNo: 1})

	got, err := f.svc.OrderDetail(context.Background(), catalog.ModuleShop, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "5.00", got.Net.StringFixed(2))
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "Simba", got.Lines[0].Name)
	require.Len(t, got.Payments, 1)
	assert.Equal(t, "Simba x2", got.ItemsSummary)

	_, err = f.svc.OrderDetail(context.Background(), catalog.ModuleShop, id.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestProductsSummary(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	st := stock.NewService(f.store.Stock(), f.store)
	product := catalog.Product{BaseEntity: entity.NewBaseEntity(), Name: "Simba", Price: d("2.5"), IsActive: true}
	f.store.PutProduct(product)

	move := func(kind stock.Kind, qty, ref string, at time.Time) {
		_, err := st.ApplyMovement(ctx, stock.MovementInput{
			Kind: kind, ProductID: product.ID, WarehouseID: f.pos.WarehouseID,
			Quantity: d(qty), UnitCost: d("1"), Reference: ref, When: at,
		})
		require.NoError(t, err)
	}
	line := func(qty string) sales.Line {
		return sales.Line{ID: id.New(), Kind: sales.LineProduct, ItemID: product.ID, Quantity: d(qty), UnitPrice: d("2.5"), Total: d(qty).Mul(d("2.5")), LineNo: 1}
	}

	move(stock.KindEntry, "20", "BL-1", day.Add(-48*time.Hour))
	move(stock.KindEntry, "12", "BL-2", day.Add(8*time.Hour))

	a := f.order(t, catalog.ModuleShop, "A", sales.StatusValidated, day.Add(9*time.Hour), "7.5", "0", "7.5", line("3"))
	move(stock.KindExit, "3", a.Reference(), day.Add(9*time.Hour))

	b := f.order(t, catalog.ModuleShop, "B", sales.StatusCancelled, day.Add(10*time.Hour), "5", "0", "0", line("2"))
	move(stock.KindExit, "2", b.Reference(), day.Add(10*time.Hour))
	move(stock.KindEntry, "2", sales.CancelReference(b.ID), day.Add(11*time.Hour))

	// Created the day before, finalized inside the period.
	c := f.order(t, catalog.ModuleShop, "C", sales.StatusValidated, day.Add(-time.Hour), "10", "0", "10", line("4"))
	move(stock.KindExit, "4", c.Reference(), day.Add(12*time.Hour))

	rows, err := f.svc.ProductsSummary(ctx, reports.ProductsFilter{POSID: f.pos.ID, From: start, To: end})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	r := rows[0]
	assert.Equal(t, "20", r.Initial.String())
	assert.Equal(t, "12", r.Added.String())
	assert.Equal(t, "12", r.Purchases.String())
	assert.Equal(t, "7", r.Sold.String())
	assert.Equal(t, "25", r.Remaining.String())
	assert.Equal(t, f.store.StockLine(product.ID, f.pos.WarehouseID).Quantity.String(), r.Remaining.String())
	assert.Equal(t, "17.50", r.Total.StringFixed(2))

	_, err = f.svc.ProductsSummary(ctx, reports.ProductsFilter{POSID: f.pos.ID})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
