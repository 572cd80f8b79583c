package document_repo_test

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
	"ayanna/internal/domain/catalog"
	"ayanna/internal/domain/journal"
	"ayanna/internal/domain/reports"
	"ayanna/internal/domain/sales"
	"ayanna/internal/domain/stock"
	"ayanna/internal/infrastructure/storage/postgres"
	"ayanna/internal/infrastructure/storage/postgres/accounting_repo"
	"ayanna/internal/infrastructure/storage/postgres/catalog_repo"
	"ayanna/internal/infrastructure/storage/postgres/document_repo"
	"ayanna/internal/infrastructure/storage/postgres/pgtest"
	"ayanna/internal/infrastructure/storage/postgres/register_repo"
	"ayanna/internal/infrastructure/storage/postgres/report_repo"
	"ayanna/pkg/numerator"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// shop is one enterprise with a configured shop POS, wired over Postgres the way
// the server wires it.
type shop struct {
	sales   *sales.Service
	stock   *stock.Service
	reports *reports.Service
	journal *journal.Engine
	catalog *catalog_repo.CatalogRepo

	pos      catalog.POS
	accounts map[string]id.ID
}

func newShop(t *testing.T) *shop {
	t.Helper()
	pool, txm := pgtest.Open(t)
	ctx := context.Background()
	enterprise := pgtest.NewEnterprise(t, pool)

	catalogRepo := catalog_repo.NewCatalogRepo(txm)
	accountingRepo := accounting_repo.NewAccountingRepo(txm)
	stockRepo := register_repo.NewStockRepo(txm)

	catalogSvc := catalog.NewService(catalogRepo, txm)
	accountingSvc := accounting.NewService(accountingRepo, txm)
	s := &shop{
		stock:    stock.NewService(stockRepo, txm),
		journal:  journal.NewEngine(accounting_repo.NewJournalRepo(txm), accountingRepo, txm),
		catalog:  catalogRepo,
		accounts: make(map[string]id.ID),
	}
	s.reports = reports.NewService(report_repo.NewReportRepo(txm), s.stock, catalogSvc)

	for code, class := range map[string]int{
		"571": 5, "411": 4, "701": 7, "443": 4, "673": 6, "31": 3, "603": 6, "601": 6,
	} {
		a, err := accountingSvc.UpsertAccount(ctx, accounting.UpsertAccountInput{
			EnterpriseID: enterprise, Code: code, Name: "Compte " + code, Class: class,
		})
		require.NoError(t, err)
		s.accounts[code] = a.ID
	}

	wh := stock.Warehouse{
		BaseEntity:   entity.NewBaseEntity(),
		EnterpriseID: enterprise,
		Code:         stock.WarehouseShop,
		Name:         "Boutique",
		IsActive:     true,
	}
	require.NoError(t, stockRepo.CreateWarehouse(ctx, &wh))

	s.pos = catalog.POS{
		BaseEntity:   entity.NewBaseEntity(),
		EnterpriseID: enterprise,
		Module:       catalog.ModuleShop,
		Code:         wh.Code,
		Name:         "Comptoir",
		WarehouseID:  wh.ID,
		TaxRate:      decimal.Zero,
		IsActive:     true,
	}
	require.NoError(t, catalogRepo.CreatePOS(ctx, &s.pos))

	ptr := func(code string) *id.ID {
		v := s.accounts[code]
		return &v
	}
	require.NoError(t, accountingSvc.SaveConfig(ctx, &accounting.Config{
		POSID:                s.pos.ID,
		EnterpriseID:         enterprise,
		CashAccountID:        s.accounts["571"],
		ClientAccountID:      s.accounts["411"],
		SalesAccountID:       s.accounts["701"],
		DiscountAccountID:    ptr("673"),
		PurchaseAccountID:    ptr("601"),
		TaxAccountID:         ptr("443"),
		StockAccountID:       ptr("31"),
		CostOfGoodsAccountID: ptr("603"),
	}))

	audit, err := postgres.NewAuditService(txm)
	require.NoError(t, err)
	s.sales = sales.NewService(sales.Deps{
		Repo:      document_repo.NewCartRepo(txm),
		Catalog:   catalogSvc,
		Accounts:  accountingSvc,
		Journals:  s.journal,
		Stock:     s.stock,
		TxManager: txm,
		Sequencer: numerator.NewWithQuerier(func(ctx context.Context) numerator.Querier {
			return txm.GetQuerier(ctx)
		}, nil),
		Events: postgres.NewOutboxPublisher(txm),
		Audit:  audit,
	})
	return s
}

// product creates a product with qty units received into the shop an hour ago.
func (s *shop) product(t *testing.T, price, cost, qty string) catalog.Product {
	t.Helper()
	ctx := context.Background()
	p := catalog.Product{
		BaseEntity:   entity.NewBaseEntity(),
		EnterpriseID: s.pos.EnterpriseID,
		Name:         "Produit " + price,
		Price:        d(price),
		Cost:         d(cost),
		IsActive:     true,
	}
	require.NoError(t, s.catalog.CreateProduct(ctx, &p))

	_, err := s.stock.ApplyMovement(ctx, stock.MovementInput{
		Kind:        stock.KindEntry,
		ProductID:   p.ID,
		WarehouseID: s.pos.WarehouseID,
		Quantity:    d(qty),
		UnitCost:    d(cost),
		Reference:   "BL-" + p.ID.String(),
		When:        time.Now().UTC().Add(-time.Hour),
	})
	require.NoError(t, err)
	return p
}

func (s *shop) summary(t *testing.T, productID id.ID) reports.ProductRow {
	t.Helper()
	now := time.Now().UTC()
	rows, err := s.reports.ProductsSummary(context.Background(), reports.ProductsFilter{
		POSID: s.pos.ID,
		From:  now.Add(-30 * time.Minute),
		To:    now.Add(time.Hour),
	})
	require.NoError(t, err)
	for _, r := range rows {
		if r.ProductID == productID {
			return r
		}
	}
	t.Fatalf("product %s missing from summary", productID)
	return reports.ProductRow{}
}

// balances sums debit minus credit per account over every journal of a cart,
// reversals included.
func (s *shop) balances(t *testing.T, reference string) (map[id.ID]decimal.Decimal, int) {
	t.Helper()
	var all []journal.Journal
	for _, ref := range []string{reference, reference + sales.ReversalSuffix} {
		js, err := s.journal.FindByReference(context.Background(), ref, "")
		require.NoError(t, err)
		all = append(all, js...)
	}
	return journal.AccountBalances(all), len(all)
}

func TestShopCart_FinalizePayCancel(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	p := s.product(t, "10.00", "4.00", "10")

	cart, err := s.sales.Create(ctx, sales.CreateInput{Module: catalog.ModuleShop, POSID: s.pos.ID})
	require.NoError(t, err)
	_, err = s.sales.AddLine(ctx, catalog.ModuleShop, cart.ID, sales.AddLineInput{
		Kind: sales.LineProduct, ItemID: p.ID, Quantity: d("3"),
	})
	require.NoError(t, err)

	// Lines come back through the product and service tables in one query.
	got, err := s.sales.Get(ctx, catalog.ModuleShop, cart.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, sales.LineProduct, got.Lines[0].Kind)
	assert.True(t, got.Lines[0].Total.Equal(d("30")), "line total %s", got.Lines[0].Total)

	finalized, err := s.sales.Finalize(ctx, catalog.ModuleShop, cart.ID, sales.FinalizeInput{
		PaymentMethod: "cash", InitialPayment: d("10"),
	})
	require.NoError(t, err)
	assert.Equal(t, sales.StatusValidated, finalized.Status)

	line, err := s.stock.Line(ctx, p.ID, s.pos.WarehouseID)
	require.NoError(t, err)
	assert.True(t, line.Quantity.Equal(d("7")), "stock after sale %s", line.Quantity)

	_, err = s.sales.AcceptPayment(ctx, catalog.ModuleShop, cart.ID, sales.PaymentInput{Amount: d("15")})
	require.NoError(t, err)

	_, err = s.sales.AcceptPayment(ctx, catalog.ModuleShop, cart.ID, sales.PaymentInput{Amount: d("20")})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, apperror.CodeOverpayment, appErr.Code)
	assert.Contains(t, appErr.Details["session_id"], "pg-")

	orders, err := s.reports.ListOrders(ctx, reports.OrderFilter{Module: catalog.ModuleShop, Search: finalized.Number})
	require.NoError(t, err)
	var order *reports.Order
	for i := range orders {
		if orders[i].ID == cart.ID {
			order = &orders[i]
		}
	}
	require.NotNil(t, order, "order %s not listed", finalized.Number)
	assert.True(t, order.AmountPaid.Equal(d("25")), "paid %s", order.AmountPaid)

	detail, err := s.reports.OrderDetail(ctx, catalog.ModuleShop, cart.ID)
	require.NoError(t, err)
	require.Len(t, detail.Lines, 1)
	assert.Equal(t, p.Name, detail.Lines[0].Name)
	assert.Len(t, detail.Payments, 2)
	assert.True(t, detail.Net.Equal(d("30")))

	row := s.summary(t, p.ID)
	assert.True(t, row.Initial.Equal(d("10")), "initial %s", row.Initial)
	assert.True(t, row.Sold.Equal(d("3")), "sold %s", row.Sold)
	assert.True(t, row.Remaining.Equal(d("7")), "remaining %s", row.Remaining)

	cancelled, err := s.sales.Cancel(ctx, catalog.ModuleShop, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, sales.StatusCancelled, cancelled.Status)

	line, err = s.stock.Line(ctx, p.ID, s.pos.WarehouseID)
	require.NoError(t, err)
	assert.True(t, line.Quantity.Equal(d("10")), "stock after cancel %s", line.Quantity)

	// Sale, cost, payments, refund and reversals cancel out on every account.
	balances, n := s.balances(t, cart.Reference())
	assert.GreaterOrEqual(t, n, 6)
	for account, balance := range balances {
		assert.True(t, balance.IsZero(), "account %s balance %s", account, balance)
	}

	row = s.summary(t, p.ID)
	assert.True(t, row.Added.IsZero(), "added %s", row.Added)
	assert.True(t, row.Sold.IsZero(), "sold %s", row.Sold)
	assert.True(t, row.Remaining.Equal(d("10")), "remaining %s", row.Remaining)

	_, err = s.sales.Cancel(ctx, catalog.ModuleShop, cart.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeAlreadyCancelled), "got %v", err)
}

func TestShopCart_InsufficientStockRollsBack(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	p := s.product(t, "10.00", "4.00", "2")

	cart, err := s.sales.Create(ctx, sales.CreateInput{Module: catalog.ModuleShop, POSID: s.pos.ID})
	require.NoError(t, err)
	_, err = s.sales.AddLine(ctx, catalog.ModuleShop, cart.ID, sales.AddLineInput{
		Kind: sales.LineProduct, ItemID: p.ID, Quantity: d("5"),
	})
	require.NoError(t, err)

	_, err = s.sales.Finalize(ctx, catalog.ModuleShop, cart.ID, sales.FinalizeInput{InitialPayment: d("50")})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Contains(t, appErr.Details["session_id"], "pg-")

	got, err := s.sales.Get(ctx, catalog.ModuleShop, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, sales.StatusDraft, got.Status)
	assert.Empty(t, got.Payments)

	line, err := s.stock.Line(ctx, p.ID, s.pos.WarehouseID)
	require.NoError(t, err)
	assert.True(t, line.Quantity.Equal(d("2")))

	_, n := s.balances(t, cart.Reference())
	assert.Zero(t, n)
}
