package sales_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ayanna/internal/core/apperror"
	"ayanna/internal/domain/catalog"
	"ayanna/internal/domain/events"
	"ayanna/internal/domain/journal"
	"ayanna/internal/domain/sales"
	"ayanna/internal/domain/stock"
)

func TestCancel_ValidatedCartIsUnwound(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	wh := e.pos[catalog.ModuleShop].WarehouseID
	p := e.product(catalog.ModuleShop, "20.00", "12", "10")

	cart := e.cart(t, catalog.ModuleShop, productLine(p, "3"))
	_, err := e.sales.Finalize(ctx, catalog.ModuleShop, cart.ID, sales.FinalizeInput{InitialPayment: d("60")})
	require.NoError(t, err)
	require.Equal(t, "7", e.store.StockLine(p.ID, wh).Quantity.String())

	cart, err = e.sales.Cancel(ctx, catalog.ModuleShop, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, sales.StatusCancelled, cart.Status)

	assert.Equal(t, "10", e.store.StockLine(p.ID, wh).Quantity.String())

	got, err := e.sales.Get(ctx, catalog.ModuleShop, cart.ID)
	require.NoError(t, err)
	require.Len(t, got.Payments, 1)
	assert.True(t, got.Payments[0].Amount.IsZero())
	assert.True(t, got.Paid().IsZero())

	refund := e.journalsOf(cart.Reference(), journal.KindCancel)
	require.Len(t, refund, 1)
	assert.Equal(t, map[string]string{"411": "60.00", "571": "-60.00"}, e.byCode(amounts(refund[0])))

	reversals := e.journalsOf(cart.Reference()+sales.ReversalSuffix, journal.KindCancel)
	require.Len(t, reversals, 2)
	for _, r := range reversals {
		require.NotNil(t, r.ReversalOf)
		assert.Contains(t, r.Label, "Annulation ")
	}

	for account, balance := range journal.AccountBalances(e.store.Journals()) {
		assert.True(t, balance.IsZero(), "account %s keeps %s", account, balance)
	}

	exits, err := e.stock.MovementsByReference(ctx, cart.Reference(), stock.KindExit)
	require.NoError(t, err)
	entries, err := e.stock.MovementsByReference(ctx, sales.CancelReference(cart.ID), stock.KindEntry)
	require.NoError(t, err)
	assert.True(t, sumQty(exits).Equal(sumQty(entries)))

	last := e.store.Events()[len(e.store.Events())-1]
	assert.Equal(t, events.SaleCancelled, last.Type)
}

func TestCancel_Twice(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.product(catalog.ModuleShop, "20.00", "12", "10")
	cart := e.cart(t, catalog.ModuleShop, productLine(p, "1"))
	_, err := e.sales.Finalize(ctx, catalog.ModuleShop, cart.ID, sales.FinalizeInput{})
	require.NoError(t, err)

	_, err = e.sales.Cancel(ctx, catalog.ModuleShop, cart.ID)
	require.NoError(t, err)
	journals := len(e.store.Journals())

	_, err = e.sales.Cancel(ctx, catalog.ModuleShop, cart.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeAlreadyCancelled))
	assert.Len(t, e.store.Journals(), journals)
}

func TestCancel_DraftIsDiscarded(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.product(catalog.ModuleShop, "20.00", "12", "10")
	cart := e.cart(t, catalog.ModuleShop, productLine(p, "1"))

	cart, err := e.sales.Cancel(ctx, catalog.ModuleShop, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, sales.StatusCancelled, cart.Status)
	assert.Empty(t, e.store.Movements())
	assert.Empty(t, e.store.Journals())

	_, err = e.sales.Finalize(ctx, catalog.ModuleShop, cart.ID, sales.FinalizeInput{})
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidState))
}

func sumQty(ms []stock.Movement) decimal.Decimal {
	total := decimal.Zero
	for _, m := range ms {
		total = total.Add(m.Quantity)
	}
	return total
}
