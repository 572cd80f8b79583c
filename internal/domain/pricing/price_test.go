package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ayanna/internal/core/apperror"
	"ayanna/internal/core/id"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestPrice_RetailSaleWithoutTax(t *testing.T) {
	b, err := Price([]Line{
		{Quantity: d("2"), UnitPrice: d("25.00")},
		{Quantity: d("1"), UnitPrice: d("50.00")},
	}, decimal.Zero, decimal.Zero)
	require.NoError(t, err)

	assert.True(t, b.SubtotalHT.Equal(d("100")), b.SubtotalHT.String())
	assert.True(t, b.Tax.IsZero())
	assert.True(t, b.TTCPreDiscount.Equal(d("100")))
	assert.True(t, b.DiscountAmount.IsZero())
	assert.True(t, b.Net.Equal(d("100")))
}

func TestPrice_ReservationStoresTTCPreDiscount(t *testing.T) {
	b, err := Price([]Line{{Quantity: d("1"), UnitPrice: d("900.00")}}, d("20"), d("10"))
	require.NoError(t, err)

	assert.True(t, b.Tax.Equal(d("180")), b.Tax.String())
	assert.True(t, b.TTCPreDiscount.Equal(d("1080")), b.TTCPreDiscount.String())
	assert.True(t, b.DiscountAmount.Equal(d("108")), b.DiscountAmount.String())
	assert.True(t, b.Net.Equal(d("972")), b.Net.String())
}

func TestPrice_RoundsHalfEven(t *testing.T) {
	tests := []struct {
		name     string
		subtotal string
		rate     string
		wantTax  string
	}{
		{name: "half to even down", subtotal: "10.25", rate: "10", wantTax: "1.02"},
		{name: "half to even up", subtotal: "10.35", rate: "10", wantTax: "1.04"},
		{name: "above half", subtotal: "10.26", rate: "10", wantTax: "1.03"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Price([]Line{{Quantity: d("1"), UnitPrice: d(tt.subtotal)}}, d(tt.rate), decimal.Zero)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTax, b.Tax.StringFixed(2))
		})
	}
}

func TestPrice_RoundTripHolds(t *testing.T) {
	b, err := Price([]Line{
		{Quantity: d("3"), UnitPrice: d("19.99")},
		{Quantity: d("0.5"), UnitPrice: d("7.13")},
	}, d("16"), d("12.5"))
	require.NoError(t, err)

	assert.True(t, b.TTCPreDiscount.Equal(b.SubtotalHT.Add(b.Tax)))
	assert.True(t, b.Net.Equal(b.TTCPreDiscount.Sub(b.DiscountAmount)))

	exact := b.TTCPreDiscount.Mul(decimal.NewFromInt(1).Sub(d("12.5").Div(decimal.NewFromInt(100))))
	assert.True(t, b.Net.Sub(exact).Abs().LessThanOrEqual(d("0.01")), "net %s vs exact %s", b.Net, exact)
}

func TestPrice_RejectsBadInputs(t *testing.T) {
	line := []Line{{Quantity: d("1"), UnitPrice: d("10")}}

	_, err := Price(line, decimal.Zero, d("101"))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = Price(line, decimal.Zero, d("-1"))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = Price(line, d("-5"), decimal.Zero)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = Price([]Line{{Quantity: decimal.Zero, UnitPrice: d("10")}}, decimal.Zero, decimal.Zero)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestAllocateByAccount_GroupsAndKeepsOrder(t *testing.T) {
	a, b, tax := id.New(), id.New(), id.New()

	got, err := AllocateByAccount([]Share{
		{AccountID: a, Brut: d("400")},
		{AccountID: b, Brut: d("300")},
		{AccountID: a, Brut: d("200")},
		{AccountID: tax, Brut: d("180")},
	}, d("1080"), d("1080"))
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, a, got[0].AccountID)
	assert.Equal(t, "600.00", got[0].Amount.StringFixed(2))
	assert.Equal(t, b, got[1].AccountID)
	assert.Equal(t, "300.00", got[1].Amount.StringFixed(2))
	assert.Equal(t, tax, got[2].AccountID)
	assert.Equal(t, "180.00", got[2].Amount.StringFixed(2))
}

func TestAllocateByAccount_ResidualGoesToLargestGroup(t *testing.T) {
	a, b, c := id.New(), id.New(), id.New()

	got, err := AllocateByAccount([]Share{
		{AccountID: a, Brut: d("1")},
		{AccountID: b, Brut: d("2")},
		{AccountID: c, Brut: d("3")},
	}, d("100"), d("6"))
	require.NoError(t, err)

	// 16.666.., 33.333.., 50 → 16.67 + 33.33 + 50.00 = 100.00, no residual
	assert.Equal(t, "16.67", got[0].Amount.StringFixed(2))
	assert.Equal(t, "33.33", got[1].Amount.StringFixed(2))
	assert.Equal(t, "50.00", got[2].Amount.StringFixed(2))

	got, err = AllocateByAccount([]Share{
		{AccountID: a, Brut: d("1")},
		{AccountID: b, Brut: d("1")},
		{AccountID: c, Brut: d("1")},
	}, d("100"), d("3"))
	require.NoError(t, err)

	// 33.33 × 3 = 99.99; the cent goes to the first of the tied groups
	assert.Equal(t, "33.34", got[0].Amount.StringFixed(2))
	assert.Equal(t, "33.33", got[1].Amount.StringFixed(2))
	assert.Equal(t, "33.33", got[2].Amount.StringFixed(2))
}

func TestAllocateByAccount_SumIsExact(t *testing.T) {
	shares := []Share{
		{AccountID: id.New(), Brut: d("600")},
		{AccountID: id.New(), Brut: d("300")},
		{AccountID: id.New(), Brut: d("180")},
	}
	for _, amount := range []string{"100", "0.01", "486", "972", "333.33", "1079.99"} {
		got, err := AllocateByAccount(shares, d(amount), d("1080"))
		require.NoError(t, err)

		sum := decimal.Zero
		for _, g := range got {
			sum = sum.Add(g.Amount)
		}
		assert.True(t, sum.Equal(d(amount)), "amount %s allocated as %s", amount, sum)
	}
}

func TestAllocateByAccount_RejectsZeroTotal(t *testing.T) {
	_, err := AllocateByAccount([]Share{{AccountID: id.New(), Brut: d("1")}}, d("1"), decimal.Zero)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestAllocatePayment_PartialPaymentsConverge(t *testing.T) {
	a, b, tax := id.New(), id.New(), id.New()
	shares := []Share{
		{AccountID: a, Brut: d("600")},
		{AccountID: b, Brut: d("300")},
		{AccountID: tax, Brut: d("180")},
	}
	total := d("1080")

	first, err := AllocatePayment(shares, total, decimal.Zero, d("486"))
	require.NoError(t, err)
	second, err := AllocatePayment(shares, total, d("486"), d("486"))
	require.NoError(t, err)

	full, err := AllocateByAccount(shares, d("972"), total)
	require.NoError(t, err)

	for i := range full {
		cumulative := first[i].Amount.Add(second[i].Amount)
		assert.True(t, cumulative.Equal(full[i].Amount),
			"account %d: %s + %s != %s", i, first[i].Amount, second[i].Amount, full[i].Amount)
	}
	assert.Equal(t, "270.00", first[0].Amount.StringFixed(2))
	assert.Equal(t, "135.00", first[1].Amount.StringFixed(2))
	assert.Equal(t, "81.00", first[2].Amount.StringFixed(2))
}

func TestAllocatePayment_EachPaymentSumsExactly(t *testing.T) {
	shares := []Share{
		{AccountID: id.New(), Brut: d("600")},
		{AccountID: id.New(), Brut: d("300")},
		{AccountID: id.New(), Brut: d("180")},
	}
	paid := decimal.Zero
	for _, p := range []string{"100", "77.77", "0.01", "794.22"} {
		got, err := AllocatePayment(shares, d("1080"), paid, d(p))
		require.NoError(t, err)

		sum := decimal.Zero
		for _, g := range got {
			sum = sum.Add(g.Amount)
		}
		assert.True(t, sum.Equal(d(p)), "payment %s allocated as %s", p, sum)
		paid = paid.Add(d(p))
	}
}
