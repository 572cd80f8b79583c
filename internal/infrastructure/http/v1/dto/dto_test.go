package dto

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ayanna/internal/core/apperror"
	"ayanna/internal/domain/catalog"
)

func newValidator(t *testing.T) *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	require.NoError(t, RegisterDecimalRules(v))
	return v
}

func TestDecimalRules_Percent(t *testing.T) {
	v := newValidator(t)

	for _, tc := range []struct {
		value string
		ok    bool
	}{
		{"0", true},
		{"12.5", true},
		{"100", true},
		{"100.01", false},
		{"-1", false},
	} {
		err := v.Struct(DiscountRequest{Percent: decimal.RequireFromString(tc.value)})
		if tc.ok {
			assert.NoError(t, err, tc.value)
		} else {
			assert.Error(t, err, tc.value)
		}
	}
}

func TestDecimalRules_Positive(t *testing.T) {
	v := newValidator(t)

	assert.NoError(t, v.Struct(PaymentRequest{Amount: decimal.RequireFromString("0.01")}))
	assert.Error(t, v.Struct(PaymentRequest{Amount: decimal.Zero}))
	assert.Error(t, v.Struct(PaymentRequest{Amount: decimal.RequireFromString("-5")}))
}

func TestDecimalRules_OptionalPointer(t *testing.T) {
	v := newValidator(t)
	req := CreateCartRequest{Module: "event", POSID: "x"}

	assert.NoError(t, v.Struct(req))

	bad := decimal.NewFromInt(150)
	req.TaxRate = &bad
	assert.Error(t, v.Struct(req))
}

func TestParseDay(t *testing.T) {
	from, err := ParseDay("dateFrom", "2026-03-01", false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), from)

	to, err := ParseDay("dateTo", "2026-03-01", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 23, 59, 59, 999999999, time.UTC), to)

	empty, err := ParseDay("dateTo", " ", true)
	require.NoError(t, err)
	assert.True(t, empty.IsZero())

	_, err = ParseDay("dateFrom", "01/03/2026", false)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Equal(t, "dateFrom", appErr.Details["field"])
}

func TestCreateCartRequest_ToInput(t *testing.T) {
	pos := "0190a1b2-0000-7000-8000-000000000001"
	client := ""
	req := CreateCartRequest{Module: "shop", POSID: pos, ClientID: &client}

	in, err := req.ToInput()
	require.NoError(t, err)
	assert.Equal(t, catalog.ModuleShop, in.Module)
	assert.Equal(t, pos, in.POSID.String())
	assert.Nil(t, in.ClientID)

	bad := "not-a-uuid"
	req.TableID = &bad
	_, err = req.ToInput()
	assert.Error(t, err)
}

func TestOrdersQuery_ToFilter(t *testing.T) {
	f, err := OrdersQuery{DateFrom: "2026-01-01", DateTo: "2026-01-31", Module: "event", Limit: 10}.ToFilter()
	require.NoError(t, err)
	assert.Equal(t, catalog.ModuleEvent, f.Module)
	assert.Equal(t, 31, f.To.Day())
	assert.Equal(t, 23, f.To.Hour())
	assert.Equal(t, 10, f.Limit)
}
