package dto

import (
	"reflect"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// RegisterValidators installs the decimal rules on gin's binding validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return RegisterDecimalRules(v)
}

// RegisterDecimalRules teaches v to validate decimal.Decimal fields:
//   - percent: 0 <= x <= 100
//   - decimal_positive: x > 0
//
// Decimals are validated through their string form so "required" and "omitempty"
// keep working on pointer fields.
func RegisterDecimalRules(v *validator.Validate) error {
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	if err := v.RegisterValidation("percent", func(fl validator.FieldLevel) bool {
		d, ok := fieldDecimal(fl)
		return ok && !d.IsNegative() && d.LessThanOrEqual(hundred)
	}); err != nil {
		return err
	}
	return v.RegisterValidation("decimal_positive", func(fl validator.FieldLevel) bool {
		d, ok := fieldDecimal(fl)
		return ok && d.IsPositive()
	})
}

func fieldDecimal(fl validator.FieldLevel) (decimal.Decimal, bool) {
	if fl.Field().Kind() != reflect.String {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(fl.Field().String())
	return d, err == nil
}
