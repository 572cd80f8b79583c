package catalog

import (
	"github.com/ttacon/libphonenumber"

	"ayanna/internal/core/apperror"
)

// DefaultPhoneRegion is used for numbers written without an international prefix.
const DefaultPhoneRegion = "CD"

// NormalizePhone parses raw in region and returns it in E.164 form.
func NormalizePhone(raw, region string) (string, error) {
	num, err := libphonenumber.Parse(raw, region)
	if err != nil {
		return "", apperror.NewValidation("phone number cannot be parsed").
			WithDetail("field", "phone").
			WithDetail("value", raw)
	}
	if !libphonenumber.IsValidNumber(num) {
		return "", apperror.NewValidation("phone number is not valid").
			WithDetail("field", "phone").
			WithDetail("value", raw)
	}
	return libphonenumber.Format(num, libphonenumber.E164), nil
}
