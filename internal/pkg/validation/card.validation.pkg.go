package validation

import (
	"strings"

	"storefront-checkout/internal/pkg/helper"

	"github.com/go-playground/validator/v10"
)

const cardNumberLength = 16

func validateCardNumber(fl validator.FieldLevel) bool {
	return len(helper.DigitsOnly(fl.Field().String())) == cardNumberLength
}

func validateCardExpiry(fl validator.FieldLevel) bool {
	_, err := NormalizeExpiry(fl.Field().String())
	return err == nil
}

// NormalizeExpiry accepts M/YY, MM/YY, MM/YYYY and MMYY and returns MM/YY.
func NormalizeExpiry(raw string) (string, error) {
	raw = strings.TrimSpace(raw)

	var month, year string
	if i := strings.IndexAny(raw, "/-. "); i >= 0 {
		month, year = raw[:i], raw[i+1:]
	} else {
		if len(raw) != 4 {
			return "", ErrInvalidExpiry
		}
		month, year = raw[:2], raw[2:]
	}

	if helper.DigitsOnly(month) != month || helper.DigitsOnly(year) != year {
		return "", ErrInvalidExpiry
	}
	if len(year) == 4 {
		year = year[2:]
	}
	if len(month) == 1 {
		month = "0" + month
	}
	if len(month) != 2 || len(year) != 2 {
		return "", ErrInvalidExpiry
	}
	if month < "01" || month > "12" {
		return "", ErrInvalidExpiry
	}

	return month + "/" + year, nil
}
