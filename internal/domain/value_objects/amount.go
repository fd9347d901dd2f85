package valueobjects

import (
	"strings"

	apperrors "stablesettle/internal/shared_kernel/errors"

	"github.com/shopspring/decimal"
)

const maxAmountScale = 18

// ParseAmount accepts a positive decimal string such as "100" or "1492.5".
func ParseAmount(field string, raw string) (decimal.Decimal, *apperrors.AppError) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, apperrors.NewValidation(
			"invalid_amount",
			field+" is required",
			map[string]any{"field": field},
		)
	}

	amount, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, apperrors.NewValidation(
			"invalid_amount",
			field+" must be a decimal string",
			map[string]any{"field": field, "value": raw},
		)
	}
	if !amount.IsPositive() {
		return decimal.Zero, apperrors.NewValidation(
			"invalid_amount",
			field+" must be greater than zero",
			map[string]any{"field": field, "value": raw},
		)
	}
	if -amount.Exponent() > maxAmountScale {
		return decimal.Zero, apperrors.NewValidation(
			"invalid_amount",
			field+" has too many decimal places",
			map[string]any{"field": field, "max_scale": maxAmountScale},
		)
	}

	return amount, nil
}
