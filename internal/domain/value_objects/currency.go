package valueobjects

import (
	"strings"

	apperrors "stablesettle/internal/shared_kernel/errors"
)

type Currency string

const (
	CurrencyUSDC Currency = "USDC"
	CurrencyUSDT Currency = "USDT"
)

func ParseCurrency(raw string) (Currency, *apperrors.AppError) {
	normalized := Currency(strings.ToUpper(strings.TrimSpace(raw)))
	switch normalized {
	case CurrencyUSDC, CurrencyUSDT:
		return normalized, nil
	case "":
		return "", apperrors.NewValidation(
			"invalid_request",
			"currency is required",
			map[string]any{"field": "currency"},
		)
	default:
		return "", apperrors.NewValidation(
			"unsupported_currency",
			"currency is not supported",
			map[string]any{"currency": raw},
		)
	}
}

func (c Currency) String() string {
	return string(c)
}
