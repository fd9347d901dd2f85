package entities

import (
	"time"

	valueobjects "stablesettle/internal/domain/value_objects"

	"github.com/shopspring/decimal"
)

// Balance rows keep Total == Onchain + Offchain; only settlement and payout
// completion move them.
type Balance struct {
	MerchantID string
	Currency   valueobjects.Currency
	Total      decimal.Decimal
	Onchain    decimal.Decimal
	Offchain   decimal.Decimal
	UpdatedAt  time.Time
}

func ZeroBalance(merchantID string, currency valueobjects.Currency) Balance {
	return Balance{
		MerchantID: merchantID,
		Currency:   currency,
		Total:      decimal.Zero,
		Onchain:    decimal.Zero,
		Offchain:   decimal.Zero,
	}
}
