package policies

import (
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	transferToleranceLower = decimal.RequireFromString("0.99")
	transferToleranceUpper = decimal.RequireFromString("1.01")
)

type TransferMatchCriteria struct {
	PaymentAddress string
	TokenID        string
	Amount         decimal.Decimal
}

type ObservedTransfer struct {
	ToAddress string
	TokenID   string
	RawAmount *big.Int
	Decimals  int
}

// MatchesTransfer accepts a transfer to the intent's own address in the expected token
// whose raw amount lies within 1% of amount scaled by the token decimals.
func MatchesTransfer(criteria TransferMatchCriteria, transfer ObservedTransfer) bool {
	if transfer.RawAmount == nil || transfer.RawAmount.Sign() <= 0 {
		return false
	}
	if transfer.ToAddress != criteria.PaymentAddress || transfer.TokenID != criteria.TokenID {
		return false
	}

	expected := criteria.Amount.Shift(int32(transfer.Decimals))
	raw := decimal.NewFromBigInt(transfer.RawAmount, 0)

	return raw.GreaterThanOrEqual(expected.Mul(transferToleranceLower)) &&
		raw.LessThanOrEqual(expected.Mul(transferToleranceUpper))
}

// AmountFromRaw converts a raw integer token amount into whole units.
func AmountFromRaw(raw *big.Int, decimals int) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -int32(decimals))
}

// RawFromAmount converts whole units into the raw integer token amount, truncating dust
// below the token precision.
func RawFromAmount(amount decimal.Decimal, decimals int) *big.Int {
	return amount.Shift(int32(decimals)).Truncate(0).BigInt()
}
