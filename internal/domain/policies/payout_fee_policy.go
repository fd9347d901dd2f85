package policies

import (
	valueobjects "stablesettle/internal/domain/value_objects"

	"github.com/shopspring/decimal"
)

var (
	MinimumPayoutAmount     = decimal.NewFromInt(10)
	PayoutApprovalThreshold = decimal.NewFromInt(1000)
	PayoutFeeRate           = decimal.RequireFromString("0.005")
	MinimumPayoutFee        = decimal.NewFromInt(1)
)

type PayoutQuote struct {
	Amount           decimal.Decimal
	FeeAmount        decimal.Decimal
	NetAmount        decimal.Decimal
	RequiresApproval bool
}

// QuotePayout applies fee = max(amount*0.5%, 1.0) and the manual-approval threshold.
func QuotePayout(amount decimal.Decimal) PayoutQuote {
	fee := decimal.Max(amount.Mul(PayoutFeeRate), MinimumPayoutFee)
	return PayoutQuote{
		Amount:           amount,
		FeeAmount:        fee,
		NetAmount:        amount.Sub(fee),
		RequiresApproval: amount.GreaterThan(PayoutApprovalThreshold),
	}
}

func (q PayoutQuote) InitialStatus() valueobjects.PayoutStatus {
	if q.RequiresApproval {
		return valueobjects.PayoutStatusPending
	}
	return valueobjects.PayoutStatusApproved
}
