package entities

import (
	"strings"
	"time"

	"stablesettle/internal/domain/policies"
	valueobjects "stablesettle/internal/domain/value_objects"
	apperrors "stablesettle/internal/shared_kernel/errors"

	"github.com/shopspring/decimal"
)

type Payout struct {
	ID                   string
	MerchantID           string
	Amount               decimal.Decimal
	FeeAmount            decimal.Decimal
	NetAmount            decimal.Decimal
	Currency             valueobjects.Currency
	Chain                valueobjects.Chain
	DestinationID        *string
	DestinationAddress   string
	Status               valueobjects.PayoutStatus
	RequiresApproval     bool
	UnsignedTransaction  *UnsignedTransaction
	SourceWalletAddress  *string
	TransactionExpiresAt *time.Time
	TxSignature          *string
	SignedTransaction    *string
	ErrorMessage         *string
	RejectionReason      *string
	ReviewedBy           *string
	ReviewNotes          *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type NewPayoutInput struct {
	ID                 string
	MerchantID         string
	Amount             decimal.Decimal
	Currency           valueobjects.Currency
	Chain              valueobjects.Chain
	DestinationID      *string
	DestinationAddress string
	CreatedAt          time.Time
}

func NewPayout(input NewPayoutInput) (Payout, *apperrors.AppError) {
	if strings.TrimSpace(input.ID) == "" {
		return Payout{}, apperrors.NewInternal("payout_id_missing", "payout id is required", nil)
	}
	if input.Amount.LessThan(policies.MinimumPayoutAmount) {
		return Payout{}, apperrors.NewValidation(
			"invalid_amount",
			"payout amount is below the minimum",
			map[string]any{
				"field":   "amount",
				"minimum": policies.MinimumPayoutAmount.String(),
			},
		)
	}
	if input.DestinationAddress == "" {
		return Payout{}, apperrors.NewValidation(
			"invalid_destination",
			"payout destination is required",
			map[string]any{"field": "destination_address"},
		)
	}

	quote := policies.QuotePayout(input.Amount)
	if quote.NetAmount.IsNegative() {
		return Payout{}, apperrors.NewValidation(
			"invalid_amount",
			"payout net amount must not be negative",
			map[string]any{"field": "amount"},
		)
	}

	return Payout{
		ID:                 input.ID,
		MerchantID:         input.MerchantID,
		Amount:             quote.Amount,
		FeeAmount:          quote.FeeAmount,
		NetAmount:          quote.NetAmount,
		Currency:           input.Currency,
		Chain:              input.Chain,
		DestinationID:      input.DestinationID,
		DestinationAddress: input.DestinationAddress,
		Status:             quote.InitialStatus(),
		RequiresApproval:   quote.RequiresApproval,
		CreatedAt:          input.CreatedAt.UTC(),
		UpdatedAt:          input.CreatedAt.UTC(),
	}, nil
}

func (p Payout) IsSigningWindowClosed(now time.Time) bool {
	return p.TransactionExpiresAt == nil || now.After(*p.TransactionExpiresAt)
}
