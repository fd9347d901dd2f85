package entities

import (
	"strings"
	"time"

	valueobjects "stablesettle/internal/domain/value_objects"
	apperrors "stablesettle/internal/shared_kernel/errors"

	"github.com/shopspring/decimal"
)

type PaymentIntent struct {
	ID                string
	MerchantID        string
	Amount            decimal.Decimal
	Currency          valueobjects.Currency
	Chain             valueobjects.Chain
	ExpectedTokenMint string
	TokenDecimals     int
	PaymentAddress    string
	Status            valueobjects.PaymentIntentStatus
	TxSignature       *string
	Confirmations     int64
	FailureReason     *string
	ExpiresAt         time.Time
	ConfirmedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type NewPaymentIntentInput struct {
	ID                string
	MerchantID        string
	Amount            decimal.Decimal
	Currency          valueobjects.Currency
	Chain             valueobjects.Chain
	ExpectedTokenMint string
	TokenDecimals     int
	PaymentAddress    string
	ExpiresAt         time.Time
	CreatedAt         time.Time
}

func NewPendingPaymentIntent(input NewPaymentIntentInput) (PaymentIntent, *apperrors.AppError) {
	if strings.TrimSpace(input.ID) == "" {
		return PaymentIntent{}, apperrors.NewInternal("payment_intent_id_missing", "payment intent id is required", nil)
	}
	if strings.TrimSpace(input.MerchantID) == "" {
		return PaymentIntent{}, apperrors.NewValidation(
			"invalid_request",
			"merchant_id is required",
			map[string]any{"field": "merchant_id"},
		)
	}
	if !input.Amount.IsPositive() {
		return PaymentIntent{}, apperrors.NewValidation(
			"invalid_amount",
			"amount must be greater than zero",
			map[string]any{"field": "amount"},
		)
	}
	if input.ExpectedTokenMint == "" || input.PaymentAddress == "" {
		return PaymentIntent{}, apperrors.NewInternal(
			"payment_intent_instructions_missing",
			"payment intent requires token and payment address",
			nil,
		)
	}
	if !input.ExpiresAt.After(input.CreatedAt) {
		return PaymentIntent{}, apperrors.NewInternal(
			"payment_intent_expiry_invalid",
			"payment intent expiry must be after creation",
			nil,
		)
	}

	return PaymentIntent{
		ID:                input.ID,
		MerchantID:        strings.TrimSpace(input.MerchantID),
		Amount:            input.Amount,
		Currency:          input.Currency,
		Chain:             input.Chain,
		ExpectedTokenMint: input.ExpectedTokenMint,
		TokenDecimals:     input.TokenDecimals,
		PaymentAddress:    input.PaymentAddress,
		Status:            valueobjects.PaymentIntentStatusPending,
		ExpiresAt:         input.ExpiresAt.UTC(),
		CreatedAt:         input.CreatedAt.UTC(),
		UpdatedAt:         input.CreatedAt.UTC(),
	}, nil
}

// IsOpenForMatching is true while the intent can still be bound to an inbound transfer.
func (p PaymentIntent) IsOpenForMatching(now time.Time) bool {
	return p.Status == valueobjects.PaymentIntentStatusPending &&
		p.TxSignature == nil &&
		p.ExpiresAt.After(now)
}
