package valueobjects

import apperrors "stablesettle/internal/shared_kernel/errors"

type PaymentIntentStatus string

const (
	PaymentIntentStatusPending    PaymentIntentStatus = "pending"
	PaymentIntentStatusProcessing PaymentIntentStatus = "processing"
	PaymentIntentStatusSucceeded  PaymentIntentStatus = "succeeded"
	PaymentIntentStatusFailed     PaymentIntentStatus = "failed"
	PaymentIntentStatusCancelled  PaymentIntentStatus = "cancelled"
	PaymentIntentStatusExpired    PaymentIntentStatus = "expired"
)

var paymentIntentTransitions = map[PaymentIntentStatus][]PaymentIntentStatus{
	PaymentIntentStatusPending: {
		PaymentIntentStatusProcessing,
		PaymentIntentStatusFailed,
		PaymentIntentStatusCancelled,
		PaymentIntentStatusExpired,
	},
	PaymentIntentStatusProcessing: {
		PaymentIntentStatusSucceeded,
		PaymentIntentStatusFailed,
	},
}

func ParsePaymentIntentStatus(raw string) (PaymentIntentStatus, *apperrors.AppError) {
	status := PaymentIntentStatus(raw)
	switch status {
	case PaymentIntentStatusPending,
		PaymentIntentStatusProcessing,
		PaymentIntentStatusSucceeded,
		PaymentIntentStatusFailed,
		PaymentIntentStatusCancelled,
		PaymentIntentStatusExpired:
		return status, nil
	default:
		return "", apperrors.NewInternal(
			"payment_intent_status_invalid",
			"payment intent status is invalid",
			map[string]any{"status": raw},
		)
	}
}

func (s PaymentIntentStatus) CanTransitionTo(next PaymentIntentStatus) bool {
	for _, candidate := range paymentIntentTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

func (s PaymentIntentStatus) IsTerminal() bool {
	return len(paymentIntentTransitions[s]) == 0
}

func (s PaymentIntentStatus) String() string {
	return string(s)
}
