package valueobjects

import apperrors "stablesettle/internal/shared_kernel/errors"

type PayoutStatus string

const (
	PayoutStatusPending           PayoutStatus = "pending"
	PayoutStatusApproved          PayoutStatus = "approved"
	PayoutStatusRejected          PayoutStatus = "rejected"
	PayoutStatusAwaitingSignature PayoutStatus = "awaiting_signature"
	PayoutStatusProcessing        PayoutStatus = "processing"
	PayoutStatusCompleted         PayoutStatus = "completed"
	PayoutStatusFailed            PayoutStatus = "failed"
	PayoutStatusExpired           PayoutStatus = "expired"
	PayoutStatusCancelled         PayoutStatus = "cancelled"
)

// An expired payout can only move forward by regenerating its unsigned transaction.
var payoutTransitions = map[PayoutStatus][]PayoutStatus{
	PayoutStatusPending:           {PayoutStatusApproved, PayoutStatusRejected, PayoutStatusCancelled},
	PayoutStatusApproved:          {PayoutStatusAwaitingSignature, PayoutStatusCancelled},
	PayoutStatusAwaitingSignature: {PayoutStatusProcessing, PayoutStatusExpired},
	PayoutStatusExpired:           {PayoutStatusAwaitingSignature},
	PayoutStatusProcessing:        {PayoutStatusCompleted, PayoutStatusFailed},
}

func ParsePayoutStatus(raw string) (PayoutStatus, *apperrors.AppError) {
	status := PayoutStatus(raw)
	if _, ok := payoutTransitions[status]; ok {
		return status, nil
	}
	switch status {
	case PayoutStatusRejected, PayoutStatusCompleted, PayoutStatusFailed, PayoutStatusCancelled:
		return status, nil
	default:
		return "", apperrors.NewValidation(
			"payout_status_invalid",
			"payout status is invalid",
			map[string]any{"status": raw},
		)
	}
}

func (s PayoutStatus) CanTransitionTo(next PayoutStatus) bool {
	for _, candidate := range payoutTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// IsCancellable is true only before anything has been handed to the signer or broadcast.
func (s PayoutStatus) IsCancellable() bool {
	return s.CanTransitionTo(PayoutStatusCancelled)
}

func (s PayoutStatus) String() string {
	return string(s)
}
