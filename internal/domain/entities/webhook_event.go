package entities

import (
	"encoding/json"
	"time"

	"stablesettle/internal/domain/policies"
	valueobjects "stablesettle/internal/domain/value_objects"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

const (
	EventPaymentSucceeded = "payment.succeeded"
	EventPaymentFailed    = "payment.failed"
	EventPaymentExpired   = "payment.expired"
	EventPaymentCancelled = "payment.cancelled"
	EventPayoutApproved   = "payout.approved"
	EventPayoutRejected   = "payout.rejected"
	EventPayoutCompleted  = "payout.completed"
	EventPayoutFailed     = "payout.failed"
	EventPayoutExpired    = "payout.expired"
	EventPayoutCancelled  = "payout.cancelled"

	ResourceTypePaymentIntent = "payment_intent"
	ResourceTypePayout        = "payout"
)

type WebhookEvent struct {
	ID                 string
	MerchantID         string
	EventType          string
	ResourceType       string
	ResourceID         string
	Payload            []byte
	Status             valueobjects.WebhookEventStatus
	Attempts           int
	MaxAttempts        int
	NextRetryAt        time.Time
	ResponseStatusCode *int
	LastError          *string
	DeliveredAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type NewWebhookEventInput struct {
	ID           string
	MerchantID   string
	EventType    string
	ResourceType string
	ResourceID   string
	Data         any
	MaxAttempts  int
	CreatedAt    time.Time
}

type webhookEnvelope struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	MerchantID string    `json:"merchant_id"`
	CreatedAt  time.Time `json:"created_at"`
	Data       any       `json:"data"`
}

// NewWebhookEvent freezes the payload bytes at enqueue time; the dispatcher signs
// exactly these bytes.
func NewWebhookEvent(input NewWebhookEventInput) (WebhookEvent, *apperrors.AppError) {
	createdAt := input.CreatedAt.UTC()
	payload, err := json.Marshal(webhookEnvelope{
		ID:         input.ID,
		Type:       input.EventType,
		MerchantID: input.MerchantID,
		CreatedAt:  createdAt,
		Data:       input.Data,
	})
	if err != nil {
		return WebhookEvent{}, apperrors.NewInternal(
			"webhook_payload_encode_failed",
			"failed to encode webhook payload",
			map[string]any{"event_type": input.EventType, "error": err.Error()},
		)
	}

	maxAttempts := input.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = policies.DefaultWebhookMaxAttempts
	}

	return WebhookEvent{
		ID:           input.ID,
		MerchantID:   input.MerchantID,
		EventType:    input.EventType,
		ResourceType: input.ResourceType,
		ResourceID:   input.ResourceID,
		Payload:      payload,
		Status:       valueobjects.WebhookEventStatusPending,
		MaxAttempts:  maxAttempts,
		NextRetryAt:  createdAt,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}, nil
}
