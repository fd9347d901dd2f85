package use_cases

import (
	"time"

	"stablesettle/internal/domain/entities"
	"stablesettle/internal/domain/policies"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

// WebhookEventFactory builds outbox events with the configured delivery budget.
type WebhookEventFactory struct {
	ids         IDGenerator
	maxAttempts int
}

func NewWebhookEventFactory(ids IDGenerator, maxAttempts int) *WebhookEventFactory {
	if maxAttempts <= 0 {
		maxAttempts = policies.DefaultWebhookMaxAttempts
	}
	return &WebhookEventFactory{ids: idsOrDefault(ids), maxAttempts: maxAttempts}
}

func eventFactoryOrDefault(factory *WebhookEventFactory, ids IDGenerator) *WebhookEventFactory {
	if factory == nil {
		return NewWebhookEventFactory(ids, 0)
	}
	return factory
}

func (f *WebhookEventFactory) PaymentIntentEvent(
	eventType string,
	intent entities.PaymentIntent,
	now time.Time,
) (entities.WebhookEvent, *apperrors.AppError) {
	return entities.NewWebhookEvent(entities.NewWebhookEventInput{
		ID:           f.ids.NewID(idPrefixWebhookEvent),
		MerchantID:   intent.MerchantID,
		EventType:    eventType,
		ResourceType: entities.ResourceTypePaymentIntent,
		ResourceID:   intent.ID,
		Data:         toPaymentIntentResource(intent),
		MaxAttempts:  f.maxAttempts,
		CreatedAt:    now,
	})
}

func (f *WebhookEventFactory) PayoutEvent(
	eventType string,
	payout entities.Payout,
	now time.Time,
) (entities.WebhookEvent, *apperrors.AppError) {
	resource := toPayoutResource(payout)
	resource.UnsignedTransaction = nil
	return entities.NewWebhookEvent(entities.NewWebhookEventInput{
		ID:           f.ids.NewID(idPrefixWebhookEvent),
		MerchantID:   payout.MerchantID,
		EventType:    eventType,
		ResourceType: entities.ResourceTypePayout,
		ResourceID:   payout.ID,
		Data:         resource,
		MaxAttempts:  f.maxAttempts,
		CreatedAt:    now,
	})
}
