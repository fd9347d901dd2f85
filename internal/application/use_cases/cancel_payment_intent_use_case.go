package use_cases

import (
	"context"

	"stablesettle/internal/application/dto"
	portsin "stablesettle/internal/application/ports/in"
	portsout "stablesettle/internal/application/ports/out"
	"stablesettle/internal/domain/entities"
	valueobjects "stablesettle/internal/domain/value_objects"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type cancelPaymentIntentUseCase struct {
	repository portsout.PaymentIntentRepository
	events     *WebhookEventFactory
	clock      Clock
}

func NewCancelPaymentIntentUseCase(
	repository portsout.PaymentIntentRepository,
	events *WebhookEventFactory,
	clock Clock,
) portsin.CancelPaymentIntentUseCase {
	return &cancelPaymentIntentUseCase{
		repository: repository,
		events:     eventFactoryOrDefault(events, nil),
		clock:      clock,
	}
}

func (u *cancelPaymentIntentUseCase) Execute(
	ctx context.Context,
	command dto.CancelPaymentIntentCommand,
) (dto.PaymentIntentResource, *apperrors.AppError) {
	if u.repository == nil {
		return dto.PaymentIntentResource{}, missingDependency("payment_intent_repository_missing", "payment intent repository is required")
	}
	merchantID, appErr := requireMerchantID(command.MerchantID)
	if appErr != nil {
		return dto.PaymentIntentResource{}, appErr
	}
	id, appErr := requireField("id", command.ID)
	if appErr != nil {
		return dto.PaymentIntentResource{}, appErr
	}

	intent, found, appErr := u.repository.GetByID(ctx, merchantID, id)
	if appErr != nil {
		return dto.PaymentIntentResource{}, appErr
	}
	if !found {
		return dto.PaymentIntentResource{}, apperrors.NewNotFound(
			"payment_intent_not_found",
			"payment intent was not found",
			map[string]any{"id": id},
		)
	}
	// An intent with a bound transfer is already on its way to settlement.
	if intent.Status != valueobjects.PaymentIntentStatusPending || intent.TxSignature != nil {
		return dto.PaymentIntentResource{}, paymentIntentInvalidState(intent)
	}

	now := resolveNow(u.clock, command.Now)
	cancelled := intent
	cancelled.Status = valueobjects.PaymentIntentStatusCancelled
	cancelled.UpdatedAt = now
	event, appErr := u.events.PaymentIntentEvent(entities.EventPaymentCancelled, cancelled, now)
	if appErr != nil {
		return dto.PaymentIntentResource{}, appErr
	}

	updated, appErr := u.repository.TransitionStatusIfCurrent(ctx, dto.PaymentIntentTransition{
		ID:         intent.ID,
		MerchantID: merchantID,
		FromStatus: valueobjects.PaymentIntentStatusPending.String(),
		ToStatus:   valueobjects.PaymentIntentStatusCancelled.String(),
		Event:      &event,
		Now:        now,
	})
	if appErr != nil {
		return dto.PaymentIntentResource{}, appErr
	}
	if !updated {
		current, _, _ := u.repository.GetByID(ctx, merchantID, id)
		return dto.PaymentIntentResource{}, paymentIntentInvalidState(current)
	}

	return toPaymentIntentResource(cancelled), nil
}

func paymentIntentInvalidState(intent entities.PaymentIntent) *apperrors.AppError {
	return apperrors.NewConflict(
		"invalid_state",
		"payment intent can no longer be cancelled",
		map[string]any{"id": intent.ID, "status": intent.Status.String()},
	)
}
