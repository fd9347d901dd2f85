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

type expirePaymentIntentsUseCase struct {
	repository portsout.PaymentIntentRepository
	events     *WebhookEventFactory
	clock      Clock
}

func NewExpirePaymentIntentsUseCase(
	repository portsout.PaymentIntentRepository,
	events *WebhookEventFactory,
	clock Clock,
) portsin.ExpirePaymentIntentsUseCase {
	return &expirePaymentIntentsUseCase{
		repository: repository,
		events:     eventFactoryOrDefault(events, nil),
		clock:      clock,
	}
}

func (u *expirePaymentIntentsUseCase) Execute(
	ctx context.Context,
	command dto.ExpirePaymentIntentsCommand,
) (dto.ExpireSweepOutput, *apperrors.AppError) {
	if u.repository == nil {
		return dto.ExpireSweepOutput{}, missingDependency("payment_intent_repository_missing", "payment intent repository is required")
	}
	if command.BatchSize <= 0 {
		return dto.ExpireSweepOutput{}, apperrors.NewValidation(
			"expiry_batch_size_invalid",
			"expiry batch size must be greater than zero",
			map[string]any{"batch_size": command.BatchSize},
		)
	}

	now := resolveNow(u.clock, command.Now)
	intents, appErr := u.repository.ListExpiredPending(ctx, now, command.BatchSize)
	if appErr != nil {
		return dto.ExpireSweepOutput{}, appErr
	}

	output := dto.ExpireSweepOutput{Scanned: len(intents)}
	for _, intent := range intents {
		if intent.Status != valueobjects.PaymentIntentStatusPending || intent.TxSignature != nil || intent.ExpiresAt.After(now) {
			output.Skipped++
			continue
		}

		expired := intent
		expired.Status = valueobjects.PaymentIntentStatusExpired
		expired.UpdatedAt = now
		event, eventErr := u.events.PaymentIntentEvent(entities.EventPaymentExpired, expired, now)
		if eventErr != nil {
			return output, eventErr
		}

		updated, transitionErr := u.repository.TransitionStatusIfCurrent(ctx, dto.PaymentIntentTransition{
			ID:         intent.ID,
			FromStatus: valueobjects.PaymentIntentStatusPending.String(),
			ToStatus:   valueobjects.PaymentIntentStatusExpired.String(),
			Event:      &event,
			Now:        now,
		})
		if transitionErr != nil {
			return output, transitionErr
		}
		if updated {
			output.Expired++
		} else {
			output.Skipped++
		}
	}

	return output, nil
}
