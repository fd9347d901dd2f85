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

type cancelPayoutUseCase struct {
	payouts portsout.PayoutRepository
	events  *WebhookEventFactory
	clock   Clock
}

func NewCancelPayoutUseCase(
	payouts portsout.PayoutRepository,
	events *WebhookEventFactory,
	clock Clock,
) portsin.CancelPayoutUseCase {
	return &cancelPayoutUseCase{
		payouts: payouts,
		events:  eventFactoryOrDefault(events, nil),
		clock:   clock,
	}
}

func (u *cancelPayoutUseCase) Execute(
	ctx context.Context,
	command dto.CancelPayoutCommand,
) (dto.PayoutResource, *apperrors.AppError) {
	if u.payouts == nil {
		return dto.PayoutResource{}, missingDependency("payout_repository_missing", "payout repository is required")
	}
	merchantID, appErr := requireMerchantID(command.MerchantID)
	if appErr != nil {
		return dto.PayoutResource{}, appErr
	}
	payoutID, appErr := requireField("payout_id", command.PayoutID)
	if appErr != nil {
		return dto.PayoutResource{}, appErr
	}

	payout, appErr := loadPayout(ctx, u.payouts, merchantID, payoutID)
	if appErr != nil {
		return dto.PayoutResource{}, appErr
	}
	if !payout.Status.IsCancellable() {
		return dto.PayoutResource{}, payoutInvalidState(payout, "payout can no longer be cancelled")
	}

	now := resolveNow(u.clock, command.Now)
	cancelled := payout
	cancelled.Status = valueobjects.PayoutStatusCancelled
	cancelled.UpdatedAt = now
	event, appErr := u.events.PayoutEvent(entities.EventPayoutCancelled, cancelled, now)
	if appErr != nil {
		return dto.PayoutResource{}, appErr
	}

	updated, appErr := u.payouts.TransitionStatusIfCurrent(ctx, dto.PayoutTransition{
		ID:         payout.ID,
		MerchantID: merchantID,
		FromStatus: payout.Status.String(),
		ToStatus:   valueobjects.PayoutStatusCancelled.String(),
		Event:      &event,
		Now:        now,
	})
	if appErr != nil {
		return dto.PayoutResource{}, appErr
	}
	if !updated {
		current, _, _ := u.payouts.GetByID(ctx, merchantID, payoutID)
		if current.ID == "" {
			current = payout
		}
		return dto.PayoutResource{}, payoutInvalidState(current, "payout can no longer be cancelled")
	}

	return toPayoutResource(cancelled), nil
}
