package use_cases

import (
	"context"
	"time"

	"stablesettle/internal/application/dto"
	portsin "stablesettle/internal/application/ports/in"
	portsout "stablesettle/internal/application/ports/out"
	"stablesettle/internal/domain/entities"
	valueobjects "stablesettle/internal/domain/value_objects"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type expirePayoutTransactionsUseCase struct {
	payouts portsout.PayoutRepository
	events  *WebhookEventFactory
	clock   Clock
}

func NewExpirePayoutTransactionsUseCase(
	payouts portsout.PayoutRepository,
	events *WebhookEventFactory,
	clock Clock,
) portsin.ExpirePayoutTransactionsUseCase {
	return &expirePayoutTransactionsUseCase{
		payouts: payouts,
		events:  eventFactoryOrDefault(events, nil),
		clock:   clock,
	}
}

func (u *expirePayoutTransactionsUseCase) Execute(
	ctx context.Context,
	command dto.ExpirePayoutTransactionsCommand,
) (dto.ExpireSweepOutput, *apperrors.AppError) {
	if u.payouts == nil {
		return dto.ExpireSweepOutput{}, missingDependency("payout_repository_missing", "payout repository is required")
	}
	if command.BatchSize <= 0 {
		return dto.ExpireSweepOutput{}, apperrors.NewValidation(
			"expiry_batch_size_invalid",
			"expiry batch size must be greater than zero",
			map[string]any{"batch_size": command.BatchSize},
		)
	}

	now := resolveNow(u.clock, command.Now)
	payouts, appErr := u.payouts.ListExpiredSigning(ctx, now, command.BatchSize)
	if appErr != nil {
		return dto.ExpireSweepOutput{}, appErr
	}

	output := dto.ExpireSweepOutput{Scanned: len(payouts)}
	for _, payout := range payouts {
		if payout.Status != valueobjects.PayoutStatusAwaitingSignature {
			output.Skipped++
			continue
		}
		updated, expireErr := expireSigningWindow(ctx, u.payouts, u.events, payout, now)
		if expireErr != nil {
			return output, expireErr
		}
		if updated {
			output.Expired++
		} else {
			output.Skipped++
		}
	}
	return output, nil
}

func expireSigningWindow(
	ctx context.Context,
	payouts portsout.PayoutRepository,
	events *WebhookEventFactory,
	payout entities.Payout,
	now time.Time,
) (bool, *apperrors.AppError) {
	expired := payout
	expired.Status = valueobjects.PayoutStatusExpired
	expired.UpdatedAt = now
	event, appErr := events.PayoutEvent(entities.EventPayoutExpired, expired, now)
	if appErr != nil {
		return false, appErr
	}
	return payouts.TransitionStatusIfCurrent(ctx, dto.PayoutTransition{
		ID:         payout.ID,
		MerchantID: payout.MerchantID,
		FromStatus: valueobjects.PayoutStatusAwaitingSignature.String(),
		ToStatus:   valueobjects.PayoutStatusExpired.String(),
		Event:      &event,
		Now:        now,
	})
}
