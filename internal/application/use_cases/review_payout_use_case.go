package use_cases

import (
	"context"
	"strings"

	"stablesettle/internal/application/dto"
	portsin "stablesettle/internal/application/ports/in"
	portsout "stablesettle/internal/application/ports/out"
	"stablesettle/internal/domain/entities"
	valueobjects "stablesettle/internal/domain/value_objects"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

var DefaultPayoutApproverRoles = []string{"admin", "finance"}

type payoutReviewer struct {
	payouts       portsout.PayoutRepository
	events        *WebhookEventFactory
	approverRoles map[string]struct{}
	clock         Clock
}

func newPayoutReviewer(
	payouts portsout.PayoutRepository,
	events *WebhookEventFactory,
	approverRoles []string,
	clock Clock,
) payoutReviewer {
	if len(approverRoles) == 0 {
		approverRoles = DefaultPayoutApproverRoles
	}
	roles := make(map[string]struct{}, len(approverRoles))
	for _, role := range approverRoles {
		normalized := strings.ToLower(strings.TrimSpace(role))
		if normalized != "" {
			roles[normalized] = struct{}{}
		}
	}
	return payoutReviewer{
		payouts:       payouts,
		events:        eventFactoryOrDefault(events, nil),
		approverRoles: roles,
		clock:         clock,
	}
}

type reviewDecision struct {
	toStatus  valueobjects.PayoutStatus
	eventType string
}

func (r payoutReviewer) review(
	ctx context.Context,
	command dto.ReviewPayoutCommand,
	decision reviewDecision,
) (entities.Payout, *apperrors.AppError) {
	if r.payouts == nil {
		return entities.Payout{}, missingDependency("payout_repository_missing", "payout repository is required")
	}
	merchantID, appErr := requireMerchantID(command.MerchantID)
	if appErr != nil {
		return entities.Payout{}, appErr
	}
	payoutID, appErr := requireField("payout_id", command.PayoutID)
	if appErr != nil {
		return entities.Payout{}, appErr
	}
	actorID, appErr := requireField("actor_id", command.ActorID)
	if appErr != nil {
		return entities.Payout{}, appErr
	}
	role := strings.ToLower(strings.TrimSpace(command.ActorRole))
	if _, ok := r.approverRoles[role]; !ok {
		return entities.Payout{}, apperrors.NewValidation(
			"forbidden_role",
			"actor role is not allowed to review payouts",
			map[string]any{"role": command.ActorRole},
		)
	}

	var reason *string
	if decision.toStatus == valueobjects.PayoutStatusRejected {
		trimmed := strings.TrimSpace(command.Reason)
		if trimmed == "" {
			return entities.Payout{}, apperrors.NewValidation(
				"rejection_reason_required",
				"reason is required when rejecting a payout",
				map[string]any{"field": "reason"},
			)
		}
		reason = &trimmed
	}
	var notes *string
	if trimmed := strings.TrimSpace(command.Notes); trimmed != "" {
		notes = &trimmed
	}

	payout, appErr := loadPayout(ctx, r.payouts, merchantID, payoutID)
	if appErr != nil {
		return entities.Payout{}, appErr
	}
	if payout.Status != valueobjects.PayoutStatusPending {
		return entities.Payout{}, payoutInvalidState(payout, "payout is not awaiting review")
	}

	now := resolveNow(r.clock, command.Now)
	reviewed := payout
	reviewed.Status = decision.toStatus
	reviewed.ReviewedBy = &actorID
	reviewed.ReviewNotes = notes
	reviewed.RejectionReason = reason
	reviewed.UpdatedAt = now
	event, appErr := r.events.PayoutEvent(decision.eventType, reviewed, now)
	if appErr != nil {
		return entities.Payout{}, appErr
	}

	updated, appErr := r.payouts.TransitionStatusIfCurrent(ctx, dto.PayoutTransition{
		ID:              payout.ID,
		MerchantID:      merchantID,
		FromStatus:      valueobjects.PayoutStatusPending.String(),
		ToStatus:        decision.toStatus.String(),
		ReviewedBy:      &actorID,
		ReviewNotes:     notes,
		RejectionReason: reason,
		Event:           &event,
		Now:             now,
	})
	if appErr != nil {
		return entities.Payout{}, appErr
	}
	if !updated {
		current, _, _ := r.payouts.GetByID(ctx, merchantID, payoutID)
		if current.ID == "" {
			current = payout
		}
		return entities.Payout{}, payoutInvalidState(current, "payout is not awaiting review")
	}

	return reviewed, nil
}

type approvePayoutUseCase struct {
	reviewer  payoutReviewer
	generator payoutTransactionGenerator
	logger    Logger
}

func NewApprovePayoutUseCase(
	payouts portsout.PayoutRepository,
	wallets portsout.WalletRepository,
	tokens portsout.TokenRegistry,
	builder portsout.UnsignedTransactionBuilder,
	events *WebhookEventFactory,
	approverRoles []string,
	clock Clock,
	logger Logger,
) portsin.ApprovePayoutUseCase {
	return &approvePayoutUseCase{
		reviewer: newPayoutReviewer(payouts, events, approverRoles, clock),
		generator: payoutTransactionGenerator{
			payouts: payouts,
			wallets: wallets,
			tokens:  tokens,
			builder: builder,
		},
		logger: logger,
	}
}

func (u *approvePayoutUseCase) Execute(
	ctx context.Context,
	command dto.ReviewPayoutCommand,
) (dto.PayoutResource, *apperrors.AppError) {
	if appErr := u.generator.validate(); appErr != nil {
		return dto.PayoutResource{}, appErr
	}
	approved, appErr := u.reviewer.review(ctx, command, reviewDecision{
		toStatus:  valueobjects.PayoutStatusApproved,
		eventType: entities.EventPayoutApproved,
	})
	if appErr != nil {
		return dto.PayoutResource{}, appErr
	}

	// The approval stands even when no unsigned transaction can be built yet; the
	// merchant regenerates once a source wallet is verified.
	generated, generateErr := u.generator.generate(ctx, approved, approved.UpdatedAt)
	if generateErr != nil {
		logf(u.logger, "payout approved without transaction payout_id=%s code=%s", approved.ID, generateErr.Code)
		return toPayoutResource(approved), nil
	}
	return toPayoutResource(generated), nil
}

type rejectPayoutUseCase struct {
	reviewer payoutReviewer
}

func NewRejectPayoutUseCase(
	payouts portsout.PayoutRepository,
	events *WebhookEventFactory,
	approverRoles []string,
	clock Clock,
) portsin.RejectPayoutUseCase {
	return &rejectPayoutUseCase{reviewer: newPayoutReviewer(payouts, events, approverRoles, clock)}
}

func (u *rejectPayoutUseCase) Execute(
	ctx context.Context,
	command dto.ReviewPayoutCommand,
) (dto.PayoutResource, *apperrors.AppError) {
	rejected, appErr := u.reviewer.review(ctx, command, reviewDecision{
		toStatus:  valueobjects.PayoutStatusRejected,
		eventType: entities.EventPayoutRejected,
	})
	if appErr != nil {
		return dto.PayoutResource{}, appErr
	}
	return toPayoutResource(rejected), nil
}
