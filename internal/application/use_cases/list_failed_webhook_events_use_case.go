package use_cases

import (
	"context"

	"stablesettle/internal/application/dto"
	portsin "stablesettle/internal/application/ports/in"
	portsout "stablesettle/internal/application/ports/out"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

const (
	defaultFailedWebhookLimit = 50
	maxFailedWebhookLimit     = 200
)

type listFailedWebhookEventsUseCase struct {
	repository portsout.WebhookOutboxRepository
}

func NewListFailedWebhookEventsUseCase(repository portsout.WebhookOutboxRepository) portsin.ListFailedWebhookEventsUseCase {
	return &listFailedWebhookEventsUseCase{repository: repository}
}

func (u *listFailedWebhookEventsUseCase) Execute(
	ctx context.Context,
	query dto.ListFailedWebhookEventsQuery,
) (dto.ListFailedWebhookEventsOutput, *apperrors.AppError) {
	if u.repository == nil {
		return dto.ListFailedWebhookEventsOutput{}, missingDependency("webhook_outbox_repository_missing", "webhook outbox repository is required")
	}
	merchantID, appErr := requireMerchantID(query.MerchantID)
	if appErr != nil {
		return dto.ListFailedWebhookEventsOutput{}, appErr
	}

	limit := query.Limit
	if limit == 0 {
		limit = defaultFailedWebhookLimit
	}
	if limit < 1 || limit > maxFailedWebhookLimit {
		return dto.ListFailedWebhookEventsOutput{}, apperrors.NewValidation(
			"invalid_request",
			"limit must be between 1 and 200",
			map[string]any{"field": "limit"},
		)
	}

	events, appErr := u.repository.ListFailed(ctx, merchantID, limit)
	if appErr != nil {
		return dto.ListFailedWebhookEventsOutput{}, appErr
	}
	if events == nil {
		events = []dto.WebhookEventResource{}
	}
	return dto.ListFailedWebhookEventsOutput{Events: events}, nil
}
