package use_cases

import (
	"context"

	"stablesettle/internal/application/dto"
	portsin "stablesettle/internal/application/ports/in"
	portsout "stablesettle/internal/application/ports/out"
	valueobjects "stablesettle/internal/domain/value_objects"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type requeueWebhookEventUseCase struct {
	repository portsout.WebhookOutboxRepository
	clock      Clock
}

func NewRequeueWebhookEventUseCase(repository portsout.WebhookOutboxRepository, clock Clock) portsin.RequeueWebhookEventUseCase {
	return &requeueWebhookEventUseCase{repository: repository, clock: clock}
}

func (u *requeueWebhookEventUseCase) Execute(
	ctx context.Context,
	command dto.RequeueWebhookEventCommand,
) (dto.RequeueWebhookEventOutput, *apperrors.AppError) {
	if u.repository == nil {
		return dto.RequeueWebhookEventOutput{}, missingDependency("webhook_outbox_repository_missing", "webhook outbox repository is required")
	}
	merchantID, appErr := requireMerchantID(command.MerchantID)
	if appErr != nil {
		return dto.RequeueWebhookEventOutput{}, appErr
	}
	eventID, appErr := requireField("event_id", command.EventID)
	if appErr != nil {
		return dto.RequeueWebhookEventOutput{}, appErr
	}
	operatorID, appErr := requireField("x_principal_id", command.OperatorID)
	if appErr != nil {
		return dto.RequeueWebhookEventOutput{}, appErr
	}

	now := resolveNow(u.clock, command.Now)
	result, appErr := u.repository.RequeueFailed(ctx, merchantID, eventID, operatorID, now)
	if appErr != nil {
		return dto.RequeueWebhookEventOutput{}, appErr
	}
	if !result.Found {
		return dto.RequeueWebhookEventOutput{}, apperrors.NewNotFound(
			"webhook_event_not_found",
			"webhook event was not found",
			map[string]any{"event_id": eventID},
		)
	}
	if !result.Updated {
		return dto.RequeueWebhookEventOutput{}, apperrors.NewConflict(
			"webhook_event_not_requeueable",
			"only failed webhook events can be requeued",
			map[string]any{"event_id": eventID, "status": result.CurrentStatus},
		)
	}

	return dto.RequeueWebhookEventOutput{
		EventID:   eventID,
		Status:    valueobjects.WebhookEventStatusPending.String(),
		UpdatedAt: now,
	}, nil
}
