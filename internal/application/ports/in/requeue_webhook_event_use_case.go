package in

import (
	"context"

	"stablesettle/internal/application/dto"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type RequeueWebhookEventUseCase interface {
	Execute(ctx context.Context, command dto.RequeueWebhookEventCommand) (dto.RequeueWebhookEventOutput, *apperrors.AppError)
}
