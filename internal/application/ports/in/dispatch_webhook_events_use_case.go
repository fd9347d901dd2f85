package in

import (
	"context"

	"stablesettle/internal/application/dto"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type DispatchWebhookEventsUseCase interface {
	Execute(ctx context.Context, command dto.DispatchWebhookEventsCommand) (dto.DispatchWebhookEventsOutput, *apperrors.AppError)
}
