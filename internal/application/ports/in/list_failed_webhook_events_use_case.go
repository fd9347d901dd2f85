package in

import (
	"context"

	"stablesettle/internal/application/dto"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type ListFailedWebhookEventsUseCase interface {
	Execute(ctx context.Context, query dto.ListFailedWebhookEventsQuery) (dto.ListFailedWebhookEventsOutput, *apperrors.AppError)
}
