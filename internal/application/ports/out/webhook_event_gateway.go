package out

import (
	"context"

	"stablesettle/internal/application/dto"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type WebhookEventGateway interface {
	SendWebhookEvent(
		ctx context.Context,
		input dto.SendWebhookEventInput,
	) (dto.SendWebhookEventOutput, *apperrors.AppError)
}
