package out

import (
	"context"
	"time"

	"stablesettle/internal/application/dto"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type WebhookOutboxRepository interface {
	ClaimDueForDispatch(
		ctx context.Context,
		now time.Time,
		limit int,
		leaseOwner string,
		leaseUntil time.Time,
	) ([]dto.ClaimedWebhookEvent, *apperrors.AppError)
	MarkDelivered(ctx context.Context, result dto.WebhookDeliveryResult) (bool, *apperrors.AppError)
	MarkRetry(ctx context.Context, result dto.WebhookDeliveryResult) (bool, *apperrors.AppError)
	MarkFailed(ctx context.Context, result dto.WebhookDeliveryResult) (bool, *apperrors.AppError)
	RenewLease(
		ctx context.Context,
		id string,
		leaseOwner string,
		leaseUntil time.Time,
		updatedAt time.Time,
	) (bool, *apperrors.AppError)
	ListFailed(ctx context.Context, merchantID string, limit int) ([]dto.WebhookEventResource, *apperrors.AppError)
	RequeueFailed(
		ctx context.Context,
		merchantID string,
		eventID string,
		operatorID string,
		now time.Time,
	) (dto.WebhookEventMutationResult, *apperrors.AppError)
}
