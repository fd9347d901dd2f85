package in

import (
	"context"

	"stablesettle/internal/application/dto"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type RejectPayoutUseCase interface {
	Execute(ctx context.Context, command dto.ReviewPayoutCommand) (dto.PayoutResource, *apperrors.AppError)
}
