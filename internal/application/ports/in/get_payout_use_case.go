package in

import (
	"context"

	"stablesettle/internal/application/dto"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type GetPayoutUseCase interface {
	Execute(ctx context.Context, query dto.GetPayoutQuery) (dto.PayoutResource, *apperrors.AppError)
}
