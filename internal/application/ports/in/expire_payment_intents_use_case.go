package in

import (
	"context"

	"stablesettle/internal/application/dto"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type ExpirePaymentIntentsUseCase interface {
	Execute(ctx context.Context, command dto.ExpirePaymentIntentsCommand) (dto.ExpireSweepOutput, *apperrors.AppError)
}
