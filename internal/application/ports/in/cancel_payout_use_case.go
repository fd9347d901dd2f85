package in

import (
	"context"

	"stablesettle/internal/application/dto"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type CancelPayoutUseCase interface {
	Execute(ctx context.Context, command dto.CancelPayoutCommand) (dto.PayoutResource, *apperrors.AppError)
}
