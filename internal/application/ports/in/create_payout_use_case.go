package in

import (
	"context"

	"stablesettle/internal/application/dto"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type CreatePayoutUseCase interface {
	Execute(ctx context.Context, command dto.CreatePayoutCommand) (dto.CreatePayoutOutput, *apperrors.AppError)
}
