package in

import (
	"context"

	"stablesettle/internal/application/dto"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type ConfirmPayoutsUseCase interface {
	Execute(ctx context.Context, command dto.ConfirmPayoutsCommand) (dto.ConfirmPayoutsOutput, *apperrors.AppError)
}
