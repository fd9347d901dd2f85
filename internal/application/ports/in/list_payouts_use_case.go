package in

import (
	"context"

	"stablesettle/internal/application/dto"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type ListPayoutsUseCase interface {
	Execute(ctx context.Context, query dto.ListPayoutsQuery) (dto.ListPayoutsOutput, *apperrors.AppError)
}
