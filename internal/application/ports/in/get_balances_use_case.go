package in

import (
	"context"

	"stablesettle/internal/application/dto"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type GetBalancesUseCase interface {
	Execute(ctx context.Context, query dto.GetBalancesQuery) (dto.GetBalancesOutput, *apperrors.AppError)
}
