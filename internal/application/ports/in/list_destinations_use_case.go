package in

import (
	"context"

	"stablesettle/internal/application/dto"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type ListDestinationsUseCase interface {
	Execute(ctx context.Context, query dto.ListDestinationsQuery) (dto.ListDestinationsOutput, *apperrors.AppError)
}
