package in

import (
	"context"

	"stablesettle/internal/application/dto"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type ListAssetsUseCase interface {
	Execute(ctx context.Context, query dto.ListAssetsQuery) (dto.ListAssetsOutput, *apperrors.AppError)
}
