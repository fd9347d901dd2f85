package in

import (
	"context"

	"stablesettle/internal/application/dto"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type CreateDestinationUseCase interface {
	Execute(ctx context.Context, command dto.CreateDestinationCommand) (dto.DestinationResource, *apperrors.AppError)
}
