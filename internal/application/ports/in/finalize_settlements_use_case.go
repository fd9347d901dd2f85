package in

import (
	"context"

	"stablesettle/internal/application/dto"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type FinalizeSettlementsUseCase interface {
	Execute(ctx context.Context, command dto.FinalizeSettlementsCommand) (dto.FinalizeSettlementsOutput, *apperrors.AppError)
}
