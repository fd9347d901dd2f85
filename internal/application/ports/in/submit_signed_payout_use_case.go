package in

import (
	"context"

	"stablesettle/internal/application/dto"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type SubmitSignedPayoutUseCase interface {
	Execute(ctx context.Context, command dto.SubmitSignedPayoutCommand) (dto.PayoutResource, *apperrors.AppError)
}
