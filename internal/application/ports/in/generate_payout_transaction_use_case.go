package in

import (
	"context"

	"stablesettle/internal/application/dto"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type GeneratePayoutTransactionUseCase interface {
	Execute(ctx context.Context, command dto.GeneratePayoutTransactionCommand) (dto.PayoutResource, *apperrors.AppError)
}
