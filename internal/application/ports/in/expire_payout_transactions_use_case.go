package in

import (
	"context"

	"stablesettle/internal/application/dto"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type ExpirePayoutTransactionsUseCase interface {
	Execute(ctx context.Context, command dto.ExpirePayoutTransactionsCommand) (dto.ExpireSweepOutput, *apperrors.AppError)
}
