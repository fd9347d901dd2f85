package in

import (
	"context"

	"stablesettle/internal/application/dto"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type RegisterWalletUseCase interface {
	Execute(ctx context.Context, command dto.RegisterWalletCommand) (dto.WalletResource, *apperrors.AppError)
}
