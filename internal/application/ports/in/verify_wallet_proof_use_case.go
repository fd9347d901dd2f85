package in

import (
	"context"

	"stablesettle/internal/application/dto"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type VerifyWalletProofUseCase interface {
	Execute(ctx context.Context, command dto.VerifyWalletProofCommand) (dto.WalletResource, *apperrors.AppError)
}
