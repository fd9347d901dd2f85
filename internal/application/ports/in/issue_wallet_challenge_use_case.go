package in

import (
	"context"

	"stablesettle/internal/application/dto"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type IssueWalletChallengeUseCase interface {
	Execute(ctx context.Context, command dto.IssueWalletChallengeCommand) (dto.WalletChallengeOutput, *apperrors.AppError)
}
