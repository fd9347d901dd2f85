package out

import (
	"context"

	"stablesettle/internal/application/dto"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

// ChainReaderGateway is read-only. Transport failures are returned as unavailable
// errors and signatures the chain no longer knows as not_found errors.
type ChainReaderGateway interface {
	RecentTransfers(ctx context.Context, input dto.RecentTransfersInput) ([]dto.ObservedTransfer, *apperrors.AppError)
	TransferStatus(ctx context.Context, input dto.TransferStatusInput) (dto.TransferStatus, *apperrors.AppError)
}
