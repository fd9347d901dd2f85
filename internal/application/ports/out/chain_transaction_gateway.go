package out

import (
	"context"

	"stablesettle/internal/application/dto"
	"stablesettle/internal/domain/entities"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type UnsignedTransactionBuilder interface {
	BuildTransfer(ctx context.Context, input dto.BuildUnsignedTransferInput) (entities.UnsignedTransaction, *apperrors.AppError)
}

type ChainBroadcaster interface {
	// ValidateSigned decodes a signed transaction without sending it and returns the
	// signature it will be known by on chain. A transaction that moves funds other than
	// input.Expected describes is rejected.
	ValidateSigned(ctx context.Context, input dto.BroadcastInput) (dto.ValidatedTransaction, *apperrors.AppError)
	Broadcast(ctx context.Context, input dto.BroadcastInput) (dto.BroadcastOutput, *apperrors.AppError)
	// AwaitInclusion blocks until the signature has at least one confirmation, the chain
	// reports it failed, or input.Timeout elapses.
	AwaitInclusion(ctx context.Context, input dto.AwaitInclusionInput) (dto.TransferStatus, *apperrors.AppError)
}

type WalletSignatureVerifier interface {
	Verify(ctx context.Context, input dto.VerifyWalletSignatureInput) (bool, *apperrors.AppError)
}
