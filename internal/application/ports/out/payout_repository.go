package out

import (
	"context"
	"time"

	"stablesettle/internal/application/dto"
	"stablesettle/internal/domain/entities"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type PayoutRepository interface {
	Create(ctx context.Context, payout entities.Payout) *apperrors.AppError
	GetByID(ctx context.Context, merchantID string, id string) (entities.Payout, bool, *apperrors.AppError)
	List(ctx context.Context, query dto.ListPayoutsQuery) ([]entities.Payout, *apperrors.AppError)
	TransitionStatusIfCurrent(ctx context.Context, transition dto.PayoutTransition) (bool, *apperrors.AppError)
	SaveUnsignedTransaction(ctx context.Context, input dto.SaveUnsignedTransactionInput) (bool, *apperrors.AppError)
	ListExpiredSigning(ctx context.Context, now time.Time, limit int) ([]entities.Payout, *apperrors.AppError)
	// MarkProcessingIfFunded moves awaiting_signature to processing only while the
	// balance still covers this payout plus every other payout already processing.
	// An unknown id is a not_found error.
	MarkProcessingIfFunded(ctx context.Context, input dto.MarkPayoutProcessingInput) (dto.MarkPayoutProcessingResult, *apperrors.AppError)
	// ListProcessing returns processing payouts last updated at or before updatedBefore,
	// oldest first.
	ListProcessing(ctx context.Context, updatedBefore time.Time, limit int) ([]entities.Payout, *apperrors.AppError)
	CompletePayout(ctx context.Context, input dto.CompletePayoutInput) (bool, *apperrors.AppError)
}

type BalanceReadModel interface {
	GetBalance(ctx context.Context, merchantID string, currency string) (entities.Balance, *apperrors.AppError)
	ListBalances(ctx context.Context, merchantID string) ([]entities.Balance, *apperrors.AppError)
}
