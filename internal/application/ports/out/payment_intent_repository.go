package out

import (
	"context"
	"time"

	"stablesettle/internal/application/dto"
	"stablesettle/internal/domain/entities"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type PaymentIntentRepository interface {
	Create(ctx context.Context, intent entities.PaymentIntent, derivationIndex *int64) *apperrors.AppError
	// GetByID scopes the lookup to merchantID when it is non-empty.
	GetByID(ctx context.Context, merchantID string, id string) (entities.PaymentIntent, bool, *apperrors.AppError)
	ListPendingForMatching(ctx context.Context, now time.Time, limit int) ([]entities.PaymentIntent, *apperrors.AppError)
	ListProcessing(ctx context.Context, limit int) ([]entities.PaymentIntent, *apperrors.AppError)
	ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]entities.PaymentIntent, *apperrors.AppError)
	MarkProcessing(ctx context.Context, input dto.MarkPaymentIntentProcessingInput) (bool, *apperrors.AppError)
	UpdateConfirmations(ctx context.Context, id string, confirmations int64, now time.Time) (bool, *apperrors.AppError)
	TransitionStatusIfCurrent(ctx context.Context, transition dto.PaymentIntentTransition) (bool, *apperrors.AppError)
}

type SettlementRepository interface {
	CompleteSettlement(ctx context.Context, input dto.CompleteSettlementInput) (bool, *apperrors.AppError)
}
