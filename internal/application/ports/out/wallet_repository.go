package out

import (
	"context"
	"time"

	"stablesettle/internal/domain/entities"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type WalletRepository interface {
	Create(ctx context.Context, wallet entities.MerchantWallet) *apperrors.AppError
	GetByID(ctx context.Context, merchantID string, id string) (entities.MerchantWallet, bool, *apperrors.AppError)
	FindVerified(ctx context.Context, merchantID string, chain string) (entities.MerchantWallet, bool, *apperrors.AppError)
	SetChallenge(ctx context.Context, id string, nonce string, expiresAt time.Time, now time.Time) (bool, *apperrors.AppError)
	// MarkVerified succeeds only while nonce is still the outstanding, unexpired challenge
	// and clears it in the same write.
	MarkVerified(ctx context.Context, id string, nonce string, now time.Time) (bool, *apperrors.AppError)
}

type DestinationRepository interface {
	Create(ctx context.Context, destination entities.SavedDestination) *apperrors.AppError
	GetByID(ctx context.Context, merchantID string, id string) (entities.SavedDestination, bool, *apperrors.AppError)
	List(ctx context.Context, merchantID string) ([]entities.SavedDestination, *apperrors.AppError)
}

type MerchantRepository interface {
	UpsertWebhookConfig(ctx context.Context, config entities.MerchantWebhookConfig) *apperrors.AppError
}
