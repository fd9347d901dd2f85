package in

import (
	"context"

	"stablesettle/internal/application/dto"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type GetPaymentIntentUseCase interface {
	Execute(ctx context.Context, query dto.GetPaymentIntentQuery) (dto.PaymentIntentResource, *apperrors.AppError)
}
