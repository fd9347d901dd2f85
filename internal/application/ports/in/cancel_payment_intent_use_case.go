package in

import (
	"context"

	"stablesettle/internal/application/dto"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type CancelPaymentIntentUseCase interface {
	Execute(ctx context.Context, command dto.CancelPaymentIntentCommand) (dto.PaymentIntentResource, *apperrors.AppError)
}
