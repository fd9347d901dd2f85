package in

import (
	"context"

	"stablesettle/internal/application/dto"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type CreatePaymentIntentUseCase interface {
	Execute(ctx context.Context, command dto.CreatePaymentIntentCommand) (dto.PaymentIntentResource, *apperrors.AppError)
}
