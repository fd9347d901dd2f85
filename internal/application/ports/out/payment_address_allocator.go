package out

import (
	"context"

	"stablesettle/internal/application/dto"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type PaymentAddressAllocator interface {
	Allocate(ctx context.Context, input dto.AllocatePaymentAddressInput) (dto.PaymentAddressAllocation, *apperrors.AppError)
}
