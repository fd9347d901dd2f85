package allocator

import (
	"context"
	"time"

	"stablesettle/internal/application/dto"
	portsout "stablesettle/internal/application/ports/out"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type AddressPool interface {
	Claim(ctx context.Context, chain string, intentID string, now time.Time) (string, bool, *apperrors.AppError)
}

// PoolAllocator hands out pre-provisioned addresses for chains where the service cannot
// derive receive addresses from a public key alone.
type PoolAllocator struct {
	pool AddressPool
	now  func() time.Time
}

var _ portsout.PaymentAddressAllocator = (*PoolAllocator)(nil)

func NewPoolAllocator(pool AddressPool) *PoolAllocator {
	return &PoolAllocator{pool: pool, now: time.Now}
}

func (a *PoolAllocator) Allocate(ctx context.Context, input dto.AllocatePaymentAddressInput) (dto.PaymentAddressAllocation, *apperrors.AppError) {
	address, found, appErr := a.pool.Claim(ctx, input.Chain, input.PaymentIntentID, a.now().UTC())
	if appErr != nil {
		return dto.PaymentAddressAllocation{}, appErr
	}
	if !found {
		return dto.PaymentAddressAllocation{}, apperrors.NewUnavailable(
			"payment_address_pool_exhausted",
			"no free payment address is available",
			map[string]any{"chain": input.Chain},
		)
	}
	return dto.PaymentAddressAllocation{Address: address}, nil
}
