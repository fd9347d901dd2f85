package allocator

import (
	"context"
	"strings"

	"stablesettle/internal/application/dto"
	portsout "stablesettle/internal/application/ports/out"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

// Router picks the allocator registered for the intent's chain.
type Router struct {
	allocators map[string]portsout.PaymentAddressAllocator
}

var _ portsout.PaymentAddressAllocator = (*Router)(nil)

func NewRouter() *Router {
	return &Router{allocators: map[string]portsout.PaymentAddressAllocator{}}
}

func (r *Router) Register(chain string, allocator portsout.PaymentAddressAllocator) {
	r.allocators[strings.ToLower(strings.TrimSpace(chain))] = allocator
}

func (r *Router) Allocate(ctx context.Context, input dto.AllocatePaymentAddressInput) (dto.PaymentAddressAllocation, *apperrors.AppError) {
	allocator, ok := r.allocators[strings.ToLower(strings.TrimSpace(input.Chain))]
	if !ok {
		return dto.PaymentAddressAllocation{}, apperrors.NewUnavailable(
			"payment_address_allocator_not_configured",
			"payment address allocation is not configured for chain",
			map[string]any{"chain": input.Chain},
		)
	}
	return allocator.Allocate(ctx, input)
}
