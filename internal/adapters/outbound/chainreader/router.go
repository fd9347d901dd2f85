package chainreader

import (
	"context"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"stablesettle/internal/application/dto"
	portsout "stablesettle/internal/application/ports/out"
	"stablesettle/internal/domain/entities"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

const DefaultInclusionPollInterval = 2 * time.Second

// Endpoint is one RPC URL of one chain.
type Endpoint interface {
	URL() string
	RecentTransfers(ctx context.Context, input dto.RecentTransfersInput) ([]dto.ObservedTransfer, *apperrors.AppError)
	TransferStatus(ctx context.Context, input dto.TransferStatusInput) (dto.TransferStatus, *apperrors.AppError)
	BuildTransfer(ctx context.Context, input dto.BuildUnsignedTransferInput) (entities.UnsignedTransaction, *apperrors.AppError)
	ValidateSigned(ctx context.Context, input dto.BroadcastInput) (dto.ValidatedTransaction, *apperrors.AppError)
	Broadcast(ctx context.Context, input dto.BroadcastInput) (dto.BroadcastOutput, *apperrors.AppError)
}

type endpointPool struct {
	endpoints []Endpoint
	next      atomic.Uint64
}

// Router dispatches chain calls by chain name. Each chain's endpoints are tried round
// robin; a transient failure moves the call to the next endpoint.
type Router struct {
	mu           sync.RWMutex
	pools        map[string]*endpointPool
	pollInterval time.Duration
	logger       *log.Logger
}

var (
	_ portsout.ChainReaderGateway         = (*Router)(nil)
	_ portsout.UnsignedTransactionBuilder = (*Router)(nil)
	_ portsout.ChainBroadcaster           = (*Router)(nil)
)

func NewRouter(pollInterval time.Duration, logger *log.Logger) *Router {
	if pollInterval <= 0 {
		pollInterval = DefaultInclusionPollInterval
	}
	return &Router{
		pools:        map[string]*endpointPool{},
		pollInterval: pollInterval,
		logger:       logger,
	}
}

func (r *Router) Register(chain string, endpoints ...Endpoint) {
	key := normalizeChain(chain)
	if key == "" || len(endpoints) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	pool, exists := r.pools[key]
	if !exists {
		pool = &endpointPool{}
		r.pools[key] = pool
	}
	pool.endpoints = append(pool.endpoints, endpoints...)
}

func (r *Router) Chains() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	chains := make([]string, 0, len(r.pools))
	for chain := range r.pools {
		chains = append(chains, chain)
	}
	return chains
}

func (r *Router) RecentTransfers(
	ctx context.Context,
	input dto.RecentTransfersInput,
) ([]dto.ObservedTransfer, *apperrors.AppError) {
	var transfers []dto.ObservedTransfer
	appErr := r.withFailover(input.Chain, "recent_transfers", func(endpoint Endpoint) *apperrors.AppError {
		var callErr *apperrors.AppError
		transfers, callErr = endpoint.RecentTransfers(ctx, input)
		return callErr
	})
	return transfers, appErr
}

func (r *Router) TransferStatus(
	ctx context.Context,
	input dto.TransferStatusInput,
) (dto.TransferStatus, *apperrors.AppError) {
	var status dto.TransferStatus
	appErr := r.withFailover(input.Chain, "transfer_status", func(endpoint Endpoint) *apperrors.AppError {
		var callErr *apperrors.AppError
		status, callErr = endpoint.TransferStatus(ctx, input)
		return callErr
	})
	return status, appErr
}

func (r *Router) BuildTransfer(
	ctx context.Context,
	input dto.BuildUnsignedTransferInput,
) (entities.UnsignedTransaction, *apperrors.AppError) {
	var unsigned entities.UnsignedTransaction
	appErr := r.withFailover(input.Chain, "build_transfer", func(endpoint Endpoint) *apperrors.AppError {
		var callErr *apperrors.AppError
		unsigned, callErr = endpoint.BuildTransfer(ctx, input)
		return callErr
	})
	return unsigned, appErr
}

func (r *Router) ValidateSigned(ctx context.Context, input dto.BroadcastInput) (dto.ValidatedTransaction, *apperrors.AppError) {
	pool, appErr := r.pool(input.Chain)
	if appErr != nil {
		return dto.ValidatedTransaction{}, appErr
	}
	return pool.endpoints[0].ValidateSigned(ctx, input)
}

func (r *Router) Broadcast(
	ctx context.Context,
	input dto.BroadcastInput,
) (dto.BroadcastOutput, *apperrors.AppError) {
	var output dto.BroadcastOutput
	appErr := r.withFailover(input.Chain, "broadcast", func(endpoint Endpoint) *apperrors.AppError {
		var callErr *apperrors.AppError
		output, callErr = endpoint.Broadcast(ctx, input)
		return callErr
	})
	return output, appErr
}

// AwaitInclusion polls TransferStatus until the signature has a confirmation, the chain
// reports a failure, or the timeout elapses. Unknown signatures and transient errors
// keep the poll going.
func (r *Router) AwaitInclusion(
	ctx context.Context,
	input dto.AwaitInclusionInput,
) (dto.TransferStatus, *apperrors.AppError) {
	if _, appErr := r.pool(input.Chain); appErr != nil {
		return dto.TransferStatus{}, appErr
	}

	waitCtx := ctx
	if input.Timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, input.Timeout)
		defer cancel()
	}

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	var lastErr *apperrors.AppError
	for {
		status, appErr := r.TransferStatus(waitCtx, dto.TransferStatusInput{
			Chain:     input.Chain,
			Signature: input.Signature,
		})
		switch {
		case appErr == nil && (status.Failed || status.Finalized || status.Confirmations > 0):
			return status, nil
		case appErr != nil && appErr.Type != apperrors.TypeNotFound && !appErr.Transient():
			return dto.TransferStatus{}, appErr
		case appErr != nil:
			lastErr = appErr
		}

		select {
		case <-waitCtx.Done():
			details := map[string]any{"chain": input.Chain, "signature": input.Signature, "timeout": input.Timeout.String()}
			if lastErr != nil {
				details["last_error"] = lastErr.Code
			}
			return dto.TransferStatus{}, apperrors.NewUnavailable(
				"chain_confirmation_timeout",
				"transaction was not confirmed before the timeout",
				details,
			)
		case <-ticker.C:
		}
	}
}

func (r *Router) withFailover(chain string, operation string, call func(Endpoint) *apperrors.AppError) *apperrors.AppError {
	pool, appErr := r.pool(chain)
	if appErr != nil {
		return appErr
	}

	count := len(pool.endpoints)
	start := int(pool.next.Add(1)-1) % count
	var lastErr *apperrors.AppError
	for attempt := 0; attempt < count; attempt++ {
		endpoint := pool.endpoints[(start+attempt)%count]
		callErr := call(endpoint)
		if callErr == nil || !callErr.Transient() {
			return callErr
		}
		lastErr = callErr
		if attempt+1 < count {
			r.logf(
				"chain rpc failover chain=%s operation=%s endpoint=%s error_code=%s",
				normalizeChain(chain),
				operation,
				endpoint.URL(),
				callErr.Code,
			)
		}
	}
	return lastErr
}

func (r *Router) pool(chain string) (*endpointPool, *apperrors.AppError) {
	key := normalizeChain(chain)
	r.mu.RLock()
	pool, exists := r.pools[key]
	r.mu.RUnlock()
	if !exists || len(pool.endpoints) == 0 {
		return nil, apperrors.NewValidation(
			"unsupported_chain",
			"chain is not configured",
			map[string]any{"chain": chain},
		)
	}
	return pool, nil
}

func (r *Router) logf(format string, args ...any) {
	if r.logger == nil {
		return
	}
	r.logger.Printf(format, args...)
}

func normalizeChain(chain string) string {
	return strings.ToLower(strings.TrimSpace(chain))
}
