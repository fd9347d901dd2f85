package evmrpc

import (
	"errors"

	apperrors "stablesettle/internal/shared_kernel/errors"

	"github.com/ethereum/go-ethereum/rpc"
)

// mapRPCError keeps node-reported errors non-transient. Transport failures, non-2xx
// responses and timeouts are unavailable so the router can rotate endpoints.
func mapRPCError(method string, err error) *apperrors.AppError {
	var nodeErr rpc.Error
	if errors.As(err, &nodeErr) {
		return apperrors.NewInternal(
			"chain_rpc_error",
			"rpc endpoint returned error",
			map[string]any{
				"method":    method,
				"rpc_error": nodeErr.Error(),
				"rpc_code":  nodeErr.ErrorCode(),
			},
		)
	}
	details := map[string]any{"method": method, "error": err.Error()}
	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		details["status_code"] = httpErr.StatusCode
	}
	return apperrors.NewUnavailable("chain_unavailable", "failed to call rpc endpoint", details)
}
