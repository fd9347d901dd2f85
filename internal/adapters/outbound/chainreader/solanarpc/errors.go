package solanarpc

import (
	"errors"

	apperrors "stablesettle/internal/shared_kernel/errors"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

// mapRPCError separates node-reported errors from transport failures. Only the latter
// are transient.
func mapRPCError(method string, err error) *apperrors.AppError {
	if errors.Is(err, rpc.ErrNotFound) {
		return apperrors.NewNotFound(
			"chain_transaction_not_found",
			"transaction was not found on chain",
			map[string]any{"method": method},
		)
	}

	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		return apperrors.NewInternal(
			"chain_rpc_error",
			"rpc endpoint returned error",
			map[string]any{
				"method":    method,
				"rpc_error": rpcErr.Message,
				"rpc_code":  rpcErr.Code,
			},
		)
	}

	return apperrors.NewUnavailable(
		"chain_unavailable",
		"failed to call rpc endpoint",
		map[string]any{"method": method, "error": err.Error()},
	)
}
