package valueobjects

import (
	"strings"

	apperrors "stablesettle/internal/shared_kernel/errors"
)

type Chain string

const (
	ChainSolana   Chain = "solana"
	ChainEthereum Chain = "ethereum"
)

type ChainFamily string

const (
	// ChainFamilySolana transactions embed a recent blockhash and stop being valid within minutes.
	ChainFamilySolana ChainFamily = "solana"
	ChainFamilyEVM    ChainFamily = "evm"
	ChainFamilyUTXO   ChainFamily = "utxo"
)

func ParseChain(raw string) (Chain, *apperrors.AppError) {
	normalized := Chain(strings.ToLower(strings.TrimSpace(raw)))
	switch normalized {
	case ChainSolana, ChainEthereum:
		return normalized, nil
	case "":
		return "", apperrors.NewValidation(
			"invalid_request",
			"chain is required",
			map[string]any{"field": "chain"},
		)
	default:
		return "", apperrors.NewValidation(
			"unsupported_chain",
			"chain is not supported",
			map[string]any{"chain": raw},
		)
	}
}

func (c Chain) Family() ChainFamily {
	switch c {
	case ChainSolana:
		return ChainFamilySolana
	case ChainEthereum:
		return ChainFamilyEVM
	default:
		return ""
	}
}

// HasFastTransactionExpiry reports chains whose unsigned transactions go stale quickly
// (recent-blockhash or UTXO input selection).
func (f ChainFamily) HasFastTransactionExpiry() bool {
	return f == ChainFamilySolana || f == ChainFamilyUTXO
}

func (c Chain) String() string {
	return string(c)
}
