package valueobjects

import (
	"regexp"
	"strings"

	apperrors "stablesettle/internal/shared_kernel/errors"

	"github.com/gagliardetto/solana-go"
	"golang.org/x/crypto/sha3"
)

var evmAddressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// NormalizeAddress returns the canonical storage form of an address on chain.
// EVM addresses are lower-cased; Solana addresses are re-encoded base58 public keys.
func NormalizeAddress(chain Chain, field string, address string) (string, *apperrors.AppError) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return "", apperrors.NewValidation(
			"invalid_request",
			field+" is required",
			map[string]any{"field": field},
		)
	}

	switch chain.Family() {
	case ChainFamilyEVM:
		if !evmAddressPattern.MatchString(trimmed) {
			return "", apperrors.NewValidation(
				"invalid_address",
				field+" is not a valid evm address",
				map[string]any{"field": field, "chain": chain.String()},
			)
		}
		return "0x" + strings.ToLower(trimmed[2:]), nil
	case ChainFamilySolana:
		publicKey, err := solana.PublicKeyFromBase58(trimmed)
		if err != nil {
			return "", apperrors.NewValidation(
				"invalid_address",
				field+" is not a valid solana address",
				map[string]any{"field": field, "chain": chain.String()},
			)
		}
		return publicKey.String(), nil
	default:
		return "", apperrors.NewValidation(
			"unsupported_chain",
			"unsupported chain for address canonicalization",
			map[string]any{"chain": chain.String()},
		)
	}
}

func FormatAddressForResponse(chain Chain, canonical string) string {
	if chain.Family() != ChainFamilyEVM {
		return canonical
	}
	checksummed, appErr := ToEIP55Checksum(canonical)
	if appErr != nil {
		return canonical
	}
	return checksummed
}

func ToEIP55Checksum(canonical string) (string, *apperrors.AppError) {
	normalized := "0x" + strings.ToLower(strings.TrimSpace(strings.TrimPrefix(canonical, "0x")))
	if !evmAddressPattern.MatchString(normalized) {
		return "", apperrors.NewInternal(
			"address_canonical_invalid",
			"canonical evm address is invalid",
			map[string]any{"address": canonical},
		)
	}

	hexPart := normalized[2:]
	hash := sha3.NewLegacyKeccak256()
	_, _ = hash.Write([]byte(hexPart))
	checksumBytes := hash.Sum(nil)

	out := []byte(hexPart)
	for i := range out {
		if out[i] >= '0' && out[i] <= '9' {
			continue
		}
		nibble := checksumBytes[i/2] & 0x0f
		if i%2 == 0 {
			nibble = checksumBytes[i/2] >> 4
		}
		if nibble >= 8 {
			out[i] -= 'a' - 'A'
		}
	}

	return "0x" + string(out), nil
}
