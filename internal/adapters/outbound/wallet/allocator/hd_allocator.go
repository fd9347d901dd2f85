package allocator

import (
	"context"
	"fmt"
	"log"
	"strings"

	"stablesettle/internal/application/dto"
	portsout "stablesettle/internal/application/ports/out"
	"stablesettle/internal/infrastructure/walletkeys"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type DerivationIndexSource interface {
	NextDerivationIndex(ctx context.Context) (int64, *apperrors.AppError)
}

// HDAllocator derives EVM payment addresses from an account-level xpub at m/.../0/{index}.
type HDAllocator struct {
	key     walletkeys.AccountKey
	indexes DerivationIndexSource
	logger  *log.Logger
}

var _ portsout.PaymentAddressAllocator = (*HDAllocator)(nil)

func NewHDAllocator(rawXPub string, indexes DerivationIndexSource, logger *log.Logger) (*HDAllocator, *apperrors.AppError) {
	key, keyErr := walletkeys.ParseAccountXPub(rawXPub)
	if keyErr != nil {
		return nil, mapKeyError(keyErr)
	}
	if keyErr := key.ValidateAccountLevel(); keyErr != nil {
		return nil, mapKeyError(keyErr)
	}
	return &HDAllocator{key: key, indexes: indexes, logger: logger}, nil
}

func (a *HDAllocator) Allocate(ctx context.Context, input dto.AllocatePaymentAddressInput) (dto.PaymentAddressAllocation, *apperrors.AppError) {
	index, appErr := a.indexes.NextDerivationIndex(ctx)
	if appErr != nil {
		return dto.PaymentAddressAllocation{}, appErr
	}

	address, keyErr := a.key.DeriveEVMAddress(index)
	if keyErr != nil {
		return dto.PaymentAddressAllocation{}, mapKeyError(keyErr)
	}

	if a.logger != nil {
		a.logger.Printf(
			"payment address derived chain=%s payment_intent_id=%s derivation_index=%d",
			input.Chain,
			input.PaymentIntentID,
			index,
		)
	}
	return dto.PaymentAddressAllocation{
		Address:         address,
		DerivationIndex: &index,
	}, nil
}

func mapKeyError(keyErr *walletkeys.KeyError) *apperrors.AppError {
	if keyErr == nil {
		return nil
	}

	code := strings.TrimSpace(string(keyErr.Code))
	if code == "" {
		code = string(walletkeys.CodeDerivationFailed)
	}
	details := map[string]any{
		"reason": keyErr.Message,
	}
	if keyErr.Cause != nil {
		details["cause"] = keyErr.Cause.Error()
	}

	switch keyErr.Code {
	case walletkeys.CodeInvalidConfiguration, walletkeys.CodeInvalidKeyMaterialFormat, walletkeys.CodeDerivationFailed:
		return apperrors.NewInternal(code, keyErr.Message, details)
	default:
		return apperrors.NewInternal(
			string(walletkeys.CodeDerivationFailed),
			fmt.Sprintf("address derivation failed: %s", keyErr.Message),
			details,
		)
	}
}
