package use_cases

import (
	"context"
	"time"

	"stablesettle/internal/application/dto"
	portsout "stablesettle/internal/application/ports/out"
	"stablesettle/internal/domain/entities"
	"stablesettle/internal/domain/policies"
	valueobjects "stablesettle/internal/domain/value_objects"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

// payoutTransactionGenerator turns an approved or expired payout into one awaiting an
// external signature. Create, approve and explicit regeneration share it.
type payoutTransactionGenerator struct {
	payouts portsout.PayoutRepository
	wallets portsout.WalletRepository
	tokens  portsout.TokenRegistry
	builder portsout.UnsignedTransactionBuilder
}

func (g payoutTransactionGenerator) validate() *apperrors.AppError {
	if g.payouts == nil {
		return missingDependency("payout_repository_missing", "payout repository is required")
	}
	if g.wallets == nil {
		return missingDependency("wallet_repository_missing", "wallet repository is required")
	}
	if g.tokens == nil {
		return missingDependency("token_registry_missing", "token registry is required")
	}
	if g.builder == nil {
		return missingDependency("unsigned_transaction_builder_missing", "unsigned transaction builder is required")
	}
	return nil
}

func (g payoutTransactionGenerator) generate(
	ctx context.Context,
	payout entities.Payout,
	now time.Time,
) (entities.Payout, *apperrors.AppError) {
	if !payout.Status.CanTransitionTo(valueobjects.PayoutStatusAwaitingSignature) {
		return entities.Payout{}, payoutInvalidState(payout, "payout transaction cannot be generated in the current status")
	}

	wallet, found, appErr := g.wallets.FindVerified(ctx, payout.MerchantID, payout.Chain.String())
	if appErr != nil {
		return entities.Payout{}, appErr
	}
	if !found {
		return entities.Payout{}, apperrors.NewValidation(
			"no_verified_source_wallet",
			"merchant has no proof-verified wallet on this chain",
			map[string]any{"chain": payout.Chain.String()},
		)
	}

	token, ok := g.tokens.Resolve(payout.Chain.String(), payout.Currency.String())
	if !ok {
		return entities.Payout{}, apperrors.NewValidation(
			"unsupported_currency",
			"currency is not supported on chain",
			map[string]any{"chain": payout.Chain.String(), "currency": payout.Currency.String()},
		)
	}

	unsigned, appErr := g.builder.BuildTransfer(ctx, dto.BuildUnsignedTransferInput{
		Chain:              payout.Chain.String(),
		SourceAddress:      wallet.Address,
		DestinationAddress: payout.DestinationAddress,
		TokenID:            token.TokenID,
		RawAmount:          policies.RawFromAmount(payout.NetAmount, token.Decimals),
		Decimals:           token.Decimals,
		Reference:          payout.ID,
	})
	if appErr != nil {
		return entities.Payout{}, appErr
	}

	expiresAt := now.Add(policies.UnsignedTransactionTTL(payout.Chain.Family()))
	updated, appErr := g.payouts.SaveUnsignedTransaction(ctx, dto.SaveUnsignedTransactionInput{
		ID:                   payout.ID,
		FromStatus:           payout.Status.String(),
		Unsigned:             unsigned,
		SourceWalletAddress:  wallet.Address,
		TransactionExpiresAt: expiresAt,
		Now:                  now,
	})
	if appErr != nil {
		return entities.Payout{}, appErr
	}
	if !updated {
		return entities.Payout{}, g.currentStateConflict(ctx, payout)
	}

	sourceAddress := wallet.Address
	payout.Status = valueobjects.PayoutStatusAwaitingSignature
	payout.UnsignedTransaction = &unsigned
	payout.SourceWalletAddress = &sourceAddress
	payout.TransactionExpiresAt = &expiresAt
	payout.UpdatedAt = now
	return payout, nil
}

func (g payoutTransactionGenerator) currentStateConflict(ctx context.Context, payout entities.Payout) *apperrors.AppError {
	current, found, appErr := g.payouts.GetByID(ctx, payout.MerchantID, payout.ID)
	if appErr != nil || !found {
		return payoutInvalidState(payout, "payout changed concurrently")
	}
	return payoutInvalidState(current, "payout changed concurrently")
}

func payoutInvalidState(payout entities.Payout, message string) *apperrors.AppError {
	return apperrors.NewConflict(
		"invalid_state",
		message,
		map[string]any{"id": payout.ID, "status": payout.Status.String()},
	)
}

func payoutNotFound(id string) *apperrors.AppError {
	return apperrors.NewNotFound(
		"payout_not_found",
		"payout was not found",
		map[string]any{"id": id},
	)
}

func loadPayout(
	ctx context.Context,
	payouts portsout.PayoutRepository,
	merchantID string,
	id string,
) (entities.Payout, *apperrors.AppError) {
	payout, found, appErr := payouts.GetByID(ctx, merchantID, id)
	if appErr != nil {
		return entities.Payout{}, appErr
	}
	if !found {
		return entities.Payout{}, payoutNotFound(id)
	}
	return payout, nil
}

func toErrorSummary(appErr *apperrors.AppError) *dto.ErrorSummary {
	if appErr == nil {
		return nil
	}
	return &dto.ErrorSummary{Code: appErr.Code, Message: appErr.Message}
}
