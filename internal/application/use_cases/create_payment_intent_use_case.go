package use_cases

import (
	"context"
	"time"

	"stablesettle/internal/application/dto"
	portsin "stablesettle/internal/application/ports/in"
	portsout "stablesettle/internal/application/ports/out"
	"stablesettle/internal/domain/entities"
	valueobjects "stablesettle/internal/domain/value_objects"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type createPaymentIntentUseCase struct {
	repository portsout.PaymentIntentRepository
	allocator  portsout.PaymentAddressAllocator
	tokens     portsout.TokenRegistry
	clock      Clock
	ids        IDGenerator
}

func NewCreatePaymentIntentUseCase(
	repository portsout.PaymentIntentRepository,
	allocator portsout.PaymentAddressAllocator,
	tokens portsout.TokenRegistry,
	clock Clock,
	ids IDGenerator,
) portsin.CreatePaymentIntentUseCase {
	return &createPaymentIntentUseCase{
		repository: repository,
		allocator:  allocator,
		tokens:     tokens,
		clock:      clock,
		ids:        idsOrDefault(ids),
	}
}

func (u *createPaymentIntentUseCase) Execute(
	ctx context.Context,
	command dto.CreatePaymentIntentCommand,
) (dto.PaymentIntentResource, *apperrors.AppError) {
	if u.repository == nil {
		return dto.PaymentIntentResource{}, missingDependency("payment_intent_repository_missing", "payment intent repository is required")
	}
	if u.allocator == nil {
		return dto.PaymentIntentResource{}, missingDependency("payment_address_allocator_missing", "payment address allocator is required")
	}
	if u.tokens == nil {
		return dto.PaymentIntentResource{}, missingDependency("token_registry_missing", "token registry is required")
	}

	merchantID, appErr := requireMerchantID(command.MerchantID)
	if appErr != nil {
		return dto.PaymentIntentResource{}, appErr
	}
	amount, appErr := valueobjects.ParseAmount("amount", command.Amount)
	if appErr != nil {
		return dto.PaymentIntentResource{}, appErr
	}
	currency, appErr := valueobjects.ParseCurrency(command.Currency)
	if appErr != nil {
		return dto.PaymentIntentResource{}, appErr
	}
	chain, appErr := valueobjects.ParseChain(command.Chain)
	if appErr != nil {
		return dto.PaymentIntentResource{}, appErr
	}
	expiresInSeconds, appErr := valueobjects.ResolveIntentExpiresInSeconds(command.ExpiresInSeconds)
	if appErr != nil {
		return dto.PaymentIntentResource{}, appErr
	}

	token, ok := u.tokens.Resolve(chain.String(), currency.String())
	if !ok {
		return dto.PaymentIntentResource{}, apperrors.NewValidation(
			"unsupported_currency",
			"currency is not supported on chain",
			map[string]any{"chain": chain.String(), "currency": currency.String()},
		)
	}

	now := resolveNow(u.clock, command.Now)
	intentID := u.ids.NewID(idPrefixPaymentIntent)
	allocation, appErr := u.allocator.Allocate(ctx, dto.AllocatePaymentAddressInput{
		Chain:           chain.String(),
		PaymentIntentID: intentID,
	})
	if appErr != nil {
		return dto.PaymentIntentResource{}, appErr
	}
	paymentAddress, appErr := valueobjects.NormalizeAddress(chain, "payment_address", allocation.Address)
	if appErr != nil {
		return dto.PaymentIntentResource{}, apperrors.NewInternal(
			"payment_address_invalid",
			"allocated payment address is invalid",
			map[string]any{"chain": chain.String()},
		)
	}
	tokenID, appErr := valueobjects.NormalizeAddress(chain, "token_id", token.TokenID)
	if appErr != nil {
		return dto.PaymentIntentResource{}, apperrors.NewInternal(
			"token_registry_invalid",
			"configured token id is invalid",
			map[string]any{"chain": chain.String(), "currency": currency.String()},
		)
	}

	intent, appErr := entities.NewPendingPaymentIntent(entities.NewPaymentIntentInput{
		ID:                intentID,
		MerchantID:        merchantID,
		Amount:            amount,
		Currency:          currency,
		Chain:             chain,
		ExpectedTokenMint: tokenID,
		TokenDecimals:     token.Decimals,
		PaymentAddress:    paymentAddress,
		ExpiresAt:         now.Add(time.Duration(expiresInSeconds) * time.Second),
		CreatedAt:         now,
	})
	if appErr != nil {
		return dto.PaymentIntentResource{}, appErr
	}

	if appErr := u.repository.Create(ctx, intent, allocation.DerivationIndex); appErr != nil {
		return dto.PaymentIntentResource{}, appErr
	}

	return toPaymentIntentResource(intent), nil
}
