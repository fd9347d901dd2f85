package use_cases

import (
	"context"
	"strings"

	"stablesettle/internal/application/dto"
	portsin "stablesettle/internal/application/ports/in"
	portsout "stablesettle/internal/application/ports/out"
	"stablesettle/internal/domain/entities"
	"stablesettle/internal/domain/policies"
	valueobjects "stablesettle/internal/domain/value_objects"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type createPayoutUseCase struct {
	payouts      portsout.PayoutRepository
	balances     portsout.BalanceReadModel
	destinations portsout.DestinationRepository
	generator    payoutTransactionGenerator
	clock        Clock
	ids          IDGenerator
}

func NewCreatePayoutUseCase(
	payouts portsout.PayoutRepository,
	balances portsout.BalanceReadModel,
	destinations portsout.DestinationRepository,
	wallets portsout.WalletRepository,
	tokens portsout.TokenRegistry,
	builder portsout.UnsignedTransactionBuilder,
	clock Clock,
	ids IDGenerator,
) portsin.CreatePayoutUseCase {
	return &createPayoutUseCase{
		payouts:      payouts,
		balances:     balances,
		destinations: destinations,
		generator: payoutTransactionGenerator{
			payouts: payouts,
			wallets: wallets,
			tokens:  tokens,
			builder: builder,
		},
		clock: clock,
		ids:   idsOrDefault(ids),
	}
}

func (u *createPayoutUseCase) Execute(
	ctx context.Context,
	command dto.CreatePayoutCommand,
) (dto.CreatePayoutOutput, *apperrors.AppError) {
	if appErr := u.generator.validate(); appErr != nil {
		return dto.CreatePayoutOutput{}, appErr
	}
	if u.balances == nil {
		return dto.CreatePayoutOutput{}, missingDependency("balance_read_model_missing", "balance read model is required")
	}
	if u.destinations == nil {
		return dto.CreatePayoutOutput{}, missingDependency("destination_repository_missing", "destination repository is required")
	}

	merchantID, appErr := requireMerchantID(command.MerchantID)
	if appErr != nil {
		return dto.CreatePayoutOutput{}, appErr
	}
	amount, appErr := valueobjects.ParseAmount("amount", command.Amount)
	if appErr != nil {
		return dto.CreatePayoutOutput{}, appErr
	}
	if amount.LessThan(policies.MinimumPayoutAmount) {
		return dto.CreatePayoutOutput{}, apperrors.NewValidation(
			"invalid_amount",
			"payout amount is below the minimum",
			map[string]any{"field": "amount", "minimum": policies.MinimumPayoutAmount.String()},
		)
	}
	currency, appErr := valueobjects.ParseCurrency(command.Currency)
	if appErr != nil {
		return dto.CreatePayoutOutput{}, appErr
	}

	chain, destinationID, destinationAddress, appErr := u.resolveDestination(ctx, merchantID, command)
	if appErr != nil {
		return dto.CreatePayoutOutput{}, appErr
	}
	if _, ok := u.generator.tokens.Resolve(chain.String(), currency.String()); !ok {
		return dto.CreatePayoutOutput{}, apperrors.NewValidation(
			"unsupported_currency",
			"currency is not supported on chain",
			map[string]any{"chain": chain.String(), "currency": currency.String()},
		)
	}

	balance, appErr := u.balances.GetBalance(ctx, merchantID, currency.String())
	if appErr != nil {
		return dto.CreatePayoutOutput{}, appErr
	}
	if amount.GreaterThan(balance.Total) {
		return dto.CreatePayoutOutput{}, apperrors.NewValidation(
			"insufficient_balance",
			"payout amount exceeds available balance",
			map[string]any{"amount": amount.String(), "available": balance.Total.String()},
		)
	}

	now := resolveNow(u.clock, command.Now)
	payout, appErr := entities.NewPayout(entities.NewPayoutInput{
		ID:                 u.ids.NewID(idPrefixPayout),
		MerchantID:         merchantID,
		Amount:             amount,
		Currency:           currency,
		Chain:              chain,
		DestinationID:      destinationID,
		DestinationAddress: destinationAddress,
		CreatedAt:          now,
	})
	if appErr != nil {
		return dto.CreatePayoutOutput{}, appErr
	}
	if appErr := u.payouts.Create(ctx, payout); appErr != nil {
		return dto.CreatePayoutOutput{}, appErr
	}

	if payout.Status != valueobjects.PayoutStatusApproved {
		return dto.CreatePayoutOutput{Payout: toPayoutResource(payout)}, nil
	}

	generated, generateErr := u.generator.generate(ctx, payout, now)
	if generateErr != nil {
		return dto.CreatePayoutOutput{
			Payout:          toPayoutResource(payout),
			GenerationError: toErrorSummary(generateErr),
		}, nil
	}
	return dto.CreatePayoutOutput{Payout: toPayoutResource(generated)}, nil
}

func (u *createPayoutUseCase) resolveDestination(
	ctx context.Context,
	merchantID string,
	command dto.CreatePayoutCommand,
) (valueobjects.Chain, *string, string, *apperrors.AppError) {
	destinationID := strings.TrimSpace(command.DestinationID)
	if destinationID != "" {
		destination, found, appErr := u.destinations.GetByID(ctx, merchantID, destinationID)
		if appErr != nil {
			return "", nil, "", appErr
		}
		if !found {
			return "", nil, "", apperrors.NewValidation(
				"invalid_destination",
				"destination was not found",
				map[string]any{"field": "destination_id", "destination_id": destinationID},
			)
		}
		if raw := strings.TrimSpace(command.Chain); raw != "" && !strings.EqualFold(raw, destination.Chain.String()) {
			return "", nil, "", apperrors.NewValidation(
				"invalid_destination",
				"destination chain does not match requested chain",
				map[string]any{"field": "chain", "destination_chain": destination.Chain.String()},
			)
		}
		return destination.Chain, &destination.ID, destination.Address, nil
	}

	if strings.TrimSpace(command.DestinationAddress) == "" {
		return "", nil, "", apperrors.NewValidation(
			"invalid_destination",
			"destination_id or destination_address is required",
			map[string]any{"field": "destination_address"},
		)
	}
	chain, appErr := valueobjects.ParseChain(command.Chain)
	if appErr != nil {
		return "", nil, "", appErr
	}
	address, appErr := valueobjects.NormalizeAddress(chain, "destination_address", command.DestinationAddress)
	if appErr != nil {
		return "", nil, "", apperrors.NewValidation(
			"invalid_destination",
			"destination address is not valid for chain",
			map[string]any{"field": "destination_address", "chain": chain.String()},
		)
	}
	return chain, nil, address, nil
}
