package use_cases

import (
	"context"

	"stablesettle/internal/application/dto"
	portsin "stablesettle/internal/application/ports/in"
	portsout "stablesettle/internal/application/ports/out"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type generatePayoutTransactionUseCase struct {
	generator payoutTransactionGenerator
	clock     Clock
}

func NewGeneratePayoutTransactionUseCase(
	payouts portsout.PayoutRepository,
	wallets portsout.WalletRepository,
	tokens portsout.TokenRegistry,
	builder portsout.UnsignedTransactionBuilder,
	clock Clock,
) portsin.GeneratePayoutTransactionUseCase {
	return &generatePayoutTransactionUseCase{
		generator: payoutTransactionGenerator{
			payouts: payouts,
			wallets: wallets,
			tokens:  tokens,
			builder: builder,
		},
		clock: clock,
	}
}

func (u *generatePayoutTransactionUseCase) Execute(
	ctx context.Context,
	command dto.GeneratePayoutTransactionCommand,
) (dto.PayoutResource, *apperrors.AppError) {
	if appErr := u.generator.validate(); appErr != nil {
		return dto.PayoutResource{}, appErr
	}
	merchantID, appErr := requireMerchantID(command.MerchantID)
	if appErr != nil {
		return dto.PayoutResource{}, appErr
	}
	payoutID, appErr := requireField("payout_id", command.PayoutID)
	if appErr != nil {
		return dto.PayoutResource{}, appErr
	}

	payout, appErr := loadPayout(ctx, u.generator.payouts, merchantID, payoutID)
	if appErr != nil {
		return dto.PayoutResource{}, appErr
	}

	generated, appErr := u.generator.generate(ctx, payout, resolveNow(u.clock, command.Now))
	if appErr != nil {
		return dto.PayoutResource{}, appErr
	}
	return toPayoutResource(generated), nil
}
