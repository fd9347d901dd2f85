package use_cases

import (
	"context"

	"stablesettle/internal/application/dto"
	portsin "stablesettle/internal/application/ports/in"
	portsout "stablesettle/internal/application/ports/out"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type getBalancesUseCase struct {
	balances portsout.BalanceReadModel
}

func NewGetBalancesUseCase(balances portsout.BalanceReadModel) portsin.GetBalancesUseCase {
	return &getBalancesUseCase{balances: balances}
}

func (u *getBalancesUseCase) Execute(ctx context.Context, query dto.GetBalancesQuery) (dto.GetBalancesOutput, *apperrors.AppError) {
	if u.balances == nil {
		return dto.GetBalancesOutput{}, missingDependency("balance_read_model_missing", "balance read model is required")
	}
	merchantID, appErr := requireMerchantID(query.MerchantID)
	if appErr != nil {
		return dto.GetBalancesOutput{}, appErr
	}

	balances, appErr := u.balances.ListBalances(ctx, merchantID)
	if appErr != nil {
		return dto.GetBalancesOutput{}, appErr
	}

	output := dto.GetBalancesOutput{
		MerchantID: merchantID,
		Balances:   make([]dto.BalanceResource, 0, len(balances)),
	}
	for _, balance := range balances {
		output.Balances = append(output.Balances, dto.BalanceResource{
			Currency:  balance.Currency.String(),
			Total:     balance.Total.String(),
			Onchain:   balance.Onchain.String(),
			Offchain:  balance.Offchain.String(),
			UpdatedAt: balance.UpdatedAt,
		})
	}
	return output, nil
}
