package use_cases

import (
	"context"

	"stablesettle/internal/application/dto"
	portsin "stablesettle/internal/application/ports/in"
	portsout "stablesettle/internal/application/ports/out"
	"stablesettle/internal/domain/entities"
	valueobjects "stablesettle/internal/domain/value_objects"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type registerWalletUseCase struct {
	wallets portsout.WalletRepository
	clock   Clock
	ids     IDGenerator
}

func NewRegisterWalletUseCase(wallets portsout.WalletRepository, clock Clock, ids IDGenerator) portsin.RegisterWalletUseCase {
	return &registerWalletUseCase{wallets: wallets, clock: clock, ids: idsOrDefault(ids)}
}

func (u *registerWalletUseCase) Execute(ctx context.Context, command dto.RegisterWalletCommand) (dto.WalletResource, *apperrors.AppError) {
	if u.wallets == nil {
		return dto.WalletResource{}, missingDependency("wallet_repository_missing", "wallet repository is required")
	}
	merchantID, appErr := requireMerchantID(command.MerchantID)
	if appErr != nil {
		return dto.WalletResource{}, appErr
	}
	chain, appErr := valueobjects.ParseChain(command.Chain)
	if appErr != nil {
		return dto.WalletResource{}, appErr
	}
	address, appErr := valueobjects.NormalizeAddress(chain, "address", command.Address)
	if appErr != nil {
		return dto.WalletResource{}, appErr
	}

	wallet := entities.MerchantWallet{
		ID:         u.ids.NewID(idPrefixWallet),
		MerchantID: merchantID,
		Chain:      chain,
		Address:    address,
		CreatedAt:  resolveNow(u.clock, command.Now),
	}
	if appErr := u.wallets.Create(ctx, wallet); appErr != nil {
		return dto.WalletResource{}, appErr
	}
	return toWalletResource(wallet), nil
}
