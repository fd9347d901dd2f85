package use_cases

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"stablesettle/internal/application/dto"
	portsin "stablesettle/internal/application/ports/in"
	portsout "stablesettle/internal/application/ports/out"
	"stablesettle/internal/domain/entities"
	"stablesettle/internal/domain/policies"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

const walletChallengeNonceBytes = 32

type NonceSource func() (string, error)

func randomHexNonce() (string, error) {
	buf := make([]byte, walletChallengeNonceBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func loadWallet(
	ctx context.Context,
	wallets portsout.WalletRepository,
	merchantID string,
	walletID string,
) (entities.MerchantWallet, *apperrors.AppError) {
	wallet, found, appErr := wallets.GetByID(ctx, merchantID, walletID)
	if appErr != nil {
		return entities.MerchantWallet{}, appErr
	}
	if !found {
		return entities.MerchantWallet{}, apperrors.NewNotFound(
			"wallet_not_found",
			"wallet was not found",
			map[string]any{"wallet_id": walletID},
		)
	}
	return wallet, nil
}

func walletProofChallenge(wallet entities.MerchantWallet) policies.WalletProofChallenge {
	challenge := policies.WalletProofChallenge{
		WalletID: wallet.ID,
		Address:  toWalletResource(wallet).Address,
		Chain:    wallet.Chain.String(),
	}
	if wallet.ProofNonce != nil {
		challenge.Nonce = *wallet.ProofNonce
	}
	if wallet.ProofNonceExpiresAt != nil {
		challenge.ExpiresAt = *wallet.ProofNonceExpiresAt
	}
	return challenge
}

type issueWalletChallengeUseCase struct {
	wallets portsout.WalletRepository
	nonce   NonceSource
	clock   Clock
}

func NewIssueWalletChallengeUseCase(
	wallets portsout.WalletRepository,
	nonce NonceSource,
	clock Clock,
) portsin.IssueWalletChallengeUseCase {
	if nonce == nil {
		nonce = randomHexNonce
	}
	return &issueWalletChallengeUseCase{wallets: wallets, nonce: nonce, clock: clock}
}

func (u *issueWalletChallengeUseCase) Execute(
	ctx context.Context,
	command dto.IssueWalletChallengeCommand,
) (dto.WalletChallengeOutput, *apperrors.AppError) {
	if u.wallets == nil {
		return dto.WalletChallengeOutput{}, missingDependency("wallet_repository_missing", "wallet repository is required")
	}
	merchantID, appErr := requireMerchantID(command.MerchantID)
	if appErr != nil {
		return dto.WalletChallengeOutput{}, appErr
	}
	walletID, appErr := requireField("wallet_id", command.WalletID)
	if appErr != nil {
		return dto.WalletChallengeOutput{}, appErr
	}

	wallet, appErr := loadWallet(ctx, u.wallets, merchantID, walletID)
	if appErr != nil {
		return dto.WalletChallengeOutput{}, appErr
	}
	if wallet.ProofVerified {
		return dto.WalletChallengeOutput{}, apperrors.NewConflict(
			"wallet_already_verified",
			"wallet ownership is already verified",
			map[string]any{"wallet_id": wallet.ID},
		)
	}

	nonce, err := u.nonce()
	if err != nil {
		return dto.WalletChallengeOutput{}, apperrors.NewInternal(
			"wallet_challenge_nonce_failed",
			"failed to generate challenge nonce",
			map[string]any{"error": err.Error()},
		)
	}
	now := resolveNow(u.clock, command.Now)
	expiresAt := now.Add(policies.WalletProofChallengeTTL)

	updated, appErr := u.wallets.SetChallenge(ctx, wallet.ID, nonce, expiresAt, now)
	if appErr != nil {
		return dto.WalletChallengeOutput{}, appErr
	}
	if !updated {
		return dto.WalletChallengeOutput{}, apperrors.NewConflict(
			"wallet_already_verified",
			"wallet ownership is already verified",
			map[string]any{"wallet_id": wallet.ID},
		)
	}

	wallet.ProofNonce = &nonce
	wallet.ProofNonceExpiresAt = &expiresAt
	return dto.WalletChallengeOutput{
		WalletID:  wallet.ID,
		Nonce:     nonce,
		Message:   policies.WalletProofMessage(walletProofChallenge(wallet)),
		ExpiresAt: expiresAt,
	}, nil
}

type verifyWalletProofUseCase struct {
	wallets  portsout.WalletRepository
	verifier portsout.WalletSignatureVerifier
	clock    Clock
}

func NewVerifyWalletProofUseCase(
	wallets portsout.WalletRepository,
	verifier portsout.WalletSignatureVerifier,
	clock Clock,
) portsin.VerifyWalletProofUseCase {
	return &verifyWalletProofUseCase{wallets: wallets, verifier: verifier, clock: clock}
}

func (u *verifyWalletProofUseCase) Execute(
	ctx context.Context,
	command dto.VerifyWalletProofCommand,
) (dto.WalletResource, *apperrors.AppError) {
	if u.wallets == nil {
		return dto.WalletResource{}, missingDependency("wallet_repository_missing", "wallet repository is required")
	}
	if u.verifier == nil {
		return dto.WalletResource{}, missingDependency("wallet_signature_verifier_missing", "wallet signature verifier is required")
	}
	merchantID, appErr := requireMerchantID(command.MerchantID)
	if appErr != nil {
		return dto.WalletResource{}, appErr
	}
	walletID, appErr := requireField("wallet_id", command.WalletID)
	if appErr != nil {
		return dto.WalletResource{}, appErr
	}
	signature, appErr := requireField("signature", command.Signature)
	if appErr != nil {
		return dto.WalletResource{}, appErr
	}

	wallet, appErr := loadWallet(ctx, u.wallets, merchantID, walletID)
	if appErr != nil {
		return dto.WalletResource{}, appErr
	}
	if wallet.ProofNonce == nil || wallet.ProofNonceExpiresAt == nil {
		return dto.WalletResource{}, apperrors.NewValidation(
			"wallet_challenge_missing",
			"no outstanding ownership challenge for wallet",
			map[string]any{"wallet_id": wallet.ID},
		)
	}
	now := resolveNow(u.clock, command.Now)
	if !now.Before(*wallet.ProofNonceExpiresAt) {
		return dto.WalletResource{}, apperrors.NewValidation(
			"wallet_challenge_expired",
			"ownership challenge expired; request a new one",
			map[string]any{"wallet_id": wallet.ID},
		)
	}

	message := policies.WalletProofMessage(walletProofChallenge(wallet))
	valid, appErr := u.verifier.Verify(ctx, dto.VerifyWalletSignatureInput{
		Chain:     wallet.Chain.String(),
		Address:   wallet.Address,
		Message:   []byte(message),
		Signature: signature,
	})
	if appErr != nil {
		return dto.WalletResource{}, appErr
	}
	if !valid {
		return dto.WalletResource{}, apperrors.NewValidation(
			"wallet_proof_invalid",
			"signature does not prove ownership of wallet",
			map[string]any{"wallet_id": wallet.ID},
		)
	}

	updated, appErr := u.wallets.MarkVerified(ctx, wallet.ID, *wallet.ProofNonce, now)
	if appErr != nil {
		return dto.WalletResource{}, appErr
	}
	if !updated {
		return dto.WalletResource{}, apperrors.NewValidation(
			"wallet_challenge_missing",
			"ownership challenge was already used or replaced",
			map[string]any{"wallet_id": wallet.ID},
		)
	}

	wallet.ProofVerified = true
	wallet.VerifiedAt = &now
	wallet.ProofNonce = nil
	wallet.ProofNonceExpiresAt = nil
	return toWalletResource(wallet), nil
}
