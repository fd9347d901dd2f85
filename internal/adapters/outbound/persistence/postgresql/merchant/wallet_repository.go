package merchant

import (
	"context"
	"database/sql"
	"time"

	"stablesettle/internal/adapters/outbound/persistence/postgresql/shared"
	portsout "stablesettle/internal/application/ports/out"
	"stablesettle/internal/domain/entities"
	valueobjects "stablesettle/internal/domain/value_objects"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

const walletColumns = `
  id,
  merchant_id,
  chain,
  address,
  proof_verified,
  proof_nonce,
  proof_nonce_expires_at,
  verified_at,
  created_at
`

type WalletRepository struct {
	db *sql.DB
}

var _ portsout.WalletRepository = (*WalletRepository)(nil)

func NewWalletRepository(db *sql.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) Create(ctx context.Context, wallet entities.MerchantWallet) *apperrors.AppError {
	const query = `
INSERT INTO app.merchant_wallets (
  id,
  merchant_id,
  chain,
  address,
  proof_verified,
  created_at,
  updated_at
) VALUES ($1, $2, $3, $4, FALSE, $5, $5)
`
	_, err := r.db.ExecContext(ctx, query, wallet.ID, wallet.MerchantID, wallet.Chain.String(), wallet.Address, wallet.CreatedAt.UTC())
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return apperrors.NewConflict(
				"wallet_already_registered",
				"wallet address is already registered",
				map[string]any{"chain": wallet.Chain.String(), "address": wallet.Address},
			)
		}
		return shared.InternalError("wallet_insert_failed", "failed to insert merchant wallet", err)
	}
	return nil
}

func (r *WalletRepository) GetByID(ctx context.Context, merchantID string, id string) (entities.MerchantWallet, bool, *apperrors.AppError) {
	query := `SELECT` + walletColumns + `FROM app.merchant_wallets WHERE id = $1 AND merchant_id = $2`
	return r.getOne(ctx, query, id, merchantID)
}

// FindVerified returns the most recently verified wallet for the merchant on chain.
func (r *WalletRepository) FindVerified(ctx context.Context, merchantID string, chain string) (entities.MerchantWallet, bool, *apperrors.AppError) {
	query := `SELECT` + walletColumns + `
FROM app.merchant_wallets
WHERE merchant_id = $1
  AND chain = $2
  AND proof_verified
ORDER BY verified_at DESC, id ASC
LIMIT 1
`
	return r.getOne(ctx, query, merchantID, chain)
}

func (r *WalletRepository) SetChallenge(ctx context.Context, id string, nonce string, expiresAt time.Time, now time.Time) (bool, *apperrors.AppError) {
	const query = `
UPDATE app.merchant_wallets
SET
  proof_nonce = $2,
  proof_nonce_expires_at = $3,
  updated_at = $4
WHERE id = $1
  AND NOT proof_verified
`
	return shared.ExecRowsAffected(ctx, r.db, "wallet_update_failed", query, id, nonce, expiresAt.UTC(), now.UTC())
}

func (r *WalletRepository) MarkVerified(ctx context.Context, id string, nonce string, now time.Time) (bool, *apperrors.AppError) {
	const query = `
UPDATE app.merchant_wallets
SET
  proof_verified = TRUE,
  verified_at = $3,
  proof_nonce = NULL,
  proof_nonce_expires_at = NULL,
  updated_at = $3
WHERE id = $1
  AND proof_nonce = $2
  AND proof_nonce_expires_at > $3
`
	return shared.ExecRowsAffected(ctx, r.db, "wallet_update_failed", query, id, nonce, now.UTC())
}

func (r *WalletRepository) getOne(ctx context.Context, query string, args ...any) (entities.MerchantWallet, bool, *apperrors.AppError) {
	wallet := entities.MerchantWallet{}
	var chain string
	var nonce sql.NullString
	var nonceExpiresAt sql.NullTime
	var verifiedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&wallet.ID,
		&wallet.MerchantID,
		&chain,
		&wallet.Address,
		&wallet.ProofVerified,
		&nonce,
		&nonceExpiresAt,
		&verifiedAt,
		&wallet.CreatedAt,
	)
	if shared.IsNoRows(err) {
		return entities.MerchantWallet{}, false, nil
	}
	if err != nil {
		return entities.MerchantWallet{}, false, shared.InternalError("wallet_query_failed", "failed to query merchant wallet", err)
	}

	wallet.Chain = valueobjects.Chain(chain)
	wallet.ProofNonce = shared.StringPtr(nonce)
	wallet.ProofNonceExpiresAt = timePtr(nonceExpiresAt)
	wallet.VerifiedAt = timePtr(verifiedAt)
	wallet.CreatedAt = wallet.CreatedAt.UTC()
	return wallet, true, nil
}

func timePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	out := value.Time.UTC()
	return &out
}
