package addresspool

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"stablesettle/internal/adapters/outbound/persistence/postgresql/shared"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

// Repository hands out pre-provisioned payment addresses and HD derivation indexes.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Claim assigns the oldest free pool address on chain to intentID. found is false when
// the pool is exhausted.
func (r *Repository) Claim(ctx context.Context, chain string, intentID string, now time.Time) (string, bool, *apperrors.AppError) {
	const query = `
WITH candidate AS (
  SELECT chain, address
  FROM app.payment_address_pool
  WHERE chain = $1
    AND assigned_intent_id IS NULL
  ORDER BY created_at ASC, address ASC
  LIMIT 1
  FOR UPDATE SKIP LOCKED
)
UPDATE app.payment_address_pool AS p
SET
  assigned_intent_id = $2,
  assigned_at = $3
FROM candidate
WHERE p.chain = candidate.chain
  AND p.address = candidate.address
RETURNING p.address
`
	var address string
	err := r.db.QueryRowContext(ctx, query, strings.TrimSpace(chain), strings.TrimSpace(intentID), now.UTC()).Scan(&address)
	if shared.IsNoRows(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, shared.InternalError("payment_address_pool_claim_failed", "failed to claim payment address", err)
	}
	return address, true, nil
}

// Add seeds addresses into the pool, skipping ones already present. It returns the
// number of rows inserted.
func (r *Repository) Add(ctx context.Context, chain string, addresses []string, now time.Time) (int, *apperrors.AppError) {
	const query = `
INSERT INTO app.payment_address_pool (chain, address, created_at)
VALUES ($1, $2, $3)
ON CONFLICT (chain, address) DO NOTHING
`
	inserted := 0
	appErr := shared.InTx(ctx, r.db, "payment_address_pool", func(tx *sql.Tx) (bool, *apperrors.AppError) {
		for _, address := range addresses {
			added, appErr := shared.ExecRowsAffected(ctx, tx, "payment_address_pool_insert_failed", query, chain, address, now.UTC())
			if appErr != nil {
				return false, appErr
			}
			if added {
				inserted++
			}
		}
		return true, nil
	})
	if appErr != nil {
		return 0, appErr
	}
	return inserted, nil
}

func (r *Repository) CountFree(ctx context.Context, chain string) (int64, *apperrors.AppError) {
	const query = `
SELECT COUNT(*)
FROM app.payment_address_pool
WHERE chain = $1
  AND assigned_intent_id IS NULL
`
	var count int64
	if err := r.db.QueryRowContext(ctx, query, chain).Scan(&count); err != nil {
		return 0, shared.InternalError("payment_address_pool_query_failed", "failed to count free payment addresses", err)
	}
	return count, nil
}

// NextDerivationIndex draws from a sequence; gaps after rollbacks are acceptable.
func (r *Repository) NextDerivationIndex(ctx context.Context) (int64, *apperrors.AppError) {
	var index int64
	if err := r.db.QueryRowContext(ctx, `SELECT nextval('app.payment_address_index_seq')`).Scan(&index); err != nil {
		return 0, shared.InternalError("payment_address_index_failed", "failed to allocate derivation index", err)
	}
	return index, nil
}
