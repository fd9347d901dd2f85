package shared

import (
	"context"
	"database/sql"
	"time"

	"stablesettle/internal/domain/entities"
	apperrors "stablesettle/internal/shared_kernel/errors"

	"github.com/shopspring/decimal"
)

// InsertLedgerTransaction returns false without error when the (type, tx_hash) pair
// has already been recorded.
func InsertLedgerTransaction(ctx context.Context, tx *sql.Tx, entry entities.LedgerTransaction) (bool, *apperrors.AppError) {
	const query = `
INSERT INTO app.ledger_transactions (
  id,
  merchant_id,
  type,
  amount,
  currency,
  tx_hash,
  reference_type,
  reference_id,
  created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`
	_, err := tx.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.MerchantID,
		string(entry.Type),
		entry.Amount,
		entry.Currency.String(),
		entry.TxHash,
		entry.ReferenceType,
		entry.ReferenceID,
		entry.CreatedAt.UTC(),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return false, nil
		}
		return false, InternalError("ledger_transaction_insert_failed", "failed to insert ledger transaction", err)
	}
	return true, nil
}

// CreditOnchainBalance adds amount to total and onchain, creating the row on first credit.
func CreditOnchainBalance(
	ctx context.Context,
	tx *sql.Tx,
	merchantID string,
	currency string,
	amount decimal.Decimal,
	now time.Time,
) *apperrors.AppError {
	const query = `
INSERT INTO app.balances (merchant_id, currency, total, onchain, offchain, updated_at)
VALUES ($1, $2, $3, $3, 0, $4)
ON CONFLICT (merchant_id, currency) DO UPDATE
SET
  total = app.balances.total + EXCLUDED.total,
  onchain = app.balances.onchain + EXCLUDED.onchain,
  updated_at = EXCLUDED.updated_at
`
	if _, err := tx.ExecContext(ctx, query, merchantID, currency, amount, now.UTC()); err != nil {
		return InternalError("balance_credit_failed", "failed to credit merchant balance", err)
	}
	return nil
}

// DebitOnchainBalance subtracts amount from total and onchain. It fails rather than
// letting the balance go negative.
func DebitOnchainBalance(
	ctx context.Context,
	tx *sql.Tx,
	merchantID string,
	currency string,
	amount decimal.Decimal,
	now time.Time,
) *apperrors.AppError {
	const query = `
UPDATE app.balances
SET
  total = total - $3,
  onchain = onchain - $3,
  updated_at = $4
WHERE merchant_id = $1
  AND currency = $2
  AND total >= $3
`
	updated, appErr := ExecRowsAffected(ctx, tx, "balance_debit_failed", query, merchantID, currency, amount, now.UTC())
	if appErr != nil {
		return appErr
	}
	if !updated {
		return apperrors.NewConflict(
			"insufficient_balance",
			"merchant balance does not cover payout",
			map[string]any{"merchant_id": merchantID, "currency": currency, "amount": amount.String()},
		)
	}
	return nil
}
