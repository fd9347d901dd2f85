package paymentintent

import (
	"context"
	"database/sql"
	"log"
	"strings"
	"time"

	"stablesettle/internal/adapters/outbound/persistence/postgresql/shared"
	"stablesettle/internal/application/dto"
	portsout "stablesettle/internal/application/ports/out"
	"stablesettle/internal/domain/entities"
	valueobjects "stablesettle/internal/domain/value_objects"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

const selectColumns = `
  id,
  merchant_id,
  amount,
  currency,
  chain,
  expected_token_mint,
  token_decimals,
  payment_address,
  status,
  tx_signature,
  confirmations,
  failure_reason,
  expires_at,
  confirmed_at,
  created_at,
  updated_at
`

type Repository struct {
	db     *sql.DB
	logger *log.Logger
}

var (
	_ portsout.PaymentIntentRepository = (*Repository)(nil)
	_ portsout.SettlementRepository    = (*Repository)(nil)
)

func NewRepository(db *sql.DB, logger *log.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

func (r *Repository) Create(ctx context.Context, intent entities.PaymentIntent, derivationIndex *int64) *apperrors.AppError {
	const query = `
INSERT INTO app.payment_intents (
  id,
  merchant_id,
  amount,
  currency,
  chain,
  expected_token_mint,
  token_decimals,
  payment_address,
  derivation_index,
  status,
  confirmations,
  expires_at,
  created_at,
  updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0, $11, $12, $13)
`
	var index any
	if derivationIndex != nil {
		index = *derivationIndex
	}

	_, err := r.db.ExecContext(
		ctx,
		query,
		intent.ID,
		intent.MerchantID,
		intent.Amount,
		intent.Currency.String(),
		intent.Chain.String(),
		intent.ExpectedTokenMint,
		intent.TokenDecimals,
		intent.PaymentAddress,
		index,
		intent.Status.String(),
		intent.ExpiresAt.UTC(),
		intent.CreatedAt.UTC(),
		intent.UpdatedAt.UTC(),
	)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return apperrors.NewConflict(
				"payment_intent_conflict",
				"payment intent uniqueness constraint failed",
				map[string]any{"id": intent.ID},
			)
		}
		return shared.InternalError("payment_intent_insert_failed", "failed to insert payment intent", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, merchantID string, id string) (entities.PaymentIntent, bool, *apperrors.AppError) {
	query := `SELECT` + selectColumns + `FROM app.payment_intents WHERE id = $1 AND ($2 = '' OR merchant_id = $2)`

	intent, err := scanPaymentIntent(r.db.QueryRowContext(ctx, query, strings.TrimSpace(id), strings.TrimSpace(merchantID)))
	if shared.IsNoRows(err) {
		return entities.PaymentIntent{}, false, nil
	}
	if err != nil {
		return entities.PaymentIntent{}, false, shared.InternalError("payment_intent_query_failed", "failed to query payment intent", err)
	}
	return intent, true, nil
}

func (r *Repository) ListPendingForMatching(ctx context.Context, now time.Time, limit int) ([]entities.PaymentIntent, *apperrors.AppError) {
	query := `SELECT` + selectColumns + `
FROM app.payment_intents
WHERE status = 'pending'
  AND tx_signature IS NULL
  AND expires_at > $1
ORDER BY created_at ASC, id ASC
LIMIT $2
`
	return r.list(ctx, query, now.UTC(), limit)
}

func (r *Repository) ListProcessing(ctx context.Context, limit int) ([]entities.PaymentIntent, *apperrors.AppError) {
	query := `SELECT` + selectColumns + `
FROM app.payment_intents
WHERE status = 'processing'
ORDER BY updated_at ASC, id ASC
LIMIT $1
`
	return r.list(ctx, query, limit)
}

func (r *Repository) ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]entities.PaymentIntent, *apperrors.AppError) {
	query := `SELECT` + selectColumns + `
FROM app.payment_intents
WHERE status = 'pending'
  AND tx_signature IS NULL
  AND expires_at <= $1
ORDER BY expires_at ASC, id ASC
LIMIT $2
`
	return r.list(ctx, query, now.UTC(), limit)
}

// MarkProcessing binds a chain signature to a still-open intent. A signature already
// bound to another intent is reported as a conflict.
func (r *Repository) MarkProcessing(ctx context.Context, input dto.MarkPaymentIntentProcessingInput) (bool, *apperrors.AppError) {
	const query = `
UPDATE app.payment_intents
SET
  status = 'processing',
  tx_signature = $2,
  confirmations = $3,
  updated_at = $4
WHERE id = $1
  AND status = 'pending'
  AND tx_signature IS NULL
  AND expires_at > $4
`
	result, err := r.db.ExecContext(ctx, query, input.ID, input.TxSignature, input.Confirmations, input.Now.UTC())
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return false, apperrors.NewConflict(
				"tx_signature_already_bound",
				"transaction signature is already bound to another payment intent",
				map[string]any{"id": input.ID, "tx_signature": input.TxSignature},
			)
		}
		return false, shared.InternalError("payment_intent_update_failed", "failed to mark payment intent processing", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, shared.InternalError("payment_intent_update_failed", "failed to verify payment intent update", err)
	}
	return rows == 1, nil
}

func (r *Repository) UpdateConfirmations(ctx context.Context, id string, confirmations int64, now time.Time) (bool, *apperrors.AppError) {
	const query = `
UPDATE app.payment_intents
SET
  confirmations = $2,
  updated_at = $3
WHERE id = $1
  AND status = 'processing'
  AND confirmations < $2
`
	return shared.ExecRowsAffected(ctx, r.db, "payment_intent_update_failed", query, id, confirmations, now.UTC())
}

func (r *Repository) TransitionStatusIfCurrent(ctx context.Context, transition dto.PaymentIntentTransition) (bool, *apperrors.AppError) {
	const query = `
UPDATE app.payment_intents
SET
  status = $3,
  failure_reason = COALESCE($5, failure_reason),
  cancelled_at = CASE WHEN $3 = 'cancelled' THEN $6 ELSE cancelled_at END,
  updated_at = $6
WHERE id = $1
  AND status = $2
  AND ($4 = '' OR merchant_id = $4)
`
	updated := false
	appErr := shared.InTx(ctx, r.db, "payment_intent", func(tx *sql.Tx) (bool, *apperrors.AppError) {
		changed, appErr := shared.ExecRowsAffected(
			ctx,
			tx,
			"payment_intent_update_failed",
			query,
			transition.ID,
			transition.FromStatus,
			transition.ToStatus,
			strings.TrimSpace(transition.MerchantID),
			shared.NullableString(transition.FailureReason),
			transition.Now.UTC(),
		)
		if appErr != nil || !changed {
			return false, appErr
		}
		if transition.Event != nil {
			if appErr := shared.InsertWebhookEvent(ctx, tx, *transition.Event); appErr != nil {
				return false, appErr
			}
		}
		updated = true
		return true, nil
	})
	if appErr != nil {
		return false, appErr
	}
	if updated && r.logger != nil {
		r.logger.Printf(
			"payment intent transitioned id=%s from=%s to=%s",
			transition.ID,
			transition.FromStatus,
			transition.ToStatus,
		)
	}
	return updated, nil
}

// CompleteSettlement moves processing to succeeded, writes the deposit ledger row,
// credits the balance and enqueues the webhook in one transaction.
func (r *Repository) CompleteSettlement(ctx context.Context, input dto.CompleteSettlementInput) (bool, *apperrors.AppError) {
	const updateSQL = `
UPDATE app.payment_intents
SET
  status = 'succeeded',
  confirmations = $2,
  confirmed_at = $3,
  updated_at = $3
WHERE id = $1
  AND status = 'processing'
RETURNING merchant_id, currency, amount
`
	completed := false
	appErr := shared.InTx(ctx, r.db, "settlement", func(tx *sql.Tx) (bool, *apperrors.AppError) {
		var merchantID string
		var currency string
		intentAmount := input.Ledger.Amount
		err := tx.QueryRowContext(ctx, updateSQL, input.IntentID, input.Confirmations, input.ConfirmedAt.UTC()).
			Scan(&merchantID, &currency, &intentAmount)
		if shared.IsNoRows(err) {
			return false, nil
		}
		if err != nil {
			return false, shared.InternalError("settlement_update_failed", "failed to complete payment intent", err)
		}

		inserted, appErr := shared.InsertLedgerTransaction(ctx, tx, input.Ledger)
		if appErr != nil {
			return false, appErr
		}
		if !inserted {
			// The transfer was already credited through another intent.
			return false, apperrors.NewConflict(
				"ledger_transaction_exists",
				"deposit for transaction hash is already recorded",
				map[string]any{"id": input.IntentID, "tx_hash": input.Ledger.TxHash},
			)
		}
		if appErr := shared.CreditOnchainBalance(ctx, tx, merchantID, currency, intentAmount, input.ConfirmedAt); appErr != nil {
			return false, appErr
		}
		if appErr := shared.InsertWebhookEvent(ctx, tx, input.Event); appErr != nil {
			return false, appErr
		}
		completed = true
		return true, nil
	})
	if appErr != nil {
		return false, appErr
	}
	if completed && r.logger != nil {
		r.logger.Printf(
			"settlement credited id=%s tx_hash=%s amount=%s",
			input.IntentID,
			input.Ledger.TxHash,
			input.Ledger.Amount.String(),
		)
	}
	return completed, nil
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]entities.PaymentIntent, *apperrors.AppError) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, shared.InternalError("payment_intent_query_failed", "failed to list payment intents", err)
	}
	defer rows.Close()

	items := []entities.PaymentIntent{}
	for rows.Next() {
		intent, err := scanPaymentIntent(rows)
		if err != nil {
			return nil, shared.InternalError("payment_intent_query_failed", "failed to parse payment intent", err)
		}
		items = append(items, intent)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.InternalError("payment_intent_query_failed", "failed while iterating payment intents", err)
	}
	return items, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPaymentIntent(row rowScanner) (entities.PaymentIntent, error) {
	intent := entities.PaymentIntent{}
	var currency string
	var chain string
	var status string
	var txSignature sql.NullString
	var failureReason sql.NullString
	var confirmedAt sql.NullTime

	if err := row.Scan(
		&intent.ID,
		&intent.MerchantID,
		&intent.Amount,
		&currency,
		&chain,
		&intent.ExpectedTokenMint,
		&intent.TokenDecimals,
		&intent.PaymentAddress,
		&status,
		&txSignature,
		&intent.Confirmations,
		&failureReason,
		&intent.ExpiresAt,
		&confirmedAt,
		&intent.CreatedAt,
		&intent.UpdatedAt,
	); err != nil {
		return entities.PaymentIntent{}, err
	}

	intent.Currency = valueobjects.Currency(currency)
	intent.Chain = valueobjects.Chain(chain)
	intent.Status = valueobjects.PaymentIntentStatus(status)
	intent.TxSignature = shared.StringPtr(txSignature)
	intent.FailureReason = shared.StringPtr(failureReason)
	if confirmedAt.Valid {
		value := confirmedAt.Time.UTC()
		intent.ConfirmedAt = &value
	}
	intent.ExpiresAt = intent.ExpiresAt.UTC()
	intent.CreatedAt = intent.CreatedAt.UTC()
	intent.UpdatedAt = intent.UpdatedAt.UTC()
	return intent, nil
}
