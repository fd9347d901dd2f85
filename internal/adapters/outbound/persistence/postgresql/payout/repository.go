package payout

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"strings"
	"time"

	"stablesettle/internal/adapters/outbound/persistence/postgresql/shared"
	"stablesettle/internal/application/dto"
	portsout "stablesettle/internal/application/ports/out"
	"stablesettle/internal/domain/entities"
	valueobjects "stablesettle/internal/domain/value_objects"
	apperrors "stablesettle/internal/shared_kernel/errors"

	"github.com/shopspring/decimal"
)

const selectColumns = `
  id,
  merchant_id,
  amount,
  fee_amount,
  net_amount,
  currency,
  chain,
  destination_id,
  destination_address,
  status,
  requires_approval,
  unsigned_transaction,
  source_wallet_address,
  transaction_expires_at,
  tx_signature,
  signed_transaction,
  error_message,
  rejection_reason,
  reviewed_by,
  review_notes,
  created_at,
  updated_at
`

type Repository struct {
	db     *sql.DB
	logger *log.Logger
}

var _ portsout.PayoutRepository = (*Repository)(nil)

func NewRepository(db *sql.DB, logger *log.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

func (r *Repository) Create(ctx context.Context, payout entities.Payout) *apperrors.AppError {
	const query = `
INSERT INTO app.payouts (
  id,
  merchant_id,
  amount,
  fee_amount,
  net_amount,
  currency,
  chain,
  destination_id,
  destination_address,
  status,
  requires_approval,
  created_at,
  updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
`
	_, err := r.db.ExecContext(
		ctx,
		query,
		payout.ID,
		payout.MerchantID,
		payout.Amount,
		payout.FeeAmount,
		payout.NetAmount,
		payout.Currency.String(),
		payout.Chain.String(),
		shared.NullableString(payout.DestinationID),
		payout.DestinationAddress,
		payout.Status.String(),
		payout.RequiresApproval,
		payout.CreatedAt.UTC(),
		payout.UpdatedAt.UTC(),
	)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return apperrors.NewConflict("payout_conflict", "payout uniqueness constraint failed", map[string]any{"id": payout.ID})
		}
		return shared.InternalError("payout_insert_failed", "failed to insert payout", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, merchantID string, id string) (entities.Payout, bool, *apperrors.AppError) {
	query := `SELECT` + selectColumns + `FROM app.payouts WHERE id = $1 AND ($2 = '' OR merchant_id = $2)`

	payout, err := scanPayout(r.db.QueryRowContext(ctx, query, strings.TrimSpace(id), strings.TrimSpace(merchantID)))
	if shared.IsNoRows(err) {
		return entities.Payout{}, false, nil
	}
	if err != nil {
		return entities.Payout{}, false, shared.InternalError("payout_query_failed", "failed to query payout", err)
	}
	return payout, true, nil
}

func (r *Repository) List(ctx context.Context, query dto.ListPayoutsQuery) ([]entities.Payout, *apperrors.AppError) {
	statement := `SELECT` + selectColumns + `
FROM app.payouts
WHERE merchant_id = $1
  AND ($2 = '' OR status = $2)
ORDER BY created_at DESC, id DESC
LIMIT $3
`
	return r.list(ctx, statement, query.MerchantID, query.Status, query.Limit)
}

func (r *Repository) TransitionStatusIfCurrent(ctx context.Context, transition dto.PayoutTransition) (bool, *apperrors.AppError) {
	const query = `
UPDATE app.payouts
SET
  status = $3,
  reviewed_by = COALESCE($5, reviewed_by),
  review_notes = COALESCE($6, review_notes),
  rejection_reason = COALESCE($7, rejection_reason),
  error_message = COALESCE($8, error_message),
  tx_signature = COALESCE($9, tx_signature),
  updated_at = $10
WHERE id = $1
  AND status = $2
  AND ($4 = '' OR merchant_id = $4)
`
	updated := false
	appErr := shared.InTx(ctx, r.db, "payout", func(tx *sql.Tx) (bool, *apperrors.AppError) {
		changed, appErr := shared.ExecRowsAffected(
			ctx,
			tx,
			"payout_update_failed",
			query,
			transition.ID,
			transition.FromStatus,
			transition.ToStatus,
			strings.TrimSpace(transition.MerchantID),
			shared.NullableString(transition.ReviewedBy),
			shared.NullableString(transition.ReviewNotes),
			shared.NullableString(transition.RejectionReason),
			shared.NullableString(transition.ErrorMessage),
			shared.NullableString(transition.TxSignature),
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
		r.logger.Printf("payout transitioned id=%s from=%s to=%s", transition.ID, transition.FromStatus, transition.ToStatus)
	}
	return updated, nil
}

func (r *Repository) SaveUnsignedTransaction(ctx context.Context, input dto.SaveUnsignedTransactionInput) (bool, *apperrors.AppError) {
	const query = `
UPDATE app.payouts
SET
  status = 'awaiting_signature',
  unsigned_transaction = $3,
  source_wallet_address = $4,
  transaction_expires_at = $5,
  error_message = NULL,
  updated_at = $6
WHERE id = $1
  AND status = $2
`
	unsigned, err := json.Marshal(input.Unsigned)
	if err != nil {
		return false, shared.InternalError("payout_unsigned_encode_failed", "failed to encode unsigned transaction", err)
	}
	return shared.ExecRowsAffected(
		ctx,
		r.db,
		"payout_update_failed",
		query,
		input.ID,
		input.FromStatus,
		unsigned,
		input.SourceWalletAddress,
		input.TransactionExpiresAt.UTC(),
		input.Now.UTC(),
	)
}

func (r *Repository) ListExpiredSigning(ctx context.Context, now time.Time, limit int) ([]entities.Payout, *apperrors.AppError) {
	query := `SELECT` + selectColumns + `
FROM app.payouts
WHERE status = 'awaiting_signature'
  AND transaction_expires_at <= $1
ORDER BY transaction_expires_at ASC, id ASC
LIMIT $2
`
	return r.list(ctx, query, now.UTC(), limit)
}

// ListProcessing returns processing payouts last touched before updatedBefore, oldest first.
func (r *Repository) ListProcessing(ctx context.Context, updatedBefore time.Time, limit int) ([]entities.Payout, *apperrors.AppError) {
	query := `SELECT` + selectColumns + `
FROM app.payouts
WHERE status = 'processing'
  AND updated_at <= $1
ORDER BY updated_at ASC, id ASC
LIMIT $2
`
	return r.list(ctx, query, updatedBefore.UTC(), limit)
}

// MarkProcessingIfFunded moves an awaiting_signature payout to processing when the
// merchant's balance, less other processing payouts, still covers it. The signature and
// signed bytes are stored with the transition so a later sweep can find or rebroadcast it.
func (r *Repository) MarkProcessingIfFunded(ctx context.Context, input dto.MarkPayoutProcessingInput) (dto.MarkPayoutProcessingResult, *apperrors.AppError) {
	const lockPayoutSQL = `
SELECT merchant_id, currency, amount, status
FROM app.payouts
WHERE id = $1
FOR UPDATE
`
	// Locking the balance row serializes concurrent submissions for one merchant and currency.
	const lockBalanceSQL = `
SELECT total
FROM app.balances
WHERE merchant_id = $1
  AND currency = $2
FOR UPDATE
`
	const reservedSQL = `
SELECT COALESCE(SUM(amount), 0)
FROM app.payouts
WHERE merchant_id = $1
  AND currency = $2
  AND status = 'processing'
  AND id <> $3
`
	const updateSQL = `
UPDATE app.payouts
SET
  status = 'processing',
  tx_signature = $2,
  signed_transaction = $3,
  updated_at = $4
WHERE id = $1
  AND status = 'awaiting_signature'
`

	id := strings.TrimSpace(input.ID)
	result := dto.MarkPayoutProcessingResult{}
	notFound := false
	appErr := shared.InTx(ctx, r.db, "payout", func(tx *sql.Tx) (bool, *apperrors.AppError) {
		var merchantID string
		var currency string
		var amount decimal.Decimal
		var status string
		err := tx.QueryRowContext(ctx, lockPayoutSQL, id).Scan(&merchantID, &currency, &amount, &status)
		if shared.IsNoRows(err) {
			notFound = true
			return false, nil
		}
		if err != nil {
			return false, shared.InternalError("payout_query_failed", "failed to lock payout", err)
		}
		result.CurrentStatus = status
		if status != valueobjects.PayoutStatusAwaitingSignature.String() {
			result.Funded = true
			return false, nil
		}

		total := decimal.Zero
		err = tx.QueryRowContext(ctx, lockBalanceSQL, merchantID, currency).Scan(&total)
		if err != nil && !shared.IsNoRows(err) {
			return false, shared.InternalError("balance_query_failed", "failed to lock merchant balance", err)
		}
		reserved := decimal.Zero
		if err := tx.QueryRowContext(ctx, reservedSQL, merchantID, currency, id).Scan(&reserved); err != nil {
			return false, shared.InternalError("balance_query_failed", "failed to sum processing payouts", err)
		}
		if total.Sub(reserved).LessThan(amount) {
			return false, nil
		}
		result.Funded = true

		updated, appErr := shared.ExecRowsAffected(
			ctx,
			tx,
			"payout_update_failed",
			updateSQL,
			id,
			input.TxSignature,
			input.SignedTransaction,
			input.Now.UTC(),
		)
		if appErr != nil || !updated {
			return false, appErr
		}
		result.Updated = true
		result.CurrentStatus = valueobjects.PayoutStatusProcessing.String()
		return true, nil
	})
	if appErr != nil {
		return dto.MarkPayoutProcessingResult{}, appErr
	}
	if notFound {
		return dto.MarkPayoutProcessingResult{}, apperrors.NewNotFound(
			"payout_not_found",
			"payout was not found",
			map[string]any{"id": id},
		)
	}
	return result, nil
}

// CompletePayout marks the payout completed, records the ledger row, debits the full
// payout amount and enqueues payout.completed in one transaction.
func (r *Repository) CompletePayout(ctx context.Context, input dto.CompletePayoutInput) (bool, *apperrors.AppError) {
	const updateSQL = `
UPDATE app.payouts
SET
  status = 'completed',
  tx_signature = $2,
  error_message = NULL,
  updated_at = $3
WHERE id = $1
  AND status = 'processing'
RETURNING merchant_id, currency, amount
`
	completed := false
	appErr := shared.InTx(ctx, r.db, "payout", func(tx *sql.Tx) (bool, *apperrors.AppError) {
		var merchantID string
		var currency string
		var amount decimal.Decimal
		err := tx.QueryRowContext(ctx, updateSQL, input.ID, input.TxSignature, input.Now.UTC()).Scan(&merchantID, &currency, &amount)
		if shared.IsNoRows(err) {
			return false, nil
		}
		if err != nil {
			return false, shared.InternalError("payout_update_failed", "failed to complete payout", err)
		}

		inserted, appErr := shared.InsertLedgerTransaction(ctx, tx, input.Ledger)
		if appErr != nil {
			return false, appErr
		}
		if !inserted {
			return false, apperrors.NewConflict(
				"ledger_transaction_exists",
				"payout for transaction hash is already recorded",
				map[string]any{"id": input.ID, "tx_hash": input.Ledger.TxHash},
			)
		}
		if appErr := shared.DebitOnchainBalance(ctx, tx, merchantID, currency, amount, input.Now); appErr != nil {
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
		r.logger.Printf("payout completed id=%s tx_signature=%s", input.ID, input.TxSignature)
	}
	return completed, nil
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]entities.Payout, *apperrors.AppError) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, shared.InternalError("payout_query_failed", "failed to list payouts", err)
	}
	defer rows.Close()

	items := []entities.Payout{}
	for rows.Next() {
		payout, err := scanPayout(rows)
		if err != nil {
			return nil, shared.InternalError("payout_query_failed", "failed to parse payout", err)
		}
		items = append(items, payout)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.InternalError("payout_query_failed", "failed while iterating payouts", err)
	}
	return items, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayout(row rowScanner) (entities.Payout, error) {
	payout := entities.Payout{}
	var currency string
	var chain string
	var status string
	var destinationID sql.NullString
	var unsigned []byte
	var sourceWallet sql.NullString
	var expiresAt sql.NullTime
	var txSignature sql.NullString
	var signedTransaction sql.NullString
	var errorMessage sql.NullString
	var rejectionReason sql.NullString
	var reviewedBy sql.NullString
	var reviewNotes sql.NullString

	if err := row.Scan(
		&payout.ID,
		&payout.MerchantID,
		&payout.Amount,
		&payout.FeeAmount,
		&payout.NetAmount,
		&currency,
		&chain,
		&destinationID,
		&payout.DestinationAddress,
		&status,
		&payout.RequiresApproval,
		&unsigned,
		&sourceWallet,
		&expiresAt,
		&txSignature,
		&signedTransaction,
		&errorMessage,
		&rejectionReason,
		&reviewedBy,
		&reviewNotes,
		&payout.CreatedAt,
		&payout.UpdatedAt,
	); err != nil {
		return entities.Payout{}, err
	}

	payout.Currency = valueobjects.Currency(currency)
	payout.Chain = valueobjects.Chain(chain)
	payout.Status = valueobjects.PayoutStatus(status)
	payout.DestinationID = shared.StringPtr(destinationID)
	payout.SourceWalletAddress = shared.StringPtr(sourceWallet)
	payout.TxSignature = shared.StringPtr(txSignature)
	payout.SignedTransaction = shared.StringPtr(signedTransaction)
	payout.ErrorMessage = shared.StringPtr(errorMessage)
	payout.RejectionReason = shared.StringPtr(rejectionReason)
	payout.ReviewedBy = shared.StringPtr(reviewedBy)
	payout.ReviewNotes = shared.StringPtr(reviewNotes)
	if expiresAt.Valid {
		value := expiresAt.Time.UTC()
		payout.TransactionExpiresAt = &value
	}
	if len(unsigned) > 0 {
		decoded := entities.UnsignedTransaction{}
		if err := json.Unmarshal(unsigned, &decoded); err != nil {
			return entities.Payout{}, err
		}
		payout.UnsignedTransaction = &decoded
	}
	payout.CreatedAt = payout.CreatedAt.UTC()
	payout.UpdatedAt = payout.UpdatedAt.UTC()
	return payout, nil
}
