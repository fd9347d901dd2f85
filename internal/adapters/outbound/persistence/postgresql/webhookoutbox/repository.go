package webhookoutbox

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"stablesettle/internal/adapters/outbound/persistence/postgresql/shared"
	"stablesettle/internal/application/dto"
	portsout "stablesettle/internal/application/ports/out"
	valueobjects "stablesettle/internal/domain/value_objects"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type Repository struct {
	db *sql.DB
}

var _ portsout.WebhookOutboxRepository = (*Repository)(nil)

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ClaimDueForDispatch leases due events to leaseOwner, oldest first, skipping events that
// have used up their attempts. The merchant's webhook URL and secret are read at claim
// time so configuration changes apply to pending retries.
func (r *Repository) ClaimDueForDispatch(
	ctx context.Context,
	now time.Time,
	limit int,
	leaseOwner string,
	leaseUntil time.Time,
) ([]dto.ClaimedWebhookEvent, *apperrors.AppError) {
	const query = `
WITH candidates AS (
  SELECT id
  FROM app.webhook_events
  WHERE status IN ('pending', 'retrying')
    AND attempts < max_attempts
    AND next_retry_at <= $1
    AND (lease_until IS NULL OR lease_until <= $1)
  ORDER BY created_at ASC, id ASC
  LIMIT $2
  FOR UPDATE SKIP LOCKED
),
claimed AS (
  UPDATE app.webhook_events AS e
  SET
    lease_owner = $3,
    lease_until = $4,
    updated_at = $1
  FROM candidates
  WHERE e.id = candidates.id
  RETURNING
    e.id,
    e.merchant_id,
    e.event_type,
    e.payload,
    e.attempts,
    e.max_attempts,
    e.next_retry_at,
    e.created_at
)
SELECT
  c.id,
  c.merchant_id,
  c.event_type,
  c.payload,
  c.attempts,
  c.max_attempts,
  m.webhook_url,
  m.webhook_secret
FROM claimed AS c
LEFT JOIN app.merchants AS m ON m.id = c.merchant_id
ORDER BY c.created_at ASC, c.id ASC
`

	rows, err := r.db.QueryContext(ctx, query, now.UTC(), limit, strings.TrimSpace(leaseOwner), leaseUntil.UTC())
	if err != nil {
		return nil, shared.InternalError("webhook_outbox_query_failed", "failed to claim webhook events", err)
	}
	defer rows.Close()

	items := make([]dto.ClaimedWebhookEvent, 0, limit)
	for rows.Next() {
		item := dto.ClaimedWebhookEvent{}
		var url sql.NullString
		var secret sql.NullString
		if err := rows.Scan(
			&item.ID,
			&item.MerchantID,
			&item.EventType,
			&item.Payload,
			&item.Attempts,
			&item.MaxAttempts,
			&url,
			&secret,
		); err != nil {
			return nil, shared.InternalError("webhook_outbox_query_failed", "failed to parse claimed webhook event", err)
		}
		item.DestinationURL = shared.StringPtr(url)
		item.SigningSecret = shared.StringPtr(secret)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.InternalError("webhook_outbox_query_failed", "failed while iterating claimed webhook events", err)
	}

	return items, nil
}

func (r *Repository) MarkDelivered(ctx context.Context, result dto.WebhookDeliveryResult) (bool, *apperrors.AppError) {
	const query = `
UPDATE app.webhook_events
SET
  status = 'delivered',
  attempts = $3,
  response_status_code = $4,
  delivered_at = $5,
  last_error = NULL,
  lease_owner = NULL,
  lease_until = NULL,
  updated_at = $5
WHERE id = $1
  AND status IN ('pending', 'retrying')
  AND (lease_owner IS NULL OR lease_owner = $2)
`
	return shared.ExecRowsAffected(
		ctx,
		r.db,
		"webhook_outbox_update_failed",
		query,
		result.ID,
		strings.TrimSpace(result.LeaseOwner),
		result.Attempts,
		nullableStatusCode(result.ResponseStatusCode),
		result.Now.UTC(),
	)
}

func (r *Repository) MarkRetry(ctx context.Context, result dto.WebhookDeliveryResult) (bool, *apperrors.AppError) {
	const query = `
UPDATE app.webhook_events
SET
  status = 'retrying',
  attempts = $3,
  response_status_code = COALESCE($4, response_status_code),
  next_retry_at = $5,
  last_error = $6,
  lease_owner = NULL,
  lease_until = NULL,
  updated_at = $7
WHERE id = $1
  AND status IN ('pending', 'retrying')
  AND (lease_owner IS NULL OR lease_owner = $2)
`
	return shared.ExecRowsAffected(
		ctx,
		r.db,
		"webhook_outbox_update_failed",
		query,
		result.ID,
		strings.TrimSpace(result.LeaseOwner),
		result.Attempts,
		nullableStatusCode(result.ResponseStatusCode),
		result.NextRetryAt.UTC(),
		strings.TrimSpace(result.LastError),
		result.Now.UTC(),
	)
}

func (r *Repository) MarkFailed(ctx context.Context, result dto.WebhookDeliveryResult) (bool, *apperrors.AppError) {
	const query = `
UPDATE app.webhook_events
SET
  status = 'failed',
  attempts = $3,
  response_status_code = COALESCE($4, response_status_code),
  last_error = $5,
  lease_owner = NULL,
  lease_until = NULL,
  updated_at = $6
WHERE id = $1
  AND status IN ('pending', 'retrying')
  AND (lease_owner IS NULL OR lease_owner = $2)
`
	return shared.ExecRowsAffected(
		ctx,
		r.db,
		"webhook_outbox_update_failed",
		query,
		result.ID,
		strings.TrimSpace(result.LeaseOwner),
		result.Attempts,
		nullableStatusCode(result.ResponseStatusCode),
		strings.TrimSpace(result.LastError),
		result.Now.UTC(),
	)
}

func (r *Repository) RenewLease(
	ctx context.Context,
	id string,
	leaseOwner string,
	leaseUntil time.Time,
	updatedAt time.Time,
) (bool, *apperrors.AppError) {
	const query = `
UPDATE app.webhook_events
SET
  lease_until = $3,
  updated_at = $4
WHERE id = $1
  AND status IN ('pending', 'retrying')
  AND lease_owner = $2
`
	return shared.ExecRowsAffected(
		ctx,
		r.db,
		"webhook_outbox_update_failed",
		query,
		id,
		strings.TrimSpace(leaseOwner),
		leaseUntil.UTC(),
		updatedAt.UTC(),
	)
}

func (r *Repository) ListFailed(ctx context.Context, merchantID string, limit int) ([]dto.WebhookEventResource, *apperrors.AppError) {
	const query = `
SELECT
  id,
  event_type,
  resource_type,
  resource_id,
  status,
  attempts,
  max_attempts,
  response_status_code,
  last_error,
  next_retry_at,
  delivered_at,
  created_at,
  updated_at
FROM app.webhook_events
WHERE merchant_id = $1
  AND status = 'failed'
ORDER BY updated_at DESC, id DESC
LIMIT $2
`
	rows, err := r.db.QueryContext(ctx, query, merchantID, limit)
	if err != nil {
		return nil, shared.InternalError("webhook_outbox_query_failed", "failed to list failed webhook events", err)
	}
	defer rows.Close()

	items := []dto.WebhookEventResource{}
	for rows.Next() {
		item := dto.WebhookEventResource{}
		var statusCode sql.NullInt64
		var lastError sql.NullString
		var deliveredAt sql.NullTime
		if err := rows.Scan(
			&item.ID,
			&item.EventType,
			&item.ResourceType,
			&item.ResourceID,
			&item.Status,
			&item.Attempts,
			&item.MaxAttempts,
			&statusCode,
			&lastError,
			&item.NextRetryAt,
			&deliveredAt,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, shared.InternalError("webhook_outbox_query_failed", "failed to parse webhook event", err)
		}
		if statusCode.Valid {
			code := int(statusCode.Int64)
			item.ResponseStatusCode = &code
		}
		item.LastError = shared.StringPtr(lastError)
		if deliveredAt.Valid {
			value := deliveredAt.Time.UTC()
			item.DeliveredAt = &value
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.InternalError("webhook_outbox_query_failed", "failed while iterating webhook events", err)
	}
	return items, nil
}

// RequeueFailed resets a failed event to a fresh pending delivery and records the operator.
func (r *Repository) RequeueFailed(
	ctx context.Context,
	merchantID string,
	eventID string,
	operatorID string,
	now time.Time,
) (dto.WebhookEventMutationResult, *apperrors.AppError) {
	const lockSQL = `
SELECT status
FROM app.webhook_events
WHERE id = $1
  AND merchant_id = $2
FOR UPDATE
`
	const updateSQL = `
UPDATE app.webhook_events
SET
  status = 'pending',
  attempts = 0,
  next_retry_at = $2,
  last_error = NULL,
  response_status_code = NULL,
  lease_owner = NULL,
  lease_until = NULL,
  requeued_by = $3,
  requeued_at = $2,
  updated_at = $2
WHERE id = $1
  AND status = 'failed'
`

	result := dto.WebhookEventMutationResult{}
	appErr := shared.InTx(ctx, r.db, "webhook_outbox", func(tx *sql.Tx) (bool, *apperrors.AppError) {
		var status string
		err := tx.QueryRowContext(ctx, lockSQL, eventID, merchantID).Scan(&status)
		if shared.IsNoRows(err) {
			return false, nil
		}
		if err != nil {
			return false, shared.InternalError("webhook_outbox_query_failed", "failed to lock webhook event", err)
		}
		result.Found = true
		result.CurrentStatus = status
		if status != valueobjects.WebhookEventStatusFailed.String() {
			return false, nil
		}

		updated, appErr := shared.ExecRowsAffected(ctx, tx, "webhook_outbox_update_failed", updateSQL, eventID, now.UTC(), strings.TrimSpace(operatorID))
		if appErr != nil || !updated {
			return false, appErr
		}
		result.Updated = true
		result.CurrentStatus = valueobjects.WebhookEventStatusPending.String()
		return true, nil
	})
	if appErr != nil {
		return dto.WebhookEventMutationResult{}, appErr
	}
	return result, nil
}

func nullableStatusCode(code *int) any {
	if code == nil {
		return nil
	}
	return *code
}
