package shared

import (
	"context"
	"database/sql"

	"stablesettle/internal/domain/entities"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

// InsertWebhookEvent enqueues an outbox row inside the caller's transaction so the event
// commits or rolls back with the state change that produced it.
func InsertWebhookEvent(ctx context.Context, tx *sql.Tx, event entities.WebhookEvent) *apperrors.AppError {
	const query = `
INSERT INTO app.webhook_events (
  id,
  merchant_id,
  event_type,
  resource_type,
  resource_id,
  payload,
  status,
  attempts,
  max_attempts,
  next_retry_at,
  created_at,
  updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`
	_, err := tx.ExecContext(
		ctx,
		query,
		event.ID,
		event.MerchantID,
		event.EventType,
		event.ResourceType,
		event.ResourceID,
		event.Payload,
		event.Status.String(),
		event.Attempts,
		event.MaxAttempts,
		event.NextRetryAt.UTC(),
		event.CreatedAt.UTC(),
		event.UpdatedAt.UTC(),
	)
	if err != nil {
		return InternalError("webhook_event_insert_failed", "failed to enqueue webhook event", err)
	}
	return nil
}
