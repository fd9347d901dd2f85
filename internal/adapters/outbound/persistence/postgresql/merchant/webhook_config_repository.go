package merchant

import (
	"context"
	"database/sql"

	"stablesettle/internal/adapters/outbound/persistence/postgresql/shared"
	portsout "stablesettle/internal/application/ports/out"
	"stablesettle/internal/domain/entities"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type WebhookConfigRepository struct {
	db *sql.DB
}

var _ portsout.MerchantRepository = (*WebhookConfigRepository)(nil)

func NewWebhookConfigRepository(db *sql.DB) *WebhookConfigRepository {
	return &WebhookConfigRepository{db: db}
}

func (r *WebhookConfigRepository) UpsertWebhookConfig(ctx context.Context, config entities.MerchantWebhookConfig) *apperrors.AppError {
	const query = `
INSERT INTO app.merchants (id, webhook_url, webhook_secret, created_at, updated_at)
VALUES ($1, $2, $3, $4, $4)
ON CONFLICT (id) DO UPDATE
SET
  webhook_url = EXCLUDED.webhook_url,
  webhook_secret = EXCLUDED.webhook_secret,
  updated_at = EXCLUDED.updated_at
`
	_, err := r.db.ExecContext(
		ctx,
		query,
		config.MerchantID,
		shared.NullableString(config.URL),
		shared.NullableString(config.Secret),
		config.UpdatedAt.UTC(),
	)
	if err != nil {
		return shared.InternalError("merchant_webhook_upsert_failed", "failed to store merchant webhook configuration", err)
	}
	return nil
}
