//go:build integration

package webhookoutbox

import (
	"context"
	"database/sql"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"stablesettle/internal/adapters/outbound/persistence/postgresql"
	"stablesettle/internal/adapters/outbound/persistence/postgresql/shared"
	"stablesettle/internal/application/dto"
	"stablesettle/internal/domain/entities"
)

type repositoryIntegrationHarness struct {
	db         *sql.DB
	repository *Repository
}

func newRepositoryIntegrationHarness(t *testing.T) *repositoryIntegrationHarness {
	t.Helper()

	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set TEST_DATABASE_URL to run integration test")
	}

	logger := log.New(io.Discard, "", 0)
	db, err := shared.NewDatabasePool(databaseURL, shared.DefaultPoolOptions(), logger)
	if err != nil {
		t.Fatalf("failed to open pool: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	gateway := postgresql.NewPersistenceBootstrapGateway(db, databaseURL, "integration-target", filepath.Join("..", "migrations"), logger)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if appErr := gateway.RunMigrations(ctx); appErr != nil {
		t.Fatalf("expected migrations to apply, got %+v", appErr)
	}

	if _, err := db.ExecContext(context.Background(), `TRUNCATE app.webhook_events, app.merchants`); err != nil {
		t.Fatalf("failed to reset state: %v", err)
	}
	return &repositoryIntegrationHarness{db: db, repository: NewRepository(db)}
}

func (h *repositoryIntegrationHarness) mustInsertMerchant(t *testing.T, id string, url string, secret string, now time.Time) {
	t.Helper()
	const query = `
INSERT INTO app.merchants (id, webhook_url, webhook_secret, created_at, updated_at)
VALUES ($1, $2, $3, $4, $4)
`
	if _, err := h.db.ExecContext(context.Background(), query, id, url, secret, now); err != nil {
		t.Fatalf("failed to insert merchant: %v", err)
	}
}

func (h *repositoryIntegrationHarness) mustEnqueue(t *testing.T, id string, merchantID string, maxAttempts int, now time.Time) {
	t.Helper()
	event, appErr := entities.NewWebhookEvent(entities.NewWebhookEventInput{
		ID:           id,
		MerchantID:   merchantID,
		EventType:    entities.EventPaymentSucceeded,
		ResourceType: entities.ResourceTypePaymentIntent,
		ResourceID:   "pi_" + id,
		Data:         map[string]string{"id": "pi_" + id},
		MaxAttempts:  maxAttempts,
		CreatedAt:    now,
	})
	if appErr != nil {
		t.Fatalf("expected webhook event, got %+v", appErr)
	}

	tx, err := h.db.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("failed to begin tx: %v", err)
	}
	if appErr := shared.InsertWebhookEvent(context.Background(), tx, event); appErr != nil {
		_ = tx.Rollback()
		t.Fatalf("expected enqueue success, got %+v", appErr)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("failed to commit enqueue: %v", err)
	}
}

func TestWebhookOutboxClaimJoinsMerchantConfigIntegration(t *testing.T) {
	harness := newRepositoryIntegrationHarness(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	harness.mustInsertMerchant(t, "merchant-a", "https://merchant-a.example/hooks", "whsec_a", now)
	harness.mustEnqueue(t, "evt_a", "merchant-a", 3, now)
	harness.mustEnqueue(t, "evt_orphan", "merchant-missing", 3, now.Add(time.Millisecond))

	claimed, appErr := harness.repository.ClaimDueForDispatch(ctx, now.Add(time.Second), 10, "worker-1", now.Add(30*time.Second))
	if appErr != nil {
		t.Fatalf("expected claim success, got %+v", appErr)
	}
	if len(claimed) != 2 {
		t.Fatalf("expected two claimed events, got %d", len(claimed))
	}
	if claimed[0].ID != "evt_a" || claimed[0].DestinationURL == nil || *claimed[0].DestinationURL != "https://merchant-a.example/hooks" {
		t.Fatalf("expected merchant url on first claim, got %+v", claimed[0])
	}
	if claimed[0].SigningSecret == nil || *claimed[0].SigningSecret != "whsec_a" {
		t.Fatalf("expected merchant secret on first claim, got %+v", claimed[0].SigningSecret)
	}
	if claimed[1].DestinationURL != nil {
		t.Fatalf("expected no url for unknown merchant, got %s", *claimed[1].DestinationURL)
	}

	again, appErr := harness.repository.ClaimDueForDispatch(ctx, now.Add(2*time.Second), 10, "worker-2", now.Add(time.Minute))
	if appErr != nil {
		t.Fatalf("expected claim success, got %+v", appErr)
	}
	if len(again) != 0 {
		t.Fatalf("expected leased events to be skipped, got %d", len(again))
	}

	renewed, appErr := harness.repository.RenewLease(ctx, "evt_a", "worker-2", now.Add(time.Minute), now.Add(2*time.Second))
	if appErr != nil || renewed {
		t.Fatalf("expected foreign lease renewal to be rejected, got renewed=%t err=%+v", renewed, appErr)
	}
}

func TestWebhookOutboxClaimOrdersByCreationAndSkipsExhaustedIntegration(t *testing.T) {
	harness := newRepositoryIntegrationHarness(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	harness.mustInsertMerchant(t, "merchant-a", "https://merchant-a.example/hooks", "whsec_a", now)
	harness.mustEnqueue(t, "evt_old", "merchant-a", 3, now)
	harness.mustEnqueue(t, "evt_new", "merchant-a", 3, now.Add(time.Millisecond))
	harness.mustEnqueue(t, "evt_spent", "merchant-a", 2, now.Add(2*time.Millisecond))

	// The older event was retried and is due later than the newer one.
	if _, err := harness.db.ExecContext(ctx, `
UPDATE app.webhook_events SET status = 'retrying', attempts = 1, next_retry_at = $2 WHERE id = $1
`, "evt_old", now.Add(500*time.Millisecond)); err != nil {
		t.Fatalf("failed to reschedule event: %v", err)
	}
	if _, err := harness.db.ExecContext(ctx, `
UPDATE app.webhook_events SET status = 'retrying', attempts = max_attempts WHERE id = $1
`, "evt_spent"); err != nil {
		t.Fatalf("failed to exhaust event: %v", err)
	}

	claimed, appErr := harness.repository.ClaimDueForDispatch(ctx, now.Add(time.Second), 10, "worker-1", now.Add(30*time.Second))
	if appErr != nil {
		t.Fatalf("expected claim success, got %+v", appErr)
	}
	if len(claimed) != 2 {
		t.Fatalf("expected exhausted event to be skipped, got %+v", claimed)
	}
	if claimed[0].ID != "evt_old" || claimed[1].ID != "evt_new" {
		t.Fatalf("expected creation order evt_old, evt_new, got %s, %s", claimed[0].ID, claimed[1].ID)
	}
}

func TestWebhookOutboxFailAndRequeueIntegration(t *testing.T) {
	harness := newRepositoryIntegrationHarness(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	harness.mustInsertMerchant(t, "merchant-b", "https://merchant-b.example/hooks", "whsec_b", now)
	harness.mustEnqueue(t, "evt_b", "merchant-b", 1, now)

	if _, appErr := harness.repository.ClaimDueForDispatch(ctx, now, 10, "worker-1", now.Add(30*time.Second)); appErr != nil {
		t.Fatalf("expected claim success, got %+v", appErr)
	}

	statusCode := 500
	failed, appErr := harness.repository.MarkFailed(ctx, dto.WebhookDeliveryResult{
		ID:                 "evt_b",
		LeaseOwner:         "worker-1",
		Attempts:           1,
		ResponseStatusCode: &statusCode,
		LastError:          "http_5xx",
		Now:                now.Add(time.Second),
	})
	if appErr != nil || !failed {
		t.Fatalf("expected event marked failed, got failed=%t err=%+v", failed, appErr)
	}

	items, appErr := harness.repository.ListFailed(ctx, "merchant-b", 10)
	if appErr != nil {
		t.Fatalf("expected list success, got %+v", appErr)
	}
	if len(items) != 1 || items[0].Status != "failed" || items[0].Attempts != 1 {
		t.Fatalf("unexpected failed list %+v", items)
	}
	if items[0].ResponseStatusCode == nil || *items[0].ResponseStatusCode != 500 {
		t.Fatalf("expected response status 500, got %+v", items[0].ResponseStatusCode)
	}

	missing, appErr := harness.repository.RequeueFailed(ctx, "merchant-other", "evt_b", "ops-1", now.Add(2*time.Second))
	if appErr != nil || missing.Found {
		t.Fatalf("expected other merchant to not see event, got %+v err=%+v", missing, appErr)
	}

	requeued, appErr := harness.repository.RequeueFailed(ctx, "merchant-b", "evt_b", "ops-1", now.Add(2*time.Second))
	if appErr != nil {
		t.Fatalf("expected requeue success, got %+v", appErr)
	}
	if !requeued.Found || !requeued.Updated || requeued.CurrentStatus != "pending" {
		t.Fatalf("unexpected requeue result %+v", requeued)
	}

	second, appErr := harness.repository.RequeueFailed(ctx, "merchant-b", "evt_b", "ops-1", now.Add(3*time.Second))
	if appErr != nil || second.Updated || second.CurrentStatus != "pending" {
		t.Fatalf("expected second requeue to report pending, got %+v err=%+v", second, appErr)
	}

	claimed, appErr := harness.repository.ClaimDueForDispatch(ctx, now.Add(3*time.Second), 10, "worker-1", now.Add(time.Minute))
	if appErr != nil {
		t.Fatalf("expected claim success, got %+v", appErr)
	}
	if len(claimed) != 1 || claimed[0].Attempts != 0 {
		t.Fatalf("expected requeued event with reset attempts, got %+v", claimed)
	}
}
