//go:build integration

package payout

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"stablesettle/internal/adapters/outbound/persistence/postgresql"
	postgresqlshared "stablesettle/internal/adapters/outbound/persistence/postgresql/shared"
	"stablesettle/internal/application/dto"
	"stablesettle/internal/domain/entities"
	valueobjects "stablesettle/internal/domain/value_objects"
	apperrors "stablesettle/internal/shared_kernel/errors"

	"github.com/shopspring/decimal"
)

const integrationMerchantID = "merchant-payout-integration"

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
	db, err := postgresqlshared.NewDatabasePool(databaseURL, postgresqlshared.DefaultPoolOptions(), logger)
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

	harness := &repositoryIntegrationHarness{db: db, repository: NewRepository(db, logger)}
	harness.resetState(t)
	return harness
}

func (h *repositoryIntegrationHarness) resetState(t *testing.T) {
	t.Helper()
	const query = `TRUNCATE app.webhook_events, app.ledger_transactions, app.balances, app.payouts`
	if _, err := h.db.ExecContext(context.Background(), query); err != nil {
		t.Fatalf("failed to reset state: %v", err)
	}
}

func (h *repositoryIntegrationHarness) setBalance(t *testing.T, total string, now time.Time) {
	t.Helper()
	const query = `
INSERT INTO app.balances (merchant_id, currency, total, onchain, offchain, updated_at)
VALUES ($1, 'USDC', $2, $2, 0, $3)
ON CONFLICT (merchant_id, currency) DO UPDATE
SET total = EXCLUDED.total, onchain = EXCLUDED.onchain, offchain = 0, updated_at = EXCLUDED.updated_at
`
	if _, err := h.db.ExecContext(context.Background(), query, integrationMerchantID, decimal.RequireFromString(total), now); err != nil {
		t.Fatalf("failed to set balance: %v", err)
	}
}

func (h *repositoryIntegrationHarness) balance(t *testing.T) decimal.Decimal {
	t.Helper()
	var total decimal.Decimal
	if err := h.db.QueryRowContext(
		context.Background(),
		`SELECT total FROM app.balances WHERE merchant_id = $1 AND currency = 'USDC'`,
		integrationMerchantID,
	).Scan(&total); err != nil {
		t.Fatalf("expected balance row, got %v", err)
	}
	return total
}

func (h *repositoryIntegrationHarness) mustCount(t *testing.T, query string, args ...any) int {
	t.Helper()
	var count int
	if err := h.db.QueryRowContext(context.Background(), query, args...).Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	return count
}

// mustCreateAwaitingSignature stores a payout and moves it to awaiting_signature the
// way the generation step does.
func (h *repositoryIntegrationHarness) mustCreateAwaitingSignature(t *testing.T, id string, amount string, now time.Time) entities.Payout {
	t.Helper()
	ctx := context.Background()
	payout, appErr := entities.NewPayout(entities.NewPayoutInput{
		ID:                 id,
		MerchantID:         integrationMerchantID,
		Amount:             decimal.RequireFromString(amount),
		Currency:           valueobjects.CurrencyUSDC,
		Chain:              valueobjects.ChainSolana,
		DestinationAddress: "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin",
		CreatedAt:          now,
	})
	if appErr != nil {
		t.Fatalf("expected valid payout, got %+v", appErr)
	}
	if appErr := h.repository.Create(ctx, payout); appErr != nil {
		t.Fatalf("expected create success, got %+v", appErr)
	}
	saved, appErr := h.repository.SaveUnsignedTransaction(ctx, dto.SaveUnsignedTransactionInput{
		ID:         id,
		FromStatus: payout.Status.String(),
		Unsigned: entities.UnsignedTransaction{
			Chain:    valueobjects.ChainSolana,
			Encoding: entities.EncodingSolanaBase64,
			Payload:  "AQID",
		},
		SourceWalletAddress:  "7EcDhSYGxXyscszYEp35KHN8vvw3svAuLKTzXwCFLtV",
		TransactionExpiresAt: now.Add(time.Minute),
		Now:                  now,
	})
	if appErr != nil || !saved {
		t.Fatalf("expected unsigned transaction saved, got saved=%t err=%+v", saved, appErr)
	}
	return payout
}

func (h *repositoryIntegrationHarness) mustMarkProcessing(t *testing.T, id string, signature string, now time.Time) {
	t.Helper()
	result, appErr := h.repository.MarkProcessingIfFunded(context.Background(), dto.MarkPayoutProcessingInput{
		ID:                id,
		TxSignature:       signature,
		SignedTransaction: "signed-" + signature,
		Now:               now,
	})
	if appErr != nil || !result.Updated {
		t.Fatalf("expected payout marked processing, got result=%+v err=%+v", result, appErr)
	}
}

func completeInput(t *testing.T, payout entities.Payout, suffix string, signature string, now time.Time) dto.CompletePayoutInput {
	t.Helper()
	event, appErr := entities.NewWebhookEvent(entities.NewWebhookEventInput{
		ID:           "evt_" + suffix,
		MerchantID:   integrationMerchantID,
		EventType:    entities.EventPayoutCompleted,
		ResourceType: entities.ResourceTypePayout,
		ResourceID:   payout.ID,
		Data:         map[string]string{"id": payout.ID},
		CreatedAt:    now,
	})
	if appErr != nil {
		t.Fatalf("expected webhook event, got %+v", appErr)
	}
	return dto.CompletePayoutInput{
		ID:          payout.ID,
		TxSignature: signature,
		Ledger: entities.LedgerTransaction{
			ID:            "ltx_" + suffix,
			MerchantID:    integrationMerchantID,
			Type:          entities.LedgerTransactionPayout,
			Amount:        payout.NetAmount,
			Currency:      payout.Currency,
			TxHash:        signature,
			ReferenceType: entities.ResourceTypePayout,
			ReferenceID:   payout.ID,
			CreatedAt:     now,
		},
		Event: event,
		Now:   now,
	}
}

func TestPayoutRepositoryMarkProcessingIfFundedAdmitsOnePayoutPerBalance(t *testing.T) {
	harness := newRepositoryIntegrationHarness(t)
	now := time.Now().UTC().Truncate(time.Microsecond)
	harness.setBalance(t, "100", now)

	const contenders = 6
	for i := 0; i < contenders; i++ {
		harness.mustCreateAwaitingSignature(t, fmt.Sprintf("po_race_%d", i), "60", now)
	}

	var wg sync.WaitGroup
	results := make([]dto.MarkPayoutProcessingResult, contenders)
	errs := make([]*apperrors.AppError, contenders)
	start := make(chan struct{})
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], errs[i] = harness.repository.MarkProcessingIfFunded(context.Background(), dto.MarkPayoutProcessingInput{
				ID:                fmt.Sprintf("po_race_%d", i),
				TxSignature:       fmt.Sprintf("sig-race-%d", i),
				SignedTransaction: "signed",
				Now:               now.Add(time.Second),
			})
		}(i)
	}
	close(start)
	wg.Wait()

	admitted := 0
	for i := 0; i < contenders; i++ {
		if errs[i] != nil {
			t.Fatalf("expected no error for contender %d, got %+v", i, errs[i])
		}
		if results[i].Updated {
			admitted++
			continue
		}
		if results[i].Funded || results[i].CurrentStatus != valueobjects.PayoutStatusAwaitingSignature.String() {
			t.Fatalf("expected contender %d refused as unfunded, got %+v", i, results[i])
		}
	}
	if admitted != 1 {
		t.Fatalf("expected exactly one payout admitted, got %d", admitted)
	}
	if count := harness.mustCount(t, `SELECT COUNT(*) FROM app.payouts WHERE status = 'processing'`); count != 1 {
		t.Fatalf("expected one processing payout, got %d", count)
	}
	if total := harness.balance(t); !total.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected balance untouched until completion, got %s", total)
	}
}

func TestPayoutRepositoryMarkProcessingIfFundedStoresSignedTransaction(t *testing.T) {
	harness := newRepositoryIntegrationHarness(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	harness.setBalance(t, "100", now)
	payout := harness.mustCreateAwaitingSignature(t, "po_store_1", "40", now)

	harness.mustMarkProcessing(t, payout.ID, "sig-store-1", now.Add(time.Second))

	stored, found, appErr := harness.repository.GetByID(ctx, integrationMerchantID, payout.ID)
	if appErr != nil || !found {
		t.Fatalf("expected stored payout, got found=%t err=%+v", found, appErr)
	}
	if stored.Status != valueobjects.PayoutStatusProcessing {
		t.Fatalf("expected processing, got %s", stored.Status)
	}
	if stored.TxSignature == nil || *stored.TxSignature != "sig-store-1" {
		t.Fatalf("expected tx signature stored, got %v", stored.TxSignature)
	}
	if stored.SignedTransaction == nil || *stored.SignedTransaction != "signed-sig-store-1" {
		t.Fatalf("expected signed transaction stored, got %v", stored.SignedTransaction)
	}

	processing, appErr := harness.repository.ListProcessing(ctx, now.Add(time.Minute), 10)
	if appErr != nil {
		t.Fatalf("expected processing list, got %+v", appErr)
	}
	if len(processing) != 1 || processing[0].ID != payout.ID {
		t.Fatalf("expected payout in processing list, got %+v", processing)
	}
	recent, appErr := harness.repository.ListProcessing(ctx, now, 10)
	if appErr != nil || len(recent) != 0 {
		t.Fatalf("expected recently submitted payout to be excluded, got %+v err=%+v", recent, appErr)
	}

	again, appErr := harness.repository.MarkProcessingIfFunded(ctx, dto.MarkPayoutProcessingInput{
		ID:          payout.ID,
		TxSignature: "sig-store-2",
		Now:         now.Add(2 * time.Second),
	})
	if appErr != nil || again.Updated || again.CurrentStatus != valueobjects.PayoutStatusProcessing.String() {
		t.Fatalf("expected second submission to be a no-op, got %+v err=%+v", again, appErr)
	}
}

func TestPayoutRepositoryMarkProcessingIfFundedUnknownPayout(t *testing.T) {
	harness := newRepositoryIntegrationHarness(t)

	_, appErr := harness.repository.MarkProcessingIfFunded(context.Background(), dto.MarkPayoutProcessingInput{
		ID:          "po_missing",
		TxSignature: "sig-missing",
		Now:         time.Now().UTC(),
	})
	if appErr == nil || appErr.Type != apperrors.TypeNotFound || appErr.Code != "payout_not_found" {
		t.Fatalf("expected payout_not_found, got %+v", appErr)
	}
}

func TestPayoutRepositoryCompletePayoutIsIdempotent(t *testing.T) {
	harness := newRepositoryIntegrationHarness(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	harness.setBalance(t, "100", now)
	payout := harness.mustCreateAwaitingSignature(t, "po_complete_1", "60", now)
	harness.mustMarkProcessing(t, payout.ID, "sig-complete-1", now.Add(time.Second))

	input := completeInput(t, payout, "complete_1", "sig-complete-1", now.Add(time.Minute))
	completed, appErr := harness.repository.CompletePayout(ctx, input)
	if appErr != nil || !completed {
		t.Fatalf("expected payout completed, got completed=%t err=%+v", completed, appErr)
	}
	if total := harness.balance(t); !total.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected balance 40 after debit, got %s", total)
	}

	// The submit request and the confirmation sweep can both try to settle.
	replay := completeInput(t, payout, "complete_2", "sig-complete-1", now.Add(2*time.Minute))
	again, appErr := harness.repository.CompletePayout(ctx, replay)
	if appErr != nil || again {
		t.Fatalf("expected replay to be a no-op, got completed=%t err=%+v", again, appErr)
	}
	if total := harness.balance(t); !total.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected single debit, got balance %s", total)
	}
	if count := harness.mustCount(t, `SELECT COUNT(*) FROM app.ledger_transactions WHERE reference_id = $1`, payout.ID); count != 1 {
		t.Fatalf("expected one ledger row, got %d", count)
	}
	if count := harness.mustCount(t, `SELECT COUNT(*) FROM app.webhook_events WHERE resource_id = $1`, payout.ID); count != 1 {
		t.Fatalf("expected one webhook event, got %d", count)
	}
}

func TestPayoutRepositoryCompletePayoutRejectsReusedTransactionHash(t *testing.T) {
	harness := newRepositoryIntegrationHarness(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	harness.setBalance(t, "100", now)
	first := harness.mustCreateAwaitingSignature(t, "po_hash_1", "30", now)
	second := harness.mustCreateAwaitingSignature(t, "po_hash_2", "30", now)
	harness.mustMarkProcessing(t, first.ID, "sig-shared", now.Add(time.Second))
	harness.mustMarkProcessing(t, second.ID, "sig-other", now.Add(time.Second))

	if completed, appErr := harness.repository.CompletePayout(ctx, completeInput(t, first, "hash_1", "sig-shared", now.Add(time.Minute))); appErr != nil || !completed {
		t.Fatalf("expected first payout completed, got completed=%t err=%+v", completed, appErr)
	}

	completed, appErr := harness.repository.CompletePayout(ctx, completeInput(t, second, "hash_2", "sig-shared", now.Add(time.Minute)))
	if completed || appErr == nil || appErr.Type != apperrors.TypeConflict || appErr.Code != "ledger_transaction_exists" {
		t.Fatalf("expected ledger_transaction_exists conflict, got completed=%t err=%+v", completed, appErr)
	}

	stored, _, appErr := harness.repository.GetByID(ctx, integrationMerchantID, second.ID)
	if appErr != nil || stored.Status != valueobjects.PayoutStatusProcessing {
		t.Fatalf("expected second payout to stay processing, got %s err=%+v", stored.Status, appErr)
	}
	if total := harness.balance(t); !total.Equal(decimal.NewFromInt(70)) {
		t.Fatalf("expected only the first debit, got balance %s", total)
	}
	if count := harness.mustCount(t, `SELECT COUNT(*) FROM app.webhook_events WHERE resource_id = $1`, second.ID); count != 0 {
		t.Fatalf("expected no event for rolled back completion, got %d", count)
	}
}

func TestPayoutRepositoryCompletePayoutRollsBackWhenDebitGuardFails(t *testing.T) {
	harness := newRepositoryIntegrationHarness(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	harness.setBalance(t, "100", now)
	payout := harness.mustCreateAwaitingSignature(t, "po_guard_1", "60", now)
	harness.mustMarkProcessing(t, payout.ID, "sig-guard-1", now.Add(time.Second))

	// Balance drops below the payout amount after submission.
	harness.setBalance(t, "50", now.Add(2*time.Second))

	completed, appErr := harness.repository.CompletePayout(ctx, completeInput(t, payout, "guard_1", "sig-guard-1", now.Add(time.Minute)))
	if completed || appErr == nil || appErr.Type != apperrors.TypeConflict || appErr.Code != "insufficient_balance" {
		t.Fatalf("expected insufficient_balance conflict, got completed=%t err=%+v", completed, appErr)
	}

	stored, _, appErr := harness.repository.GetByID(ctx, integrationMerchantID, payout.ID)
	if appErr != nil || stored.Status != valueobjects.PayoutStatusProcessing {
		t.Fatalf("expected payout to stay processing, got %s err=%+v", stored.Status, appErr)
	}
	if total := harness.balance(t); !total.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected balance unchanged, got %s", total)
	}
	if count := harness.mustCount(t, `SELECT COUNT(*) FROM app.ledger_transactions`); count != 0 {
		t.Fatalf("expected ledger insert rolled back, got %d rows", count)
	}
	if count := harness.mustCount(t, `SELECT COUNT(*) FROM app.webhook_events`); count != 0 {
		t.Fatalf("expected event insert rolled back, got %d rows", count)
	}
}
