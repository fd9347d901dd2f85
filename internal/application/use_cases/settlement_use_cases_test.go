//go:build !integration

package use_cases

import (
	"context"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"stablesettle/internal/application/dto"
	"stablesettle/internal/domain/entities"
	valueobjects "stablesettle/internal/domain/value_objects"
	apperrors "stablesettle/internal/shared_kernel/errors"

	"github.com/shopspring/decimal"
)

var settlementNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func pendingSolanaIntent(id string, amount string) entities.PaymentIntent {
	return entities.PaymentIntent{
		ID:                id,
		MerchantID:        "m_1",
		Amount:            decimal.RequireFromString(amount),
		Currency:          valueobjects.CurrencyUSDC,
		Chain:             valueobjects.ChainSolana,
		ExpectedTokenMint: testSolanaUSDCMint,
		TokenDecimals:     6,
		PaymentAddress:    testSolanaPayAddress,
		Status:            valueobjects.PaymentIntentStatusPending,
		ExpiresAt:         settlementNow.Add(30 * time.Minute),
		CreatedAt:         settlementNow.Add(-time.Minute),
	}
}

func processingIntent(id string, signature string, confirmations int64) entities.PaymentIntent {
	intent := pendingSolanaIntent(id, "100")
	intent.Status = valueobjects.PaymentIntentStatusProcessing
	intent.TxSignature = &signature
	intent.Confirmations = confirmations
	return intent
}

func usdcTransfer(signature string, to string, raw int64) dto.ObservedTransfer {
	return dto.ObservedTransfer{
		Signature: signature,
		ToAddress: to,
		TokenID:   testSolanaUSDCMint,
		RawAmount: big.NewInt(raw),
		Decimals:  6,
	}
}

func TestCreatePaymentIntentUseCaseAllocatesAddressAndToken(t *testing.T) {
	store := newFakePaymentIntentStore()
	allocator := &fakeAddressAllocator{address: testSolanaPayAddress}
	useCase := NewCreatePaymentIntentUseCase(store, allocator, newFakeTokenRegistry(), fixedClock{now: settlementNow}, &sequenceIDs{})

	output, appErr := useCase.Execute(context.Background(), dto.CreatePaymentIntentCommand{
		MerchantID: "m_1",
		Amount:     "100",
		Currency:   "usdc",
		Chain:      "solana",
	})
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if output.ID != "pi_1" || output.Status != "pending" {
		t.Fatalf("expected pending pi_1, got %+v", output)
	}
	if output.ExpectedTokenMint != testSolanaUSDCMint || output.TokenDecimals != 6 {
		t.Fatalf("expected USDC mint with 6 decimals, got %+v", output)
	}
	if !output.ExpiresAt.Equal(settlementNow.Add(30 * time.Minute)) {
		t.Fatalf("expected default 30 minute expiry, got %s", output.ExpiresAt)
	}
	if len(allocator.calls) != 1 || allocator.calls[0].PaymentIntentID != "pi_1" {
		t.Fatalf("expected allocation for pi_1, got %+v", allocator.calls)
	}
	if _, ok := store.intents["pi_1"]; !ok {
		t.Fatalf("expected intent to be stored")
	}
}

func TestCreatePaymentIntentUseCaseRejectsUnsupportedCurrencyOnChain(t *testing.T) {
	registry := fakeTokenRegistry{tokens: []dto.TokenInfo{{Chain: "solana", Currency: "USDC", TokenID: testSolanaUSDCMint, Decimals: 6}}}
	useCase := NewCreatePaymentIntentUseCase(newFakePaymentIntentStore(), &fakeAddressAllocator{address: testSolanaPayAddress}, registry, nil, nil)

	_, appErr := useCase.Execute(context.Background(), dto.CreatePaymentIntentCommand{
		MerchantID: "m_1",
		Amount:     "5",
		Currency:   "USDT",
		Chain:      "solana",
	})
	if appErr == nil || appErr.Code != "unsupported_currency" {
		t.Fatalf("expected unsupported_currency, got %+v", appErr)
	}
}

func TestCreatePaymentIntentUseCaseRejectsBadAmount(t *testing.T) {
	useCase := NewCreatePaymentIntentUseCase(newFakePaymentIntentStore(), &fakeAddressAllocator{address: testSolanaPayAddress}, newFakeTokenRegistry(), nil, nil)

	for _, amount := range []string{"0", "-1", "abc"} {
		_, appErr := useCase.Execute(context.Background(), dto.CreatePaymentIntentCommand{
			MerchantID: "m_1",
			Amount:     amount,
			Currency:   "USDC",
			Chain:      "solana",
		})
		if appErr == nil || appErr.Code != "invalid_amount" {
			t.Fatalf("expected invalid_amount for %q, got %+v", amount, appErr)
		}
	}
}

func TestMonitorSettlementsUseCaseMatchesWithinTolerance(t *testing.T) {
	store := newFakePaymentIntentStore(pendingSolanaIntent("pi_1", "100"))
	reader := &fakeChainReader{transfers: map[string][]dto.ObservedTransfer{
		testSolanaPayAddress: {usdcTransfer("sig_1", testSolanaPayAddress, 100_400_000)},
	}}
	useCase := NewMonitorSettlementsUseCase(store, reader, fixedClock{now: settlementNow})

	output, appErr := useCase.Execute(context.Background(), dto.MonitorSettlementsCommand{BatchSize: 10})
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if output.Scanned != 1 || output.Matched != 1 {
		t.Fatalf("expected scanned=1 matched=1, got %+v", output)
	}
	intent := store.intents["pi_1"]
	if intent.Status != valueobjects.PaymentIntentStatusProcessing || intent.TxSignature == nil || *intent.TxSignature != "sig_1" {
		t.Fatalf("expected processing with sig_1, got %+v", intent)
	}
	if intent.Confirmations != 1 {
		t.Fatalf("expected confirmations=1, got %d", intent.Confirmations)
	}
	if reader.transferCalls[0].Limit != defaultTransferLookupLimit {
		t.Fatalf("expected default lookup limit, got %d", reader.transferCalls[0].Limit)
	}
}

func TestMonitorSettlementsUseCaseIgnoresWrongTokenAndAmount(t *testing.T) {
	store := newFakePaymentIntentStore(pendingSolanaIntent("pi_1", "100"))
	wrongToken := usdcTransfer("sig_token", testSolanaPayAddress, 100_000_000)
	wrongToken.TokenID = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
	reader := &fakeChainReader{transfers: map[string][]dto.ObservedTransfer{
		testSolanaPayAddress: {
			wrongToken,
			usdcTransfer("sig_low", testSolanaPayAddress, 98_900_000),
			usdcTransfer("sig_high", testSolanaPayAddress, 101_100_000),
		},
	}}
	useCase := NewMonitorSettlementsUseCase(store, reader, fixedClock{now: settlementNow})

	output, appErr := useCase.Execute(context.Background(), dto.MonitorSettlementsCommand{BatchSize: 10})
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if output.Matched != 0 || store.markCalls != 0 {
		t.Fatalf("expected no match, got %+v marks=%d", output, store.markCalls)
	}
	if store.intents["pi_1"].Status != valueobjects.PaymentIntentStatusPending {
		t.Fatalf("expected intent to stay pending")
	}
}

func TestMonitorSettlementsUseCaseCountsTransientErrors(t *testing.T) {
	store := newFakePaymentIntentStore(pendingSolanaIntent("pi_1", "100"))
	reader := &fakeChainReader{transfersErr: apperrors.NewUnavailable("chain_unavailable", "rpc down", nil)}
	useCase := NewMonitorSettlementsUseCase(store, reader, fixedClock{now: settlementNow})

	output, appErr := useCase.Execute(context.Background(), dto.MonitorSettlementsCommand{BatchSize: 10})
	if appErr != nil {
		t.Fatalf("expected transient errors to be absorbed, got %+v", appErr)
	}
	if output.TransientError != 1 || output.Errors != 0 {
		t.Fatalf("expected one transient error, got %+v", output)
	}
}

func TestMonitorSettlementsUseCaseSkipsSignatureBoundElsewhere(t *testing.T) {
	bound := processingIntent("pi_0", "sig_1", 1)
	store := newFakePaymentIntentStore(bound, pendingSolanaIntent("pi_1", "100"))
	reader := &fakeChainReader{transfers: map[string][]dto.ObservedTransfer{
		testSolanaPayAddress: {usdcTransfer("sig_1", testSolanaPayAddress, 100_000_000)},
	}}
	useCase := NewMonitorSettlementsUseCase(store, reader, fixedClock{now: settlementNow})

	output, appErr := useCase.Execute(context.Background(), dto.MonitorSettlementsCommand{BatchSize: 10})
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if output.Matched != 0 || output.Skipped != 1 {
		t.Fatalf("expected skipped duplicate signature, got %+v", output)
	}
	if store.intents["pi_1"].TxSignature != nil {
		t.Fatalf("expected pi_1 to stay unbound")
	}
}

func TestMonitorSettlementsUseCaseTriesNextCandidateWhenSignatureBound(t *testing.T) {
	bound := processingIntent("pi_0", "sig_1", 1)
	store := newFakePaymentIntentStore(bound, pendingSolanaIntent("pi_1", "100"))
	reader := &fakeChainReader{transfers: map[string][]dto.ObservedTransfer{
		testSolanaPayAddress: {
			usdcTransfer("sig_1", testSolanaPayAddress, 100_000_000),
			usdcTransfer("sig_2", testSolanaPayAddress, 100_000_000),
		},
	}}
	useCase := NewMonitorSettlementsUseCase(store, reader, fixedClock{now: settlementNow})

	output, appErr := useCase.Execute(context.Background(), dto.MonitorSettlementsCommand{BatchSize: 10})
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if output.Matched != 1 || output.Skipped != 0 {
		t.Fatalf("expected match on the second candidate, got %+v", output)
	}
	intent := store.intents["pi_1"]
	if intent.TxSignature == nil || *intent.TxSignature != "sig_2" {
		t.Fatalf("expected pi_1 bound to sig_2, got %v", intent.TxSignature)
	}
	if store.markCalls != 2 {
		t.Fatalf("expected two bind attempts, got %d", store.markCalls)
	}
}

func TestMonitorSettlementsUseCaseIgnoresTransfersBeforeIntentCreation(t *testing.T) {
	intent := pendingSolanaIntent("pi_1", "100")
	stale := usdcTransfer("sig_old", testSolanaPayAddress, 100_000_000)
	stale.ObservedAt = intent.CreatedAt.Add(-time.Second)
	fresh := usdcTransfer("sig_new", testSolanaPayAddress, 100_000_000)
	fresh.ObservedAt = intent.CreatedAt
	store := newFakePaymentIntentStore(intent)
	reader := &fakeChainReader{transfers: map[string][]dto.ObservedTransfer{
		testSolanaPayAddress: {stale, fresh},
	}}
	useCase := NewMonitorSettlementsUseCase(store, reader, fixedClock{now: settlementNow})

	output, appErr := useCase.Execute(context.Background(), dto.MonitorSettlementsCommand{BatchSize: 10})
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if output.Matched != 1 || store.markCalls != 1 {
		t.Fatalf("expected a single bind to the fresh transfer, got %+v marks=%d", output, store.markCalls)
	}
	if bound := store.intents["pi_1"].TxSignature; bound == nil || *bound != "sig_new" {
		t.Fatalf("expected pi_1 bound to sig_new, got %v", bound)
	}

	// Only a pre-creation transfer: nothing to bind.
	late := pendingSolanaIntent("pi_2", "100")
	store = newFakePaymentIntentStore(late)
	reader.transfers[testSolanaPayAddress] = []dto.ObservedTransfer{stale}
	output, appErr = NewMonitorSettlementsUseCase(store, reader, fixedClock{now: settlementNow}).
		Execute(context.Background(), dto.MonitorSettlementsCommand{BatchSize: 10})
	if appErr != nil || output.Matched != 0 || store.markCalls != 0 {
		t.Fatalf("expected stale transfer ignored, got %+v marks=%d err=%+v", output, store.markCalls, appErr)
	}
}

func TestFinalizeSettlementsUseCaseCreditsBalanceOnce(t *testing.T) {
	store := newFakePaymentIntentStore(processingIntent("pi_1", "sig_1", 5))
	reader := &fakeChainReader{statuses: map[string]dto.TransferStatus{"sig_1": {Confirmations: 32}}}
	useCase := NewFinalizeSettlementsUseCase(store, store, reader, nil, &sequenceIDs{}, fixedClock{now: settlementNow})

	command := dto.FinalizeSettlementsCommand{BatchSize: 10, FinalityConfirmations: 32}
	output, appErr := useCase.Execute(context.Background(), command)
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if output.Succeeded != 1 {
		t.Fatalf("expected one success, got %+v", output)
	}
	if _, appErr := useCase.Execute(context.Background(), command); appErr != nil {
		t.Fatalf("expected no error on second run, got %+v", appErr)
	}
	if store.completions != 1 {
		t.Fatalf("expected settlement to be applied once, got %d", store.completions)
	}
	if !store.balances["m_1/USDC"].Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected balance 100, got %s", store.balances["m_1/USDC"])
	}
	if len(store.ledger) != 1 || store.ledger[0].TxHash != "sig_1" || store.ledger[0].Type != entities.LedgerTransactionDeposit {
		t.Fatalf("expected one deposit ledger row for sig_1, got %+v", store.ledger)
	}
	if len(store.events) != 1 || store.events[0].EventType != entities.EventPaymentSucceeded {
		t.Fatalf("expected payment.succeeded event, got %+v", store.events)
	}

	var envelope struct {
		Type string `json:"type"`
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(store.events[0].Payload, &envelope); err != nil {
		t.Fatalf("expected JSON payload, got %v", err)
	}
	if envelope.Type != "payment.succeeded" || envelope.Data.Status != "succeeded" {
		t.Fatalf("unexpected payload %s", store.events[0].Payload)
	}
}

func TestFinalizeSettlementsUseCaseHonorsChainFinalized(t *testing.T) {
	store := newFakePaymentIntentStore(processingIntent("pi_1", "sig_1", 1))
	reader := &fakeChainReader{statuses: map[string]dto.TransferStatus{"sig_1": {Confirmations: 3, Finalized: true}}}
	useCase := NewFinalizeSettlementsUseCase(store, store, reader, nil, nil, fixedClock{now: settlementNow})

	output, appErr := useCase.Execute(context.Background(), dto.FinalizeSettlementsCommand{BatchSize: 10, FinalityConfirmations: 32})
	if appErr != nil || output.Succeeded != 1 {
		t.Fatalf("expected finalized transfer to settle, got %+v %+v", output, appErr)
	}
}

func TestFinalizeSettlementsUseCaseOnlyRaisesConfirmations(t *testing.T) {
	store := newFakePaymentIntentStore(processingIntent("pi_1", "sig_1", 10), processingIntent("pi_2", "sig_2", 10))
	reader := &fakeChainReader{statuses: map[string]dto.TransferStatus{
		"sig_1": {Confirmations: 12},
		"sig_2": {Confirmations: 4},
	}}
	useCase := NewFinalizeSettlementsUseCase(store, store, reader, nil, nil, fixedClock{now: settlementNow})

	output, appErr := useCase.Execute(context.Background(), dto.FinalizeSettlementsCommand{BatchSize: 10, FinalityConfirmations: 32})
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if output.Confirming != 2 || output.Succeeded != 0 {
		t.Fatalf("expected two confirming, got %+v", output)
	}
	if store.intents["pi_1"].Confirmations != 12 {
		t.Fatalf("expected pi_1 confirmations 12, got %d", store.intents["pi_1"].Confirmations)
	}
	if store.intents["pi_2"].Confirmations != 10 {
		t.Fatalf("expected pi_2 confirmations to stay 10, got %d", store.intents["pi_2"].Confirmations)
	}
}

func TestFinalizeSettlementsUseCaseFailsRevertedTransfer(t *testing.T) {
	store := newFakePaymentIntentStore(processingIntent("pi_1", "sig_1", 1))
	reader := &fakeChainReader{statuses: map[string]dto.TransferStatus{
		"sig_1": {Failed: true, FailureReason: "InstructionError"},
	}}
	useCase := NewFinalizeSettlementsUseCase(store, store, reader, nil, nil, fixedClock{now: settlementNow})

	output, appErr := useCase.Execute(context.Background(), dto.FinalizeSettlementsCommand{BatchSize: 10})
	if appErr != nil || output.Failed != 1 {
		t.Fatalf("expected one failure, got %+v %+v", output, appErr)
	}
	intent := store.intents["pi_1"]
	if intent.Status != valueobjects.PaymentIntentStatusFailed || intent.FailureReason == nil || *intent.FailureReason != "InstructionError" {
		t.Fatalf("expected failed intent with reason, got %+v", intent)
	}
	if len(store.events) != 1 || store.events[0].EventType != entities.EventPaymentFailed {
		t.Fatalf("expected payment.failed event, got %+v", store.events)
	}
	if !store.balances["m_1/USDC"].IsZero() {
		t.Fatalf("expected no credit for failed transfer")
	}
}

func TestFinalizeSettlementsUseCaseLeavesUnknownSignature(t *testing.T) {
	store := newFakePaymentIntentStore(processingIntent("pi_1", "sig_missing", 1))
	useCase := NewFinalizeSettlementsUseCase(store, store, &fakeChainReader{}, nil, nil, fixedClock{now: settlementNow})

	output, appErr := useCase.Execute(context.Background(), dto.FinalizeSettlementsCommand{BatchSize: 10})
	if appErr != nil || output.Skipped != 1 {
		t.Fatalf("expected not-found signature to be skipped, got %+v %+v", output, appErr)
	}
	if store.intents["pi_1"].Status != valueobjects.PaymentIntentStatusProcessing {
		t.Fatalf("expected intent to stay processing")
	}
}

func TestExpirePaymentIntentsUseCaseExpiresOnlyUnpaid(t *testing.T) {
	expired := pendingSolanaIntent("pi_1", "100")
	expired.ExpiresAt = settlementNow.Add(-time.Second)
	open := pendingSolanaIntent("pi_2", "100")
	store := newFakePaymentIntentStore(expired, open)
	useCase := NewExpirePaymentIntentsUseCase(store, nil, fixedClock{now: settlementNow})

	output, appErr := useCase.Execute(context.Background(), dto.ExpirePaymentIntentsCommand{BatchSize: 10})
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if output.Expired != 1 {
		t.Fatalf("expected one expiry, got %+v", output)
	}
	if store.intents["pi_1"].Status != valueobjects.PaymentIntentStatusExpired || store.intents["pi_2"].Status != valueobjects.PaymentIntentStatusPending {
		t.Fatalf("unexpected statuses %s %s", store.intents["pi_1"].Status, store.intents["pi_2"].Status)
	}
	if len(store.events) != 1 || store.events[0].EventType != entities.EventPaymentExpired {
		t.Fatalf("expected payment.expired event, got %+v", store.events)
	}
}

func TestCancelPaymentIntentUseCaseRejectsBoundIntent(t *testing.T) {
	store := newFakePaymentIntentStore(pendingSolanaIntent("pi_1", "100"), processingIntent("pi_2", "sig_2", 1))
	useCase := NewCancelPaymentIntentUseCase(store, nil, fixedClock{now: settlementNow})

	output, appErr := useCase.Execute(context.Background(), dto.CancelPaymentIntentCommand{MerchantID: "m_1", ID: "pi_1"})
	if appErr != nil || output.Status != "cancelled" {
		t.Fatalf("expected cancelled, got %+v %+v", output, appErr)
	}
	if len(store.events) != 1 || store.events[0].EventType != entities.EventPaymentCancelled {
		t.Fatalf("expected payment.cancelled event, got %+v", store.events)
	}

	_, appErr = useCase.Execute(context.Background(), dto.CancelPaymentIntentCommand{MerchantID: "m_1", ID: "pi_2"})
	if appErr == nil || appErr.Code != "invalid_state" || appErr.Type != apperrors.TypeConflict {
		t.Fatalf("expected invalid_state conflict, got %+v", appErr)
	}
}

func TestGetPaymentIntentUseCaseScopesToMerchant(t *testing.T) {
	store := newFakePaymentIntentStore(pendingSolanaIntent("pi_1", "100"))
	useCase := NewGetPaymentIntentUseCase(store)

	if _, appErr := useCase.Execute(context.Background(), dto.GetPaymentIntentQuery{MerchantID: "m_1", ID: "pi_1"}); appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	_, appErr := useCase.Execute(context.Background(), dto.GetPaymentIntentQuery{MerchantID: "m_2", ID: "pi_1"})
	if appErr == nil || appErr.Type != apperrors.TypeNotFound {
		t.Fatalf("expected not found for other merchant, got %+v", appErr)
	}
}
