//go:build !integration

package use_cases

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"stablesettle/internal/application/dto"
	"stablesettle/internal/domain/entities"
	valueobjects "stablesettle/internal/domain/value_objects"
	apperrors "stablesettle/internal/shared_kernel/errors"

	"github.com/shopspring/decimal"
)

type fixedClock struct {
	now time.Time
}

func (f fixedClock) NowUTC() time.Time {
	return f.now
}

type sequenceIDs struct {
	next int
}

func (s *sequenceIDs) NewID(prefix string) string {
	s.next++
	return fmt.Sprintf("%s%d", prefix, s.next)
}

const (
	testSolanaUSDCMint   = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	testSolanaPayAddress = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"
	testSolanaMerchant   = "HN7cABqLq46Es1jh92dQQisAq662SmxELLLsHHe4YWrH"
	testEVMUSDCContract  = "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
	testEVMDestination   = "0x52908400098527886e0f7030069857d2e4169ee7"
)

type fakeTokenRegistry struct {
	tokens []dto.TokenInfo
}

func newFakeTokenRegistry() fakeTokenRegistry {
	return fakeTokenRegistry{tokens: []dto.TokenInfo{
		{Chain: "solana", Currency: "USDC", TokenID: testSolanaUSDCMint, Decimals: 6},
		{Chain: "ethereum", Currency: "USDC", TokenID: testEVMUSDCContract, Decimals: 6},
	}}
}

func (f fakeTokenRegistry) Resolve(chain string, currency string) (dto.TokenInfo, bool) {
	for _, token := range f.tokens {
		if token.Chain == chain && token.Currency == currency {
			return token, true
		}
	}
	return dto.TokenInfo{}, false
}

func (f fakeTokenRegistry) List() []dto.TokenInfo {
	return f.tokens
}

type fakeAddressAllocator struct {
	address string
	err     *apperrors.AppError
	calls   []dto.AllocatePaymentAddressInput
}

func (f *fakeAddressAllocator) Allocate(_ context.Context, input dto.AllocatePaymentAddressInput) (dto.PaymentAddressAllocation, *apperrors.AppError) {
	f.calls = append(f.calls, input)
	if f.err != nil {
		return dto.PaymentAddressAllocation{}, f.err
	}
	return dto.PaymentAddressAllocation{Address: f.address}, nil
}

type fakePaymentIntentStore struct {
	intents     map[string]entities.PaymentIntent
	events      []entities.WebhookEvent
	ledger      []entities.LedgerTransaction
	balances    map[string]decimal.Decimal
	signatures  map[string]string
	markCalls   int
	completions int
}

func newFakePaymentIntentStore(intents ...entities.PaymentIntent) *fakePaymentIntentStore {
	store := &fakePaymentIntentStore{
		intents:    map[string]entities.PaymentIntent{},
		balances:   map[string]decimal.Decimal{},
		signatures: map[string]string{},
	}
	for _, intent := range intents {
		store.intents[intent.ID] = intent
		if intent.TxSignature != nil {
			store.signatures[*intent.TxSignature] = intent.ID
		}
	}
	return store
}

func (f *fakePaymentIntentStore) Create(_ context.Context, intent entities.PaymentIntent, _ *int64) *apperrors.AppError {
	f.intents[intent.ID] = intent
	return nil
}

func (f *fakePaymentIntentStore) GetByID(_ context.Context, merchantID string, id string) (entities.PaymentIntent, bool, *apperrors.AppError) {
	intent, ok := f.intents[id]
	if !ok || (merchantID != "" && intent.MerchantID != merchantID) {
		return entities.PaymentIntent{}, false, nil
	}
	return intent, true, nil
}

func (f *fakePaymentIntentStore) ListPendingForMatching(_ context.Context, now time.Time, limit int) ([]entities.PaymentIntent, *apperrors.AppError) {
	return f.filter(limit, func(intent entities.PaymentIntent) bool { return intent.IsOpenForMatching(now) }), nil
}

func (f *fakePaymentIntentStore) ListProcessing(_ context.Context, limit int) ([]entities.PaymentIntent, *apperrors.AppError) {
	return f.filter(limit, func(intent entities.PaymentIntent) bool {
		return intent.Status == valueobjects.PaymentIntentStatusProcessing
	}), nil
}

func (f *fakePaymentIntentStore) ListExpiredPending(_ context.Context, now time.Time, limit int) ([]entities.PaymentIntent, *apperrors.AppError) {
	return f.filter(limit, func(intent entities.PaymentIntent) bool {
		return intent.Status == valueobjects.PaymentIntentStatusPending && intent.TxSignature == nil && !intent.ExpiresAt.After(now)
	}), nil
}

func (f *fakePaymentIntentStore) filter(limit int, keep func(entities.PaymentIntent) bool) []entities.PaymentIntent {
	out := []entities.PaymentIntent{}
	for _, intent := range f.intents {
		if keep(intent) && len(out) < limit {
			out = append(out, intent)
		}
	}
	return out
}

func (f *fakePaymentIntentStore) MarkProcessing(_ context.Context, input dto.MarkPaymentIntentProcessingInput) (bool, *apperrors.AppError) {
	f.markCalls++
	if owner, taken := f.signatures[input.TxSignature]; taken && owner != input.ID {
		return false, apperrors.NewConflict("tx_signature_already_bound", "taken", nil)
	}
	intent, ok := f.intents[input.ID]
	if !ok || intent.Status != valueobjects.PaymentIntentStatusPending || intent.TxSignature != nil {
		return false, nil
	}
	signature := input.TxSignature
	intent.Status = valueobjects.PaymentIntentStatusProcessing
	intent.TxSignature = &signature
	intent.Confirmations = input.Confirmations
	f.intents[input.ID] = intent
	f.signatures[signature] = input.ID
	return true, nil
}

func (f *fakePaymentIntentStore) UpdateConfirmations(_ context.Context, id string, confirmations int64, _ time.Time) (bool, *apperrors.AppError) {
	intent, ok := f.intents[id]
	if !ok || confirmations <= intent.Confirmations {
		return false, nil
	}
	intent.Confirmations = confirmations
	f.intents[id] = intent
	return true, nil
}

func (f *fakePaymentIntentStore) TransitionStatusIfCurrent(_ context.Context, transition dto.PaymentIntentTransition) (bool, *apperrors.AppError) {
	intent, ok := f.intents[transition.ID]
	if !ok || intent.Status.String() != transition.FromStatus {
		return false, nil
	}
	intent.Status = valueobjects.PaymentIntentStatus(transition.ToStatus)
	intent.FailureReason = transition.FailureReason
	f.intents[transition.ID] = intent
	if transition.Event != nil {
		f.events = append(f.events, *transition.Event)
	}
	return true, nil
}

func (f *fakePaymentIntentStore) CompleteSettlement(_ context.Context, input dto.CompleteSettlementInput) (bool, *apperrors.AppError) {
	intent, ok := f.intents[input.IntentID]
	if !ok || intent.Status != valueobjects.PaymentIntentStatusProcessing {
		return false, nil
	}
	f.completions++
	confirmedAt := input.ConfirmedAt
	intent.Status = valueobjects.PaymentIntentStatusSucceeded
	intent.Confirmations = input.Confirmations
	intent.ConfirmedAt = &confirmedAt
	f.intents[input.IntentID] = intent
	key := intent.MerchantID + "/" + intent.Currency.String()
	f.balances[key] = f.balances[key].Add(intent.Amount)
	f.ledger = append(f.ledger, input.Ledger)
	f.events = append(f.events, input.Event)
	return true, nil
}

type fakeChainReader struct {
	transfers     map[string][]dto.ObservedTransfer
	transfersErr  *apperrors.AppError
	statuses      map[string]dto.TransferStatus
	statusErr     *apperrors.AppError
	transferCalls []dto.RecentTransfersInput
	statusCalls   []dto.TransferStatusInput
}

func (f *fakeChainReader) RecentTransfers(_ context.Context, input dto.RecentTransfersInput) ([]dto.ObservedTransfer, *apperrors.AppError) {
	f.transferCalls = append(f.transferCalls, input)
	if f.transfersErr != nil {
		return nil, f.transfersErr
	}
	return f.transfers[input.Address], nil
}

func (f *fakeChainReader) TransferStatus(_ context.Context, input dto.TransferStatusInput) (dto.TransferStatus, *apperrors.AppError) {
	f.statusCalls = append(f.statusCalls, input)
	if f.statusErr != nil {
		return dto.TransferStatus{}, f.statusErr
	}
	status, ok := f.statuses[input.Signature]
	if !ok {
		return dto.TransferStatus{}, apperrors.NewNotFound("chain_transaction_not_found", "not found", nil)
	}
	return status, nil
}

type fakePayoutStore struct {
	payouts     map[string]entities.Payout
	balances    map[string]entities.Balance
	events      []entities.WebhookEvent
	ledger      []entities.LedgerTransaction
	transitions []dto.PayoutTransition
}

func newFakePayoutStore(payouts ...entities.Payout) *fakePayoutStore {
	store := &fakePayoutStore{
		payouts:  map[string]entities.Payout{},
		balances: map[string]entities.Balance{},
	}
	for _, payout := range payouts {
		store.payouts[payout.ID] = payout
	}
	return store
}

func (f *fakePayoutStore) setBalance(merchantID string, currency valueobjects.Currency, total string) {
	amount := decimal.RequireFromString(total)
	f.balances[merchantID+"/"+currency.String()] = entities.Balance{
		MerchantID: merchantID,
		Currency:   currency,
		Total:      amount,
		Onchain:    amount,
		Offchain:   decimal.Zero,
	}
}

func (f *fakePayoutStore) balance(merchantID string, currency valueobjects.Currency) entities.Balance {
	balance, ok := f.balances[merchantID+"/"+currency.String()]
	if !ok {
		return entities.ZeroBalance(merchantID, currency)
	}
	return balance
}

func (f *fakePayoutStore) Create(_ context.Context, payout entities.Payout) *apperrors.AppError {
	f.payouts[payout.ID] = payout
	return nil
}

func (f *fakePayoutStore) GetByID(_ context.Context, merchantID string, id string) (entities.Payout, bool, *apperrors.AppError) {
	payout, ok := f.payouts[id]
	if !ok || (merchantID != "" && payout.MerchantID != merchantID) {
		return entities.Payout{}, false, nil
	}
	return payout, true, nil
}

func (f *fakePayoutStore) List(_ context.Context, query dto.ListPayoutsQuery) ([]entities.Payout, *apperrors.AppError) {
	out := []entities.Payout{}
	for _, payout := range f.payouts {
		if payout.MerchantID == query.MerchantID && (query.Status == "" || payout.Status.String() == query.Status) {
			out = append(out, payout)
		}
	}
	return out, nil
}

func (f *fakePayoutStore) TransitionStatusIfCurrent(_ context.Context, transition dto.PayoutTransition) (bool, *apperrors.AppError) {
	payout, ok := f.payouts[transition.ID]
	if !ok || payout.Status.String() != transition.FromStatus {
		return false, nil
	}
	f.transitions = append(f.transitions, transition)
	payout.Status = valueobjects.PayoutStatus(transition.ToStatus)
	if transition.RejectionReason != nil {
		payout.RejectionReason = transition.RejectionReason
	}
	if transition.ErrorMessage != nil {
		payout.ErrorMessage = transition.ErrorMessage
	}
	if transition.TxSignature != nil {
		payout.TxSignature = transition.TxSignature
	}
	f.payouts[transition.ID] = payout
	if transition.Event != nil {
		f.events = append(f.events, *transition.Event)
	}
	return true, nil
}

func (f *fakePayoutStore) SaveUnsignedTransaction(_ context.Context, input dto.SaveUnsignedTransactionInput) (bool, *apperrors.AppError) {
	payout, ok := f.payouts[input.ID]
	if !ok || payout.Status.String() != input.FromStatus {
		return false, nil
	}
	unsigned := input.Unsigned
	source := input.SourceWalletAddress
	expiresAt := input.TransactionExpiresAt
	payout.Status = valueobjects.PayoutStatusAwaitingSignature
	payout.UnsignedTransaction = &unsigned
	payout.SourceWalletAddress = &source
	payout.TransactionExpiresAt = &expiresAt
	f.payouts[input.ID] = payout
	return true, nil
}

func (f *fakePayoutStore) ListExpiredSigning(_ context.Context, now time.Time, limit int) ([]entities.Payout, *apperrors.AppError) {
	out := []entities.Payout{}
	for _, payout := range f.payouts {
		if payout.Status == valueobjects.PayoutStatusAwaitingSignature && payout.TransactionExpiresAt != nil &&
			!payout.TransactionExpiresAt.After(now) && len(out) < limit {
			out = append(out, payout)
		}
	}
	return out, nil
}

func (f *fakePayoutStore) ListProcessing(_ context.Context, updatedBefore time.Time, limit int) ([]entities.Payout, *apperrors.AppError) {
	out := []entities.Payout{}
	for _, payout := range f.payouts {
		if payout.Status == valueobjects.PayoutStatusProcessing && !payout.UpdatedAt.After(updatedBefore) && len(out) < limit {
			out = append(out, payout)
		}
	}
	return out, nil
}

func (f *fakePayoutStore) MarkProcessingIfFunded(_ context.Context, input dto.MarkPayoutProcessingInput) (dto.MarkPayoutProcessingResult, *apperrors.AppError) {
	payout, ok := f.payouts[input.ID]
	if !ok {
		return dto.MarkPayoutProcessingResult{}, apperrors.NewNotFound("payout_not_found", "payout was not found", nil)
	}
	if payout.Status != valueobjects.PayoutStatusAwaitingSignature {
		return dto.MarkPayoutProcessingResult{Funded: true, CurrentStatus: payout.Status.String()}, nil
	}
	reserved := decimal.Zero
	for _, other := range f.payouts {
		if other.ID != input.ID && other.MerchantID == payout.MerchantID && other.Currency == payout.Currency &&
			other.Status == valueobjects.PayoutStatusProcessing {
			reserved = reserved.Add(other.Amount)
		}
	}
	if f.balance(payout.MerchantID, payout.Currency).Total.Sub(reserved).LessThan(payout.Amount) {
		return dto.MarkPayoutProcessingResult{Funded: false, CurrentStatus: payout.Status.String()}, nil
	}
	signature := input.TxSignature
	signed := input.SignedTransaction
	payout.Status = valueobjects.PayoutStatusProcessing
	payout.TxSignature = &signature
	payout.SignedTransaction = &signed
	payout.UpdatedAt = input.Now
	f.payouts[input.ID] = payout
	return dto.MarkPayoutProcessingResult{Updated: true, Funded: true, CurrentStatus: payout.Status.String()}, nil
}

func (f *fakePayoutStore) CompletePayout(_ context.Context, input dto.CompletePayoutInput) (bool, *apperrors.AppError) {
	payout, ok := f.payouts[input.ID]
	if !ok || payout.Status != valueobjects.PayoutStatusProcessing {
		return false, nil
	}
	signature := input.TxSignature
	payout.Status = valueobjects.PayoutStatusCompleted
	payout.TxSignature = &signature
	f.payouts[input.ID] = payout

	balance := f.balance(payout.MerchantID, payout.Currency)
	balance.Total = balance.Total.Sub(payout.Amount)
	balance.Onchain = balance.Onchain.Sub(payout.Amount)
	f.balances[payout.MerchantID+"/"+payout.Currency.String()] = balance
	f.ledger = append(f.ledger, input.Ledger)
	f.events = append(f.events, input.Event)
	return true, nil
}

func (f *fakePayoutStore) GetBalance(_ context.Context, merchantID string, currency string) (entities.Balance, *apperrors.AppError) {
	return f.balance(merchantID, valueobjects.Currency(currency)), nil
}

func (f *fakePayoutStore) ListBalances(_ context.Context, merchantID string) ([]entities.Balance, *apperrors.AppError) {
	out := []entities.Balance{}
	for _, balance := range f.balances {
		if balance.MerchantID == merchantID {
			out = append(out, balance)
		}
	}
	return out, nil
}

type fakeWalletStore struct {
	wallets map[string]entities.MerchantWallet
}

func newFakeWalletStore(wallets ...entities.MerchantWallet) *fakeWalletStore {
	store := &fakeWalletStore{wallets: map[string]entities.MerchantWallet{}}
	for _, wallet := range wallets {
		store.wallets[wallet.ID] = wallet
	}
	return store
}

func (f *fakeWalletStore) Create(_ context.Context, wallet entities.MerchantWallet) *apperrors.AppError {
	for _, existing := range f.wallets {
		if existing.Chain == wallet.Chain && existing.Address == wallet.Address {
			return apperrors.NewConflict("wallet_already_registered", "duplicate", nil)
		}
	}
	f.wallets[wallet.ID] = wallet
	return nil
}

func (f *fakeWalletStore) GetByID(_ context.Context, merchantID string, id string) (entities.MerchantWallet, bool, *apperrors.AppError) {
	wallet, ok := f.wallets[id]
	if !ok || wallet.MerchantID != merchantID {
		return entities.MerchantWallet{}, false, nil
	}
	return wallet, true, nil
}

func (f *fakeWalletStore) FindVerified(_ context.Context, merchantID string, chain string) (entities.MerchantWallet, bool, *apperrors.AppError) {
	for _, wallet := range f.wallets {
		if wallet.MerchantID == merchantID && wallet.Chain.String() == chain && wallet.ProofVerified {
			return wallet, true, nil
		}
	}
	return entities.MerchantWallet{}, false, nil
}

func (f *fakeWalletStore) SetChallenge(_ context.Context, id string, nonce string, expiresAt time.Time, _ time.Time) (bool, *apperrors.AppError) {
	wallet, ok := f.wallets[id]
	if !ok || wallet.ProofVerified {
		return false, nil
	}
	wallet.ProofNonce = &nonce
	wallet.ProofNonceExpiresAt = &expiresAt
	f.wallets[id] = wallet
	return true, nil
}

func (f *fakeWalletStore) MarkVerified(_ context.Context, id string, nonce string, now time.Time) (bool, *apperrors.AppError) {
	wallet, ok := f.wallets[id]
	if !ok || wallet.ProofNonce == nil || *wallet.ProofNonce != nonce || !now.Before(*wallet.ProofNonceExpiresAt) {
		return false, nil
	}
	wallet.ProofVerified = true
	wallet.VerifiedAt = &now
	wallet.ProofNonce = nil
	wallet.ProofNonceExpiresAt = nil
	f.wallets[id] = wallet
	return true, nil
}

type fakeDestinationStore struct {
	destinations map[string]entities.SavedDestination
}

func (f *fakeDestinationStore) Create(_ context.Context, destination entities.SavedDestination) *apperrors.AppError {
	if f.destinations == nil {
		f.destinations = map[string]entities.SavedDestination{}
	}
	f.destinations[destination.ID] = destination
	return nil
}

func (f *fakeDestinationStore) GetByID(_ context.Context, merchantID string, id string) (entities.SavedDestination, bool, *apperrors.AppError) {
	destination, ok := f.destinations[id]
	if !ok || destination.MerchantID != merchantID {
		return entities.SavedDestination{}, false, nil
	}
	return destination, true, nil
}

func (f *fakeDestinationStore) List(_ context.Context, merchantID string) ([]entities.SavedDestination, *apperrors.AppError) {
	out := []entities.SavedDestination{}
	for _, destination := range f.destinations {
		if destination.MerchantID == merchantID {
			out = append(out, destination)
		}
	}
	return out, nil
}

type fakeTransferBuilder struct {
	err   *apperrors.AppError
	calls []dto.BuildUnsignedTransferInput
}

func (f *fakeTransferBuilder) BuildTransfer(_ context.Context, input dto.BuildUnsignedTransferInput) (entities.UnsignedTransaction, *apperrors.AppError) {
	f.calls = append(f.calls, input)
	if f.err != nil {
		return entities.UnsignedTransaction{}, f.err
	}
	return entities.UnsignedTransaction{
		Chain:    valueobjects.Chain(input.Chain),
		Encoding: entities.EncodingEVMCallJSON,
		Payload:  `{"to":"` + input.TokenID + `"}`,
	}, nil
}

type fakeBroadcaster struct {
	validateErr     *apperrors.AppError
	broadcastErr    *apperrors.AppError
	awaitErr        *apperrors.AppError
	inclusion       dto.TransferStatus
	signature       string
	broadcasts      int
	validated       []dto.BroadcastInput
	broadcastInputs []dto.BroadcastInput
}

func (f *fakeBroadcaster) ValidateSigned(_ context.Context, input dto.BroadcastInput) (dto.ValidatedTransaction, *apperrors.AppError) {
	f.validated = append(f.validated, input)
	if f.validateErr != nil {
		return dto.ValidatedTransaction{}, f.validateErr
	}
	return dto.ValidatedTransaction{Signature: f.signature}, nil
}

func (f *fakeBroadcaster) Broadcast(_ context.Context, input dto.BroadcastInput) (dto.BroadcastOutput, *apperrors.AppError) {
	f.broadcasts++
	f.broadcastInputs = append(f.broadcastInputs, input)
	if f.broadcastErr != nil {
		return dto.BroadcastOutput{}, f.broadcastErr
	}
	return dto.BroadcastOutput{Signature: f.signature}, nil
}

func (f *fakeBroadcaster) AwaitInclusion(_ context.Context, _ dto.AwaitInclusionInput) (dto.TransferStatus, *apperrors.AppError) {
	if f.awaitErr != nil {
		return dto.TransferStatus{}, f.awaitErr
	}
	return f.inclusion, nil
}

type fakeSignatureVerifier struct {
	valid bool
	calls []dto.VerifyWalletSignatureInput
}

func (f *fakeSignatureVerifier) Verify(_ context.Context, input dto.VerifyWalletSignatureInput) (bool, *apperrors.AppError) {
	f.calls = append(f.calls, input)
	return f.valid, nil
}

type fakeWebhookOutboxRepository struct {
	mu        sync.Mutex
	claimed   []dto.ClaimedWebhookEvent
	delivered []dto.WebhookDeliveryResult
	retried   []dto.WebhookDeliveryResult
	failed    []dto.WebhookDeliveryResult
	renewals  int
	listed    []dto.WebhookEventResource
	requeue   dto.WebhookEventMutationResult
}

func (f *fakeWebhookOutboxRepository) ClaimDueForDispatch(
	_ context.Context,
	_ time.Time,
	limit int,
	_ string,
	_ time.Time,
) ([]dto.ClaimedWebhookEvent, *apperrors.AppError) {
	if len(f.claimed) > limit {
		return f.claimed[:limit], nil
	}
	return f.claimed, nil
}

func (f *fakeWebhookOutboxRepository) MarkDelivered(_ context.Context, result dto.WebhookDeliveryResult) (bool, *apperrors.AppError) {
	f.delivered = append(f.delivered, result)
	return true, nil
}

func (f *fakeWebhookOutboxRepository) MarkRetry(_ context.Context, result dto.WebhookDeliveryResult) (bool, *apperrors.AppError) {
	f.retried = append(f.retried, result)
	return true, nil
}

func (f *fakeWebhookOutboxRepository) MarkFailed(_ context.Context, result dto.WebhookDeliveryResult) (bool, *apperrors.AppError) {
	f.failed = append(f.failed, result)
	return true, nil
}

func (f *fakeWebhookOutboxRepository) RenewLease(_ context.Context, _ string, _ string, _ time.Time, _ time.Time) (bool, *apperrors.AppError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renewals++
	return true, nil
}

func (f *fakeWebhookOutboxRepository) ListFailed(_ context.Context, _ string, _ int) ([]dto.WebhookEventResource, *apperrors.AppError) {
	return f.listed, nil
}

func (f *fakeWebhookOutboxRepository) RequeueFailed(
	_ context.Context,
	_ string,
	_ string,
	_ string,
	_ time.Time,
) (dto.WebhookEventMutationResult, *apperrors.AppError) {
	return f.requeue, nil
}

type fakeWebhookEventGateway struct {
	results map[string]dto.SendWebhookEventOutput
	errors  map[string]*apperrors.AppError
	inputs  []dto.SendWebhookEventInput
}

func (f *fakeWebhookEventGateway) SendWebhookEvent(_ context.Context, input dto.SendWebhookEventInput) (dto.SendWebhookEventOutput, *apperrors.AppError) {
	f.inputs = append(f.inputs, input)
	if appErr, ok := f.errors[input.EventID]; ok {
		return dto.SendWebhookEventOutput{}, appErr
	}
	return f.results[input.EventID], nil
}

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) Printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) contains(fragment string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if strings.Contains(line, fragment) {
			return true
		}
	}
	return false
}
