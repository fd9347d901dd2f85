package dto

import (
	"math/big"
	"time"

	"stablesettle/internal/domain/entities"
)

type MonitorSettlementsCommand struct {
	Now                 time.Time
	BatchSize           int
	TransferLookupLimit int
	ChainCallTimeout    time.Duration
}

type MonitorSettlementsOutput struct {
	Scanned        int
	Matched        int
	Skipped        int
	TransientError int
	Errors         int
}

type FinalizeSettlementsCommand struct {
	Now                   time.Time
	BatchSize             int
	FinalityConfirmations int64
	ChainCallTimeout      time.Duration
}

type FinalizeSettlementsOutput struct {
	Scanned        int
	Succeeded      int
	Confirming     int
	Failed         int
	Skipped        int
	TransientError int
	Errors         int
}

type ExpirePaymentIntentsCommand struct {
	Now       time.Time
	BatchSize int
}

type ExpireSweepOutput struct {
	Scanned int
	Expired int
	Skipped int
}

type RecentTransfersInput struct {
	Chain   string
	Address string
	Limit   int
}

type ObservedTransfer struct {
	Signature   string
	FromAddress string
	ToAddress   string
	TokenID     string
	RawAmount   *big.Int
	Decimals    int
	ObservedAt  time.Time
}

type TransferStatusInput struct {
	Chain     string
	Signature string
}

type TransferStatus struct {
	Confirmations int64
	Finalized     bool
	Failed        bool
	FailureReason string
}

type PaymentIntentTransition struct {
	ID            string
	MerchantID    string
	FromStatus    string
	ToStatus      string
	FailureReason *string
	Event         *entities.WebhookEvent
	Now           time.Time
}

type MarkPaymentIntentProcessingInput struct {
	ID            string
	TxSignature   string
	Confirmations int64
	Now           time.Time
}

// CompleteSettlementInput carries every write of a settlement so the store can apply
// them in one transaction.
type CompleteSettlementInput struct {
	IntentID      string
	Confirmations int64
	ConfirmedAt   time.Time
	Ledger        entities.LedgerTransaction
	Event         entities.WebhookEvent
}
