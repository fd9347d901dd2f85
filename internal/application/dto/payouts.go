package dto

import (
	"math/big"
	"time"

	"stablesettle/internal/domain/entities"
)

type CreatePayoutCommand struct {
	MerchantID         string
	Amount             string
	Currency           string
	Chain              string
	DestinationID      string
	DestinationAddress string
	Now                time.Time
}

type ReviewPayoutCommand struct {
	MerchantID string
	PayoutID   string
	ActorID    string
	ActorRole  string
	Notes      string
	Reason     string
	Now        time.Time
}

type GeneratePayoutTransactionCommand struct {
	MerchantID string
	PayoutID   string
	Now        time.Time
}

type SubmitSignedPayoutCommand struct {
	MerchantID        string
	PayoutID          string
	SignedTransaction string
	Now               time.Time
}

type CancelPayoutCommand struct {
	MerchantID string
	PayoutID   string
	Now        time.Time
}

type GetPayoutQuery struct {
	MerchantID string
	ID         string
}

type ListPayoutsQuery struct {
	MerchantID string
	Status     string
	Limit      int
}

type ListPayoutsOutput struct {
	Payouts []PayoutResource `json:"payouts"`
}

type ExpirePayoutTransactionsCommand struct {
	Now       time.Time
	BatchSize int
}

type ConfirmPayoutsCommand struct {
	Now       time.Time
	BatchSize int
	// MinAge skips payouts that moved to processing less than MinAge ago; their submit
	// request may still be waiting on the chain.
	MinAge           time.Duration
	ChainCallTimeout time.Duration
}

type ConfirmPayoutsOutput struct {
	Scanned        int
	Completed      int
	Failed         int
	Pending        int
	Rebroadcast    int
	Skipped        int
	TransientError int
	Errors         int
}

type PayoutResource struct {
	ID                   string                        `json:"id"`
	MerchantID           string                        `json:"merchant_id"`
	Amount               string                        `json:"amount"`
	FeeAmount            string                        `json:"fee_amount"`
	NetAmount            string                        `json:"net_amount"`
	Currency             string                        `json:"currency"`
	Chain                string                        `json:"chain"`
	DestinationID        *string                       `json:"destination_id,omitempty"`
	DestinationAddress   string                        `json:"destination_address"`
	Status               string                        `json:"status"`
	RequiresApproval     bool                          `json:"requires_approval"`
	UnsignedTransaction  *entities.UnsignedTransaction `json:"unsigned_transaction,omitempty"`
	SourceWalletAddress  *string                       `json:"source_wallet_address,omitempty"`
	TransactionExpiresAt *time.Time                    `json:"transaction_expires_at,omitempty"`
	TxSignature          *string                       `json:"tx_signature,omitempty"`
	ErrorMessage         *string                       `json:"error_message,omitempty"`
	RejectionReason      *string                       `json:"rejection_reason,omitempty"`
	CreatedAt            time.Time                     `json:"created_at"`
	UpdatedAt            time.Time                     `json:"updated_at"`
}

type CreatePayoutOutput struct {
	Payout PayoutResource `json:"payout"`
	// GenerationError is set when an auto-approved payout could not get its unsigned
	// transaction yet; the payout stays approved.
	GenerationError *ErrorSummary `json:"generation_error,omitempty"`
}

type ErrorSummary struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PayoutTransition struct {
	ID              string
	MerchantID      string
	FromStatus      string
	ToStatus        string
	ReviewedBy      *string
	ReviewNotes     *string
	RejectionReason *string
	ErrorMessage    *string
	TxSignature     *string
	Event           *entities.WebhookEvent
	Now             time.Time
}

type SaveUnsignedTransactionInput struct {
	ID                   string
	FromStatus           string
	Unsigned             entities.UnsignedTransaction
	SourceWalletAddress  string
	TransactionExpiresAt time.Time
	Now                  time.Time
}

type MarkPayoutProcessingInput struct {
	ID string
	// TxSignature and SignedTransaction are stored before the first broadcast so a
	// payout left in processing can always be looked up and resent.
	TxSignature       string
	SignedTransaction string
	Now               time.Time
}

type MarkPayoutProcessingResult struct {
	Updated       bool
	Funded        bool
	CurrentStatus string
}

type CompletePayoutInput struct {
	ID          string
	TxSignature string
	Ledger      entities.LedgerTransaction
	Event       entities.WebhookEvent
	Now         time.Time
}

type BuildUnsignedTransferInput struct {
	Chain              string
	SourceAddress      string
	DestinationAddress string
	TokenID            string
	RawAmount          *big.Int
	Decimals           int
	Reference          string
}

type BroadcastInput struct {
	Chain             string
	SignedTransaction string
	// ExpectedSigner is the source wallet that must have signed the transaction.
	ExpectedSigner string
	// Expected is the unsigned transfer the signature must cover. Nil skips the
	// transfer comparison.
	Expected *entities.UnsignedTransaction
}

type ValidatedTransaction struct {
	// Signature is the id the chain will know the transaction by.
	Signature string
}

type BroadcastOutput struct {
	Signature string
}

type AwaitInclusionInput struct {
	Chain     string
	Signature string
	Timeout   time.Duration
}
