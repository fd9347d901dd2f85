package dto

import "time"

type CreatePaymentIntentCommand struct {
	MerchantID       string
	Amount           string
	Currency         string
	Chain            string
	ExpiresInSeconds *int64
	Now              time.Time
}

type GetPaymentIntentQuery struct {
	MerchantID string
	ID         string
}

type CancelPaymentIntentCommand struct {
	MerchantID string
	ID         string
	Now        time.Time
}

type PaymentIntentResource struct {
	ID                string     `json:"id"`
	MerchantID        string     `json:"merchant_id"`
	Amount            string     `json:"amount"`
	Currency          string     `json:"currency"`
	Chain             string     `json:"chain"`
	ExpectedTokenMint string     `json:"expected_token_mint"`
	TokenDecimals     int        `json:"token_decimals"`
	PaymentAddress    string     `json:"payment_address"`
	Status            string     `json:"status"`
	TxSignature       *string    `json:"tx_signature,omitempty"`
	Confirmations     int64      `json:"confirmations"`
	FailureReason     *string    `json:"failure_reason,omitempty"`
	ExpiresAt         time.Time  `json:"expires_at"`
	ConfirmedAt       *time.Time `json:"confirmed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

type AllocatePaymentAddressInput struct {
	Chain           string
	PaymentIntentID string
}

type PaymentAddressAllocation struct {
	Address         string
	DerivationIndex *int64
}
