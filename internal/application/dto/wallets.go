package dto

import "time"

type RegisterWalletCommand struct {
	MerchantID string
	Chain      string
	Address    string
	Now        time.Time
}

type IssueWalletChallengeCommand struct {
	MerchantID string
	WalletID   string
	Now        time.Time
}

type VerifyWalletProofCommand struct {
	MerchantID string
	WalletID   string
	Signature  string
	Now        time.Time
}

type WalletResource struct {
	ID            string     `json:"id"`
	MerchantID    string     `json:"merchant_id"`
	Chain         string     `json:"chain"`
	Address       string     `json:"address"`
	ProofVerified bool       `json:"proof_verified"`
	VerifiedAt    *time.Time `json:"verified_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type WalletChallengeOutput struct {
	WalletID  string    `json:"wallet_id"`
	Nonce     string    `json:"nonce"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}

type VerifyWalletSignatureInput struct {
	Chain     string
	Address   string
	Message   []byte
	Signature string
}

type CreateDestinationCommand struct {
	MerchantID string
	Chain      string
	Address    string
	Label      string
	Now        time.Time
}

type ListDestinationsQuery struct {
	MerchantID string
}

type DestinationResource struct {
	ID         string    `json:"id"`
	MerchantID string    `json:"merchant_id"`
	Chain      string    `json:"chain"`
	Address    string    `json:"address"`
	Label      string    `json:"label"`
	CreatedAt  time.Time `json:"created_at"`
}

type ListDestinationsOutput struct {
	Destinations []DestinationResource `json:"destinations"`
}

type ConfigureMerchantWebhookCommand struct {
	MerchantID string
	URL        string
	Secret     string
	Now        time.Time
}

type MerchantWebhookOutput struct {
	MerchantID string    `json:"merchant_id"`
	URL        string    `json:"url"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type GetBalancesQuery struct {
	MerchantID string
}

type BalanceResource struct {
	Currency  string    `json:"currency"`
	Total     string    `json:"total"`
	Onchain   string    `json:"onchain"`
	Offchain  string    `json:"offchain"`
	UpdatedAt time.Time `json:"updated_at"`
}

type GetBalancesOutput struct {
	MerchantID string            `json:"merchant_id"`
	Balances   []BalanceResource `json:"balances"`
}
