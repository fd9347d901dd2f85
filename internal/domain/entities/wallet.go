package entities

import (
	"time"

	valueobjects "stablesettle/internal/domain/value_objects"
)

type MerchantWallet struct {
	ID                  string
	MerchantID          string
	Chain               valueobjects.Chain
	Address             string
	ProofVerified       bool
	ProofNonce          *string
	ProofNonceExpiresAt *time.Time
	VerifiedAt          *time.Time
	CreatedAt           time.Time
}

type SavedDestination struct {
	ID         string
	MerchantID string
	Chain      valueobjects.Chain
	Address    string
	Label      string
	CreatedAt  time.Time
}

type MerchantWebhookConfig struct {
	MerchantID string
	URL        *string
	Secret     *string
	UpdatedAt  time.Time
}
