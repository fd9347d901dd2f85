package policies

import (
	"fmt"
	"time"
)

const WalletProofChallengeTTL = 10 * time.Minute

type WalletProofChallenge struct {
	WalletID  string
	Address   string
	Chain     string
	Nonce     string
	ExpiresAt time.Time
}

// WalletProofMessage is the exact text the wallet owner signs. Any change here
// invalidates outstanding challenges.
func WalletProofMessage(challenge WalletProofChallenge) string {
	return fmt.Sprintf(
		"stablesettle wallet ownership proof\nwallet: %s\naddress: %s\nchain: %s\nnonce: %s\nexpires: %s",
		challenge.WalletID,
		challenge.Address,
		challenge.Chain,
		challenge.Nonce,
		challenge.ExpiresAt.UTC().Format(time.RFC3339),
	)
}
