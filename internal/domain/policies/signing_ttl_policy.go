package policies

import (
	"time"

	valueobjects "stablesettle/internal/domain/value_objects"
)

const (
	FastExpiryUnsignedTransactionTTL     = 2 * time.Minute
	StandardExpiryUnsignedTransactionTTL = 30 * time.Minute
)

func UnsignedTransactionTTL(family valueobjects.ChainFamily) time.Duration {
	if family.HasFastTransactionExpiry() {
		return FastExpiryUnsignedTransactionTTL
	}
	return StandardExpiryUnsignedTransactionTTL
}
