package use_cases

import (
	"strings"

	"github.com/google/uuid"
)

const (
	idPrefixPaymentIntent     = "pi_"
	idPrefixPayout            = "po_"
	idPrefixWebhookEvent      = "evt_"
	idPrefixWallet            = "wal_"
	idPrefixDestination       = "dst_"
	idPrefixLedgerTransaction = "ltx_"
)

type IDGenerator interface {
	NewID(prefix string) string
}

type uuidGenerator struct{}

func NewUUIDGenerator() IDGenerator {
	return uuidGenerator{}
}

func (uuidGenerator) NewID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func idsOrDefault(ids IDGenerator) IDGenerator {
	if ids == nil {
		return NewUUIDGenerator()
	}
	return ids
}
