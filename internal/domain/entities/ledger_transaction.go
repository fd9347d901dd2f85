package entities

import (
	"time"

	valueobjects "stablesettle/internal/domain/value_objects"

	"github.com/shopspring/decimal"
)

type LedgerTransactionType string

const (
	LedgerTransactionDeposit LedgerTransactionType = "deposit"
	LedgerTransactionPayout  LedgerTransactionType = "payout"
)

type LedgerTransaction struct {
	ID            string
	MerchantID    string
	Type          LedgerTransactionType
	Amount        decimal.Decimal
	Currency      valueobjects.Currency
	TxHash        string
	ReferenceType string
	ReferenceID   string
	CreatedAt     time.Time
}
