//go:build !integration

package policies

import (
	"testing"

	valueobjects "stablesettle/internal/domain/value_objects"

	"github.com/shopspring/decimal"
)

func TestQuotePayoutFees(t *testing.T) {
	tests := []struct {
		amount           string
		fee              string
		net              string
		requiresApproval bool
		initial          valueobjects.PayoutStatus
	}{
		{amount: "100", fee: "1", net: "99", requiresApproval: false, initial: valueobjects.PayoutStatusApproved},
		{amount: "200", fee: "1", net: "199", requiresApproval: false, initial: valueobjects.PayoutStatusApproved},
		{amount: "1000", fee: "5", net: "995", requiresApproval: false, initial: valueobjects.PayoutStatusApproved},
		{amount: "1000.01", fee: "5.00005", net: "995.00995", requiresApproval: true, initial: valueobjects.PayoutStatusPending},
		{amount: "1500", fee: "7.5", net: "1492.5", requiresApproval: true, initial: valueobjects.PayoutStatusPending},
	}

	for _, tc := range tests {
		quote := QuotePayout(decimal.RequireFromString(tc.amount))
		if !quote.FeeAmount.Equal(decimal.RequireFromString(tc.fee)) {
			t.Fatalf("amount %s: expected fee %s, got %s", tc.amount, tc.fee, quote.FeeAmount)
		}
		if !quote.NetAmount.Equal(decimal.RequireFromString(tc.net)) {
			t.Fatalf("amount %s: expected net %s, got %s", tc.amount, tc.net, quote.NetAmount)
		}
		if quote.RequiresApproval != tc.requiresApproval {
			t.Fatalf("amount %s: expected requires_approval=%t", tc.amount, tc.requiresApproval)
		}
		if quote.InitialStatus() != tc.initial {
			t.Fatalf("amount %s: expected initial status %s, got %s", tc.amount, tc.initial, quote.InitialStatus())
		}
	}
}
