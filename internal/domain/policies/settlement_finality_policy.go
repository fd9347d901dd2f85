package policies

const DefaultFinalityConfirmations int64 = 32

func IsSettlementFinal(confirmations int64, chainFinalized bool, threshold int64) bool {
	if chainFinalized {
		return true
	}
	if threshold <= 0 {
		threshold = DefaultFinalityConfirmations
	}
	return confirmations >= threshold
}
