package entities

import valueobjects "stablesettle/internal/domain/value_objects"

type UnsignedTransactionEncoding string

const (
	// Solana wire-format transaction with empty signature slots, base64 encoded.
	EncodingSolanaBase64 UnsignedTransactionEncoding = "solana_tx_base64"
	// JSON object describing an EVM contract call for the signer to fill gas and sign.
	EncodingEVMCallJSON UnsignedTransactionEncoding = "evm_call_json"
)

// UnsignedTransaction is a chain-tagged transfer description awaiting an external signature.
type UnsignedTransaction struct {
	Chain    valueobjects.Chain          `json:"chain"`
	Encoding UnsignedTransactionEncoding `json:"encoding"`
	Payload  string                      `json:"payload"`
}
