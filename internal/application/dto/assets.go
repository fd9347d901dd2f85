package dto

// ListAssetsQuery optionally narrows the listing to one chain.
type ListAssetsQuery struct {
	Chain string
}

type ListAssetsOutput struct {
	Assets []TokenInfo `json:"assets"`
}

// TokenInfo identifies a supported stablecoin deployment. TokenID is the SPL mint on
// Solana and the ERC-20 contract on EVM chains.
type TokenInfo struct {
	Chain    string `json:"chain"`
	Currency string `json:"currency"`
	TokenID  string `json:"token_id"`
	Decimals int    `json:"decimals"`
}
