package tokenregistry

import "stablesettle/internal/application/dto"

// Defaults are the mainnet USDC/USDT deployments used when no token table is configured.
func Defaults() []dto.TokenInfo {
	return []dto.TokenInfo{
		{Chain: "solana", Currency: "USDC", TokenID: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", Decimals: 6},
		{Chain: "solana", Currency: "USDT", TokenID: "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB", Decimals: 6},
		{Chain: "ethereum", Currency: "USDC", TokenID: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Decimals: 6},
		{Chain: "ethereum", Currency: "USDT", TokenID: "0xdAC17F958D2ee523a2206206994597C13D831ec7", Decimals: 6},
	}
}
