//go:build !integration

package tokenregistry

import (
	"testing"

	"stablesettle/internal/application/dto"
)

func TestDefaultsResolveCanonicalTokenIDs(t *testing.T) {
	registry, appErr := New(Defaults())
	if appErr != nil {
		t.Fatalf("expected defaults to load, got %+v", appErr)
	}

	token, ok := registry.Resolve(" Ethereum ", "usdc")
	if !ok {
		t.Fatalf("expected ethereum USDC to resolve")
	}
	if token.TokenID != "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48" || token.Decimals != 6 {
		t.Fatalf("expected lowercase USDC contract with 6 decimals, got %+v", token)
	}

	token, ok = registry.Resolve("solana", "USDT")
	if !ok || token.TokenID != "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB" {
		t.Fatalf("expected solana USDT mint, got %+v %v", token, ok)
	}

	if _, ok := registry.Resolve("solana", "EURC"); ok {
		t.Fatalf("expected unknown currency to miss")
	}
}

func TestListIsSortedAndDetached(t *testing.T) {
	registry, appErr := New(Defaults())
	if appErr != nil {
		t.Fatalf("expected defaults to load, got %+v", appErr)
	}

	listed := registry.List()
	if len(listed) != 4 {
		t.Fatalf("expected 4 tokens, got %d", len(listed))
	}
	want := []string{"ethereum/USDC", "ethereum/USDT", "solana/USDC", "solana/USDT"}
	for i, token := range listed {
		if got := token.Chain + "/" + token.Currency; got != want[i] {
			t.Fatalf("expected %s at %d, got %s", want[i], i, got)
		}
	}

	listed[0].Decimals = 99
	if registry.List()[0].Decimals != 6 {
		t.Fatalf("expected List to return a copy")
	}

	if solana := registry.ForChain("solana"); len(solana) != 2 {
		t.Fatalf("expected 2 solana tokens, got %d", len(solana))
	}
}

func TestNewRejectsInvalidEntries(t *testing.T) {
	cases := []struct {
		name    string
		entries []dto.TokenInfo
		code    string
	}{
		{
			name:    "unsupported chain",
			entries: []dto.TokenInfo{{Chain: "tron", Currency: "USDT", TokenID: "x", Decimals: 6}},
			code:    "unsupported_chain",
		},
		{
			name:    "bad contract",
			entries: []dto.TokenInfo{{Chain: "ethereum", Currency: "USDT", TokenID: "0x123", Decimals: 6}},
			code:    "invalid_address",
		},
		{
			name:    "decimals",
			entries: []dto.TokenInfo{{Chain: "ethereum", Currency: "USDT", TokenID: "0xdac17f958d2ee523a2206206994597c13d831ec7", Decimals: 19}},
			code:    "invalid_token_decimals",
		},
		{
			name: "duplicate",
			entries: []dto.TokenInfo{
				{Chain: "ethereum", Currency: "USDT", TokenID: "0xdac17f958d2ee523a2206206994597c13d831ec7", Decimals: 6},
				{Chain: "ETHEREUM", Currency: "usdt", TokenID: "0xdac17f958d2ee523a2206206994597c13d831ec7", Decimals: 6},
			},
			code: "duplicate_token",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, appErr := New(tc.entries)
			if appErr == nil || appErr.Code != tc.code {
				t.Fatalf("expected %s, got %+v", tc.code, appErr)
			}
		})
	}
}
