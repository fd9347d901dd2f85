//go:build !integration

package valueobjects

import "testing"

func TestToEIP55ChecksumKnownFixtures(t *testing.T) {
	testCases := []struct {
		canonical string
		expected  string
	}{
		{
			canonical: "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
			expected:  "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		},
		{
			canonical: "0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359",
			expected:  "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
		},
	}

	for _, testCase := range testCases {
		actual, appErr := ToEIP55Checksum(testCase.canonical)
		if appErr != nil {
			t.Fatalf("expected no error for %s, got %+v", testCase.canonical, appErr)
		}
		if actual != testCase.expected {
			t.Fatalf("expected %s, got %s", testCase.expected, actual)
		}
	}
}

func TestNormalizeAddressEVMLowercases(t *testing.T) {
	canonical, appErr := NormalizeAddress(ChainEthereum, "destination_address", " 0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed ")
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if canonical != "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed" {
		t.Fatalf("unexpected canonical address: %s", canonical)
	}
}

func TestNormalizeAddressSolanaAcceptsBase58PublicKey(t *testing.T) {
	const mint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	canonical, appErr := NormalizeAddress(ChainSolana, "destination_address", mint)
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if canonical != mint {
		t.Fatalf("expected %s, got %s", mint, canonical)
	}
}

func TestNormalizeAddressRejectsWrongFamily(t *testing.T) {
	testCases := []struct {
		chain   Chain
		address string
	}{
		{chain: ChainSolana, address: "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"},
		{chain: ChainEthereum, address: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"},
		{chain: ChainSolana, address: "not-base58-0OIl"},
	}

	for _, testCase := range testCases {
		_, appErr := NormalizeAddress(testCase.chain, "destination_address", testCase.address)
		if appErr == nil {
			t.Fatalf("expected validation error for %s on %s", testCase.address, testCase.chain)
		}
		if appErr.Code != "invalid_address" {
			t.Fatalf("expected invalid_address, got %s", appErr.Code)
		}
	}
}
