package walletproof

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"strings"

	"stablesettle/internal/application/dto"
	portsout "stablesettle/internal/application/ports/out"
	valueobjects "stablesettle/internal/domain/value_objects"
	"stablesettle/internal/infrastructure/walletkeys"
	apperrors "stablesettle/internal/shared_kernel/errors"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/gagliardetto/solana-go"
)

const personalMessagePrefix = "\x19Ethereum Signed Message:\n"

// Verifier checks wallet-ownership signatures offline: Ed25519 over the raw message on
// Solana, EIP-191 personal_sign with public key recovery on EVM chains. Malformed
// signatures are reported as not valid rather than as errors.
type Verifier struct{}

var _ portsout.WalletSignatureVerifier = Verifier{}

func NewVerifier() Verifier {
	return Verifier{}
}

func (Verifier) Verify(_ context.Context, input dto.VerifyWalletSignatureInput) (bool, *apperrors.AppError) {
	chain, appErr := valueobjects.ParseChain(input.Chain)
	if appErr != nil {
		return false, appErr
	}
	address, appErr := valueobjects.NormalizeAddress(chain, "address", input.Address)
	if appErr != nil {
		return false, appErr
	}

	switch chain.Family() {
	case valueobjects.ChainFamilySolana:
		return verifySolana(address, input.Message, input.Signature), nil
	case valueobjects.ChainFamilyEVM:
		return verifyPersonalSign(address, input.Message, input.Signature), nil
	default:
		return false, apperrors.NewValidation(
			"unsupported_chain",
			"wallet proofs are not supported on chain",
			map[string]any{"chain": chain.String()},
		)
	}
}

func verifySolana(address string, message []byte, rawSignature string) bool {
	publicKey, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return false
	}
	signature, ok := decodeSolanaSignature(rawSignature)
	if !ok {
		return false
	}
	return signature.Verify(publicKey, message)
}

// decodeSolanaSignature accepts the base58 form wallets display and the base64 form some
// signing APIs return.
func decodeSolanaSignature(raw string) (solana.Signature, bool) {
	trimmed := strings.TrimSpace(raw)
	if signature, err := solana.SignatureFromBase58(trimmed); err == nil {
		return signature, true
	}
	var signature solana.Signature
	decoded, err := base64.StdEncoding.DecodeString(trimmed)
	if err != nil || len(decoded) != len(signature) {
		return solana.Signature{}, false
	}
	copy(signature[:], decoded)
	return signature, true
}

func verifyPersonalSign(address string, message []byte, rawSignature string) bool {
	trimmed := strings.TrimPrefix(strings.TrimSpace(rawSignature), "0x")
	signature, err := hex.DecodeString(trimmed)
	if err != nil || len(signature) != 65 {
		return false
	}

	recoveryID := signature[64]
	if recoveryID >= 27 {
		recoveryID -= 27
	}
	if recoveryID > 1 {
		return false
	}

	compact := make([]byte, 65)
	compact[0] = 27 + recoveryID
	copy(compact[1:], signature[:64])

	hash := PersonalMessageHash(message)
	publicKey, _, err := ecdsa.RecoverCompact(compact, hash)
	if err != nil {
		return false
	}
	return walletkeys.EVMAddressFromPublicKey(publicKey) == address
}

// PersonalMessageHash is the EIP-191 version 0x45 digest signed by personal_sign.
func PersonalMessageHash(message []byte) []byte {
	prefix := personalMessagePrefix + strconv.Itoa(len(message))
	return walletkeys.Keccak256([]byte(prefix), message)
}
