package walletkeys

import (
	"math"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

const externalChain uint32 = 0

// AccountKey is an account-level extended public key (m/44'/60'/account'). Payment
// addresses are derived below it on the external chain as 0/{index}.
type AccountKey struct {
	key *hdkeychain.ExtendedKey
}

// ParseAccountXPub accepts a serialized extended public key. Private keys are rejected so
// the service never holds spend authority for payment addresses.
func ParseAccountXPub(raw string) (AccountKey, *KeyError) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return AccountKey{}, wrapKeyError(CodeInvalidConfiguration, "extended public key is required", nil)
	}

	key, err := hdkeychain.NewKeyFromString(trimmed)
	if err != nil {
		return AccountKey{}, wrapKeyError(CodeInvalidKeyMaterialFormat, "invalid extended public key encoding", err)
	}
	if key.IsPrivate() {
		return AccountKey{}, wrapKeyError(CodeInvalidKeyMaterialFormat, "extended private keys are not accepted", nil)
	}
	return AccountKey{key: key}, nil
}

// ValidateAccountLevel checks the key sits at depth 3 under a hardened account index.
func (k AccountKey) ValidateAccountLevel() *KeyError {
	if k.key == nil {
		return wrapKeyError(CodeInvalidConfiguration, "extended public key is not loaded", nil)
	}
	if k.key.Depth() != 3 {
		return wrapKeyError(CodeInvalidConfiguration, "extended public key depth must be 3 (account-level)", nil)
	}
	if k.key.ChildIndex() < hdkeychain.HardenedKeyStart {
		return wrapKeyError(CodeInvalidConfiguration, "extended public key child number must be hardened account index", nil)
	}
	return nil
}

func (k AccountKey) String() string {
	if k.key == nil {
		return ""
	}
	return k.key.String()
}

// DeriveEVMAddress returns the lower-case address at 0/{index}.
func (k AccountKey) DeriveEVMAddress(index int64) (string, *KeyError) {
	if k.key == nil {
		return "", wrapKeyError(CodeInvalidConfiguration, "extended public key is not loaded", nil)
	}
	if index < 0 {
		return "", wrapKeyError(CodeInvalidConfiguration, "derivation index must be non-negative", nil)
	}
	if index > math.MaxInt32 {
		return "", wrapKeyError(CodeDerivationFailed, "derivation index exceeds non-hardened BIP32 range", nil)
	}

	chainKey, err := k.key.Derive(externalChain)
	if err != nil {
		return "", wrapKeyError(CodeDerivationFailed, "failed to derive external chain key", err)
	}
	child, err := chainKey.Derive(uint32(index))
	if err != nil {
		return "", wrapKeyError(CodeDerivationFailed, "failed to derive child key", err)
	}
	publicKey, err := child.ECPubKey()
	if err != nil {
		return "", wrapKeyError(CodeDerivationFailed, "failed to read derived public key", err)
	}
	return EVMAddressFromPublicKey(publicKey), nil
}
