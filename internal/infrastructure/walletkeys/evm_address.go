package walletkeys

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2"
	"golang.org/x/crypto/sha3"
)

// EVMAddressFromPublicKey returns the lower-case 0x address of a secp256k1 public key.
func EVMAddressFromPublicKey(publicKey *btcec.PublicKey) string {
	uncompressed := publicKey.SerializeUncompressed()
	digest := Keccak256(uncompressed[1:])
	return "0x" + hex.EncodeToString(digest[12:])
}

func Keccak256(chunks ...[]byte) []byte {
	hash := sha3.NewLegacyKeccak256()
	for _, chunk := range chunks {
		_, _ = hash.Write(chunk)
	}
	return hash.Sum(nil)
}
