//go:build !integration

package solanarpc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"testing"

	"stablesettle/internal/application/dto"
	"stablesettle/internal/domain/entities"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
)

func bigInt(value int64) *big.Int {
	return big.NewInt(value)
}

func signedMemoTransaction(t *testing.T, signer solana.PrivateKey) string {
	t.Helper()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			solana.NewInstruction(memoProgramID, solana.AccountMetaSlice{solana.Meta(signer.PublicKey()).SIGNER()}, []byte("po_1")),
		},
		solana.HashFromBytes(make([]byte, 32)),
		solana.TransactionPayer(signer.PublicKey()),
	)
	if err != nil {
		t.Fatalf("expected transaction, got %v", err)
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(signer.PublicKey()) {
			return &signer
		}
		return nil
	}); err != nil {
		t.Fatalf("expected signed transaction, got %v", err)
	}
	encoded, err := tx.MarshalBinary()
	if err != nil {
		t.Fatalf("expected serialized transaction, got %v", err)
	}
	return base64.StdEncoding.EncodeToString(encoded)
}

func TestValidateSignedAcceptsExpectedSigner(t *testing.T) {
	signer, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("expected key, got %v", err)
	}
	signed := signedMemoTransaction(t, signer)

	endpoint := newTestEndpoint("http://127.0.0.1:1")
	validated, appErr := endpoint.ValidateSigned(context.Background(), dto.BroadcastInput{
		SignedTransaction: signed,
		ExpectedSigner:    signer.PublicKey().String(),
	})
	if appErr != nil {
		t.Fatalf("expected valid transaction, got %+v", appErr)
	}
	raw, _ := base64.StdEncoding.DecodeString(signed)
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		t.Fatalf("expected decodable transaction, got %v", err)
	}
	if validated.Signature != tx.Signatures[0].String() {
		t.Fatalf("expected signature %s, got %s", tx.Signatures[0], validated.Signature)
	}

	_, appErr = endpoint.ValidateSigned(context.Background(), dto.BroadcastInput{
		SignedTransaction: signed,
		ExpectedSigner:    testKey(7).String(),
	})
	if appErr == nil || appErr.Code != "signer_mismatch" {
		t.Fatalf("expected signer_mismatch, got %+v", appErr)
	}
}

func TestValidateSignedRejectsTamperedSignature(t *testing.T) {
	signer, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("expected key, got %v", err)
	}
	raw, _ := base64.StdEncoding.DecodeString(signedMemoTransaction(t, signer))
	raw[1] ^= 0xff

	_, appErr := newTestEndpoint("http://127.0.0.1:1").ValidateSigned(context.Background(), dto.BroadcastInput{
		SignedTransaction: base64.StdEncoding.EncodeToString(raw),
	})
	if appErr == nil || appErr.Code != "transaction_signature_invalid" {
		t.Fatalf("expected transaction_signature_invalid, got %+v", appErr)
	}
}

func TestValidateSignedRejectsGarbage(t *testing.T) {
	_, appErr := newTestEndpoint("http://127.0.0.1:1").ValidateSigned(context.Background(), dto.BroadcastInput{
		SignedTransaction: "%%%",
	})
	if appErr == nil || appErr.Code != "invalid_signed_transaction" {
		t.Fatalf("expected invalid_signed_transaction, got %+v", appErr)
	}
}

func transferTransaction(
	t *testing.T,
	signer solana.PrivateKey,
	amount uint64,
	blockhash byte,
	extra ...solana.Instruction,
) string {
	t.Helper()
	owner := signer.PublicKey()
	transfer, err := token.NewTransferCheckedInstruction(amount, 6, testKey(1), testKey(2), testKey(3), owner, nil).ValidateAndBuild()
	if err != nil {
		t.Fatalf("expected transfer instruction, got %v", err)
	}
	instructions := append([]solana.Instruction{transfer}, extra...)
	instructions = append(instructions, solana.NewInstruction(memoProgramID, solana.AccountMetaSlice{}, []byte("po_1")))
	hash := make([]byte, 32)
	hash[0] = blockhash
	tx, err := solana.NewTransaction(instructions, solana.HashFromBytes(hash), solana.TransactionPayer(owner))
	if err != nil {
		t.Fatalf("expected transaction, got %v", err)
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(owner) {
			return &signer
		}
		return nil
	}); err != nil {
		t.Fatalf("expected signed transaction, got %v", err)
	}
	encoded, err := tx.MarshalBinary()
	if err != nil {
		t.Fatalf("expected serialized transaction, got %v", err)
	}
	return base64.StdEncoding.EncodeToString(encoded)
}

func TestValidateSignedAcceptsPreparedTransferWithFreshBlockhash(t *testing.T) {
	signer, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("expected key, got %v", err)
	}
	prepared := entities.UnsignedTransaction{Payload: transferTransaction(t, signer, 5_000_000, 1)}

	_, appErr := newTestEndpoint("http://127.0.0.1:1").ValidateSigned(context.Background(), dto.BroadcastInput{
		SignedTransaction: transferTransaction(t, signer, 5_000_000, 2),
		ExpectedSigner:    signer.PublicKey().String(),
		Expected:          &prepared,
	})
	if appErr != nil {
		t.Fatalf("expected valid transaction, got %+v", appErr)
	}
}

func TestValidateSignedRejectsTransferThatDiffersFromPrepared(t *testing.T) {
	signer, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("expected key, got %v", err)
	}
	prepared := entities.UnsignedTransaction{Payload: transferTransaction(t, signer, 5_000_000, 1)}
	drain, err := system.NewTransferInstruction(1_000_000, signer.PublicKey(), testKey(9)).ValidateAndBuild()
	if err != nil {
		t.Fatalf("expected system transfer, got %v", err)
	}

	cases := map[string]string{
		"amount":        transferTransaction(t, signer, 9_000_000, 1),
		"extra program": transferTransaction(t, signer, 5_000_000, 1, drain),
		"memo only":     signedMemoTransaction(t, signer),
	}
	for name, signed := range cases {
		_, appErr := newTestEndpoint("http://127.0.0.1:1").ValidateSigned(context.Background(), dto.BroadcastInput{
			SignedTransaction: signed,
			ExpectedSigner:    signer.PublicKey().String(),
			Expected:          &prepared,
		})
		if appErr == nil || appErr.Code != "transaction_mismatch" {
			t.Fatalf("%s: expected transaction_mismatch, got %+v", name, appErr)
		}
	}
}

func TestBroadcastSubmitsRawTransaction(t *testing.T) {
	signer, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("expected key, got %v", err)
	}
	signed := signedMemoTransaction(t, signer)
	raw, _ := base64.StdEncoding.DecodeString(signed)
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		t.Fatalf("expected decodable transaction, got %v", err)
	}

	server := newRPCServer(t, map[string]rpcHandler{
		"sendTransaction": func(params json.RawMessage) any {
			var args []any
			_ = json.Unmarshal(params, &args)
			if len(args) == 0 || args[0] != signed {
				t.Errorf("expected base64 transaction param, got %s", params)
			}
			return tx.Signatures[0].String()
		},
	})

	output, appErr := newTestEndpoint(server.URL).Broadcast(context.Background(), dto.BroadcastInput{
		SignedTransaction: signed,
		ExpectedSigner:    signer.PublicKey().String(),
	})
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if output.Signature != tx.Signatures[0].String() {
		t.Fatalf("expected transaction signature, got %s", output.Signature)
	}
}
