package solanarpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"stablesettle/internal/application/dto"
	"stablesettle/internal/domain/entities"
	valueobjects "stablesettle/internal/domain/value_objects"
	apperrors "stablesettle/internal/shared_kernel/errors"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
)

var (
	memoProgramID          = solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")
	computeBudgetProgramID = solana.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111")
)

// BuildTransfer assembles an SPL TransferChecked from the source wallet's associated token
// account, creating the destination account when it does not exist yet. The payout id is
// attached as a memo. Signature slots are left empty for the wallet to fill.
func (e *Endpoint) BuildTransfer(
	ctx context.Context,
	input dto.BuildUnsignedTransferInput,
) (entities.UnsignedTransaction, *apperrors.AppError) {
	source, appErr := parsePublicKey("source_address", input.SourceAddress)
	if appErr != nil {
		return entities.UnsignedTransaction{}, appErr
	}
	destination, appErr := parsePublicKey("destination_address", input.DestinationAddress)
	if appErr != nil {
		return entities.UnsignedTransaction{}, appErr
	}
	mint, appErr := parsePublicKey("token_id", input.TokenID)
	if appErr != nil {
		return entities.UnsignedTransaction{}, appErr
	}
	if input.RawAmount == nil || input.RawAmount.Sign() <= 0 || !input.RawAmount.IsUint64() {
		return entities.UnsignedTransaction{}, apperrors.NewValidation(
			"invalid_amount",
			"transfer amount must be a positive u64",
			nil,
		)
	}
	if input.Decimals < 0 || input.Decimals > 255 {
		return entities.UnsignedTransaction{}, apperrors.NewValidation(
			"invalid_amount",
			"token decimals are out of range",
			map[string]any{"decimals": input.Decimals},
		)
	}

	sourceAccount, _, err := solana.FindAssociatedTokenAddress(source, mint)
	if err != nil {
		return entities.UnsignedTransaction{}, buildFailed("failed to derive source token account", err)
	}
	destinationAccount, _, err := solana.FindAssociatedTokenAddress(destination, mint)
	if err != nil {
		return entities.UnsignedTransaction{}, buildFailed("failed to derive destination token account", err)
	}

	instructions := []solana.Instruction{}
	exists, appErr := e.accountExists(ctx, destinationAccount)
	if appErr != nil {
		return entities.UnsignedTransaction{}, appErr
	}
	if !exists {
		create, err := associatedtokenaccount.NewCreateInstruction(source, destination, mint).ValidateAndBuild()
		if err != nil {
			return entities.UnsignedTransaction{}, buildFailed("failed to build token account creation", err)
		}
		instructions = append(instructions, create)
	}

	transfer, err := token.NewTransferCheckedInstruction(
		input.RawAmount.Uint64(),
		uint8(input.Decimals),
		sourceAccount,
		mint,
		destinationAccount,
		source,
		nil,
	).ValidateAndBuild()
	if err != nil {
		return entities.UnsignedTransaction{}, buildFailed("failed to build token transfer", err)
	}
	instructions = append(instructions, transfer)
	if reference := strings.TrimSpace(input.Reference); reference != "" {
		instructions = append(instructions, solana.NewInstruction(memoProgramID, solana.AccountMetaSlice{}, []byte(reference)))
	}

	callCtx, cancel := e.callContext(ctx)
	defer cancel()
	latest, err := e.client.GetLatestBlockhash(callCtx, rpc.CommitmentFinalized)
	if err != nil {
		return entities.UnsignedTransaction{}, mapRPCError("getLatestBlockhash", err)
	}

	tx, err := solana.NewTransaction(instructions, latest.Value.Blockhash, solana.TransactionPayer(source))
	if err != nil {
		return entities.UnsignedTransaction{}, buildFailed("failed to assemble transaction", err)
	}
	tx.Signatures = make([]solana.Signature, tx.Message.Header.NumRequiredSignatures)
	encoded, err := tx.MarshalBinary()
	if err != nil {
		return entities.UnsignedTransaction{}, buildFailed("failed to serialize transaction", err)
	}

	return entities.UnsignedTransaction{
		Chain:    valueobjects.ChainSolana,
		Encoding: entities.EncodingSolanaBase64,
		Payload:  base64.StdEncoding.EncodeToString(encoded),
	}, nil
}

func (e *Endpoint) accountExists(ctx context.Context, account solana.PublicKey) (bool, *apperrors.AppError) {
	callCtx, cancel := e.callContext(ctx)
	defer cancel()

	_, err := e.client.GetAccountInfo(callCtx, account)
	if errors.Is(err, rpc.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, mapRPCError("getAccountInfo", err)
	}
	return true, nil
}

// ValidateSigned checks every required signature against the message, that the expected
// wallet is one of the signers and that the token transfer is the one prepared for the
// payout. The wallet may refresh the blockhash or add compute budget instructions.
func (e *Endpoint) ValidateSigned(_ context.Context, input dto.BroadcastInput) (dto.ValidatedTransaction, *apperrors.AppError) {
	tx, _, appErr := decodeSignedTransaction(input)
	if appErr != nil {
		return dto.ValidatedTransaction{}, appErr
	}
	return dto.ValidatedTransaction{Signature: tx.Signatures[0].String()}, nil
}

func (e *Endpoint) Broadcast(
	ctx context.Context,
	input dto.BroadcastInput,
) (dto.BroadcastOutput, *apperrors.AppError) {
	tx, raw, appErr := decodeSignedTransaction(input)
	if appErr != nil {
		return dto.BroadcastOutput{}, appErr
	}

	callCtx, cancel := e.callContext(ctx)
	defer cancel()
	signature, err := e.client.SendRawTransactionWithOpts(callCtx, raw, rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		mapped := mapRPCError("sendTransaction", err)
		if mapped.Code == "chain_rpc_error" {
			return dto.BroadcastOutput{}, apperrors.NewValidation(
				"transaction_rejected",
				"chain rejected the transaction",
				mapped.Details,
			)
		}
		return dto.BroadcastOutput{}, mapped
	}
	if signature.IsZero() {
		signature = tx.Signatures[0]
	}
	return dto.BroadcastOutput{Signature: signature.String()}, nil
}

func decodeSignedTransaction(input dto.BroadcastInput) (*solana.Transaction, []byte, *apperrors.AppError) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(input.SignedTransaction))
	if err != nil || len(raw) == 0 {
		return nil, nil, invalidSignedTransaction("signed transaction must be base64 encoded", err)
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, nil, invalidSignedTransaction("signed transaction could not be decoded", err)
	}

	required := int(tx.Message.Header.NumRequiredSignatures)
	if required == 0 || len(tx.Signatures) < required || len(tx.Message.AccountKeys) < required {
		return nil, nil, invalidSignedTransaction("signed transaction is missing signatures", nil)
	}
	message, err := tx.Message.MarshalBinary()
	if err != nil {
		return nil, nil, invalidSignedTransaction("signed transaction message could not be serialized", err)
	}

	signers := tx.Message.AccountKeys[:required]
	for i, signer := range signers {
		if tx.Signatures[i].IsZero() || !tx.Signatures[i].Verify(signer, message) {
			return nil, nil, apperrors.NewValidation(
				"transaction_signature_invalid",
				"signed transaction carries an invalid signature",
				map[string]any{"signer": signer.String()},
			)
		}
	}

	if expected := strings.TrimSpace(input.ExpectedSigner); expected != "" {
		expectedKey, err := solana.PublicKeyFromBase58(expected)
		if err != nil || !containsKey(signers, expectedKey) {
			return nil, nil, apperrors.NewValidation(
				"signer_mismatch",
				"signed transaction is not signed by the source wallet",
				map[string]any{"expected": expected},
			)
		}
	}
	if input.Expected != nil {
		if appErr := matchPreparedTransfer(tx, *input.Expected); appErr != nil {
			return nil, nil, appErr
		}
	}
	return tx, raw, nil
}

type compiledTokenInstruction struct {
	accounts []solana.PublicKey
	data     []byte
}

// matchPreparedTransfer requires the signed transaction to carry exactly the token
// program instructions of the prepared one, with the same accounts and data.
func matchPreparedTransfer(tx *solana.Transaction, expected entities.UnsignedTransaction) *apperrors.AppError {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(expected.Payload))
	if err != nil {
		return buildFailed("prepared transaction is not base64 encoded", err)
	}
	prepared, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return buildFailed("prepared transaction could not be decoded", err)
	}
	want, err := tokenInstructions(prepared)
	if err != nil {
		return buildFailed("prepared transaction could not be read", err)
	}
	got, err := tokenInstructions(tx)
	if err != nil {
		return transactionMismatch(err.Error())
	}
	if len(got) != len(want) {
		return transactionMismatch("token transfer count differs")
	}
	for i := range want {
		if !bytes.Equal(got[i].data, want[i].data) {
			return transactionMismatch("token transfer amount or kind differs")
		}
		if len(got[i].accounts) != len(want[i].accounts) {
			return transactionMismatch("token transfer accounts differ")
		}
		for j := range want[i].accounts {
			if !got[i].accounts[j].Equals(want[i].accounts[j]) {
				return transactionMismatch("token transfer accounts differ")
			}
		}
	}
	return nil
}

func tokenInstructions(tx *solana.Transaction) ([]compiledTokenInstruction, error) {
	keys := tx.Message.AccountKeys
	resolve := func(index uint16) (solana.PublicKey, error) {
		if int(index) >= len(keys) {
			return solana.PublicKey{}, fmt.Errorf("account index %d is outside the static account keys", index)
		}
		return keys[index], nil
	}

	items := []compiledTokenInstruction{}
	for _, instruction := range tx.Message.Instructions {
		program, err := resolve(instruction.ProgramIDIndex)
		if err != nil {
			return nil, err
		}
		switch {
		case program.Equals(token.ProgramID):
		case program.Equals(solana.SPLAssociatedTokenAccountProgramID),
			program.Equals(memoProgramID),
			program.Equals(computeBudgetProgramID):
			continue
		default:
			return nil, fmt.Errorf("unexpected program %s", program)
		}
		accounts := make([]solana.PublicKey, 0, len(instruction.Accounts))
		for _, index := range instruction.Accounts {
			account, err := resolve(index)
			if err != nil {
				return nil, err
			}
			accounts = append(accounts, account)
		}
		items = append(items, compiledTokenInstruction{accounts: accounts, data: []byte(instruction.Data)})
	}
	return items, nil
}

func transactionMismatch(reason string) *apperrors.AppError {
	return apperrors.NewValidation(
		"transaction_mismatch",
		"signed transaction does not match the prepared payout transfer",
		map[string]any{"reason": reason},
	)
}

func containsKey(keys []solana.PublicKey, target solana.PublicKey) bool {
	for _, key := range keys {
		if key.Equals(target) {
			return true
		}
	}
	return false
}

func parsePublicKey(field string, raw string) (solana.PublicKey, *apperrors.AppError) {
	key, err := solana.PublicKeyFromBase58(strings.TrimSpace(raw))
	if err != nil {
		return solana.PublicKey{}, apperrors.NewValidation(
			"invalid_address",
			field+" is not a valid solana address",
			map[string]any{"field": field, "value": raw},
		)
	}
	return key, nil
}

func invalidSignedTransaction(message string, err error) *apperrors.AppError {
	details := map[string]any{}
	if err != nil {
		details["error"] = err.Error()
	}
	return apperrors.NewValidation("invalid_signed_transaction", message, details)
}

func buildFailed(message string, err error) *apperrors.AppError {
	return apperrors.NewInternal(
		"unsigned_transaction_build_failed",
		message,
		map[string]any{"error": err.Error()},
	)
}

func describeTransactionError(value any) string {
	if text, ok := value.(string); ok {
		return text
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(encoded)
}
