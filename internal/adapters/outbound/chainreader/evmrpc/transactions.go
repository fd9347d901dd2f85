package evmrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"strings"

	"stablesettle/internal/application/dto"
	"stablesettle/internal/domain/entities"
	valueobjects "stablesettle/internal/domain/value_objects"
	apperrors "stablesettle/internal/shared_kernel/errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// callPayload is the unsigned ERC-20 transfer handed to the merchant's signer. Gas
// fields are left for the signer to fill.
type callPayload struct {
	ChainID   string `json:"chain_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Value     string `json:"value"`
	Data      string `json:"data"`
	Nonce     string `json:"nonce"`
	Reference string `json:"reference,omitempty"`
}

func (e *Endpoint) BuildTransfer(
	ctx context.Context,
	input dto.BuildUnsignedTransferInput,
) (entities.UnsignedTransaction, *apperrors.AppError) {
	source, ok := parseAddress(input.SourceAddress)
	if !ok {
		return entities.UnsignedTransaction{}, invalidTransferField("source_address", input.SourceAddress)
	}
	destination, ok := parseAddress(input.DestinationAddress)
	if !ok {
		return entities.UnsignedTransaction{}, invalidTransferField("destination_address", input.DestinationAddress)
	}
	contract, ok := parseAddress(input.TokenID)
	if !ok {
		return entities.UnsignedTransaction{}, invalidTransferField("token_id", input.TokenID)
	}
	if input.RawAmount == nil || input.RawAmount.Sign() <= 0 || input.RawAmount.BitLen() > 256 {
		return entities.UnsignedTransaction{}, apperrors.NewValidation(
			"invalid_amount",
			"transfer amount must be a positive uint256",
			nil,
		)
	}
	if appErr := e.ready(); appErr != nil {
		return entities.UnsignedTransaction{}, appErr
	}

	callCtx, cancel := e.callContext(ctx)
	defer cancel()
	nonce, err := e.eth.PendingNonceAt(callCtx, source)
	if err != nil {
		return entities.UnsignedTransaction{}, mapRPCError("eth_getTransactionCount", err)
	}

	encoded, err := json.Marshal(callPayload{
		ChainID:   hexutil.EncodeUint64(uint64(e.chainID)),
		From:      lowerHex(source),
		To:        lowerHex(contract),
		Value:     "0x0",
		Data:      hexutil.Encode(transferCalldata(destination, input.RawAmount)),
		Nonce:     hexutil.EncodeUint64(nonce),
		Reference: input.Reference,
	})
	if err != nil {
		return entities.UnsignedTransaction{}, apperrors.NewInternal(
			"unsigned_transaction_encode_failed",
			"failed to encode unsigned transaction",
			map[string]any{"error": err.Error()},
		)
	}

	return entities.UnsignedTransaction{
		Chain:    valueobjects.Chain(e.chainName(input.Chain)),
		Encoding: entities.EncodingEVMCallJSON,
		Payload:  string(encoded),
	}, nil
}

func transferCalldata(destination common.Address, amount *big.Int) []byte {
	data := make([]byte, 0, 4+64)
	data = append(data, transferSelector...)
	data = append(data, common.LeftPadBytes(destination.Bytes(), 32)...)
	return append(data, common.LeftPadBytes(amount.Bytes(), 32)...)
}

// ValidateSigned recovers the sender of a raw signed transaction and checks it against
// the expected source wallet, the configured chain id and the prepared transfer call.
// Nonce and gas are the signer's choice.
func (e *Endpoint) ValidateSigned(_ context.Context, input dto.BroadcastInput) (dto.ValidatedTransaction, *apperrors.AppError) {
	tx, appErr := e.decodeAndCheck(input)
	if appErr != nil {
		return dto.ValidatedTransaction{}, appErr
	}
	return dto.ValidatedTransaction{Signature: tx.Hash().Hex()}, nil
}

func (e *Endpoint) Broadcast(
	ctx context.Context,
	input dto.BroadcastInput,
) (dto.BroadcastOutput, *apperrors.AppError) {
	tx, appErr := e.decodeAndCheck(input)
	if appErr != nil {
		return dto.BroadcastOutput{}, appErr
	}
	if appErr := e.ready(); appErr != nil {
		return dto.BroadcastOutput{}, appErr
	}

	callCtx, cancel := e.callContext(ctx)
	defer cancel()
	if err := e.eth.SendTransaction(callCtx, tx); err != nil {
		mapped := mapRPCError("eth_sendRawTransaction", err)
		if mapped.Code != "chain_rpc_error" {
			return dto.BroadcastOutput{}, mapped
		}
		// The node already holds this exact transaction in its pool.
		if strings.Contains(strings.ToLower(err.Error()), "already known") {
			return dto.BroadcastOutput{Signature: tx.Hash().Hex()}, nil
		}
		return dto.BroadcastOutput{}, apperrors.NewValidation(
			"transaction_rejected",
			"chain rejected the transaction",
			mapped.Details,
		)
	}
	return dto.BroadcastOutput{Signature: tx.Hash().Hex()}, nil
}

func (e *Endpoint) decodeAndCheck(input dto.BroadcastInput) (*types.Transaction, *apperrors.AppError) {
	encoded := strings.TrimSpace(input.SignedTransaction)
	if encoded != "" && !strings.HasPrefix(encoded, "0x") && !strings.HasPrefix(encoded, "0X") {
		encoded = "0x" + encoded
	}
	raw, err := hexutil.Decode(encoded)
	if err != nil || len(raw) == 0 {
		return nil, apperrors.NewValidation(
			"invalid_signed_transaction",
			"signed transaction must be hex encoded",
			nil,
		)
	}
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return nil, invalidSignedTransaction("signed transaction could not be decoded", err)
	}

	if e.chainID > 0 && tx.Protected() && tx.ChainId().Cmp(big.NewInt(e.chainID)) != 0 {
		return nil, apperrors.NewValidation(
			"chain_id_mismatch",
			"signed transaction targets a different chain",
			map[string]any{"expected": e.chainID, "actual": tx.ChainId().String()},
		)
	}
	sender, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return nil, invalidSignedTransaction("signed transaction signature could not be recovered", err)
	}
	if expected, ok := parseAddress(input.ExpectedSigner); ok && expected != sender {
		return nil, apperrors.NewValidation(
			"signer_mismatch",
			"signed transaction is not signed by the source wallet",
			map[string]any{"expected": lowerHex(expected), "actual": lowerHex(sender)},
		)
	}
	if input.Expected != nil {
		if appErr := matchPreparedCall(tx, *input.Expected); appErr != nil {
			return nil, appErr
		}
	}
	return tx, nil
}

// matchPreparedCall requires the signed transaction to call the same token contract with
// the same calldata and no ether value.
func matchPreparedCall(tx *types.Transaction, expected entities.UnsignedTransaction) *apperrors.AppError {
	prepared := callPayload{}
	if err := json.Unmarshal([]byte(expected.Payload), &prepared); err != nil {
		return apperrors.NewInternal(
			"unsigned_transaction_decode_failed",
			"prepared transaction could not be decoded",
			map[string]any{"error": err.Error()},
		)
	}
	contract, ok := parseAddress(prepared.To)
	data, err := hexutil.Decode(prepared.Data)
	if !ok || err != nil {
		return apperrors.NewInternal(
			"unsigned_transaction_decode_failed",
			"prepared transaction has an invalid call",
			map[string]any{"to": prepared.To},
		)
	}

	switch {
	case tx.To() == nil || *tx.To() != contract:
		return transactionMismatch("token contract differs")
	case !bytes.Equal(tx.Data(), data):
		return transactionMismatch("transfer recipient or amount differs")
	case tx.Value().Sign() != 0:
		return transactionMismatch("transaction carries ether value")
	}
	return nil
}

func (e *Endpoint) chainName(requested string) string {
	if e.chain != "" {
		return e.chain
	}
	return strings.ToLower(strings.TrimSpace(requested))
}

func invalidTransferField(field string, value string) *apperrors.AppError {
	return apperrors.NewValidation(
		"invalid_address",
		field+" is not a valid evm address",
		map[string]any{"field": field, "value": value},
	)
}

func invalidSignedTransaction(message string, err error) *apperrors.AppError {
	return apperrors.NewValidation(
		"invalid_signed_transaction",
		message,
		map[string]any{"error": err.Error()},
	)
}

func transactionMismatch(reason string) *apperrors.AppError {
	return apperrors.NewValidation(
		"transaction_mismatch",
		"signed transaction does not match the prepared payout transfer",
		map[string]any{"reason": reason},
	)
}
