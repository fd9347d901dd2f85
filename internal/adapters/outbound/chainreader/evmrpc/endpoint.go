package evmrpc

import (
	"bytes"
	"context"
	"math/big"
	"net/http"
	"sort"
	"strings"
	"time"

	"stablesettle/internal/application/dto"
	apperrors "stablesettle/internal/shared_kernel/errors"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

const (
	DefaultLogLookbackBlocks uint64 = 5000
	defaultCallTimeout              = 10 * time.Second
)

var (
	transferEventTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))
	transferSelector   = crypto.Keccak256([]byte("transfer(address,uint256)"))[:4]
)

type Config struct {
	Chain             string
	RPCURL            string
	ChainID           int64
	LogLookbackBlocks uint64
	// Tokens lists the ERC-20 deployments watched on this chain.
	Tokens      []dto.TokenInfo
	CallTimeout time.Duration
	HTTPClient  *http.Client
}

// Endpoint reads ERC-20 transfers from and submits transactions to one EVM JSON-RPC URL.
type Endpoint struct {
	chain       string
	rpcURL      string
	chainID     int64
	lookback    uint64
	tokens      map[common.Address]dto.TokenInfo
	callTimeout time.Duration
	rpc         *rpc.Client
	eth         *ethclient.Client
	dialErr     error
	now         func() time.Time
}

// NewEndpoint prepares the client without contacting the node. A malformed URL surfaces
// on the first call.
func NewEndpoint(cfg Config) *Endpoint {
	lookback := cfg.LogLookbackBlocks
	if lookback == 0 {
		lookback = DefaultLogLookbackBlocks
	}
	callTimeout := cfg.CallTimeout
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}
	tokens := map[common.Address]dto.TokenInfo{}
	for _, token := range cfg.Tokens {
		if cfg.Chain != "" && !strings.EqualFold(token.Chain, cfg.Chain) {
			continue
		}
		contract, ok := parseAddress(token.TokenID)
		if !ok {
			continue
		}
		token.TokenID = lowerHex(contract)
		tokens[contract] = token
	}

	endpoint := &Endpoint{
		chain:       strings.ToLower(strings.TrimSpace(cfg.Chain)),
		rpcURL:      strings.TrimSpace(cfg.RPCURL),
		chainID:     cfg.ChainID,
		lookback:    lookback,
		tokens:      tokens,
		callTimeout: callTimeout,
		now:         time.Now,
	}
	options := []rpc.ClientOption{}
	if cfg.HTTPClient != nil {
		options = append(options, rpc.WithHTTPClient(cfg.HTTPClient))
	}
	client, err := rpc.DialOptions(context.Background(), endpoint.rpcURL, options...)
	if err != nil {
		endpoint.dialErr = err
		return endpoint
	}
	endpoint.rpc = client
	endpoint.eth = ethclient.NewClient(client)
	return endpoint
}

func (e *Endpoint) URL() string {
	return e.rpcURL
}

// RecentTransfers returns watched-token Transfer logs into address, newest first.
func (e *Endpoint) RecentTransfers(
	ctx context.Context,
	input dto.RecentTransfersInput,
) ([]dto.ObservedTransfer, *apperrors.AppError) {
	address, ok := parseAddress(input.Address)
	if !ok {
		return nil, apperrors.NewValidation(
			"invalid_address",
			"address is not a valid evm address",
			map[string]any{"address": input.Address},
		)
	}
	if len(e.tokens) == 0 {
		return nil, nil
	}
	if appErr := e.ready(); appErr != nil {
		return nil, appErr
	}

	latest, appErr := e.blockNumber(ctx)
	if appErr != nil {
		return nil, appErr
	}
	fromBlock := uint64(0)
	if latest > e.lookback {
		fromBlock = latest - e.lookback
	}

	contracts := make([]common.Address, 0, len(e.tokens))
	for contract := range e.tokens {
		contracts = append(contracts, contract)
	}
	sort.Slice(contracts, func(i, j int) bool {
		return bytes.Compare(contracts[i].Bytes(), contracts[j].Bytes()) < 0
	})

	callCtx, cancel := e.callContext(ctx)
	defer cancel()
	logs, err := e.eth.FilterLogs(callCtx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(latest),
		Addresses: contracts,
		Topics:    [][]common.Hash{{transferEventTopic}, nil, {addressTopic(address)}},
	})
	if err != nil {
		return nil, mapRPCError("eth_getLogs", err)
	}

	transfers := make([]dto.ObservedTransfer, 0, len(logs))
	blocks := make([]uint64, 0, len(logs))
	for i := len(logs) - 1; i >= 0; i-- {
		entry := logs[i]
		if entry.Removed || len(entry.Topics) < 3 || entry.Topics[0] != transferEventTopic {
			continue
		}
		token, known := e.tokens[entry.Address]
		if !known {
			continue
		}
		transfers = append(transfers, dto.ObservedTransfer{
			Signature:   entry.TxHash.Hex(),
			FromAddress: lowerHex(common.BytesToAddress(entry.Topics[1].Bytes())),
			ToAddress:   lowerHex(common.BytesToAddress(entry.Topics[2].Bytes())),
			TokenID:     token.TokenID,
			RawAmount:   new(big.Int).SetBytes(entry.Data),
			Decimals:    token.Decimals,
		})
		blocks = append(blocks, entry.BlockNumber)
		if input.Limit > 0 && len(transfers) >= input.Limit {
			break
		}
	}

	times := make(map[uint64]time.Time, len(blocks))
	for i, number := range blocks {
		observedAt, seen := times[number]
		if !seen {
			observedAt, appErr = e.blockTime(ctx, number)
			if appErr != nil {
				return nil, appErr
			}
			times[number] = observedAt
		}
		transfers[i].ObservedAt = observedAt
	}
	return transfers, nil
}

// blockTime returns the timestamp of block number, or the current time when the node no
// longer has the block.
func (e *Endpoint) blockTime(ctx context.Context, number uint64) (time.Time, *apperrors.AppError) {
	callCtx, cancel := e.callContext(ctx)
	defer cancel()
	var header *struct {
		Timestamp hexutil.Uint64 `json:"timestamp"`
	}
	if err := e.rpc.CallContext(callCtx, &header, "eth_getBlockByNumber", hexutil.EncodeUint64(number), false); err != nil {
		return time.Time{}, mapRPCError("eth_getBlockByNumber", err)
	}
	if header == nil {
		return e.now().UTC(), nil
	}
	return time.Unix(int64(header.Timestamp), 0).UTC(), nil
}

// receiptSummary holds the receipt fields TransferStatus reads.
type receiptSummary struct {
	Status      *hexutil.Uint64 `json:"status"`
	BlockNumber *hexutil.Big    `json:"blockNumber"`
}

// TransferStatus counts confirmations from the receipt block to the chain head. EVM
// chains are never reported as finalized; the confirmation threshold decides.
func (e *Endpoint) TransferStatus(
	ctx context.Context,
	input dto.TransferStatusInput,
) (dto.TransferStatus, *apperrors.AppError) {
	if appErr := e.ready(); appErr != nil {
		return dto.TransferStatus{}, appErr
	}
	signature := strings.ToLower(strings.TrimSpace(input.Signature))
	if !strings.HasPrefix(signature, "0x") {
		signature = "0x" + signature
	}

	callCtx, cancel := e.callContext(ctx)
	defer cancel()
	var receipt *receiptSummary
	if err := e.rpc.CallContext(callCtx, &receipt, "eth_getTransactionReceipt", signature); err != nil {
		return dto.TransferStatus{}, mapRPCError("eth_getTransactionReceipt", err)
	}
	if receipt == nil {
		return dto.TransferStatus{}, transactionNotFound(signature)
	}
	if receipt.BlockNumber == nil {
		return dto.TransferStatus{}, nil
	}

	receiptBlock := receipt.BlockNumber.ToInt().Uint64()
	latest, appErr := e.blockNumber(ctx)
	if appErr != nil {
		return dto.TransferStatus{}, appErr
	}

	confirmations := int64(1)
	if latest >= receiptBlock {
		confirmations = int64(latest-receiptBlock) + 1
	}
	status := dto.TransferStatus{Confirmations: confirmations}
	if receipt.Status != nil && uint64(*receipt.Status) == 0 {
		status.Failed = true
		status.FailureReason = "transaction reverted"
	}
	return status, nil
}

func (e *Endpoint) blockNumber(ctx context.Context) (uint64, *apperrors.AppError) {
	callCtx, cancel := e.callContext(ctx)
	defer cancel()
	latest, err := e.eth.BlockNumber(callCtx)
	if err != nil {
		return 0, mapRPCError("eth_blockNumber", err)
	}
	return latest, nil
}

func (e *Endpoint) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.callTimeout)
}

func (e *Endpoint) ready() *apperrors.AppError {
	if e.dialErr == nil {
		return nil
	}
	return apperrors.NewInternal(
		"chain_rpc_url_invalid",
		"rpc url could not be used",
		map[string]any{"url": e.rpcURL, "error": e.dialErr.Error()},
	)
}

func parseAddress(raw string) (common.Address, bool) {
	trimmed := strings.TrimSpace(raw)
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, false
	}
	return common.HexToAddress(trimmed), true
}

// lowerHex renders an address the way addresses are stored: lowercase with 0x.
func lowerHex(address common.Address) string {
	return strings.ToLower(address.Hex())
}

// addressTopic left-pads an address to a 32-byte log topic.
func addressTopic(address common.Address) common.Hash {
	return common.BytesToHash(address.Bytes())
}

func transactionNotFound(signature string) *apperrors.AppError {
	return apperrors.NewNotFound(
		"chain_transaction_not_found",
		"transaction was not found on chain",
		map[string]any{"signature": signature},
	)
}
