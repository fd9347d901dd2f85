package solanarpc

import (
	"context"
	"math/big"
	"sort"
	"strings"
	"time"

	"stablesettle/internal/application/dto"
	apperrors "stablesettle/internal/shared_kernel/errors"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

const (
	defaultCallTimeout           = 10 * time.Second
	defaultLookupLimit           = 20
	finalizedConfirmations int64 = 32
)

type Config struct {
	RPCURL string
	// Tokens lists the SPL mints watched on this cluster.
	Tokens      []dto.TokenInfo
	CallTimeout time.Duration
}

// Endpoint reads SPL token transfers from and submits transactions to one Solana RPC URL.
type Endpoint struct {
	rpcURL      string
	client      *rpc.Client
	mints       map[solana.PublicKey]dto.TokenInfo
	mintOrder   []solana.PublicKey
	callTimeout time.Duration
	now         func() time.Time
}

func NewEndpoint(cfg Config) *Endpoint {
	callTimeout := cfg.CallTimeout
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}

	mints := map[solana.PublicKey]dto.TokenInfo{}
	order := []solana.PublicKey{}
	for _, token := range cfg.Tokens {
		if token.Chain != "" && !strings.EqualFold(token.Chain, "solana") {
			continue
		}
		mint, err := solana.PublicKeyFromBase58(strings.TrimSpace(token.TokenID))
		if err != nil {
			continue
		}
		if _, exists := mints[mint]; !exists {
			order = append(order, mint)
		}
		token.TokenID = mint.String()
		mints[mint] = token
	}

	rpcURL := strings.TrimSpace(cfg.RPCURL)
	return &Endpoint{
		rpcURL:      rpcURL,
		client:      rpc.New(rpcURL),
		mints:       mints,
		mintOrder:   order,
		callTimeout: callTimeout,
		now:         time.Now,
	}
}

func (e *Endpoint) URL() string {
	return e.rpcURL
}

func (e *Endpoint) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.callTimeout)
}

// RecentTransfers returns incoming transfers of watched mints to the owner address,
// newest first. Signatures are read for the owner and for each of its associated token
// accounts; the transfers come from pre/post token balance deltas.
func (e *Endpoint) RecentTransfers(
	ctx context.Context,
	input dto.RecentTransfersInput,
) ([]dto.ObservedTransfer, *apperrors.AppError) {
	owner, err := solana.PublicKeyFromBase58(strings.TrimSpace(input.Address))
	if err != nil {
		return nil, apperrors.NewValidation(
			"invalid_address",
			"address is not a valid solana address",
			map[string]any{"address": input.Address},
		)
	}
	if len(e.mints) == 0 {
		return nil, nil
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultLookupLimit
	}

	accounts := []solana.PublicKey{owner}
	for _, mint := range e.mintOrder {
		tokenAccount, _, err := solana.FindAssociatedTokenAddress(owner, mint)
		if err != nil {
			continue
		}
		accounts = append(accounts, tokenAccount)
	}

	seen := map[solana.Signature]bool{}
	candidates := []*rpc.TransactionSignature{}
	for _, account := range accounts {
		callCtx, cancel := e.callContext(ctx)
		found, err := e.client.GetSignaturesForAddressWithOpts(callCtx, account, &rpc.GetSignaturesForAddressOpts{
			Limit:      &limit,
			Commitment: rpc.CommitmentConfirmed,
		})
		cancel()
		if err != nil {
			return nil, mapRPCError("getSignaturesForAddress", err)
		}
		for _, candidate := range found {
			if candidate == nil || candidate.Err != nil || seen[candidate.Signature] {
				continue
			}
			seen[candidate.Signature] = true
			candidates = append(candidates, candidate)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Slot > candidates[j].Slot
	})

	transfers := []dto.ObservedTransfer{}
	for _, candidate := range candidates {
		if len(transfers) >= limit {
			break
		}
		result, appErr := e.getTransaction(ctx, candidate.Signature)
		if appErr != nil {
			if appErr.Type == apperrors.TypeNotFound {
				continue
			}
			return nil, appErr
		}
		observedAt := e.now().UTC()
		if result.BlockTime != nil {
			observedAt = result.BlockTime.Time().UTC()
		} else if candidate.BlockTime != nil {
			observedAt = candidate.BlockTime.Time().UTC()
		}
		transfers = append(transfers, e.incomingTransfers(result, candidate.Signature, owner, observedAt)...)
	}
	if len(transfers) > limit {
		transfers = transfers[:limit]
	}
	return transfers, nil
}

func (e *Endpoint) getTransaction(
	ctx context.Context,
	signature solana.Signature,
) (*rpc.GetTransactionResult, *apperrors.AppError) {
	callCtx, cancel := e.callContext(ctx)
	defer cancel()

	maxVersion := uint64(0)
	result, err := e.client.GetTransaction(callCtx, signature, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		return nil, mapRPCError("getTransaction", err)
	}
	if result == nil {
		return nil, mapRPCError("getTransaction", rpc.ErrNotFound)
	}
	return result, nil
}

func (e *Endpoint) incomingTransfers(
	result *rpc.GetTransactionResult,
	signature solana.Signature,
	owner solana.PublicKey,
	observedAt time.Time,
) []dto.ObservedTransfer {
	if result.Meta == nil || result.Meta.Err != nil {
		return nil
	}

	pre := map[uint16]rpc.TokenBalance{}
	for _, balance := range result.Meta.PreTokenBalances {
		pre[balance.AccountIndex] = balance
	}
	post := map[uint16]rpc.TokenBalance{}
	for _, balance := range result.Meta.PostTokenBalances {
		post[balance.AccountIndex] = balance
	}

	transfers := []dto.ObservedTransfer{}
	for _, balance := range result.Meta.PostTokenBalances {
		token, watched := e.mints[balance.Mint]
		if !watched || balance.Owner == nil || !balance.Owner.Equals(owner) {
			continue
		}
		delta := new(big.Int).Sub(tokenAmount(balance), tokenAmount(pre[balance.AccountIndex]))
		if delta.Sign() <= 0 {
			continue
		}
		decimals := token.Decimals
		if balance.UiTokenAmount != nil {
			decimals = int(balance.UiTokenAmount.Decimals)
		}
		transfers = append(transfers, dto.ObservedTransfer{
			Signature:   signature.String(),
			FromAddress: senderOf(result.Meta.PreTokenBalances, post, balance.Mint, owner),
			ToAddress:   owner.String(),
			TokenID:     balance.Mint.String(),
			RawAmount:   delta,
			Decimals:    decimals,
			ObservedAt:  observedAt,
		})
	}
	return transfers
}

// senderOf returns the owner whose balance of mint decreased, or "" when none did.
func senderOf(
	pre []rpc.TokenBalance,
	post map[uint16]rpc.TokenBalance,
	mint solana.PublicKey,
	recipient solana.PublicKey,
) string {
	for _, balance := range pre {
		if balance.Mint != mint || balance.Owner == nil || balance.Owner.Equals(recipient) {
			continue
		}
		if tokenAmount(post[balance.AccountIndex]).Cmp(tokenAmount(balance)) < 0 {
			return balance.Owner.String()
		}
	}
	return ""
}

func tokenAmount(balance rpc.TokenBalance) *big.Int {
	amount := new(big.Int)
	if balance.UiTokenAmount == nil {
		return amount
	}
	if _, ok := amount.SetString(strings.TrimSpace(balance.UiTokenAmount.Amount), 10); !ok {
		return new(big.Int)
	}
	return amount
}

// TransferStatus maps signature status to confirmations. A finalized (rooted) signature
// is reported as finalized regardless of the confirmation count.
func (e *Endpoint) TransferStatus(
	ctx context.Context,
	input dto.TransferStatusInput,
) (dto.TransferStatus, *apperrors.AppError) {
	signature, err := solana.SignatureFromBase58(strings.TrimSpace(input.Signature))
	if err != nil {
		return dto.TransferStatus{}, apperrors.NewValidation(
			"invalid_signature",
			"signature is not a valid solana signature",
			map[string]any{"signature": input.Signature},
		)
	}

	callCtx, cancel := e.callContext(ctx)
	defer cancel()
	result, err := e.client.GetSignatureStatuses(callCtx, true, signature)
	if err != nil {
		return dto.TransferStatus{}, mapRPCError("getSignatureStatuses", err)
	}
	if result == nil || len(result.Value) == 0 || result.Value[0] == nil {
		return dto.TransferStatus{}, mapRPCError("getSignatureStatuses", rpc.ErrNotFound)
	}

	current := result.Value[0]
	status := dto.TransferStatus{}
	switch current.ConfirmationStatus {
	case rpc.ConfirmationStatusFinalized:
		status.Finalized = true
		status.Confirmations = finalizedConfirmations
	case rpc.ConfirmationStatusConfirmed:
		status.Confirmations = 1
		if current.Confirmations != nil {
			status.Confirmations += int64(*current.Confirmations)
		}
	}
	if current.Err != nil {
		status.Failed = true
		status.FailureReason = describeTransactionError(current.Err)
	}
	return status, nil
}
