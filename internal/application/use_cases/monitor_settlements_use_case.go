package use_cases

import (
	"context"
	"time"

	"stablesettle/internal/application/dto"
	portsin "stablesettle/internal/application/ports/in"
	portsout "stablesettle/internal/application/ports/out"
	"stablesettle/internal/domain/entities"
	"stablesettle/internal/domain/policies"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

const (
	defaultTransferLookupLimit = 20

	codeTxSignatureAlreadyBound = "tx_signature_already_bound"
)

type monitorSettlementsUseCase struct {
	repository portsout.PaymentIntentRepository
	reader     portsout.ChainReaderGateway
	clock      Clock
}

func NewMonitorSettlementsUseCase(
	repository portsout.PaymentIntentRepository,
	reader portsout.ChainReaderGateway,
	clock Clock,
) portsin.MonitorSettlementsUseCase {
	return &monitorSettlementsUseCase{repository: repository, reader: reader, clock: clock}
}

func (u *monitorSettlementsUseCase) Execute(
	ctx context.Context,
	command dto.MonitorSettlementsCommand,
) (dto.MonitorSettlementsOutput, *apperrors.AppError) {
	if u.repository == nil {
		return dto.MonitorSettlementsOutput{}, missingDependency("payment_intent_repository_missing", "payment intent repository is required")
	}
	if u.reader == nil {
		return dto.MonitorSettlementsOutput{}, missingDependency("chain_reader_gateway_missing", "chain reader gateway is required")
	}
	if command.BatchSize <= 0 {
		return dto.MonitorSettlementsOutput{}, apperrors.NewValidation(
			"settlement_batch_size_invalid",
			"settlement batch size must be greater than zero",
			map[string]any{"batch_size": command.BatchSize},
		)
	}
	lookupLimit := command.TransferLookupLimit
	if lookupLimit <= 0 {
		lookupLimit = defaultTransferLookupLimit
	}

	now := resolveNow(u.clock, command.Now)
	intents, appErr := u.repository.ListPendingForMatching(ctx, now, command.BatchSize)
	if appErr != nil {
		return dto.MonitorSettlementsOutput{}, appErr
	}

	output := dto.MonitorSettlementsOutput{Scanned: len(intents)}
	for _, intent := range intents {
		if !intent.IsOpenForMatching(now) {
			output.Skipped++
			continue
		}

		transfers, readErr := u.recentTransfers(ctx, intent, lookupLimit, command.ChainCallTimeout)
		if readErr != nil {
			if readErr.Transient() {
				output.TransientError++
			} else {
				output.Errors++
			}
			continue
		}

		outcome, markErr := u.bindFirstUnclaimed(ctx, intent, matchingTransfers(intent, transfers), now)
		if markErr != nil {
			return output, markErr
		}
		switch outcome {
		case bindMatched:
			output.Matched++
		case bindSkipped:
			output.Skipped++
		}
	}

	return output, nil
}

func (u *monitorSettlementsUseCase) recentTransfers(
	ctx context.Context,
	intent entities.PaymentIntent,
	limit int,
	timeout time.Duration,
) ([]dto.ObservedTransfer, *apperrors.AppError) {
	callCtx, cancel := withOptionalTimeout(ctx, timeout)
	defer cancel()
	return u.reader.RecentTransfers(callCtx, dto.RecentTransfersInput{
		Chain:   intent.Chain.String(),
		Address: intent.PaymentAddress,
		Limit:   limit,
	})
}

type bindOutcome int

const (
	bindNone bindOutcome = iota
	bindMatched
	bindSkipped
)

// bindFirstUnclaimed binds the intent to the first candidate whose signature no other
// intent holds yet.
func (u *monitorSettlementsUseCase) bindFirstUnclaimed(
	ctx context.Context,
	intent entities.PaymentIntent,
	candidates []dto.ObservedTransfer,
	now time.Time,
) (bindOutcome, *apperrors.AppError) {
	if len(candidates) == 0 {
		return bindNone, nil
	}
	for _, transfer := range candidates {
		updated, markErr := u.repository.MarkProcessing(ctx, dto.MarkPaymentIntentProcessingInput{
			ID:            intent.ID,
			TxSignature:   transfer.Signature,
			Confirmations: 1,
			Now:           now,
		})
		if markErr != nil {
			if markErr.Type == apperrors.TypeConflict && markErr.Code == codeTxSignatureAlreadyBound {
				continue
			}
			if markErr.Type == apperrors.TypeConflict {
				return bindSkipped, nil
			}
			return bindNone, markErr
		}
		if !updated {
			return bindSkipped, nil
		}
		return bindMatched, nil
	}
	return bindSkipped, nil
}

// matchingTransfers keeps transfers that satisfy the intent and were observed no earlier
// than the intent was created, in the order the chain reported them.
func matchingTransfers(intent entities.PaymentIntent, transfers []dto.ObservedTransfer) []dto.ObservedTransfer {
	criteria := policies.TransferMatchCriteria{
		PaymentAddress: intent.PaymentAddress,
		TokenID:        intent.ExpectedTokenMint,
		Amount:         intent.Amount,
	}
	matches := []dto.ObservedTransfer{}
	for _, transfer := range transfers {
		if transfer.Signature == "" {
			continue
		}
		if !transfer.ObservedAt.IsZero() && transfer.ObservedAt.Before(intent.CreatedAt) {
			continue
		}
		if policies.MatchesTransfer(criteria, policies.ObservedTransfer{
			ToAddress: transfer.ToAddress,
			TokenID:   transfer.TokenID,
			RawAmount: transfer.RawAmount,
			Decimals:  transfer.Decimals,
		}) {
			matches = append(matches, transfer)
		}
	}
	return matches
}
