package use_cases

import (
	"context"
	"strings"
	"time"

	"stablesettle/internal/application/dto"
	portsin "stablesettle/internal/application/ports/in"
	portsout "stablesettle/internal/application/ports/out"
	"stablesettle/internal/domain/entities"
	"stablesettle/internal/domain/policies"
	valueobjects "stablesettle/internal/domain/value_objects"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

const defaultTransferFailureReason = "transaction_failed_onchain"

type finalizeSettlementsUseCase struct {
	repository  portsout.PaymentIntentRepository
	settlements portsout.SettlementRepository
	reader      portsout.ChainReaderGateway
	events      *WebhookEventFactory
	ids         IDGenerator
	clock       Clock
}

func NewFinalizeSettlementsUseCase(
	repository portsout.PaymentIntentRepository,
	settlements portsout.SettlementRepository,
	reader portsout.ChainReaderGateway,
	events *WebhookEventFactory,
	ids IDGenerator,
	clock Clock,
) portsin.FinalizeSettlementsUseCase {
	ids = idsOrDefault(ids)
	return &finalizeSettlementsUseCase{
		repository:  repository,
		settlements: settlements,
		reader:      reader,
		events:      eventFactoryOrDefault(events, ids),
		ids:         ids,
		clock:       clock,
	}
}

func (u *finalizeSettlementsUseCase) Execute(
	ctx context.Context,
	command dto.FinalizeSettlementsCommand,
) (dto.FinalizeSettlementsOutput, *apperrors.AppError) {
	if u.repository == nil {
		return dto.FinalizeSettlementsOutput{}, missingDependency("payment_intent_repository_missing", "payment intent repository is required")
	}
	if u.settlements == nil {
		return dto.FinalizeSettlementsOutput{}, missingDependency("settlement_repository_missing", "settlement repository is required")
	}
	if u.reader == nil {
		return dto.FinalizeSettlementsOutput{}, missingDependency("chain_reader_gateway_missing", "chain reader gateway is required")
	}
	if command.BatchSize <= 0 {
		return dto.FinalizeSettlementsOutput{}, apperrors.NewValidation(
			"settlement_batch_size_invalid",
			"settlement batch size must be greater than zero",
			map[string]any{"batch_size": command.BatchSize},
		)
	}

	now := resolveNow(u.clock, command.Now)
	intents, appErr := u.repository.ListProcessing(ctx, command.BatchSize)
	if appErr != nil {
		return dto.FinalizeSettlementsOutput{}, appErr
	}

	output := dto.FinalizeSettlementsOutput{Scanned: len(intents)}
	for _, intent := range intents {
		if intent.TxSignature == nil || strings.TrimSpace(*intent.TxSignature) == "" {
			output.Skipped++
			continue
		}

		callCtx, cancel := withOptionalTimeout(ctx, command.ChainCallTimeout)
		status, readErr := u.reader.TransferStatus(callCtx, dto.TransferStatusInput{
			Chain:     intent.Chain.String(),
			Signature: *intent.TxSignature,
		})
		cancel()
		if readErr != nil {
			switch {
			case readErr.Type == apperrors.TypeNotFound:
				output.Skipped++
			case readErr.Transient():
				output.TransientError++
			default:
				output.Errors++
			}
			continue
		}

		if status.Failed {
			failed, stepErr := u.failSettlement(ctx, intent, status, now)
			if stepErr != nil {
				return output, stepErr
			}
			if failed {
				output.Failed++
			} else {
				output.Skipped++
			}
			continue
		}

		if !policies.IsSettlementFinal(status.Confirmations, status.Finalized, command.FinalityConfirmations) {
			if status.Confirmations > intent.Confirmations {
				if _, updateErr := u.repository.UpdateConfirmations(ctx, intent.ID, status.Confirmations, now); updateErr != nil {
					return output, updateErr
				}
			}
			output.Confirming++
			continue
		}

		completed, stepErr := u.completeSettlement(ctx, intent, status, now)
		if stepErr != nil {
			return output, stepErr
		}
		if completed {
			output.Succeeded++
		} else {
			output.Skipped++
		}
	}

	return output, nil
}

func (u *finalizeSettlementsUseCase) completeSettlement(
	ctx context.Context,
	intent entities.PaymentIntent,
	status dto.TransferStatus,
	now time.Time,
) (bool, *apperrors.AppError) {
	confirmations := status.Confirmations
	if confirmations < intent.Confirmations {
		confirmations = intent.Confirmations
	}

	succeeded := intent
	succeeded.Status = valueobjects.PaymentIntentStatusSucceeded
	succeeded.Confirmations = confirmations
	succeeded.ConfirmedAt = &now
	succeeded.UpdatedAt = now
	event, appErr := u.events.PaymentIntentEvent(entities.EventPaymentSucceeded, succeeded, now)
	if appErr != nil {
		return false, appErr
	}

	return u.settlements.CompleteSettlement(ctx, dto.CompleteSettlementInput{
		IntentID:      intent.ID,
		Confirmations: confirmations,
		ConfirmedAt:   now,
		Ledger: entities.LedgerTransaction{
			ID:            u.ids.NewID(idPrefixLedgerTransaction),
			MerchantID:    intent.MerchantID,
			Type:          entities.LedgerTransactionDeposit,
			Amount:        intent.Amount,
			Currency:      intent.Currency,
			TxHash:        *intent.TxSignature,
			ReferenceType: entities.ResourceTypePaymentIntent,
			ReferenceID:   intent.ID,
			CreatedAt:     now,
		},
		Event: event,
	})
}

func (u *finalizeSettlementsUseCase) failSettlement(
	ctx context.Context,
	intent entities.PaymentIntent,
	status dto.TransferStatus,
	now time.Time,
) (bool, *apperrors.AppError) {
	reason := strings.TrimSpace(status.FailureReason)
	if reason == "" {
		reason = defaultTransferFailureReason
	}

	failed := intent
	failed.Status = valueobjects.PaymentIntentStatusFailed
	failed.FailureReason = &reason
	failed.UpdatedAt = now
	event, appErr := u.events.PaymentIntentEvent(entities.EventPaymentFailed, failed, now)
	if appErr != nil {
		return false, appErr
	}

	return u.repository.TransitionStatusIfCurrent(ctx, dto.PaymentIntentTransition{
		ID:            intent.ID,
		FromStatus:    valueobjects.PaymentIntentStatusProcessing.String(),
		ToStatus:      valueobjects.PaymentIntentStatusFailed.String(),
		FailureReason: &reason,
		Event:         &event,
		Now:           now,
	})
}
