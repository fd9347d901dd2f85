package use_cases

import (
	"context"
	"strings"
	"time"

	"stablesettle/internal/application/dto"
	portsout "stablesettle/internal/application/ports/out"
	"stablesettle/internal/domain/entities"
	valueobjects "stablesettle/internal/domain/value_objects"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

// payoutSettler records the on-chain outcome of a processing payout. The submit request
// and the confirmation sweep both settle through it, so whichever sees the result first
// wins the processing CAS and the other becomes a no-op.
type payoutSettler struct {
	payouts portsout.PayoutRepository
	reader  portsout.ChainReaderGateway
	events  *WebhookEventFactory
	ids     IDGenerator
	logger  Logger
}

func isIncluded(status dto.TransferStatus) bool {
	return status.Failed || status.Finalized || status.Confirmations > 0
}

// settle applies an included transaction's result. A reverted transaction fails the
// payout; anything else completes it.
func (s payoutSettler) settle(
	ctx context.Context,
	payout entities.Payout,
	signature string,
	status dto.TransferStatus,
	now time.Time,
) (entities.Payout, bool, *apperrors.AppError) {
	if status.Failed {
		reason := strings.TrimSpace(status.FailureReason)
		if reason == "" {
			reason = defaultTransferFailureReason
		}
		return s.fail(ctx, payout, "transaction failed: "+reason, signature, now)
	}
	return s.complete(ctx, payout, signature, now)
}

// lookup asks the chain about signature. found is false, with no error, when the chain
// does not know the transaction at all.
func (s payoutSettler) lookup(
	ctx context.Context,
	payout entities.Payout,
	signature string,
) (dto.TransferStatus, bool, *apperrors.AppError) {
	status, appErr := s.reader.TransferStatus(ctx, dto.TransferStatusInput{
		Chain:     payout.Chain.String(),
		Signature: signature,
	})
	if appErr != nil {
		if appErr.Type == apperrors.TypeNotFound {
			return dto.TransferStatus{}, false, nil
		}
		return dto.TransferStatus{}, false, appErr
	}
	return status, true, nil
}

func (s payoutSettler) complete(
	ctx context.Context,
	payout entities.Payout,
	signature string,
	now time.Time,
) (entities.Payout, bool, *apperrors.AppError) {
	completed := payout
	completed.Status = valueobjects.PayoutStatusCompleted
	completed.TxSignature = &signature
	completed.ErrorMessage = nil
	completed.UpdatedAt = now
	event, appErr := s.events.PayoutEvent(entities.EventPayoutCompleted, completed, now)
	if appErr != nil {
		return entities.Payout{}, false, appErr
	}

	updated, appErr := s.payouts.CompletePayout(ctx, dto.CompletePayoutInput{
		ID:          payout.ID,
		TxSignature: signature,
		Ledger: entities.LedgerTransaction{
			ID:            s.ids.NewID(idPrefixLedgerTransaction),
			MerchantID:    payout.MerchantID,
			Type:          entities.LedgerTransactionPayout,
			Amount:        payout.NetAmount,
			Currency:      payout.Currency,
			TxHash:        signature,
			ReferenceType: entities.ResourceTypePayout,
			ReferenceID:   payout.ID,
			CreatedAt:     now,
		},
		Event: event,
		Now:   now,
	})
	if appErr != nil || !updated {
		return payout, false, appErr
	}
	logf(s.logger, "payout completed payout_id=%s tx_signature=%s", payout.ID, signature)
	return completed, true, nil
}

// fail records a failure the chain has confirmed. The balance is not touched because
// debits only happen on completion.
func (s payoutSettler) fail(
	ctx context.Context,
	payout entities.Payout,
	message string,
	signature string,
	now time.Time,
) (entities.Payout, bool, *apperrors.AppError) {
	failed := payout
	failed.Status = valueobjects.PayoutStatusFailed
	failed.ErrorMessage = &message
	failed.UpdatedAt = now
	if signature != "" {
		failed.TxSignature = &signature
	}
	event, appErr := s.events.PayoutEvent(entities.EventPayoutFailed, failed, now)
	if appErr != nil {
		return entities.Payout{}, false, appErr
	}

	updated, appErr := s.payouts.TransitionStatusIfCurrent(ctx, dto.PayoutTransition{
		ID:           payout.ID,
		MerchantID:   payout.MerchantID,
		FromStatus:   valueobjects.PayoutStatusProcessing.String(),
		ToStatus:     valueobjects.PayoutStatusFailed.String(),
		ErrorMessage: &message,
		TxSignature:  failed.TxSignature,
		Event:        &event,
		Now:          now,
	})
	if appErr != nil || !updated {
		return payout, false, appErr
	}
	logf(s.logger, "payout failed payout_id=%s error=%s", payout.ID, message)
	return failed, true, nil
}
