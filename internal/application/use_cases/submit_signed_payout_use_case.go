package use_cases

import (
	"context"
	"strings"
	"time"

	"stablesettle/internal/application/dto"
	portsin "stablesettle/internal/application/ports/in"
	portsout "stablesettle/internal/application/ports/out"
	"stablesettle/internal/domain/entities"
	valueobjects "stablesettle/internal/domain/value_objects"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

const DefaultPayoutConfirmationTimeout = 60 * time.Second

type submitSignedPayoutUseCase struct {
	payouts             portsout.PayoutRepository
	broadcaster         portsout.ChainBroadcaster
	settler             payoutSettler
	clock               Clock
	confirmationTimeout time.Duration
	logger              Logger
}

func NewSubmitSignedPayoutUseCase(
	payouts portsout.PayoutRepository,
	broadcaster portsout.ChainBroadcaster,
	reader portsout.ChainReaderGateway,
	events *WebhookEventFactory,
	ids IDGenerator,
	clock Clock,
	confirmationTimeout time.Duration,
	logger Logger,
) portsin.SubmitSignedPayoutUseCase {
	if confirmationTimeout <= 0 {
		confirmationTimeout = DefaultPayoutConfirmationTimeout
	}
	ids = idsOrDefault(ids)
	return &submitSignedPayoutUseCase{
		payouts:     payouts,
		broadcaster: broadcaster,
		settler: payoutSettler{
			payouts: payouts,
			reader:  reader,
			events:  eventFactoryOrDefault(events, ids),
			ids:     ids,
			logger:  logger,
		},
		clock:               clock,
		confirmationTimeout: confirmationTimeout,
		logger:              logger,
	}
}

func (u *submitSignedPayoutUseCase) Execute(
	ctx context.Context,
	command dto.SubmitSignedPayoutCommand,
) (dto.PayoutResource, *apperrors.AppError) {
	if u.payouts == nil {
		return dto.PayoutResource{}, missingDependency("payout_repository_missing", "payout repository is required")
	}
	if u.broadcaster == nil {
		return dto.PayoutResource{}, missingDependency("chain_broadcaster_missing", "chain broadcaster is required")
	}
	if u.settler.reader == nil {
		return dto.PayoutResource{}, missingDependency("chain_reader_gateway_missing", "chain reader gateway is required")
	}
	merchantID, appErr := requireMerchantID(command.MerchantID)
	if appErr != nil {
		return dto.PayoutResource{}, appErr
	}
	payoutID, appErr := requireField("payout_id", command.PayoutID)
	if appErr != nil {
		return dto.PayoutResource{}, appErr
	}
	signed, appErr := requireField("signed_transaction", command.SignedTransaction)
	if appErr != nil {
		return dto.PayoutResource{}, appErr
	}

	payout, appErr := loadPayout(ctx, u.payouts, merchantID, payoutID)
	if appErr != nil {
		return dto.PayoutResource{}, appErr
	}
	if payout.Status != valueobjects.PayoutStatusAwaitingSignature {
		return dto.PayoutResource{}, payoutInvalidState(payout, "payout is not awaiting a signature")
	}

	now := resolveNow(u.clock, command.Now)
	if payout.IsSigningWindowClosed(now) {
		if _, expireErr := expireSigningWindow(ctx, u.payouts, u.settler.events, payout, now); expireErr != nil {
			return dto.PayoutResource{}, expireErr
		}
		return dto.PayoutResource{}, apperrors.NewConflict(
			"transaction_expired",
			"unsigned transaction expired before submission; regenerate it",
			map[string]any{"id": payout.ID, "status": valueobjects.PayoutStatusExpired.String()},
		)
	}

	broadcastInput := dto.BroadcastInput{
		Chain:             payout.Chain.String(),
		SignedTransaction: signed,
		Expected:          payout.UnsignedTransaction,
	}
	if payout.SourceWalletAddress != nil {
		broadcastInput.ExpectedSigner = *payout.SourceWalletAddress
	}
	validated, appErr := u.broadcaster.ValidateSigned(ctx, broadcastInput)
	if appErr != nil {
		return dto.PayoutResource{}, appErr
	}
	signature := strings.TrimSpace(validated.Signature)
	if signature == "" {
		return dto.PayoutResource{}, apperrors.NewValidation(
			"invalid_signed_transaction",
			"signed transaction carries no signature",
			map[string]any{"id": payout.ID},
		)
	}

	marked, appErr := u.payouts.MarkProcessingIfFunded(ctx, dto.MarkPayoutProcessingInput{
		ID:                payout.ID,
		TxSignature:       signature,
		SignedTransaction: signed,
		Now:               now,
	})
	if appErr != nil {
		return dto.PayoutResource{}, appErr
	}
	if !marked.Funded {
		return dto.PayoutResource{}, apperrors.NewValidation(
			"insufficient_balance",
			"balance no longer covers this payout",
			map[string]any{"id": payout.ID, "amount": payout.Amount.String()},
		)
	}
	if !marked.Updated {
		current := payout
		if status, parseErr := valueobjects.ParsePayoutStatus(marked.CurrentStatus); parseErr == nil {
			current.Status = status
		}
		return dto.PayoutResource{}, payoutInvalidState(current, "payout is not awaiting a signature")
	}
	payout.Status = valueobjects.PayoutStatusProcessing
	payout.TxSignature = &signature
	payout.SignedTransaction = &signed
	payout.UpdatedAt = now

	// From here the transaction may reach the chain, so the outcome is recorded even
	// when the caller disconnects.
	chainCtx := context.WithoutCancel(ctx)

	if _, appErr := u.broadcaster.Broadcast(chainCtx, broadcastInput); appErr != nil {
		if appErr.Transient() {
			return u.leaveProcessing(payout, "broadcast", appErr), nil
		}
		return u.resolveRejected(chainCtx, payout, appErr)
	}

	inclusion, appErr := u.broadcaster.AwaitInclusion(chainCtx, dto.AwaitInclusionInput{
		Chain:     payout.Chain.String(),
		Signature: signature,
		Timeout:   u.confirmationTimeout,
	})
	if appErr != nil {
		return u.leaveProcessing(payout, "confirmation", appErr), nil
	}
	return u.settle(chainCtx, payout, inclusion)
}

// resolveRejected handles a broadcast the node refused. The transaction may already be
// on chain (the wallet can broadcast it too), so only a signature the chain does not
// know fails the payout.
func (u *submitSignedPayoutUseCase) resolveRejected(
	ctx context.Context,
	payout entities.Payout,
	rejection *apperrors.AppError,
) (dto.PayoutResource, *apperrors.AppError) {
	status, found, appErr := u.settler.lookup(ctx, payout, *payout.TxSignature)
	switch {
	case appErr != nil:
		return u.leaveProcessing(payout, "broadcast", appErr), nil
	case found && isIncluded(status):
		return u.settle(ctx, payout, status)
	case found:
		return u.leaveProcessing(payout, "broadcast", rejection), nil
	}

	failed, updated, appErr := u.settler.fail(
		ctx,
		payout,
		"broadcast rejected: "+rejection.Message,
		*payout.TxSignature,
		resolveNow(u.clock, time.Time{}),
	)
	if appErr != nil {
		return dto.PayoutResource{}, appErr
	}
	if !updated {
		return dto.PayoutResource{}, payoutInvalidState(payout, "payout changed concurrently")
	}
	return toPayoutResource(failed), nil
}

func (u *submitSignedPayoutUseCase) settle(
	ctx context.Context,
	payout entities.Payout,
	status dto.TransferStatus,
) (dto.PayoutResource, *apperrors.AppError) {
	settledAt := resolveNow(u.clock, time.Time{})
	if settledAt.Before(payout.UpdatedAt) {
		settledAt = payout.UpdatedAt
	}
	settled, updated, appErr := u.settler.settle(ctx, payout, *payout.TxSignature, status, settledAt)
	if appErr != nil {
		return dto.PayoutResource{}, appErr
	}
	if !updated {
		return dto.PayoutResource{}, payoutInvalidState(payout, "payout changed concurrently")
	}
	return toPayoutResource(settled), nil
}

// leaveProcessing keeps the payout reserved in processing; the confirmation sweep
// resolves it once the chain answers.
func (u *submitSignedPayoutUseCase) leaveProcessing(
	payout entities.Payout,
	stage string,
	cause *apperrors.AppError,
) dto.PayoutResource {
	logf(
		u.logger,
		"payout left processing payout_id=%s stage=%s tx_signature=%s code=%s message=%s",
		payout.ID,
		stage,
		*payout.TxSignature,
		cause.Code,
		cause.Message,
	)
	return toPayoutResource(payout)
}
