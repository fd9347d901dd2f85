package use_cases

import (
	"context"
	"time"

	"stablesettle/internal/application/dto"
	portsin "stablesettle/internal/application/ports/in"
	portsout "stablesettle/internal/application/ports/out"
	"stablesettle/internal/domain/entities"
	valueobjects "stablesettle/internal/domain/value_objects"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type confirmPayoutsUseCase struct {
	payouts     portsout.PayoutRepository
	broadcaster portsout.ChainBroadcaster
	settler     payoutSettler
	clock       Clock
	logger      Logger
}

func NewConfirmPayoutsUseCase(
	payouts portsout.PayoutRepository,
	reader portsout.ChainReaderGateway,
	broadcaster portsout.ChainBroadcaster,
	events *WebhookEventFactory,
	ids IDGenerator,
	clock Clock,
	logger Logger,
) portsin.ConfirmPayoutsUseCase {
	ids = idsOrDefault(ids)
	return &confirmPayoutsUseCase{
		payouts:     payouts,
		broadcaster: broadcaster,
		settler: payoutSettler{
			payouts: payouts,
			reader:  reader,
			events:  eventFactoryOrDefault(events, ids),
			ids:     ids,
			logger:  logger,
		},
		clock:  clock,
		logger: logger,
	}
}

func (u *confirmPayoutsUseCase) Execute(
	ctx context.Context,
	command dto.ConfirmPayoutsCommand,
) (dto.ConfirmPayoutsOutput, *apperrors.AppError) {
	if u.payouts == nil {
		return dto.ConfirmPayoutsOutput{}, missingDependency("payout_repository_missing", "payout repository is required")
	}
	if u.settler.reader == nil {
		return dto.ConfirmPayoutsOutput{}, missingDependency("chain_reader_gateway_missing", "chain reader gateway is required")
	}
	if command.BatchSize <= 0 {
		return dto.ConfirmPayoutsOutput{}, apperrors.NewValidation(
			"confirmation_batch_size_invalid",
			"confirmation batch size must be greater than zero",
			map[string]any{"batch_size": command.BatchSize},
		)
	}

	now := resolveNow(u.clock, command.Now)
	payouts, appErr := u.payouts.ListProcessing(ctx, now.Add(-command.MinAge), command.BatchSize)
	if appErr != nil {
		return dto.ConfirmPayoutsOutput{}, appErr
	}

	output := dto.ConfirmPayoutsOutput{Scanned: len(payouts)}
	for _, payout := range payouts {
		if payout.Status != valueobjects.PayoutStatusProcessing || payout.TxSignature == nil || *payout.TxSignature == "" {
			output.Skipped++
			continue
		}
		u.confirmOne(ctx, payout, command.ChainCallTimeout, now, &output)
	}
	return output, nil
}

func (u *confirmPayoutsUseCase) confirmOne(
	ctx context.Context,
	payout entities.Payout,
	callTimeout time.Duration,
	now time.Time,
	output *dto.ConfirmPayoutsOutput,
) {
	callCtx, cancel := withOptionalTimeout(ctx, callTimeout)
	defer cancel()

	signature := *payout.TxSignature
	status, found, appErr := u.settler.lookup(callCtx, payout, signature)
	if appErr != nil {
		u.countError(payout, "lookup", appErr, output)
		return
	}
	if found {
		if !isIncluded(status) {
			output.Pending++
			return
		}
		u.settle(callCtx, payout, status, now, output)
		return
	}

	if payout.SignedTransaction == nil || *payout.SignedTransaction == "" || u.broadcaster == nil {
		output.Pending++
		return
	}
	input := dto.BroadcastInput{
		Chain:             payout.Chain.String(),
		SignedTransaction: *payout.SignedTransaction,
	}
	if payout.SourceWalletAddress != nil {
		input.ExpectedSigner = *payout.SourceWalletAddress
	}
	_, broadcastErr := u.broadcaster.Broadcast(callCtx, input)
	if broadcastErr == nil {
		logf(u.logger, "payout rebroadcast payout_id=%s tx_signature=%s", payout.ID, signature)
		output.Rebroadcast++
		return
	}
	if broadcastErr.Transient() {
		u.countError(payout, "rebroadcast", broadcastErr, output)
		return
	}

	// The node refused the bytes. The transaction may have landed between the lookup and
	// the rebroadcast, so check once more before calling it dropped.
	status, found, appErr = u.settler.lookup(callCtx, payout, signature)
	switch {
	case appErr != nil:
		u.countError(payout, "lookup", appErr, output)
	case found && isIncluded(status):
		u.settle(callCtx, payout, status, now, output)
	case found:
		output.Pending++
	default:
		_, updated, failErr := u.settler.fail(callCtx, payout, "transaction dropped: "+broadcastErr.Message, signature, now)
		switch {
		case failErr != nil:
			u.countError(payout, "fail", failErr, output)
		case updated:
			output.Failed++
		default:
			output.Skipped++
		}
	}
}

func (u *confirmPayoutsUseCase) settle(
	ctx context.Context,
	payout entities.Payout,
	status dto.TransferStatus,
	now time.Time,
	output *dto.ConfirmPayoutsOutput,
) {
	_, updated, appErr := u.settler.settle(ctx, payout, *payout.TxSignature, status, now)
	switch {
	case appErr != nil:
		u.countError(payout, "settle", appErr, output)
	case !updated:
		output.Skipped++
	case status.Failed:
		output.Failed++
	default:
		output.Completed++
	}
}

func (u *confirmPayoutsUseCase) countError(
	payout entities.Payout,
	stage string,
	appErr *apperrors.AppError,
	output *dto.ConfirmPayoutsOutput,
) {
	if appErr.Transient() {
		output.TransientError++
	} else {
		output.Errors++
	}
	logf(u.logger, "payout confirmation error payout_id=%s stage=%s code=%s message=%s", payout.ID, stage, appErr.Code, appErr.Message)
}
