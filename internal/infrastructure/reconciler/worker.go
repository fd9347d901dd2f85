package reconciler

import (
	"context"
	"fmt"
	"log"
	"time"

	"stablesettle/internal/application/dto"
	portsin "stablesettle/internal/application/ports/in"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type cycleFunc func(ctx context.Context, now time.Time) (string, *apperrors.AppError)

// Worker runs one settlement job on a fixed interval. Cycles never overlap: the next
// tick is only read after the current cycle returns.
type Worker struct {
	name         string
	enabled      bool
	pollInterval time.Duration
	workerID     string
	cycle        cycleFunc
	logger       *log.Logger
}

type MonitorSettings struct {
	BatchSize           int
	TransferLookupLimit int
	ChainCallTimeout    time.Duration
}

type PayoutConfirmationSettings struct {
	BatchSize        int
	MinAge           time.Duration
	ChainCallTimeout time.Duration
}

type FinalizerSettings struct {
	BatchSize             int
	FinalityConfirmations int64
	ChainCallTimeout      time.Duration
}

func NewMonitorWorker(
	enabled bool,
	pollInterval time.Duration,
	workerID string,
	settings MonitorSettings,
	useCase portsin.MonitorSettlementsUseCase,
	logger *log.Logger,
) *Worker {
	var cycle cycleFunc
	if useCase != nil {
		cycle = func(ctx context.Context, now time.Time) (string, *apperrors.AppError) {
			output, appErr := useCase.Execute(ctx, dto.MonitorSettlementsCommand{
				Now:                 now,
				BatchSize:           settings.BatchSize,
				TransferLookupLimit: settings.TransferLookupLimit,
				ChainCallTimeout:    settings.ChainCallTimeout,
			})
			if appErr != nil {
				return "", appErr
			}
			return fmt.Sprintf(
				"scanned=%d matched=%d skipped=%d transient_errors=%d errors=%d",
				output.Scanned, output.Matched, output.Skipped, output.TransientError, output.Errors,
			), nil
		}
	}
	return newWorker("settlement monitor", enabled, pollInterval, workerID, cycle, logger)
}

func NewFinalizerWorker(
	enabled bool,
	pollInterval time.Duration,
	workerID string,
	settings FinalizerSettings,
	useCase portsin.FinalizeSettlementsUseCase,
	logger *log.Logger,
) *Worker {
	var cycle cycleFunc
	if useCase != nil {
		cycle = func(ctx context.Context, now time.Time) (string, *apperrors.AppError) {
			output, appErr := useCase.Execute(ctx, dto.FinalizeSettlementsCommand{
				Now:                   now,
				BatchSize:             settings.BatchSize,
				FinalityConfirmations: settings.FinalityConfirmations,
				ChainCallTimeout:      settings.ChainCallTimeout,
			})
			if appErr != nil {
				return "", appErr
			}
			return fmt.Sprintf(
				"scanned=%d succeeded=%d confirming=%d failed=%d skipped=%d transient_errors=%d errors=%d",
				output.Scanned, output.Succeeded, output.Confirming, output.Failed, output.Skipped, output.TransientError, output.Errors,
			), nil
		}
	}
	return newWorker("settlement finalizer", enabled, pollInterval, workerID, cycle, logger)
}

func NewIntentExpiryWorker(
	enabled bool,
	pollInterval time.Duration,
	workerID string,
	batchSize int,
	useCase portsin.ExpirePaymentIntentsUseCase,
	logger *log.Logger,
) *Worker {
	var cycle cycleFunc
	if useCase != nil {
		cycle = func(ctx context.Context, now time.Time) (string, *apperrors.AppError) {
			output, appErr := useCase.Execute(ctx, dto.ExpirePaymentIntentsCommand{Now: now, BatchSize: batchSize})
			if appErr != nil {
				return "", appErr
			}
			return sweepSummary(output), nil
		}
	}
	return newWorker("payment intent expiry", enabled, pollInterval, workerID, cycle, logger)
}

func NewPayoutExpiryWorker(
	enabled bool,
	pollInterval time.Duration,
	workerID string,
	batchSize int,
	useCase portsin.ExpirePayoutTransactionsUseCase,
	logger *log.Logger,
) *Worker {
	var cycle cycleFunc
	if useCase != nil {
		cycle = func(ctx context.Context, now time.Time) (string, *apperrors.AppError) {
			output, appErr := useCase.Execute(ctx, dto.ExpirePayoutTransactionsCommand{Now: now, BatchSize: batchSize})
			if appErr != nil {
				return "", appErr
			}
			return sweepSummary(output), nil
		}
	}
	return newWorker("payout transaction expiry", enabled, pollInterval, workerID, cycle, logger)
}

func NewPayoutConfirmationWorker(
	enabled bool,
	pollInterval time.Duration,
	workerID string,
	settings PayoutConfirmationSettings,
	useCase portsin.ConfirmPayoutsUseCase,
	logger *log.Logger,
) *Worker {
	var cycle cycleFunc
	if useCase != nil {
		cycle = func(ctx context.Context, now time.Time) (string, *apperrors.AppError) {
			output, appErr := useCase.Execute(ctx, dto.ConfirmPayoutsCommand{
				Now:              now,
				BatchSize:        settings.BatchSize,
				MinAge:           settings.MinAge,
				ChainCallTimeout: settings.ChainCallTimeout,
			})
			if appErr != nil {
				return "", appErr
			}
			return fmt.Sprintf(
				"scanned=%d completed=%d failed=%d pending=%d rebroadcast=%d skipped=%d transient_errors=%d errors=%d",
				output.Scanned, output.Completed, output.Failed, output.Pending, output.Rebroadcast,
				output.Skipped, output.TransientError, output.Errors,
			), nil
		}
	}
	return newWorker("payout confirmation", enabled, pollInterval, workerID, cycle, logger)
}

func newWorker(name string, enabled bool, pollInterval time.Duration, workerID string, cycle cycleFunc, logger *log.Logger) *Worker {
	return &Worker{
		name:         name,
		enabled:      enabled,
		pollInterval: pollInterval,
		workerID:     workerID,
		cycle:        cycle,
		logger:       logger,
	}
}

func (w *Worker) Name() string {
	if w == nil {
		return ""
	}
	return w.name
}

func (w *Worker) Enabled() bool {
	return w != nil && w.enabled
}

func (w *Worker) Start(ctx context.Context) {
	if w == nil || !w.enabled || w.cycle == nil {
		return
	}

	w.logf("%s started worker_id=%s poll_interval=%s", w.name, w.workerID, w.pollInterval)

	w.runCycle(ctx)
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logf("%s stopped worker_id=%s", w.name, w.workerID)
			return
		case <-ticker.C:
			w.runCycle(ctx)
		}
	}
}

// RunOnce executes a single cycle regardless of Enabled, for externally scheduled runs.
func (w *Worker) RunOnce(ctx context.Context) *apperrors.AppError {
	if w == nil || w.cycle == nil {
		return apperrors.NewInternal("worker_not_configured", "worker has no use case", nil)
	}
	return w.runCycle(ctx)
}

func (w *Worker) runCycle(ctx context.Context) *apperrors.AppError {
	startedAt := time.Now().UTC()
	summary, appErr := w.cycle(ctx, startedAt)
	if appErr != nil {
		w.logf(
			"%s cycle failed worker_id=%s code=%s message=%s details=%v",
			w.name,
			w.workerID,
			appErr.Code,
			appErr.Message,
			appErr.Details,
		)
		return appErr
	}

	w.logf(
		"%s cycle completed worker_id=%s %s latency_ms=%d",
		w.name,
		w.workerID,
		summary,
		time.Since(startedAt).Milliseconds(),
	)
	return nil
}

func sweepSummary(output dto.ExpireSweepOutput) string {
	return fmt.Sprintf("scanned=%d expired=%d skipped=%d", output.Scanned, output.Expired, output.Skipped)
}

func (w *Worker) logf(format string, args ...any) {
	if w.logger == nil {
		return
	}
	w.logger.Printf(format, args...)
}
