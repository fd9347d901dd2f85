package webhook

import (
	"context"
	"log"
	"time"

	"stablesettle/internal/application/dto"
	portsin "stablesettle/internal/application/ports/in"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

// maxDrainCycles bounds how many back-to-back batches one tick may dispatch.
const maxDrainCycles = 10

// Worker delivers the webhook outbox on a fixed poll interval. A tick that claims a
// full batch keeps dispatching until the backlog is below one batch or the drain cap
// is reached.
type Worker struct {
	enabled         bool
	pollInterval    time.Duration
	batchSize       int
	workerID        string
	leaseDuration   time.Duration
	dispatchUseCase portsin.DispatchWebhookEventsUseCase
	logger          *log.Logger
}

func NewWorker(
	enabled bool,
	pollInterval time.Duration,
	batchSize int,
	workerID string,
	leaseDuration time.Duration,
	dispatchUseCase portsin.DispatchWebhookEventsUseCase,
	logger *log.Logger,
) *Worker {
	return &Worker{
		enabled:         enabled,
		pollInterval:    pollInterval,
		batchSize:       batchSize,
		workerID:        workerID,
		leaseDuration:   leaseDuration,
		dispatchUseCase: dispatchUseCase,
		logger:          logger,
	}
}

func (w *Worker) Name() string {
	return "webhook dispatcher"
}

func (w *Worker) Enabled() bool {
	return w != nil && w.enabled
}

func (w *Worker) Start(ctx context.Context) {
	if !w.Enabled() || w.dispatchUseCase == nil {
		return
	}

	w.logf(
		"%s started worker_id=%s poll_interval=%s batch_size=%d lease_duration=%s",
		w.Name(),
		w.workerID,
		w.pollInterval,
		w.batchSize,
		w.leaseDuration,
	)

	w.drain(ctx)
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logf("%s stopped worker_id=%s", w.Name(), w.workerID)
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

// RunOnce dispatches a single batch regardless of Enabled.
func (w *Worker) RunOnce(ctx context.Context) *apperrors.AppError {
	if w == nil || w.dispatchUseCase == nil {
		return apperrors.NewInternal("worker_not_configured", "webhook dispatcher has no use case", nil)
	}
	_, appErr := w.runCycle(ctx)
	return appErr
}

// drain returns the number of cycles it ran.
func (w *Worker) drain(ctx context.Context) int {
	cycles := 0
	for cycles < maxDrainCycles {
		cycles++
		claimed, appErr := w.runCycle(ctx)
		if appErr != nil || w.batchSize <= 0 || claimed < w.batchSize || ctx.Err() != nil {
			break
		}
	}
	return cycles
}

func (w *Worker) runCycle(ctx context.Context) (int, *apperrors.AppError) {
	startedAt := time.Now().UTC()
	output, appErr := w.dispatchUseCase.Execute(ctx, dto.DispatchWebhookEventsCommand{
		Now:           startedAt,
		BatchSize:     w.batchSize,
		WorkerID:      w.workerID,
		LeaseDuration: w.leaseDuration,
	})
	if appErr != nil {
		w.logf(
			"webhook dispatch cycle failed worker_id=%s code=%s message=%s details=%v",
			w.workerID,
			appErr.Code,
			appErr.Message,
			appErr.Details,
		)
		return 0, appErr
	}

	w.logf(
		"webhook dispatch cycle completed worker_id=%s claimed=%d delivered=%d retried=%d failed=%d unconfigured=%d skipped=%d http_2xx=%d http_4xx=%d http_5xx=%d network_error=%d latency_ms=%d",
		w.workerID,
		output.Claimed,
		output.Delivered,
		output.Retried,
		output.Failed,
		output.Unconfigured,
		output.Skipped,
		output.HTTP2xxCount,
		output.HTTP4xxCount,
		output.HTTP5xxCount,
		output.NetworkErrorCount,
		time.Since(startedAt).Milliseconds(),
	)
	return output.Claimed, nil
}

func (w *Worker) logf(format string, args ...any) {
	if w.logger == nil {
		return
	}
	w.logger.Printf(format, args...)
}
