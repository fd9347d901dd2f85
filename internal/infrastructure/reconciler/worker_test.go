//go:build !integration

package reconciler

import (
	"bytes"
	"context"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"stablesettle/internal/application/dto"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

func TestWorkerDisabled(t *testing.T) {
	fakeUseCase := &fakeMonitorUseCase{}
	worker := NewMonitorWorker(false, 10*time.Millisecond, "worker-a", MonitorSettings{BatchSize: 10}, fakeUseCase, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	worker.Start(ctx)

	if fakeUseCase.calls() != 0 {
		t.Fatalf("expected no calls for disabled worker, got %d", fakeUseCase.calls())
	}
	if worker.Enabled() {
		t.Fatalf("expected disabled worker")
	}
}

func TestMonitorWorkerRunsCycle(t *testing.T) {
	fakeUseCase := &fakeMonitorUseCase{}
	worker := NewMonitorWorker(
		true,
		10*time.Millisecond,
		"worker-a",
		MonitorSettings{BatchSize: 10, TransferLookupLimit: 20, ChainCallTimeout: 3 * time.Second},
		fakeUseCase,
		nil,
	)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	worker.Start(ctx)

	if fakeUseCase.calls() == 0 {
		t.Fatalf("expected at least one cycle call")
	}
	last := fakeUseCase.lastCommand()
	if last.BatchSize != 10 || last.TransferLookupLimit != 20 {
		t.Fatalf("expected batch 10 lookup 20, got %d %d", last.BatchSize, last.TransferLookupLimit)
	}
	if last.ChainCallTimeout != 3*time.Second {
		t.Fatalf("expected chain call timeout 3s, got %s", last.ChainCallTimeout)
	}
	if last.Now.IsZero() {
		t.Fatalf("expected cycle time to be set")
	}
}

func TestFinalizerWorkerRunOnceLogsSummary(t *testing.T) {
	var buffer bytes.Buffer
	logger := log.New(&buffer, "", 0)
	fakeUseCase := &fakeFinalizeUseCase{output: dto.FinalizeSettlementsOutput{Scanned: 3, Succeeded: 2, Confirming: 1}}
	worker := NewFinalizerWorker(
		false,
		time.Minute,
		"worker-b",
		FinalizerSettings{BatchSize: 5, FinalityConfirmations: 32, ChainCallTimeout: time.Second},
		fakeUseCase,
		logger,
	)

	if appErr := worker.RunOnce(context.Background()); appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if fakeUseCase.last.FinalityConfirmations != 32 || fakeUseCase.last.BatchSize != 5 {
		t.Fatalf("unexpected command %+v", fakeUseCase.last)
	}
	logged := buffer.String()
	if !strings.Contains(logged, "settlement finalizer cycle completed worker_id=worker-b scanned=3 succeeded=2 confirming=1") {
		t.Fatalf("unexpected log output %q", logged)
	}
}

func TestExpiryWorkersReportFailures(t *testing.T) {
	var buffer bytes.Buffer
	logger := log.New(&buffer, "", 0)
	failure := apperrors.NewUnavailable("database_unavailable", "database unavailable", nil)

	intentWorker := NewIntentExpiryWorker(true, time.Minute, "worker-c", 50, &fakeIntentExpiryUseCase{err: failure}, logger)
	if appErr := intentWorker.RunOnce(context.Background()); appErr == nil || appErr.Code != "database_unavailable" {
		t.Fatalf("expected database_unavailable, got %+v", appErr)
	}
	if !strings.Contains(buffer.String(), "payment intent expiry cycle failed worker_id=worker-c code=database_unavailable") {
		t.Fatalf("unexpected log output %q", buffer.String())
	}

	payoutUseCase := &fakePayoutExpiryUseCase{output: dto.ExpireSweepOutput{Scanned: 4, Expired: 1}}
	payoutWorker := NewPayoutExpiryWorker(true, time.Minute, "worker-c", 25, payoutUseCase, logger)
	if appErr := payoutWorker.RunOnce(context.Background()); appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if payoutUseCase.last.BatchSize != 25 {
		t.Fatalf("expected batch size 25, got %d", payoutUseCase.last.BatchSize)
	}
	if !strings.Contains(buffer.String(), "payout transaction expiry cycle completed worker_id=worker-c scanned=4 expired=1 skipped=0") {
		t.Fatalf("unexpected log output %q", buffer.String())
	}
}

func TestPayoutConfirmationWorkerRunOnceLogsSummary(t *testing.T) {
	var buffer bytes.Buffer
	logger := log.New(&buffer, "", 0)
	fakeUseCase := &fakeConfirmPayoutsUseCase{output: dto.ConfirmPayoutsOutput{Scanned: 3, Completed: 1, Pending: 1, Rebroadcast: 1}}
	worker := NewPayoutConfirmationWorker(
		true,
		time.Minute,
		"worker-e",
		PayoutConfirmationSettings{BatchSize: 20, MinAge: 2 * time.Minute, ChainCallTimeout: time.Second},
		fakeUseCase,
		logger,
	)

	if appErr := worker.RunOnce(context.Background()); appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if fakeUseCase.last.BatchSize != 20 || fakeUseCase.last.MinAge != 2*time.Minute || fakeUseCase.last.ChainCallTimeout != time.Second {
		t.Fatalf("unexpected command %+v", fakeUseCase.last)
	}
	if !strings.Contains(buffer.String(), "payout confirmation cycle completed worker_id=worker-e scanned=3 completed=1 failed=0 pending=1 rebroadcast=1") {
		t.Fatalf("unexpected log output %q", buffer.String())
	}
}

func TestRunOnceWithoutUseCase(t *testing.T) {
	worker := NewPayoutExpiryWorker(true, time.Minute, "worker-d", 10, nil, nil)
	appErr := worker.RunOnce(context.Background())
	if appErr == nil || appErr.Code != "worker_not_configured" {
		t.Fatalf("expected worker_not_configured, got %+v", appErr)
	}

	// Start returns immediately instead of ticking with nothing to run.
	worker.Start(context.Background())
}

type fakeMonitorUseCase struct {
	mu        sync.Mutex
	callCount int
	last      dto.MonitorSettlementsCommand
}

func (f *fakeMonitorUseCase) Execute(_ context.Context, command dto.MonitorSettlementsCommand) (dto.MonitorSettlementsOutput, *apperrors.AppError) {
	f.mu.Lock()
	f.callCount++
	f.last = command
	f.mu.Unlock()
	return dto.MonitorSettlementsOutput{}, nil
}

func (f *fakeMonitorUseCase) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.callCount
}

func (f *fakeMonitorUseCase) lastCommand() dto.MonitorSettlementsCommand {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

type fakeFinalizeUseCase struct {
	last   dto.FinalizeSettlementsCommand
	output dto.FinalizeSettlementsOutput
}

func (f *fakeFinalizeUseCase) Execute(_ context.Context, command dto.FinalizeSettlementsCommand) (dto.FinalizeSettlementsOutput, *apperrors.AppError) {
	f.last = command
	return f.output, nil
}

type fakeIntentExpiryUseCase struct {
	err *apperrors.AppError
}

func (f *fakeIntentExpiryUseCase) Execute(_ context.Context, _ dto.ExpirePaymentIntentsCommand) (dto.ExpireSweepOutput, *apperrors.AppError) {
	return dto.ExpireSweepOutput{}, f.err
}

type fakePayoutExpiryUseCase struct {
	last   dto.ExpirePayoutTransactionsCommand
	output dto.ExpireSweepOutput
}

func (f *fakePayoutExpiryUseCase) Execute(_ context.Context, command dto.ExpirePayoutTransactionsCommand) (dto.ExpireSweepOutput, *apperrors.AppError) {
	f.last = command
	return f.output, nil
}

type fakeConfirmPayoutsUseCase struct {
	last   dto.ConfirmPayoutsCommand
	output dto.ConfirmPayoutsOutput
}

func (f *fakeConfirmPayoutsUseCase) Execute(_ context.Context, command dto.ConfirmPayoutsCommand) (dto.ConfirmPayoutsOutput, *apperrors.AppError) {
	f.last = command
	return f.output, nil
}
