package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"stablesettle/internal/application/dto"
	"stablesettle/internal/infrastructure/config"
	"stablesettle/internal/infrastructure/di"
	"stablesettle/internal/infrastructure/reconciler"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags|log.LUTC)
	cfg, cfgErr := config.LoadConfig()
	if cfgErr != nil {
		logger.Printf("startup config error code=%s message=%s metadata=%v", cfgErr.Code, cfgErr.Message, cfgErr.Metadata)
		os.Exit(1)
	}

	container, buildErr := di.Build(cfg, logger)
	if buildErr != nil {
		logger.Printf("dependency wiring error: %v", buildErr)
		os.Exit(1)
	}
	defer func() {
		if err := container.Close(); err != nil {
			logger.Printf("database close warning error=%v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Printf("payout sweeper persistence initialization starting database_target=%s", cfg.DatabaseTarget)
	persistenceErr := container.InitializePersistenceUseCase.Execute(ctx, dto.InitializePersistenceCommand{
		ReadinessTimeout:       cfg.DBReadinessTimeout,
		ReadinessRetryInterval: cfg.DBReadinessRetryInterval,
	})
	if persistenceErr != nil {
		logger.Printf(
			"payout sweeper persistence initialization failed code=%s message=%s metadata=%v",
			persistenceErr.Code,
			persistenceErr.Message,
			persistenceErr.Details,
		)
		os.Exit(1)
	}
	logger.Printf("payout sweeper persistence initialization completed database_target=%s", cfg.DatabaseTarget)

	if !container.PayoutExpiryWorker.Enabled() && !container.PayoutConfirmationWorker.Enabled() {
		logger.Printf("payout sweeper startup failed code=PAYOUT_SWEEPER_NOT_ENABLED message=no payout worker is enabled")
		os.Exit(1)
	}

	var wg sync.WaitGroup
	for _, worker := range []*reconciler.Worker{container.PayoutExpiryWorker, container.PayoutConfirmationWorker} {
		if !worker.Enabled() {
			continue
		}
		wg.Add(1)
		go func(worker *reconciler.Worker) {
			defer wg.Done()
			worker.Start(ctx)
		}(worker)
	}
	wg.Wait()
	logger.Printf("payout sweeper stopped")
}
