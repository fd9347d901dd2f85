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
	if cfgErr := validateReconcilerConfig(cfg); cfgErr != nil {
		logger.Printf("reconciler config error code=%s message=%s", cfgErr.Code, cfgErr.Message)
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

	logger.Printf("reconciler persistence initialization starting database_target=%s", cfg.DatabaseTarget)
	persistenceErr := container.InitializePersistenceUseCase.Execute(ctx, dto.InitializePersistenceCommand{
		ReadinessTimeout:       cfg.DBReadinessTimeout,
		ReadinessRetryInterval: cfg.DBReadinessRetryInterval,
	})
	if persistenceErr != nil {
		logger.Printf(
			"reconciler persistence initialization failed code=%s message=%s metadata=%v",
			persistenceErr.Code,
			persistenceErr.Message,
			persistenceErr.Details,
		)
		os.Exit(1)
	}
	logger.Printf("reconciler persistence initialization completed database_target=%s", cfg.DatabaseTarget)

	runWorkers(ctx, container.MonitorWorker, container.FinalizerWorker, container.IntentExpiryWorker)
	logger.Printf("reconciler stopped")
}

// runWorkers blocks until every enabled worker has returned.
func runWorkers(ctx context.Context, workers ...*reconciler.Worker) {
	var wg sync.WaitGroup
	for _, worker := range workers {
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
}

func validateReconcilerConfig(cfg config.Config) *config.ConfigError {
	if len(cfg.SolanaRPCURLs) == 0 && len(cfg.EVMRPCURLs) == 0 {
		return &config.ConfigError{
			Code:    "CONFIG_CHAIN_ENDPOINTS_REQUIRED",
			Message: "reconciler requires SOLANA_RPC_URLS or EVM_RPC_URLS",
		}
	}
	if cfg.FinalityConfirmations <= 0 {
		return &config.ConfigError{
			Code:    "CONFIG_SETTLEMENT_FINALITY_CONFIRMATIONS_INVALID",
			Message: "SETTLEMENT_FINALITY_CONFIRMATIONS must be greater than zero",
		}
	}
	if cfg.ChainCallTimeout >= cfg.MonitorInterval {
		return &config.ConfigError{
			Code:    "CONFIG_CHAIN_CALL_TIMEOUT_TOO_LONG",
			Message: "CHAIN_CALL_TIMEOUT must be shorter than SETTLEMENT_MONITOR_INTERVAL",
		}
	}
	return nil
}
