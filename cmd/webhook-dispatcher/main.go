package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"stablesettle/internal/application/dto"
	"stablesettle/internal/infrastructure/config"
	"stablesettle/internal/infrastructure/di"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags|log.LUTC)
	if !run(logger) {
		os.Exit(1)
	}
}

func run(logger *log.Logger) bool {
	cfg, cfgErr := config.LoadConfig()
	if cfgErr == nil {
		cfgErr = validateWebhookDispatcherConfig(cfg)
	}
	if cfgErr != nil {
		logger.Printf("webhook dispatcher config error code=%s message=%s metadata=%v", cfgErr.Code, cfgErr.Message, cfgErr.Metadata)
		return false
	}
	logger.Printf(
		"webhook dispatcher config worker_id=%s interval=%s batch_size=%d max_attempts=%d request_timeout=%s lease_duration=%s",
		cfg.WorkerID,
		cfg.WebhookDispatchInterval,
		cfg.WebhookDispatchBatchSize,
		cfg.WebhookMaxAttempts,
		cfg.WebhookRequestTimeout,
		cfg.WebhookLeaseDuration,
	)

	container, err := di.Build(cfg, logger)
	if err != nil {
		logger.Printf("dependency wiring error: %v", err)
		return false
	}
	defer func() {
		if err := container.Close(); err != nil {
			logger.Printf("database close warning error=%v", err)
		}
	}()
	if !container.WebhookWorker.Enabled() {
		logger.Printf("webhook dispatcher startup failed code=WEBHOOK_WORKER_NOT_ENABLED message=webhook worker is not enabled")
		return false
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	persistenceErr := container.InitializePersistenceUseCase.Execute(ctx, dto.InitializePersistenceCommand{
		ReadinessTimeout:       cfg.DBReadinessTimeout,
		ReadinessRetryInterval: cfg.DBReadinessRetryInterval,
	})
	if persistenceErr != nil {
		logger.Printf(
			"webhook dispatcher persistence initialization failed code=%s message=%s metadata=%v",
			persistenceErr.Code,
			persistenceErr.Message,
			persistenceErr.Details,
		)
		return false
	}

	container.WebhookWorker.Start(ctx)
	return true
}

// The lease is renewed every third of its duration while a delivery is in flight.
const minWebhookLeaseDuration = 3 * time.Second

func validateWebhookDispatcherConfig(cfg config.Config) *config.ConfigError {
	if strings.TrimSpace(cfg.WorkerID) == "" {
		return &config.ConfigError{
			Code:    "CONFIG_WORKER_ID_REQUIRED",
			Message: "WORKER_ID is required for webhook dispatcher runtime",
		}
	}

	if cfg.WebhookLeaseDuration < minWebhookLeaseDuration {
		return &config.ConfigError{
			Code:    "CONFIG_WEBHOOK_LEASE_DURATION_TOO_SHORT",
			Message: "WEBHOOK_LEASE_DURATION must be at least 3s",
			Metadata: map[string]string{
				"lease_duration": cfg.WebhookLeaseDuration.String(),
			},
		}
	}

	if cfg.WebhookMaxAttempts <= 0 {
		return &config.ConfigError{
			Code:    "CONFIG_WEBHOOK_MAX_ATTEMPTS_INVALID",
			Message: "WEBHOOK_MAX_ATTEMPTS must be greater than zero",
		}
	}

	return nil
}
