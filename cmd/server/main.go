package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

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
	if cfgErr != nil {
		logger.Printf("startup config error code=%s message=%s metadata=%v", cfgErr.Code, cfgErr.Message, cfgErr.Metadata)
		return false
	}
	logger.Printf(
		"api config address=%s solana_endpoints=%d evm_enabled=%t evm_chain_id=%d tokens=%d approver_roles=%v",
		cfg.Address(),
		len(cfg.SolanaRPCURLs),
		cfg.EVMEnabled(),
		cfg.EVMChainID,
		len(cfg.Tokens),
		cfg.PayoutApproverRoles,
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	persistenceErr := container.InitializePersistenceUseCase.Execute(ctx, dto.InitializePersistenceCommand{
		ReadinessTimeout:       cfg.DBReadinessTimeout,
		ReadinessRetryInterval: cfg.DBReadinessRetryInterval,
	})
	if persistenceErr != nil {
		logger.Printf(
			"persistence initialization failed code=%s message=%s metadata=%v",
			persistenceErr.Code,
			persistenceErr.Message,
			persistenceErr.Details,
		)
		return false
	}

	if err := container.Server.Run(ctx, cfg.ShutdownTimeout); err != nil {
		logger.Printf("api stopped with error: %v", err)
		return false
	}
	return true
}
