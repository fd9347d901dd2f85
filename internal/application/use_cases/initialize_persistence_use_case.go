package use_cases

import (
	"context"
	"time"

	"stablesettle/internal/application/dto"
	portsin "stablesettle/internal/application/ports/in"
	portsout "stablesettle/internal/application/ports/out"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type initializePersistenceUseCase struct {
	gateway portsout.PersistenceBootstrapGateway
	logger  Logger
}

func NewInitializePersistenceUseCase(gateway portsout.PersistenceBootstrapGateway, logger Logger) portsin.InitializePersistenceUseCase {
	return &initializePersistenceUseCase{
		gateway: gateway,
		logger:  logger,
	}
}

func (u *initializePersistenceUseCase) Execute(ctx context.Context, command dto.InitializePersistenceCommand) *apperrors.AppError {
	if u.gateway == nil {
		return apperrors.NewInternal(
			"PERSISTENCE_GATEWAY_MISSING",
			"persistence gateway is required",
			nil,
		)
	}
	if command.ReadinessTimeout <= 0 {
		return apperrors.NewValidation(
			"READINESS_TIMEOUT_INVALID",
			"readiness timeout must be greater than zero",
			nil,
		)
	}
	if command.ReadinessRetryInterval <= 0 {
		return apperrors.NewValidation(
			"READINESS_RETRY_INTERVAL_INVALID",
			"readiness retry interval must be greater than zero",
			nil,
		)
	}

	startedAt := time.Now()
	attempts, appErr := u.waitUntilReady(ctx, command)
	if appErr != nil {
		return appErr
	}
	logf(u.logger, "database ready attempts=%d wait_ms=%d", attempts, time.Since(startedAt).Milliseconds())

	if command.SkipMigrations {
		logf(u.logger, "schema migrations skipped")
		return nil
	}
	if appErr := u.gateway.RunMigrations(ctx); appErr != nil {
		return appErr
	}
	logf(u.logger, "schema migrations applied")
	return nil
}

// waitUntilReady polls the gateway until it answers or the readiness budget runs out.
func (u *initializePersistenceUseCase) waitUntilReady(ctx context.Context, command dto.InitializePersistenceCommand) (int, *apperrors.AppError) {
	readinessCtx, cancel := context.WithTimeout(ctx, command.ReadinessTimeout)
	defer cancel()

	ticker := time.NewTicker(command.ReadinessRetryInterval)
	defer ticker.Stop()

	attempts := 0
	for {
		attempts++
		appErr := u.gateway.CheckReadiness(readinessCtx)
		if appErr == nil {
			return attempts, nil
		}
		logf(u.logger, "database not ready attempt=%d code=%s", attempts, appErr.Code)

		select {
		case <-readinessCtx.Done():
			return attempts, apperrors.NewUnavailable(
				"DB_READINESS_TIMEOUT",
				"database did not become ready in time",
				map[string]any{
					"attempts":  attempts,
					"timeout":   command.ReadinessTimeout.String(),
					"last_code": appErr.Code,
				},
			)
		case <-ticker.C:
		}
	}
}
