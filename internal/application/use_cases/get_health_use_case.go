package use_cases

import (
	"context"
	"time"

	"stablesettle/internal/application/dto"
	portsin "stablesettle/internal/application/ports/in"
	portsout "stablesettle/internal/application/ports/out"
	valueobjects "stablesettle/internal/domain/value_objects"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

const healthCheckTimeout = 2 * time.Second

type getHealthUseCase struct {
	persistence portsout.PersistenceBootstrapGateway
}

// NewGetHealthUseCase reports ok without a persistence check when persistence is nil.
func NewGetHealthUseCase(persistence portsout.PersistenceBootstrapGateway) portsin.GetHealthUseCase {
	return &getHealthUseCase{persistence: persistence}
}

func (u *getHealthUseCase) Execute(ctx context.Context, command dto.GetHealthCommand) (dto.HealthOutput, *apperrors.AppError) {
	if command.LivenessOnly || u.persistence == nil {
		return dto.HealthOutput{Status: valueobjects.HealthStatusOK.String()}, nil
	}

	checks := map[string]string{"database": valueobjects.HealthStatusOK.String()}
	checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	if appErr := u.persistence.CheckReadiness(checkCtx); appErr != nil {
		checks["database"] = appErr.Code
	}

	return dto.HealthOutput{
		Status: valueobjects.HealthStatusOf(checks).String(),
		Checks: checks,
	}, nil
}
