package in

import (
	"context"

	"stablesettle/internal/application/dto"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type MonitorSettlementsUseCase interface {
	Execute(ctx context.Context, command dto.MonitorSettlementsCommand) (dto.MonitorSettlementsOutput, *apperrors.AppError)
}
