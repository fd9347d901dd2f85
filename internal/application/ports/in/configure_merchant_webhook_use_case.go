package in

import (
	"context"

	"stablesettle/internal/application/dto"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type ConfigureMerchantWebhookUseCase interface {
	Execute(ctx context.Context, command dto.ConfigureMerchantWebhookCommand) (dto.MerchantWebhookOutput, *apperrors.AppError)
}
