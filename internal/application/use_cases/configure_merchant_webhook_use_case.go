package use_cases

import (
	"context"
	"strings"

	"stablesettle/internal/application/dto"
	portsin "stablesettle/internal/application/ports/in"
	portsout "stablesettle/internal/application/ports/out"
	"stablesettle/internal/domain/entities"
	valueobjects "stablesettle/internal/domain/value_objects"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

const minWebhookSecretLength = 16

type configureMerchantWebhookUseCase struct {
	merchants portsout.MerchantRepository
	clock     Clock
}

func NewConfigureMerchantWebhookUseCase(
	merchants portsout.MerchantRepository,
	clock Clock,
) portsin.ConfigureMerchantWebhookUseCase {
	return &configureMerchantWebhookUseCase{merchants: merchants, clock: clock}
}

func (u *configureMerchantWebhookUseCase) Execute(
	ctx context.Context,
	command dto.ConfigureMerchantWebhookCommand,
) (dto.MerchantWebhookOutput, *apperrors.AppError) {
	if u.merchants == nil {
		return dto.MerchantWebhookOutput{}, missingDependency("merchant_repository_missing", "merchant repository is required")
	}
	merchantID, appErr := requireMerchantID(command.MerchantID)
	if appErr != nil {
		return dto.MerchantWebhookOutput{}, appErr
	}
	url, appErr := valueobjects.NormalizeWebhookURL(command.URL)
	if appErr != nil {
		return dto.MerchantWebhookOutput{}, appErr
	}
	secret := strings.TrimSpace(command.Secret)
	if len(secret) < minWebhookSecretLength {
		return dto.MerchantWebhookOutput{}, apperrors.NewValidation(
			"webhook_secret_invalid",
			"webhook secret must be at least 16 characters",
			map[string]any{"field": "secret"},
		)
	}

	now := resolveNow(u.clock, command.Now)
	if appErr := u.merchants.UpsertWebhookConfig(ctx, entities.MerchantWebhookConfig{
		MerchantID: merchantID,
		URL:        &url,
		Secret:     &secret,
		UpdatedAt:  now,
	}); appErr != nil {
		return dto.MerchantWebhookOutput{}, appErr
	}

	return dto.MerchantWebhookOutput{MerchantID: merchantID, URL: url, UpdatedAt: now}, nil
}
