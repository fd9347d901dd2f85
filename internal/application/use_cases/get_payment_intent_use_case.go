package use_cases

import (
	"context"

	"stablesettle/internal/application/dto"
	portsin "stablesettle/internal/application/ports/in"
	portsout "stablesettle/internal/application/ports/out"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type getPaymentIntentUseCase struct {
	repository portsout.PaymentIntentRepository
}

func NewGetPaymentIntentUseCase(repository portsout.PaymentIntentRepository) portsin.GetPaymentIntentUseCase {
	return &getPaymentIntentUseCase{repository: repository}
}

func (u *getPaymentIntentUseCase) Execute(
	ctx context.Context,
	query dto.GetPaymentIntentQuery,
) (dto.PaymentIntentResource, *apperrors.AppError) {
	if u.repository == nil {
		return dto.PaymentIntentResource{}, missingDependency("payment_intent_repository_missing", "payment intent repository is required")
	}
	merchantID, appErr := requireMerchantID(query.MerchantID)
	if appErr != nil {
		return dto.PaymentIntentResource{}, appErr
	}
	id, appErr := requireField("id", query.ID)
	if appErr != nil {
		return dto.PaymentIntentResource{}, appErr
	}

	intent, found, appErr := u.repository.GetByID(ctx, merchantID, id)
	if appErr != nil {
		return dto.PaymentIntentResource{}, appErr
	}
	if !found {
		return dto.PaymentIntentResource{}, apperrors.NewNotFound(
			"payment_intent_not_found",
			"payment intent was not found",
			map[string]any{"id": id},
		)
	}

	return toPaymentIntentResource(intent), nil
}
