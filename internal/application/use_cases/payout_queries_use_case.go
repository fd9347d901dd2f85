package use_cases

import (
	"context"
	"strings"

	"stablesettle/internal/application/dto"
	portsin "stablesettle/internal/application/ports/in"
	portsout "stablesettle/internal/application/ports/out"
	valueobjects "stablesettle/internal/domain/value_objects"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

const (
	defaultPayoutListLimit = 50
	maxPayoutListLimit     = 200
)

type getPayoutUseCase struct {
	payouts portsout.PayoutRepository
}

func NewGetPayoutUseCase(payouts portsout.PayoutRepository) portsin.GetPayoutUseCase {
	return &getPayoutUseCase{payouts: payouts}
}

func (u *getPayoutUseCase) Execute(ctx context.Context, query dto.GetPayoutQuery) (dto.PayoutResource, *apperrors.AppError) {
	if u.payouts == nil {
		return dto.PayoutResource{}, missingDependency("payout_repository_missing", "payout repository is required")
	}
	merchantID, appErr := requireMerchantID(query.MerchantID)
	if appErr != nil {
		return dto.PayoutResource{}, appErr
	}
	id, appErr := requireField("id", query.ID)
	if appErr != nil {
		return dto.PayoutResource{}, appErr
	}

	payout, appErr := loadPayout(ctx, u.payouts, merchantID, id)
	if appErr != nil {
		return dto.PayoutResource{}, appErr
	}
	return toPayoutResource(payout), nil
}

type listPayoutsUseCase struct {
	payouts portsout.PayoutRepository
}

func NewListPayoutsUseCase(payouts portsout.PayoutRepository) portsin.ListPayoutsUseCase {
	return &listPayoutsUseCase{payouts: payouts}
}

func (u *listPayoutsUseCase) Execute(ctx context.Context, query dto.ListPayoutsQuery) (dto.ListPayoutsOutput, *apperrors.AppError) {
	if u.payouts == nil {
		return dto.ListPayoutsOutput{}, missingDependency("payout_repository_missing", "payout repository is required")
	}
	merchantID, appErr := requireMerchantID(query.MerchantID)
	if appErr != nil {
		return dto.ListPayoutsOutput{}, appErr
	}

	status := strings.ToLower(strings.TrimSpace(query.Status))
	if status != "" {
		if _, appErr := valueobjects.ParsePayoutStatus(status); appErr != nil {
			return dto.ListPayoutsOutput{}, appErr
		}
	}
	limit := query.Limit
	if limit <= 0 {
		limit = defaultPayoutListLimit
	}
	if limit > maxPayoutListLimit {
		limit = maxPayoutListLimit
	}

	payouts, appErr := u.payouts.List(ctx, dto.ListPayoutsQuery{
		MerchantID: merchantID,
		Status:     status,
		Limit:      limit,
	})
	if appErr != nil {
		return dto.ListPayoutsOutput{}, appErr
	}

	output := dto.ListPayoutsOutput{Payouts: make([]dto.PayoutResource, 0, len(payouts))}
	for _, payout := range payouts {
		output.Payouts = append(output.Payouts, toPayoutResource(payout))
	}
	return output, nil
}
