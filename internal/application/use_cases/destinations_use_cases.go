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

const maxDestinationLabelLength = 120

type createDestinationUseCase struct {
	destinations portsout.DestinationRepository
	clock        Clock
	ids          IDGenerator
}

func NewCreateDestinationUseCase(
	destinations portsout.DestinationRepository,
	clock Clock,
	ids IDGenerator,
) portsin.CreateDestinationUseCase {
	return &createDestinationUseCase{destinations: destinations, clock: clock, ids: idsOrDefault(ids)}
}

func (u *createDestinationUseCase) Execute(
	ctx context.Context,
	command dto.CreateDestinationCommand,
) (dto.DestinationResource, *apperrors.AppError) {
	if u.destinations == nil {
		return dto.DestinationResource{}, missingDependency("destination_repository_missing", "destination repository is required")
	}
	merchantID, appErr := requireMerchantID(command.MerchantID)
	if appErr != nil {
		return dto.DestinationResource{}, appErr
	}
	chain, appErr := valueobjects.ParseChain(command.Chain)
	if appErr != nil {
		return dto.DestinationResource{}, appErr
	}
	address, appErr := valueobjects.NormalizeAddress(chain, "address", command.Address)
	if appErr != nil {
		return dto.DestinationResource{}, appErr
	}
	label := strings.TrimSpace(command.Label)
	if len(label) > maxDestinationLabelLength {
		return dto.DestinationResource{}, apperrors.NewValidation(
			"invalid_request",
			"label is too long",
			map[string]any{"field": "label", "max_length": maxDestinationLabelLength},
		)
	}

	destination := entities.SavedDestination{
		ID:         u.ids.NewID(idPrefixDestination),
		MerchantID: merchantID,
		Chain:      chain,
		Address:    address,
		Label:      label,
		CreatedAt:  resolveNow(u.clock, command.Now),
	}
	if appErr := u.destinations.Create(ctx, destination); appErr != nil {
		return dto.DestinationResource{}, appErr
	}
	return toDestinationResource(destination), nil
}

type listDestinationsUseCase struct {
	destinations portsout.DestinationRepository
}

func NewListDestinationsUseCase(destinations portsout.DestinationRepository) portsin.ListDestinationsUseCase {
	return &listDestinationsUseCase{destinations: destinations}
}

func (u *listDestinationsUseCase) Execute(
	ctx context.Context,
	query dto.ListDestinationsQuery,
) (dto.ListDestinationsOutput, *apperrors.AppError) {
	if u.destinations == nil {
		return dto.ListDestinationsOutput{}, missingDependency("destination_repository_missing", "destination repository is required")
	}
	merchantID, appErr := requireMerchantID(query.MerchantID)
	if appErr != nil {
		return dto.ListDestinationsOutput{}, appErr
	}

	destinations, appErr := u.destinations.List(ctx, merchantID)
	if appErr != nil {
		return dto.ListDestinationsOutput{}, appErr
	}
	output := dto.ListDestinationsOutput{Destinations: make([]dto.DestinationResource, 0, len(destinations))}
	for _, destination := range destinations {
		output.Destinations = append(output.Destinations, toDestinationResource(destination))
	}
	return output, nil
}
