package use_cases

import (
	"context"
	"sort"
	"strings"

	"stablesettle/internal/application/dto"
	portsin "stablesettle/internal/application/ports/in"
	portsout "stablesettle/internal/application/ports/out"
	valueobjects "stablesettle/internal/domain/value_objects"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type listAssetsUseCase struct {
	tokens portsout.TokenRegistry
}

func NewListAssetsUseCase(tokens portsout.TokenRegistry) portsin.ListAssetsUseCase {
	return &listAssetsUseCase{tokens: tokens}
}

func (u *listAssetsUseCase) Execute(_ context.Context, query dto.ListAssetsQuery) (dto.ListAssetsOutput, *apperrors.AppError) {
	if u.tokens == nil {
		return dto.ListAssetsOutput{}, missingDependency("token_registry_missing", "token registry is required")
	}

	chainFilter := ""
	if strings.TrimSpace(query.Chain) != "" {
		chain, appErr := valueobjects.ParseChain(query.Chain)
		if appErr != nil {
			return dto.ListAssetsOutput{}, appErr
		}
		chainFilter = chain.String()
	}

	assets := make([]dto.TokenInfo, 0, len(u.tokens.List()))
	for _, token := range u.tokens.List() {
		if chainFilter != "" && token.Chain != chainFilter {
			continue
		}
		assets = append(assets, token)
	}
	sort.Slice(assets, func(i, j int) bool {
		if assets[i].Chain != assets[j].Chain {
			return assets[i].Chain < assets[j].Chain
		}
		return assets[i].Currency < assets[j].Currency
	})
	return dto.ListAssetsOutput{Assets: assets}, nil
}
