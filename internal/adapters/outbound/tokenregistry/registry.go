package tokenregistry

import (
	"sort"
	"strings"

	"stablesettle/internal/application/dto"
	portsout "stablesettle/internal/application/ports/out"
	valueobjects "stablesettle/internal/domain/value_objects"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type key struct {
	chain    string
	currency string
}

// Registry is the static (chain, currency) -> token table loaded at startup.
type Registry struct {
	tokens  map[key]dto.TokenInfo
	ordered []dto.TokenInfo
}

var _ portsout.TokenRegistry = (*Registry)(nil)

// New validates entries and canonicalizes token ids the same way payment addresses are
// stored, so observed transfers compare by plain string equality.
func New(entries []dto.TokenInfo) (*Registry, *apperrors.AppError) {
	registry := &Registry{tokens: make(map[key]dto.TokenInfo, len(entries))}
	for _, entry := range entries {
		chain, appErr := valueobjects.ParseChain(entry.Chain)
		if appErr != nil {
			return nil, appErr
		}
		currency, appErr := valueobjects.ParseCurrency(entry.Currency)
		if appErr != nil {
			return nil, appErr
		}
		tokenID, appErr := valueobjects.NormalizeAddress(chain, "token_id", entry.TokenID)
		if appErr != nil {
			return nil, appErr
		}
		if entry.Decimals < 0 || entry.Decimals > 18 {
			return nil, apperrors.NewValidation(
				"invalid_token_decimals",
				"token decimals must be between 0 and 18",
				map[string]any{"chain": chain.String(), "currency": currency.String(), "decimals": entry.Decimals},
			)
		}

		k := key{chain: chain.String(), currency: currency.String()}
		if _, exists := registry.tokens[k]; exists {
			return nil, apperrors.NewValidation(
				"duplicate_token",
				"token is configured more than once",
				map[string]any{"chain": k.chain, "currency": k.currency},
			)
		}
		registry.tokens[k] = dto.TokenInfo{
			Chain:    k.chain,
			Currency: k.currency,
			TokenID:  tokenID,
			Decimals: entry.Decimals,
		}
	}

	registry.ordered = make([]dto.TokenInfo, 0, len(registry.tokens))
	for _, token := range registry.tokens {
		registry.ordered = append(registry.ordered, token)
	}
	sort.Slice(registry.ordered, func(i, j int) bool {
		if registry.ordered[i].Chain != registry.ordered[j].Chain {
			return registry.ordered[i].Chain < registry.ordered[j].Chain
		}
		return registry.ordered[i].Currency < registry.ordered[j].Currency
	})
	return registry, nil
}

func (r *Registry) Resolve(chain string, currency string) (dto.TokenInfo, bool) {
	token, ok := r.tokens[key{
		chain:    strings.ToLower(strings.TrimSpace(chain)),
		currency: strings.ToUpper(strings.TrimSpace(currency)),
	}]
	return token, ok
}

func (r *Registry) List() []dto.TokenInfo {
	out := make([]dto.TokenInfo, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// ForChain returns the tokens configured on chain, used to scope chain readers.
func (r *Registry) ForChain(chain string) []dto.TokenInfo {
	normalized := strings.ToLower(strings.TrimSpace(chain))
	out := make([]dto.TokenInfo, 0, len(r.ordered))
	for _, token := range r.ordered {
		if token.Chain == normalized {
			out = append(out, token)
		}
	}
	return out
}
