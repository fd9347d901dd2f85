package out

import "stablesettle/internal/application/dto"

type TokenRegistry interface {
	Resolve(chain string, currency string) (dto.TokenInfo, bool)
	List() []dto.TokenInfo
}
