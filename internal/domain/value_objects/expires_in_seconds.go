package valueobjects

import apperrors "stablesettle/internal/shared_kernel/errors"

const (
	MinIntentExpiresInSeconds     int64 = 60
	MaxIntentExpiresInSeconds     int64 = 86_400
	DefaultIntentExpiresInSeconds int64 = 1_800
)

func ResolveIntentExpiresInSeconds(requested *int64) (int64, *apperrors.AppError) {
	if requested == nil {
		return DefaultIntentExpiresInSeconds, nil
	}

	if *requested < MinIntentExpiresInSeconds || *requested > MaxIntentExpiresInSeconds {
		return 0, apperrors.NewValidation(
			"invalid_request",
			"expires_in_seconds must be between 60 and 86400",
			map[string]any{"field": "expires_in_seconds"},
		)
	}

	return *requested, nil
}
