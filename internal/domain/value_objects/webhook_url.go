package valueobjects

import (
	"net"
	"net/url"
	"strings"

	apperrors "stablesettle/internal/shared_kernel/errors"
)

// NormalizeWebhookURL validates a merchant callback URL and returns its canonical form.
func NormalizeWebhookURL(raw string) (string, *apperrors.AppError) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", apperrors.NewValidation(
			"invalid_request",
			"webhook_url is required",
			map[string]any{"field": "webhook_url"},
		)
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || !parsed.IsAbs() || strings.TrimSpace(parsed.Host) == "" {
		return "", apperrors.NewValidation(
			"invalid_request",
			"webhook_url must be a valid absolute URL",
			map[string]any{"field": "webhook_url"},
		)
	}
	if parsed.User != nil {
		return "", apperrors.NewValidation(
			"invalid_request",
			"webhook_url must not contain user info",
			map[string]any{"field": "webhook_url"},
		)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", apperrors.NewValidation(
			"invalid_request",
			"webhook_url must use http or https",
			map[string]any{"field": "webhook_url"},
		)
	}

	host := strings.TrimSuffix(strings.ToLower(parsed.Hostname()), ".")
	if host == "" {
		return "", apperrors.NewValidation(
			"invalid_request",
			"webhook_url host is required",
			map[string]any{"field": "webhook_url"},
		)
	}
	if port := parsed.Port(); port != "" {
		host = net.JoinHostPort(host, port)
	}

	parsed.Scheme = scheme
	parsed.Host = host
	parsed.Fragment = ""

	return parsed.String(), nil
}
