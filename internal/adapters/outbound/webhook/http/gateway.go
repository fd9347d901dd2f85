package http

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"io"
	"net"
	nethttp "net/http"
	"strconv"
	"strings"
	"time"

	"stablesettle/internal/application/dto"
	portsout "stablesettle/internal/application/ports/out"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

const (
	defaultHTTPTimeout   = 10 * time.Second
	maxResponsePreview   = 1024
	defaultUserAgent     = "stablesettle-webhooks/1"
	headerSignature      = "X-Signature"
	headerTimestamp      = "X-Timestamp"
	headerEventID        = "X-Event-Id"
	headerEventType      = "X-Event-Type"
	headerIdempotencyKey = "Idempotency-Key"
)

type Config struct {
	Timeout   time.Duration
	UserAgent string
	Now       func() time.Time
}

// Gateway POSTs signed outbox payloads to merchant endpoints. Any response status is
// reported back; an error without a status code means the request never completed.
type Gateway struct {
	client    *nethttp.Client
	userAgent string
	now       func() time.Time
}

var _ portsout.WebhookEventGateway = (*Gateway)(nil)

func NewGateway(cfg Config) *Gateway {
	gateway := &Gateway{
		client:    &nethttp.Client{Timeout: cfg.Timeout},
		userAgent: strings.TrimSpace(cfg.UserAgent),
		now:       cfg.Now,
	}
	if gateway.client.Timeout <= 0 {
		gateway.client.Timeout = defaultHTTPTimeout
	}
	if gateway.userAgent == "" {
		gateway.userAgent = defaultUserAgent
	}
	if gateway.now == nil {
		gateway.now = time.Now
	}
	return gateway
}

func (g *Gateway) SendWebhookEvent(
	ctx context.Context,
	input dto.SendWebhookEventInput,
) (dto.SendWebhookEventOutput, *apperrors.AppError) {
	if g == nil || g.client == nil {
		return dto.SendWebhookEventOutput{}, apperrors.NewInternal(
			"webhook_gateway_not_configured",
			"webhook gateway is not configured",
			nil,
		)
	}
	if appErr := validateSendInput(input); appErr != nil {
		return dto.SendWebhookEventOutput{}, appErr
	}

	request, appErr := g.buildRequest(ctx, input)
	if appErr != nil {
		return dto.SendWebhookEventOutput{}, appErr
	}

	response, err := g.client.Do(request)
	if err != nil {
		return dto.SendWebhookEventOutput{}, apperrors.NewUnavailable(
			"webhook_delivery_failed",
			"failed to send webhook request",
			map[string]any{"error": err.Error(), "timeout": isTimeout(err)},
		)
	}
	defer response.Body.Close()

	preview, _ := io.ReadAll(io.LimitReader(response.Body, maxResponsePreview))
	_, _ = io.Copy(io.Discard, response.Body)

	output := dto.SendWebhookEventOutput{StatusCode: response.StatusCode}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return output, apperrors.NewUnavailable(
			"webhook_delivery_failed",
			"webhook endpoint returned non-2xx status",
			map[string]any{
				"status_code": response.StatusCode,
				"body":        strings.TrimSpace(string(preview)),
			},
		)
	}
	return output, nil
}

func validateSendInput(input dto.SendWebhookEventInput) *apperrors.AppError {
	switch {
	case len(input.Payload) == 0:
		return apperrors.NewValidation("webhook_payload_missing", "webhook payload is required", nil)
	case strings.TrimSpace(input.EventID) == "":
		return apperrors.NewValidation("webhook_event_id_missing", "webhook event id is required", nil)
	case strings.TrimSpace(input.EventType) == "":
		return apperrors.NewValidation("webhook_event_type_missing", "webhook event type is required", nil)
	case strings.TrimSpace(input.DestinationURL) == "":
		return apperrors.NewValidation(
			"webhook_destination_missing",
			"webhook destination url is required",
			map[string]any{"field": "destination_url"},
		)
	}
	return nil
}

// buildRequest sends the stored payload bytes untouched so the signature covers
// exactly what the receiver reads.
func (g *Gateway) buildRequest(ctx context.Context, input dto.SendWebhookEventInput) (*nethttp.Request, *apperrors.AppError) {
	request, err := nethttp.NewRequestWithContext(
		ctx,
		nethttp.MethodPost,
		strings.TrimSpace(input.DestinationURL),
		bytes.NewReader(input.Payload),
	)
	if err != nil {
		return nil, apperrors.NewInternal(
			"webhook_request_build_failed",
			"failed to build webhook request",
			map[string]any{"error": err.Error()},
		)
	}

	eventID := strings.TrimSpace(input.EventID)
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("User-Agent", g.userAgent)
	request.Header.Set(headerEventID, eventID)
	request.Header.Set(headerIdempotencyKey, eventID)
	request.Header.Set(headerEventType, strings.TrimSpace(input.EventType))
	request.Header.Set(headerTimestamp, strconv.FormatInt(g.now().UTC().Unix(), 10))
	if secret := strings.TrimSpace(input.SigningSecret); secret != "" {
		request.Header.Set(headerSignature, Sign(secret, input.Payload))
	}
	return request, nil
}

func isTimeout(err error) bool {
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}

// Sign returns hex(HMAC-SHA256(secret, body)), the value receivers compare against the
// X-Signature header.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature is the hex HMAC of body under secret, comparing in
// constant time.
func Verify(secret string, body []byte, signature string) bool {
	expected, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return hmac.Equal(mac.Sum(nil), expected)
}
