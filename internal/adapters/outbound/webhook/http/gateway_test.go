//go:build !integration

package http

import (
	"context"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stablesettle/internal/application/dto"
)

type capturedRequest struct {
	method  string
	headers nethttp.Header
	body    []byte
}

func captureServer(t *testing.T, status int, captured chan<- capturedRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("failed to read request body: %v", err)
		}
		captured <- capturedRequest{method: r.Method, headers: r.Header.Clone(), body: body}
		w.WriteHeader(status)
		_, _ = w.Write([]byte("upstream says no"))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestSendWebhookEventSignsExactBody(t *testing.T) {
	captured := make(chan capturedRequest, 1)
	server := captureServer(t, nethttp.StatusNoContent, captured)
	payload := []byte(`{"id":"evt_1","type":"payment.succeeded","data":{"amount":"10.00"}}`)

	gateway := NewGateway(Config{Now: func() time.Time { return time.Unix(1760000000, 0) }})
	output, appErr := gateway.SendWebhookEvent(context.Background(), dto.SendWebhookEventInput{
		EventID:        "evt_1",
		EventType:      "payment.succeeded",
		DestinationURL: server.URL,
		SigningSecret:  "whsec_test",
		Payload:        payload,
	})
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if output.StatusCode != nethttp.StatusNoContent {
		t.Fatalf("expected status %d, got %d", nethttp.StatusNoContent, output.StatusCode)
	}

	request := <-captured
	if request.method != nethttp.MethodPost {
		t.Fatalf("expected POST, got %s", request.method)
	}
	if string(request.body) != string(payload) {
		t.Fatalf("expected body to be sent unchanged, got %s", request.body)
	}
	checks := map[string]string{
		"Content-Type":    "application/json",
		"X-Event-Id":      "evt_1",
		"Idempotency-Key": "evt_1",
		"X-Event-Type":    "payment.succeeded",
		"X-Timestamp":     "1760000000",
		"X-Signature":     Sign("whsec_test", payload),
		"User-Agent":      "stablesettle-webhooks/1",
	}
	for header, want := range checks {
		if got := request.headers.Get(header); got != want {
			t.Fatalf("expected %s=%s, got %s", header, want, got)
		}
	}
}

func TestSignKnownVector(t *testing.T) {
	got := Sign("key", []byte("The quick brown fox jumps over the lazy dog"))
	if got != "f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8" {
		t.Fatalf("unexpected hmac %s", got)
	}
}

func TestVerifyAcceptsOnlyMatchingSignature(t *testing.T) {
	body := []byte(`{"id":"evt_9"}`)
	signature := Sign("whsec_test", body)

	if !Verify("whsec_test", body, signature) {
		t.Fatalf("expected signature to verify")
	}
	if Verify("whsec_other", body, signature) {
		t.Fatalf("expected signature under another secret to be rejected")
	}
	if Verify("whsec_test", []byte(`{"id":"evt_10"}`), signature) {
		t.Fatalf("expected signature over another body to be rejected")
	}
	if Verify("whsec_test", body, "not-hex") {
		t.Fatalf("expected malformed signature to be rejected")
	}
}

func TestSendWebhookEventWithoutSecretOmitsSignature(t *testing.T) {
	captured := make(chan capturedRequest, 1)
	server := captureServer(t, nethttp.StatusOK, captured)

	_, appErr := NewGateway(Config{}).SendWebhookEvent(context.Background(), dto.SendWebhookEventInput{
		EventID:        "evt_2",
		EventType:      "payout.completed",
		DestinationURL: server.URL,
		Payload:        []byte(`{}`),
	})
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if got := (<-captured).headers.Get("X-Signature"); got != "" {
		t.Fatalf("expected no signature header, got %s", got)
	}
}

func TestSendWebhookEventNon2xxReturnsStatusAndError(t *testing.T) {
	captured := make(chan capturedRequest, 1)
	server := captureServer(t, nethttp.StatusBadGateway, captured)

	output, appErr := NewGateway(Config{}).SendWebhookEvent(context.Background(), dto.SendWebhookEventInput{
		EventID:        "evt_3",
		EventType:      "payment.succeeded",
		DestinationURL: server.URL,
		SigningSecret:  "whsec_test",
		Payload:        []byte(`{"id":"evt_3"}`),
	})
	if appErr == nil || appErr.Code != "webhook_delivery_failed" {
		t.Fatalf("expected webhook_delivery_failed, got %+v", appErr)
	}
	if output.StatusCode != nethttp.StatusBadGateway {
		t.Fatalf("expected status %d, got %d", nethttp.StatusBadGateway, output.StatusCode)
	}
	if appErr.Details["body"] != "upstream says no" {
		t.Fatalf("expected body preview, got %v", appErr.Details["body"])
	}
}

func TestSendWebhookEventTransportFailureHasNoStatus(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(nethttp.ResponseWriter, *nethttp.Request) {}))
	url := server.URL
	server.Close()

	output, appErr := NewGateway(Config{Timeout: time.Second}).SendWebhookEvent(context.Background(), dto.SendWebhookEventInput{
		EventID:        "evt_4",
		EventType:      "payment.succeeded",
		DestinationURL: url,
		Payload:        []byte(`{}`),
	})
	if appErr == nil || !appErr.Transient() {
		t.Fatalf("expected transient delivery error, got %+v", appErr)
	}
	if output.StatusCode != 0 {
		t.Fatalf("expected no status code, got %d", output.StatusCode)
	}
}

func TestSendWebhookEventValidatesInput(t *testing.T) {
	gateway := NewGateway(Config{})
	cases := []struct {
		name  string
		input dto.SendWebhookEventInput
		code  string
	}{
		{"payload", dto.SendWebhookEventInput{EventID: "e", EventType: "t", DestinationURL: "https://example.com"}, "webhook_payload_missing"},
		{"event id", dto.SendWebhookEventInput{EventType: "t", DestinationURL: "https://example.com", Payload: []byte(`{}`)}, "webhook_event_id_missing"},
		{"event type", dto.SendWebhookEventInput{EventID: "e", DestinationURL: "https://example.com", Payload: []byte(`{}`)}, "webhook_event_type_missing"},
		{"destination", dto.SendWebhookEventInput{EventID: "e", EventType: "t", Payload: []byte(`{}`)}, "webhook_destination_missing"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, appErr := gateway.SendWebhookEvent(context.Background(), tc.input)
			if appErr == nil || appErr.Code != tc.code {
				t.Fatalf("expected %s, got %+v", tc.code, appErr)
			}
		})
	}
}
