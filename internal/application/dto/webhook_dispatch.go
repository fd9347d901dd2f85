package dto

import "time"

type DispatchWebhookEventsCommand struct {
	Now           time.Time
	BatchSize     int
	WorkerID      string
	LeaseDuration time.Duration
}

type DispatchWebhookEventsOutput struct {
	Claimed           int
	Delivered         int
	Retried           int
	Failed            int
	Unconfigured      int
	Skipped           int
	HTTP2xxCount      int
	HTTP4xxCount      int
	HTTP5xxCount      int
	NetworkErrorCount int
	LatencyMS         int64
}

type ClaimedWebhookEvent struct {
	ID             string
	MerchantID     string
	EventType      string
	Payload        []byte
	Attempts       int
	MaxAttempts    int
	DestinationURL *string
	SigningSecret  *string
}

type SendWebhookEventInput struct {
	EventID        string
	EventType      string
	DestinationURL string
	SigningSecret  string
	Payload        []byte
}

type SendWebhookEventOutput struct {
	StatusCode int
}

type WebhookDeliveryResult struct {
	ID                 string
	LeaseOwner         string
	Attempts           int
	ResponseStatusCode *int
	LastError          string
	NextRetryAt        time.Time
	Now                time.Time
}
