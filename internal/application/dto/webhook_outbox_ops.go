package dto

import "time"

type ListFailedWebhookEventsQuery struct {
	MerchantID string
	Limit      int
}

type WebhookEventResource struct {
	ID                 string     `json:"id"`
	EventType          string     `json:"event_type"`
	ResourceType       string     `json:"resource_type"`
	ResourceID         string     `json:"resource_id"`
	Status             string     `json:"status"`
	Attempts           int        `json:"attempts"`
	MaxAttempts        int        `json:"max_attempts"`
	ResponseStatusCode *int       `json:"response_status_code,omitempty"`
	LastError          *string    `json:"last_error,omitempty"`
	NextRetryAt        time.Time  `json:"next_retry_at"`
	DeliveredAt        *time.Time `json:"delivered_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type ListFailedWebhookEventsOutput struct {
	Events []WebhookEventResource `json:"events"`
}

type RequeueWebhookEventCommand struct {
	MerchantID string
	EventID    string
	OperatorID string
	Now        time.Time
}

type RequeueWebhookEventOutput struct {
	EventID   string    `json:"event_id"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

type WebhookEventMutationResult struct {
	Found         bool
	Updated       bool
	CurrentStatus string
}
