package valueobjects

type WebhookEventStatus string

const (
	WebhookEventStatusPending   WebhookEventStatus = "pending"
	WebhookEventStatusRetrying  WebhookEventStatus = "retrying"
	WebhookEventStatusDelivered WebhookEventStatus = "delivered"
	WebhookEventStatusFailed    WebhookEventStatus = "failed"
)

func (s WebhookEventStatus) IsTerminal() bool {
	return s == WebhookEventStatusDelivered || s == WebhookEventStatusFailed
}

func (s WebhookEventStatus) String() string {
	return string(s)
}
