package policies

import "time"

const DefaultWebhookMaxAttempts = 5

var webhookRetrySchedule = []time.Duration{
	1 * time.Minute,
	5 * time.Minute,
	15 * time.Minute,
	1 * time.Hour,
	6 * time.Hour,
}

// WebhookRetryDelay returns the delay before the next delivery after attempts failures.
// attempts is 1-based; values past the schedule reuse its last entry.
func WebhookRetryDelay(attempts int) time.Duration {
	index := attempts - 1
	if index < 0 {
		index = 0
	}
	if index >= len(webhookRetrySchedule) {
		index = len(webhookRetrySchedule) - 1
	}
	return webhookRetrySchedule[index]
}
