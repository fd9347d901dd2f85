package dto

// GetHealthCommand with LivenessOnly set answers without probing dependencies.
type GetHealthCommand struct {
	LivenessOnly bool
}

type HealthOutput struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
