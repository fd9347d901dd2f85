package valueobjects

// HealthStatus is the aggregate state reported by the health endpoints.
type HealthStatus string

const (
	HealthStatusOK       HealthStatus = "ok"
	HealthStatusDegraded HealthStatus = "degraded"
)

func (h HealthStatus) String() string {
	return string(h)
}

// HealthStatusOf folds per-dependency results; any non-ok check degrades the whole.
func HealthStatusOf(checks map[string]string) HealthStatus {
	for _, result := range checks {
		if result != HealthStatusOK.String() {
			return HealthStatusDegraded
		}
	}
	return HealthStatusOK
}
