package controllers

import (
	"log"
	"net/http"

	"stablesettle/internal/application/dto"
	portsin "stablesettle/internal/application/ports/in"
	valueobjects "stablesettle/internal/domain/value_objects"
)

type HealthController struct {
	useCase portsin.GetHealthUseCase
	logger  *log.Logger
}

func NewHealthController(useCase portsin.GetHealthUseCase, logger *log.Logger) *HealthController {
	return &HealthController{
		useCase: useCase,
		logger:  logger,
	}
}

// GetHealth is the readiness check; it answers 503 while the database is unreachable.
func (c *HealthController) GetHealth(w http.ResponseWriter, r *http.Request) {
	c.respond(w, r, dto.GetHealthCommand{})
}

// GetLiveness only confirms the process is serving requests.
func (c *HealthController) GetLiveness(w http.ResponseWriter, r *http.Request) {
	c.respond(w, r, dto.GetHealthCommand{LivenessOnly: true})
}

func (c *HealthController) respond(w http.ResponseWriter, r *http.Request, command dto.GetHealthCommand) {
	output, appErr := c.useCase.Execute(r.Context(), command)
	if appErr != nil {
		failRequest(c.logger, w, r, appErr)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	status := http.StatusOK
	if output.Status != valueobjects.HealthStatusOK.String() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, output)
}
