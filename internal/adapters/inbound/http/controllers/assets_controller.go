package controllers

import (
	"log"
	"net/http"

	"stablesettle/internal/application/dto"
	portsin "stablesettle/internal/application/ports/in"
)

// AssetsController lists the stablecoin deployments this service settles.
type AssetsController struct {
	useCase portsin.ListAssetsUseCase
	logger  *log.Logger
}

func NewAssetsController(useCase portsin.ListAssetsUseCase, logger *log.Logger) *AssetsController {
	return &AssetsController{useCase: useCase, logger: logger}
}

func (c *AssetsController) ListAssets(w http.ResponseWriter, r *http.Request) {
	query := dto.ListAssetsQuery{Chain: r.URL.Query().Get("chain")}
	output, appErr := c.useCase.Execute(r.Context(), query)
	if appErr != nil {
		failRequest(c.logger, w, r, appErr)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=60")
	writeJSON(w, http.StatusOK, output)
}
