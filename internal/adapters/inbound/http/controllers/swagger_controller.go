package controllers

import (
	"log"
	"net/http"
	"strings"

	"stablesettle/internal/application/dto"
	portsin "stablesettle/internal/application/ports/in"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

const openAPIDocumentPath = "/swagger/openapi.yaml"

// SwaggerController serves the interactive API explorer and the document it renders.
type SwaggerController struct {
	useCase portsin.GetOpenAPISpecUseCase
	logger  *log.Logger
	ui      http.Handler
}

func NewSwaggerController(useCase portsin.GetOpenAPISpecUseCase, logger *log.Logger) *SwaggerController {
	return &SwaggerController{
		useCase: useCase,
		logger:  logger,
		ui: httpSwagger.Handler(
			httpSwagger.URL(openAPIDocumentPath),
			httpSwagger.PersistAuthorization(true),
		),
	}
}

func (c *SwaggerController) RedirectToIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/swagger/index.html", http.StatusTemporaryRedirect)
}

func (c *SwaggerController) ServeUI(w http.ResponseWriter, r *http.Request) {
	c.ui.ServeHTTP(w, r)
}

// GetOpenAPISpec answers conditional requests with 304 when the client copy is current.
func (c *SwaggerController) GetOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	output, appErr := c.useCase.Execute(r.Context(), dto.GetOpenAPISpecQuery{})
	if appErr != nil {
		failRequest(c.logger, w, r, appErr)
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	if output.ETag != "" {
		w.Header().Set("ETag", output.ETag)
		if etagMatches(r.Header.Get("If-None-Match"), output.ETag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	w.Header().Set("Content-Type", output.ContentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(output.Content); err != nil && c.logger != nil {
		c.logger.Printf("response write error path=%s method=%s error=%v", openAPIDocumentPath, r.Method, err)
	}
}

func etagMatches(header string, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}
