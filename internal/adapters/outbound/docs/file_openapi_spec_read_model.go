package docs

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	portsout "stablesettle/internal/application/ports/out"
	apperrors "stablesettle/internal/shared_kernel/errors"

	"gopkg.in/yaml.v3"
)

// FileOpenAPISpecReadModel serves the API document from disk.
type FileOpenAPISpecReadModel struct {
	path string
}

var _ portsout.OpenAPISpecReadModel = (*FileOpenAPISpecReadModel)(nil)

func NewFileOpenAPISpecReadModel(path string) *FileOpenAPISpecReadModel {
	return &FileOpenAPISpecReadModel{path: path}
}

// Read re-reads the file on every call so a redeployed document shows up without a
// restart. A document without a top-level openapi version is rejected.
func (r *FileOpenAPISpecReadModel) Read(_ context.Context) ([]byte, string, *apperrors.AppError) {
	content, err := os.ReadFile(r.path)
	if err != nil {
		return nil, "", apperrors.NewInternal(
			"openapi_file_read_failed",
			"failed to read OpenAPI spec file",
			map[string]any{"path": r.path},
		)
	}

	var header struct {
		OpenAPI string `yaml:"openapi"`
	}
	if err := yaml.Unmarshal(content, &header); err != nil || strings.TrimSpace(header.OpenAPI) == "" {
		details := map[string]any{"path": r.path}
		if err != nil {
			details["error"] = err.Error()
		}
		return nil, "", apperrors.NewInternal("openapi_file_invalid", "OpenAPI spec file is not a valid document", details)
	}

	if strings.EqualFold(filepath.Ext(r.path), ".json") {
		return content, "application/json; charset=utf-8", nil
	}
	return content, "application/yaml; charset=utf-8", nil
}
