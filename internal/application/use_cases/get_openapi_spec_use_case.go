package use_cases

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"stablesettle/internal/application/dto"
	portsin "stablesettle/internal/application/ports/in"
	portsout "stablesettle/internal/application/ports/out"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type getOpenAPISpecUseCase struct {
	readModel portsout.OpenAPISpecReadModel
}

func NewGetOpenAPISpecUseCase(readModel portsout.OpenAPISpecReadModel) portsin.GetOpenAPISpecUseCase {
	return &getOpenAPISpecUseCase{readModel: readModel}
}

// Execute returns the API document with a strong validator derived from its bytes.
func (u *getOpenAPISpecUseCase) Execute(ctx context.Context, _ dto.GetOpenAPISpecQuery) (dto.OpenAPISpecOutput, *apperrors.AppError) {
	if u.readModel == nil {
		return dto.OpenAPISpecOutput{}, missingDependency("openapi_spec_read_model_missing", "openapi spec read model is required")
	}
	content, contentType, appErr := u.readModel.Read(ctx)
	if appErr != nil {
		return dto.OpenAPISpecOutput{}, appErr
	}

	digest := sha256.Sum256(content)
	return dto.OpenAPISpecOutput{
		Content:     content,
		ContentType: contentType,
		ETag:        `"` + hex.EncodeToString(digest[:16]) + `"`,
	}, nil
}
