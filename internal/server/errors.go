package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/resume-matcher/internal/api"
	"github.com/jonathan/resume-matcher/internal/artifact"
	"github.com/jonathan/resume-matcher/internal/ingestion"
)

// ErrNoSession indicates no session has been started yet
var ErrNoSession = errors.New("no session has been started")

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var validationErr *ErrValidation
	var apiErr *api.Error
	var artifactErr *artifact.Error

	switch {
	case errors.As(err, &validationErr),
		errors.Is(err, ingestion.ErrEmptyDescription),
		errors.Is(err, ingestion.ErrTooManyDescriptions):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoSession):
		return http.StatusNotFound
	case errors.As(err, &apiErr):
		if apiErr.Kind == api.KindTimeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case errors.As(err, &artifactErr):
		if artifactErr.Stage == artifact.StageFetch || artifactErr.Stage == artifact.StageVerify {
			return http.StatusBadGateway
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
