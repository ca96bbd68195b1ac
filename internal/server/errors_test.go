package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/resume-matcher/internal/api"
	"github.com/jonathan/resume-matcher/internal/artifact"
	"github.com/jonathan/resume-matcher/internal/ingestion"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &ErrValidation{Field: "file", Message: "is required"}, http.StatusBadRequest},
		{"empty description", fmt.Errorf("job 1: %w", ingestion.ErrEmptyDescription), http.StatusBadRequest},
		{"too many descriptions", ingestion.ErrTooManyDescriptions, http.StatusBadRequest},
		{"no session", ErrNoSession, http.StatusNotFound},
		{"upstream status", &api.Error{Kind: api.KindImprove, StatusCode: 500}, http.StatusBadGateway},
		{"upstream timeout", &api.Error{Kind: api.KindTimeout}, http.StatusGatewayTimeout},
		{"fetch", &artifact.Error{Stage: artifact.StageFetch, Cause: &api.Error{Kind: api.KindTimeout}}, http.StatusGatewayTimeout},
		{"verify", &artifact.Error{Stage: artifact.StageVerify}, http.StatusBadGateway},
		{"spool", &artifact.Error{Stage: artifact.StageSpool}, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestErrValidation_Error(t *testing.T) {
	err := &ErrValidation{Field: "locale", Message: "unsupported"}
	assert.Equal(t, "validation error: locale - unsupported", err.Error())
}
