package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := DatabaseError("failed to store assessment", cause).WithOperation("Store").WithDetails("id=42")

	assert.Equal(t, "DATABASE_ERROR: failed to store assessment (caused by: connection refused)", err.Error())
	assert.Equal(t, "Store", err.Operation)
	assert.Equal(t, "id=42", err.Details)
	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, "INVALID_INPUT: empty document", InvalidInput("empty document", nil).Error())
}

func TestAppError_RecordsCaller(t *testing.T) {
	err := NotFound("missing", nil)
	assert.True(t, strings.HasSuffix(err.File, "errors_test.go"), err.File)
	assert.NotZero(t, err.Line)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NotFound("x", nil), http.StatusNotFound},
		{InvalidInput("x", nil), http.StatusBadRequest},
		{ValidationError("x", nil), http.StatusBadRequest},
		{Unauthorized("x", nil), http.StatusUnauthorized},
		{Forbidden("x", nil), http.StatusForbidden},
		{PayloadTooLarge("x", nil), http.StatusRequestEntityTooLarge},
		{BackendUnavailable("x", ErrBackendUnavailable), http.StatusServiceUnavailable},
		{DatabaseError("x", nil), http.StatusInternalServerError},
		{fmt.Errorf("lookup: %w", ErrAssessmentNotFound), http.StatusNotFound},
		{stderrors.New("plain"), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", InvalidInput("x", nil)), http.StatusBadRequest},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), tt.err.Error())
	}
}

func TestCode(t *testing.T) {
	assert.Equal(t, ErrCodeServiceError, Code(ServiceError("x", nil)))
	assert.Equal(t, ErrCodeInternalError, Code(stderrors.New("plain")))
}
