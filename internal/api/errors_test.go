package api_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quizforge/qbank-api/internal/api"
	"github.com/quizforge/qbank-api/internal/service"
	"github.com/quizforge/qbank-api/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"bank not found", service.ErrBankNotFound, http.StatusNotFound},
		{"task not found", service.ErrTaskNotFound, http.StatusNotFound},
		{"store bank not found", store.ErrBankNotFound, http.StatusNotFound},
		{"duplicate bank", store.ErrDuplicateBank, http.StatusConflict},
		{"invalid submission", service.ErrInvalidSubmission, http.StatusBadRequest},
		{"invalid entity", store.ErrInvalidEntity, http.StatusBadRequest},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
		{
			"wrapped sentinel",
			fmt.Errorf("context: %w", service.ErrBankNotFound),
			http.StatusNotFound,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, api.MapErrorToStatusCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Question bank not found",
		api.GetSafeErrorMessage(service.ErrBankNotFound))
	assert.Equal(t, "An unexpected error occurred", api.GetSafeErrorMessage(nil))

	// Internal details must not leak through the generic message.
	msg := api.GetSafeErrorMessage(errors.New("pq: connection refused at 10.0.0.5"))
	assert.Equal(t, "An unexpected error occurred", msg)

	// Submission validation messages are safe to surface.
	err := fmt.Errorf("%w: name is required", service.ErrInvalidSubmission)
	assert.Contains(t, api.GetSafeErrorMessage(err), "name is required")
}

func TestSanitizeValidationError(t *testing.T) {
	t.Parallel()

	raw := errors.New(
		"Key: 'CreateBankRequest.Name' Error:Field validation for 'Name' failed on the 'required' tag")
	assert.Equal(t, "Invalid Name: required field", api.SanitizeValidationError(raw))

	assert.Equal(t, "Validation error", api.SanitizeValidationError(errors.New("boom")))
}
