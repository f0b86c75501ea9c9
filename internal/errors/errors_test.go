package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorStatus(t *testing.T) {
	tests := []struct {
		err      *AppError
		expected int
	}{
		{NewValidationError("bad"), http.StatusBadRequest},
		{NewNotFoundError("glucose_reading"), http.StatusNotFound},
		{NewUnauthorizedError("no token"), http.StatusUnauthorized},
		{NewDatabaseError(errors.New("conn refused")), http.StatusServiceUnavailable},
		{NewInternalError(errors.New("boom")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.err.HTTPStatus(), tt.err.Error())
	}
}

func TestAppErrorIs(t *testing.T) {
	err := fmt.Errorf("creating reading: %w", NewValidationError("value out of range"))

	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewDatabaseError(cause)

	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(NotFound{Resource: "user", ID: "7"}))
	assert.True(t, IsNotFound(fmt.Errorf("lookup: %w", NotFound{Resource: "user", ID: "7"})))
	assert.True(t, IsNotFound(NewNotFoundError("glucose_reading")))
	assert.False(t, IsNotFound(nil))
	assert.False(t, IsNotFound(errors.New("other")))
	assert.Equal(t, "user not found: 7", NotFound{Resource: "user", ID: "7"}.Error())
}

func TestLogFields(t *testing.T) {
	err := NewValidationError("bad window").WithContext("windowDays", -1)
	fields := err.LogFields()

	assert.Contains(t, fields, "windowDays")
	assert.Contains(t, fields, -1)
	assert.Contains(t, fields, ErrorTypeValidation)
}

func TestAs(t *testing.T) {
	appErr, ok := As(fmt.Errorf("wrapped: %w", NewNotFoundError("user")))
	assert.True(t, ok)
	assert.Equal(t, ErrorTypeNotFound, appErr.Type)

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}
