package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType groups errors by how callers should react to them.
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeDatabase     ErrorType = "database"
	ErrorTypeInternal     ErrorType = "internal"
)

// AppError is an application error carrying a type, a stable code and a message
// that is safe to show to API callers.
type AppError struct {
	Type     ErrorType
	Code     string
	Message  string
	Internal error
	Context  map[string]any
}

func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Internal
}

// Is matches another AppError with the same type and code, so the predefined
// errors below work with errors.Is.
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Type == t.Type && e.Code == t.Code
	}
	return false
}

// WithContext attaches a key/value pair that is emitted with the error's log fields.
func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// LogFields returns alternating key/value pairs for structured logging.
func (e *AppError) LogFields() []any {
	fields := []any{
		"errorType", e.Type,
		"errorCode", e.Code,
		"errorMessage", e.Message,
	}
	if e.Internal != nil {
		fields = append(fields, "internalError", e.Internal.Error())
	}
	for k, v := range e.Context {
		fields = append(fields, k, v)
	}
	return fields
}

// HTTPStatus maps the error type to a response status.
func (e *AppError) HTTPStatus() int {
	switch e.Type {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case ErrorTypeDatabase:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// New creates an AppError.
func New(errorType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:    errorType,
		Code:    code,
		Message: message,
	}
}

// Wrap wraps err into an AppError.
func Wrap(err error, errorType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:     errorType,
		Code:     code,
		Message:  message,
		Internal: err,
	}
}

// Predefined errors, for use with errors.Is.
var (
	ErrValidation   = New(ErrorTypeValidation, "VALIDATION", "invalid input")
	ErrNotFound     = New(ErrorTypeNotFound, "NOT_FOUND", "not found")
	ErrUnauthorized = New(ErrorTypeUnauthorized, "UNAUTHORIZED", "unauthorized")
	ErrDatabase     = New(ErrorTypeDatabase, "DB_ERROR", "database operation failed")
	ErrInternal     = New(ErrorTypeInternal, "INTERNAL", "internal server error")
)

func NewValidationError(message string) *AppError {
	return New(ErrorTypeValidation, "VALIDATION", message)
}

func NewNotFoundError(resource string) *AppError {
	return New(ErrorTypeNotFound, "NOT_FOUND", resource+" not found").
		WithContext("resource", resource)
}

func NewUnauthorizedError(message string) *AppError {
	return New(ErrorTypeUnauthorized, "UNAUTHORIZED", message)
}

func NewDatabaseError(err error) *AppError {
	return Wrap(err, ErrorTypeDatabase, "DB_ERROR", "database operation failed")
}

func NewInternalError(err error) *AppError {
	return Wrap(err, ErrorTypeInternal, "INTERNAL", "internal server error")
}

// NotFound is returned by stores when a record does not exist.
type NotFound struct {
	Resource string
	ID       string
}

func (e NotFound) Error() string {
	return e.Resource + " not found: " + e.ID
}

// IsNotFound reports whether err is, or wraps, a store NotFound or a not-found AppError.
func IsNotFound(err error) bool {
	var nf NotFound
	if errors.As(err, &nf) {
		return true
	}
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == ErrorTypeNotFound
}

// As returns the AppError in err's chain, if any.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
