package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates the request collides with the current state of a resource
// (e.g. an operator that already owns an open cash session).
var ErrConflict = errors.New("conflict")

// ErrStateConflict indicates a transition that is illegal from the persisted state,
// including transitions attempted against a stale read.
var ErrStateConflict = errors.New("state conflict")

// ErrPreconditionFailed indicates a transition that is legal in principle but whose business rule is unmet.
var ErrPreconditionFailed = errors.New("precondition failed")

// ErrResourceExhausted indicates no fiscal sequence has remaining capacity.
var ErrResourceExhausted = errors.New("resource exhausted")

// ErrConfiguration indicates a required reference/catalog row is missing. Always a deployment bug.
var ErrConfiguration = errors.New("configuration error")

// ErrIntegrity indicates an invariant was found broken in persisted data.
var ErrIntegrity = errors.New("integrity violation")

// ErrUnauthorized indicates the caller is not authenticated.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden indicates the caller may not perform the action.
var ErrForbidden = errors.New("forbidden")

// ErrInternal indicates an unexpected infrastructure failure.
var ErrInternal = errors.New("internal error")

// AppError carries an HTTP-ish status code alongside the wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// statusByKind is checked in order; the first matching kind wins.
var statusByKind = []struct {
	kind   error
	status int
}{
	{ErrValidation, http.StatusBadRequest},
	{ErrUnauthorized, http.StatusUnauthorized},
	{ErrForbidden, http.StatusForbidden},
	{ErrNotFound, http.StatusNotFound},
	{ErrDuplicate, http.StatusConflict},
	{ErrConflict, http.StatusConflict},
	{ErrStateConflict, http.StatusConflict},
	{ErrPreconditionFailed, http.StatusUnprocessableEntity},
	{ErrResourceExhausted, http.StatusServiceUnavailable},
	{ErrConfiguration, http.StatusInternalServerError},
	{ErrIntegrity, http.StatusInternalServerError},
}

// HTTPStatus maps an error of the taxonomy to the HTTP status callers should answer with.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	for _, m := range statusByKind {
		if errors.Is(err, m.kind) {
			return m.status
		}
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != 0 {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

// Kind returns a short machine-readable name for the error kind.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "VALIDATION_ERROR"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrConflict):
		return "CONFLICT"
	case errors.Is(err, ErrStateConflict):
		return "STATE_CONFLICT"
	case errors.Is(err, ErrPreconditionFailed):
		return "PRECONDITION_FAILED"
	case errors.Is(err, ErrResourceExhausted):
		return "RESOURCE_EXHAUSTED"
	case errors.Is(err, ErrConfiguration):
		return "CONFIGURATION_ERROR"
	case errors.Is(err, ErrIntegrity):
		return "INTEGRITY_VIOLATION"
	default:
		return "INTERNAL_ERROR"
	}
}

// IsServerFault reports whether the error points at the engine itself rather than the caller.
func IsServerFault(err error) bool {
	return HTTPStatus(err) >= http.StatusInternalServerError
}
