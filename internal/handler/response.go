package handler

import (
	"errors"
	"net/http"

	"github.com/appdotbuilder/member-contributions-manager/internal/domain"
	"github.com/appdotbuilder/member-contributions-manager/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation   = "https://ledger.app/errors/validation"
	ErrorTypeNotFound     = "https://ledger.app/errors/not-found"
	ErrorTypeUnauthorized = "https://ledger.app/errors/unauthorized"
	ErrorTypeForbidden    = "https://ledger.app/errors/forbidden"
	ErrorTypeConflict     = "https://ledger.app/errors/conflict"
	ErrorTypeUnavailable  = "https://ledger.app/errors/unavailable"
	ErrorTypeInternal     = "https://ledger.app/errors/internal"
)

func newProblem(c echo.Context, status int, typ, title, detail string, errs []ValidationError) error {
	return c.JSON(status, ProblemDetails{
		Type:     typ,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   errs,
	})
}

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return newProblem(c, http.StatusBadRequest, ErrorTypeValidation, "Validation Error", detail, errors)
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return newProblem(c, http.StatusNotFound, ErrorTypeNotFound, "Not Found", detail, nil)
}

// NewUnauthorizedError creates an unauthorized error response
func NewUnauthorizedError(c echo.Context, detail string) error {
	return newProblem(c, http.StatusUnauthorized, ErrorTypeUnauthorized, "Unauthorized", detail, nil)
}

// NewForbiddenError creates a forbidden error response
func NewForbiddenError(c echo.Context, detail string) error {
	return newProblem(c, http.StatusForbidden, ErrorTypeForbidden, "Forbidden", detail, nil)
}

// NewConflictError creates a conflict error response
func NewConflictError(c echo.Context, detail string) error {
	return newProblem(c, http.StatusConflict, ErrorTypeConflict, "Conflict", detail, nil)
}

// NewServiceUnavailableError creates a service unavailable error response
func NewServiceUnavailableError(c echo.Context, detail string) error {
	return newProblem(c, http.StatusServiceUnavailable, ErrorTypeUnavailable, "Service Unavailable", detail, nil)
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return newProblem(c, http.StatusInternalServerError, ErrorTypeInternal, "Internal Server Error", detail, nil)
}

// fieldError builds a single-field validation response
func fieldError(c echo.Context, field, message string) error {
	return NewValidationError(c, "Validation failed", []ValidationError{{Field: field, Message: message}})
}

// handleServiceError maps a service error onto a problem response by its kind.
// Unexpected errors are logged here, once, and reported without internals.
func handleServiceError(c echo.Context, err error, action string) error {
	var fe *domain.FieldError
	switch {
	case errors.As(err, &fe):
		return fieldError(c, fe.Field, fe.Message)
	case errors.Is(err, domain.ErrValidation):
		return NewValidationError(c, err.Error(), nil)
	case errors.Is(err, domain.ErrNotFound):
		return NewNotFoundError(c, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return NewForbiddenError(c, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return NewConflictError(c, err.Error())
	case errors.Is(err, service.ErrProofNotAttached):
		return NewNotFoundError(c, err.Error())
	case errors.Is(err, service.ErrProofStoreNotConfigured):
		return NewServiceUnavailableError(c, "Proof uploads are disabled (storage not configured)")
	}

	log.Error().
		Err(err).
		Str("path", c.Request().URL.Path).
		Str("method", c.Request().Method).
		Msg("Failed to " + action)
	return NewInternalError(c, "Failed to "+action)
}
