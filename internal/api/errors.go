package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/phrazzld/loreforge-api/internal/domain"
	"github.com/phrazzld/loreforge-api/internal/generation"
	"github.com/phrazzld/loreforge-api/internal/service"
	"github.com/phrazzld/loreforge-api/internal/service/auth"
	"github.com/phrazzld/loreforge-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return http.StatusUnauthorized

	// Not found errors
	case errors.Is(err, service.ErrJobNotFound),
		errors.Is(err, store.ErrJobNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Lifecycle conflicts: the job exists but is in the wrong state
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, domain.ErrInvalidJobKind),
		errors.Is(err, domain.ErrInvalidAssetKind),
		errors.Is(err, domain.ErrEmptyWorldID),
		errors.Is(err, domain.ErrEmptyTargetID),
		errors.Is(err, domain.ErrMissingTargetList),
		errors.Is(err, generation.ErrMissingParameters),
		errors.Is(err, generation.ErrUnsupportedKind),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid token"

	// Not found errors
	case errors.Is(err, service.ErrJobNotFound),
		errors.Is(err, store.ErrJobNotFound):
		return "Job not found"

	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	// Lifecycle conflicts
	case errors.Is(err, domain.ErrInvalidTransition):
		return "Only queued jobs can be cancelled"

	// Bad request errors
	case errors.Is(err, domain.ErrInvalidJobKind):
		return "Invalid job kind"

	case errors.Is(err, domain.ErrInvalidAssetKind),
		errors.Is(err, generation.ErrUnsupportedKind):
		return "Invalid asset kind"

	case errors.Is(err, domain.ErrEmptyTargetID),
		errors.Is(err, domain.ErrMissingTargetList),
		errors.Is(err, generation.ErrMissingParameters):
		return "Missing required generation parameters"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	// Default case for unknown errors
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	if strings.Contains(errMsg, "Field validation") {
		// Example format: "Key: 'CreateJobRequest.Kind' Error:Field validation for 'Kind' failed on the 'oneof' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "uuid":
		return "invalid identifier format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
