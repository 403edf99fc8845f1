package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrUnsupportedKind is returned when no generation backend is
	// registered for the requested asset kind.
	ErrUnsupportedKind = errors.New("unsupported asset kind")

	// ErrMissingParameters is returned when a job's parameter bag lacks
	// data the dispatch requires, e.g. a batch job without a target list.
	ErrMissingParameters = errors.New("missing required generation parameters")

	// ErrBackendFailure is returned when the generation backend itself
	// failed (network, quota, content policy). The backend's message is
	// passed through verbatim in the wrapping error.
	ErrBackendFailure = errors.New("generation backend failure")

	// ErrContentBlocked is returned when the backend blocks the request
	// due to safety filters.
	ErrContentBlocked = errors.New("content blocked by backend safety filters")

	// ErrTransientFailure is returned for temporary errors that might
	// resolve on retry.
	ErrTransientFailure = errors.New("transient error during asset generation")

	// ErrInvalidConfig is returned when a generator configuration is invalid
	ErrInvalidConfig = errors.New("invalid generator configuration")
)
