package domain

import "errors"

// Common validation errors for Job
var (
	ErrEmptyJobID       = errors.New("job ID cannot be empty")
	ErrEmptyWorldID     = errors.New("job world ID cannot be empty")
	ErrEmptyTargetID    = errors.New("single asset job requires a target ID")
	ErrInvalidJobKind   = errors.New("invalid job kind")
	ErrInvalidAssetKind = errors.New("invalid asset kind")
	ErrInvalidJobStatus = errors.New("invalid job status")
	ErrInvalidProgress  = errors.New("progress must stay within [0,1] and never decrease")

	// ErrInvalidTransition is returned when an operation is attempted on a
	// job whose current status forbids it. Job records are the single
	// source of truth for progress reporting, so illegal transitions fail
	// loudly instead of being silently ignored.
	ErrInvalidTransition = errors.New("invalid job status transition")

	// ErrMissingTargetList is returned when a batch job's parameter bag
	// does not carry a non-empty target_ids list.
	ErrMissingTargetList = errors.New("batch job requires a non-empty target_ids list")
)
