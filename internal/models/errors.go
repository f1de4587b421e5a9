package models

import "errors"

// Sentinel errors shared across the client, workflow and server layers.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotFound indicates the requested series, episode or story does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("invalid input")

	// ErrGenerationInProgress indicates a generation run is already active for the series.
	ErrGenerationInProgress = errors.New("generation already in progress")
)
