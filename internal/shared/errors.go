package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates a local validation failure; the mutation was not applied.
	ErrValidation = errors.New("validation failed")
	// ErrTransition indicates a state machine transition that the current status forbids.
	ErrTransition = errors.New("transition not allowed")
)
