package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound            = errors.New("resource not found")
	ErrExperimentNotFound  = fmt.Errorf("%w: experiment", ErrNotFound)
	ErrVariantNotFound     = fmt.Errorf("%w: variant", ErrNotFound)
	ErrParticipantNotFound = fmt.Errorf("%w: participant", ErrNotFound)

	// Validation errors
	ErrValidation       = errors.New("validation failed")
	ErrInvalidWeights   = fmt.Errorf("%w: variant weights must sum to 100", ErrValidation)
	ErrTooFewVariants   = fmt.Errorf("%w: at least 2 variants required", ErrValidation)
	ErrControlCount     = fmt.Errorf("%w: exactly one control variant required", ErrValidation)
	ErrMissingPrimary   = fmt.Errorf("%w: primary metric is required", ErrValidation)
	ErrMalformedSnapshot = fmt.Errorf("%w: malformed snapshot", ErrValidation)

	// Lifecycle errors
	ErrInvalidState = errors.New("invalid lifecycle state")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("%w for %s: %s", ErrValidation, field, reason)
}

func NewInvalidStateError(op string, status string) error {
	return fmt.Errorf("%w: cannot %s experiment in status %s", ErrInvalidState, op, status)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsInvalidStateError(err error) bool {
	return errors.Is(err, ErrInvalidState)
}
