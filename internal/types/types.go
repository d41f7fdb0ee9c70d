package types

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("project not found")
	ErrDispatch   = errors.New("failed to dispatch generation")
	ErrGeneration = errors.New("generation failed")
)

// ValidationError reports a request that can never succeed as sent.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}

	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
