package models

import (
	"errors"
	"fmt"
	"time"
)

// Error taxonomy shared by services and handlers.
// Wrap these with fmt.Errorf("%w: ...") and check with errors.Is.
var (
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("not found")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrUpstreamEvaluation = errors.New("upstream evaluation error")
)

// UnlockDateLayout is the date-only layout used to report unlock dates
const UnlockDateLayout = "2006-01-02"

// AttemptLimitError is returned when a new attempt is requested while the profile is locked
type AttemptLimitError struct {
	AttemptsMade int
	UnlockDate   time.Time
}

func (e *AttemptLimitError) Error() string {
	return fmt.Sprintf("attempt limit reached, you can try again on %s", e.UnlockDate.Format(UnlockDateLayout))
}

// NewValidationError creates an error wrapping ErrValidation
func NewValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NewNotFoundError creates an error wrapping ErrNotFound
func NewNotFoundError(entity string) error {
	return fmt.Errorf("%w: %s not found", ErrNotFound, entity)
}
