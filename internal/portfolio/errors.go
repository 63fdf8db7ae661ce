package portfolio

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a user has no portfolio data
	ErrNotFound = errors.New("portfolio not found")
	// ErrHoldingNotFound is returned when a holding id does not exist for the user
	ErrHoldingNotFound = errors.New("holding not found")
)

// ValidationError reports a rejected input field
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsValidation reports whether err wraps a ValidationError
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
