package infoview

import (
	"errors"
	"fmt"
)

// Engine errors.
var (
	// ErrNoInfoview indicates the operation targeted an Infoview that does
	// not exist or was torn down.
	ErrNoInfoview = errors.New("no such infoview")
)

// WrapError wraps an error with additional context if it is not nil.
// The format string uses fmt.Sprintf verbs; wrapping is handled internally.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", msg, err)
}
