package overlay

import (
	"errors"
	"fmt"
)

var (
	// ErrNoConfigDir indicates that no layer directory could be located.
	ErrNoConfigDir = errors.New("config directory not found")
	// ErrMissingDefault indicates that the required default layer is absent.
	ErrMissingDefault = errors.New("required default layer not found")
	// ErrDecode indicates that a layer file could not be parsed.
	ErrDecode = errors.New("cannot decode layer")
)

// Error is returned by layer loading. Message carries the standard prefix;
// Err, when set, is the sentinel or underlying cause.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(err error, format string, args ...any) *Error {
	return &Error{Message: "[overlay] " + fmt.Sprintf(format, args...), Err: err}
}
