package lifecycle

import (
	"errors"
	"fmt"
)

var (
	// ErrPrecacheFailed is returned when any precache member cannot be
	// populated. Install is all-or-nothing.
	ErrPrecacheFailed = errors.New("precache population failed")

	// ErrNotActive is returned when a phase is invoked out of order.
	ErrNotActive = errors.New("controller is not active")
)

// PrecacheError reports which precache member failed and why.
type PrecacheError struct {
	Path       string
	StatusCode int // zero unless the origin answered with a non-2xx status
	Err        error
}

// Error implements the error interface.
func (e *PrecacheError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("precache %s: status %d", e.Path, e.StatusCode)
	}
	return fmt.Sprintf("precache %s: %v", e.Path, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *PrecacheError) Unwrap() error {
	return e.Err
}
