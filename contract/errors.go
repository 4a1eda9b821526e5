package contract

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrInvalidSchema indicates a contract schema that cannot be used
	ErrInvalidSchema = errors.New("invalid contract schema")
	// ErrNoInteractions indicates there is nothing to build consumer usage from
	ErrNoInteractions = errors.New("no interactions recorded")
)

// Error types for contract operations
type (
	// CompilationError indicates a rule expression could not be compiled
	CompilationError struct {
		Endpoint   string
		Expression string
		Err        error
	}

	// RemoteError indicates the validation service answered with a failure status
	RemoteError struct {
		StatusCode int
		Message    string
	}
)

func (e *CompilationError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("compilation error in rule '%s' for %s: %v", e.Expression, e.Endpoint, e.Err)
	}
	return fmt.Sprintf("compilation error in rule '%s': %v", e.Expression, e.Err)
}

func (e *CompilationError) Unwrap() error {
	return e.Err
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("validation service error: status %d: %s", e.StatusCode, e.Message)
}
