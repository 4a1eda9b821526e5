package calculator

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	// ErrInvalidConfig indicates invalid client configuration
	ErrInvalidConfig = errors.New("invalid calculator client configuration")
	// ErrUnknownOperation indicates an operation name outside add/multiply/divide
	ErrUnknownOperation = errors.New("unknown operation")
	// ErrValidatorUnavailable indicates the contract validator could not be reached
	ErrValidatorUnavailable = errors.New("contract validator unavailable")
)

// APIError represents an error answer from the producer. Malformed bodies are
// reported as APIError too, with the raw status line as the message.
type APIError struct {
	StatusCode int
	Message    string
	Body       string
	Malformed  bool
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// IsMalformed reports whether the body carried neither a result nor an error
func (e *APIError) IsMalformed() bool {
	return e.Malformed
}

// IsClientError checks for a 4xx status
func (e *APIError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// TransportError represents a failure to obtain any response
type TransportError struct {
	Op  Operation
	URL string
	Err error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ValidationError represents an interceptor rejecting an interaction
type ValidationError struct {
	Errors []string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "contract validation failed"
	}
	return fmt.Sprintf("contract validation failed: %s", strings.Join(e.Errors, "; "))
}

// Kind classifies err into one of the client outcome kinds. A nil error is KindOK.
func Kind(err error) ResultKind {
	if err == nil {
		return KindOK
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return KindValidationError
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return KindAPIError
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return KindTransportError
	}
	return KindOther
}
