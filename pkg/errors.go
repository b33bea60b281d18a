package pkg

import (
	"errors"
	"fmt"
)

// TransportError signals that a gateway call never produced a usable
// answer (network failure, RPC error, timeout). It is distinct from a
// quote with IsValid == false, which means the query ran and found no
// route.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	if e.Endpoint == "" {
		return fmt.Sprintf("gateway transport error: %v", e.Err)
	}
	return fmt.Sprintf("gateway transport error (%s): %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// DomainError signals invalid input to a pure function, e.g. a
// non-positive bin step. Never retried.
type DomainError struct {
	Msg string
}

func (e *DomainError) Error() string { return e.Msg }

// NewDomainError builds a DomainError with a formatted message.
func NewDomainError(format string, args ...interface{}) *DomainError {
	return &DomainError{Msg: fmt.Sprintf(format, args...)}
}
