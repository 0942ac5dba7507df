package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrEmptyMessage = errors.New("message is empty")
)

// TransportErrorKind classifies a failed call to a remote service.
type TransportErrorKind string

const (
	// TransportTimeout: the request did not complete within its deadline.
	TransportTimeout TransportErrorKind = "timeout"
	// TransportNetwork: no response was received at all.
	TransportNetwork TransportErrorKind = "network"
	// TransportServer: the server answered with an error status.
	TransportServer TransportErrorKind = "server"
)

// TransportError is returned by remote adapters so callers can map failures
// to user-facing messages without knowing the HTTP client in use.
type TransportError struct {
	Kind    TransportErrorKind
	Status  int
	Message string // server-provided message, if any
	Err     error
}

func (e *TransportError) Error() string {
	switch {
	case e.Message != "" && e.Status != 0:
		return fmt.Sprintf("%s error (status %d): %s", e.Kind, e.Status, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s error (status %d)", e.Kind, e.Status)
	default:
		return string(e.Kind) + " error"
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
