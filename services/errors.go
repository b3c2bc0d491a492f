package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrInvalidArgument marks caller mistakes detected before any request is sent.
var ErrInvalidArgument = errors.New("invalid argument")

// TransportError covers network failures, timeouts, cancellation, open breakers
// and non-2xx statuses other than 404.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: upstream returned status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: transport failure: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the failure was a deadline or network timeout.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// DecodeError means the upstream answered but the body did not match the contract.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: failed to decode response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// NotFoundError is returned for HTTP 404.
type NotFoundError struct {
	Op       string
	Resource string
}

func (e *NotFoundError) Error() string {
	if e.Resource == "" {
		return fmt.Sprintf("%s: not found", e.Op)
	}
	return fmt.Sprintf("%s: %s not found", e.Op, e.Resource)
}

// IsRetryable reports whether another attempt could succeed. Only transport
// errors qualify, and not when the caller cancelled, the breaker is open, or
// the upstream rejected the request itself.
func IsRetryable(err error) bool {
	var te *TransportError
	if !errors.As(err, &te) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrCircuitOpen) {
		return false
	}
	switch {
	case te.StatusCode == 0:
		return true
	case te.StatusCode == http.StatusRequestTimeout, te.StatusCode == http.StatusTooManyRequests:
		return true
	case te.StatusCode >= 500:
		return true
	default:
		return false
	}
}

// countsAgainstBreaker reports whether err indicates an unhealthy upstream.
func countsAgainstBreaker(err error) bool {
	if err == nil {
		return false
	}
	var nf *NotFoundError
	if errors.As(err, &nf) || errors.Is(err, context.Canceled) || errors.Is(err, ErrInvalidArgument) {
		return false
	}
	return true
}

// ErrorType returns a short label for metrics and logs.
func ErrorType(err error) string {
	var (
		te *TransportError
		de *DecodeError
		nf *NotFoundError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.As(err, &nf):
		return "not_found"
	case errors.As(err, &de):
		return "decode"
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &te) && te.Timeout():
		return "timeout"
	case errors.As(err, &te) && te.StatusCode != 0:
		return "status"
	default:
		return "transport"
	}
}

// classify returns the typed error carried by err, wrapping anything untyped
// as a TransportError for op.
func classify(op string, err error) error {
	var (
		te *TransportError
		de *DecodeError
		nf *NotFoundError
	)
	switch {
	case err == nil:
		return nil
	case errors.As(err, &nf):
		return nf
	case errors.As(err, &de):
		return de
	case errors.As(err, &te):
		return te
	default:
		return &TransportError{Op: op, Err: err}
	}
}
