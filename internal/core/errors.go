package core

import (
	"errors"
	"fmt"
)

const (
	ServiceOracle  = "oracle"
	ServiceTracker = "tracker"
	ServiceBot     = "bot"
)

// TransportError is an outbound call that failed or returned a non-success status.
// StatusCode is zero when no response was received.
type TransportError struct {
	Service    string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Body != "":
		return fmt.Sprintf("%s request failed: http %d: %s", e.Service, e.StatusCode, e.Body)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s request failed: http %d", e.Service, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s request failed: %v", e.Service, e.Err)
	default:
		return fmt.Sprintf("%s request failed", e.Service)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// Retryable reports whether repeating the call could succeed.
func (e *TransportError) Retryable() bool {
	return e.StatusCode == 0 || e.StatusCode == 429 || e.StatusCode >= 500
}

// OracleParseError is an oracle response that did not decode into the expected shape.
type OracleParseError struct {
	Raw string
	Err error
}

func (e *OracleParseError) Error() string {
	return fmt.Sprintf("parse oracle response: %v", e.Err)
}

func (e *OracleParseError) Unwrap() error { return e.Err }

// ValidationError is a missing or malformed request field at the boundary.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return e.Field + " is required"
	}
	return e.Field + " " + e.Reason
}

// CleanupError is a failure to release a bot session. It is logged, never returned to callers.
type CleanupError struct {
	BotID string
	Err   error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("release bot %s: %v", e.BotID, e.Err)
}

func (e *CleanupError) Unwrap() error { return e.Err }

func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func IsOracleParse(err error) bool {
	var pe *OracleParseError
	return errors.As(err, &pe)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsRetryable is used by retriers around idempotent calls.
func IsRetryable(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable()
	}
	return false
}
