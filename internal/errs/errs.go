// Package errs defines the typed errors surfaced by the wallet simulator.
// Callers match them with errors.As.
package errs

import (
	"fmt"
	"time"
)

// CodeUserRejected is the EIP-1193 style code for a declined request.
const CodeUserRejected = 4001

// ConfigurationError reports invalid options, keys or network names.
type ConfigurationError struct {
	Msg string
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration: %s: %v", e.Msg, e.Err)
	}
	return "configuration: " + e.Msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Configf builds a ConfigurationError.
func Configf(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// NetworkError reports a failed, timed out or non-2xx ledger API call.
// StatusCode is zero when no response was received.
type NetworkError struct {
	StatusCode int
	URL        string
	Body       string
	Err        error
}

func (e *NetworkError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Body != "":
		return fmt.Sprintf("network: %s returned %d: %s", e.URL, e.StatusCode, e.Body)
	case e.StatusCode != 0:
		return fmt.Sprintf("network: %s returned %d", e.URL, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("network: %s: %v", e.URL, e.Err)
	default:
		return "network: " + e.URL
	}
}

func (e *NetworkError) Unwrap() error { return e.Err }

// FeeEstimationError wraps the failure of a live fee lookup.
type FeeEstimationError struct {
	Kind string
	Err  error
}

func (e *FeeEstimationError) Error() string {
	return fmt.Sprintf("fee estimation (%s): %v", e.Kind, e.Err)
}

func (e *FeeEstimationError) Unwrap() error { return e.Err }

// BroadcastError reports a node rejection or an unrecognized response.
// Reason is the serialized response body.
type BroadcastError struct {
	Reason string
}

func (e *BroadcastError) Error() string {
	return "broadcast rejected: " + e.Reason
}

// ConfirmationError reports that a transaction did not reach a terminal
// status in time.
type ConfirmationError struct {
	TxID    string
	Timeout time.Duration
	Err     error
}

func (e *ConfirmationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transaction %s not confirmed: %v", e.TxID, e.Err)
	}
	return fmt.Sprintf("transaction %s not confirmed within %s", e.TxID, e.Timeout)
}

func (e *ConfirmationError) Unwrap() error { return e.Err }

// UserRejectionError is returned when the one-shot rejection flag fires.
type UserRejectionError struct{}

func (e *UserRejectionError) Error() string { return "User rejected the request" }

// Code returns CodeUserRejected.
func (e *UserRejectionError) Code() int { return CodeUserRejected }
