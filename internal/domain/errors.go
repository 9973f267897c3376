package domain

import (
	"fmt"
	"net/http"
)

// ErrorType represents the category of an invocation error.
type ErrorType string

const (
	// ErrorTypeNotFound indicates the agent handle is unknown.
	ErrorTypeNotFound ErrorType = "not_found"

	// ErrorTypeUnavailable indicates the agent is offline.
	ErrorTypeUnavailable ErrorType = "unavailable"

	// ErrorTypePaymentRequired indicates a priced skill was invoked without a proof.
	ErrorTypePaymentRequired ErrorType = "payment_required"

	// ErrorTypePaymentInvalid indicates the facilitator rejected the proof.
	ErrorTypePaymentInvalid ErrorType = "payment_invalid"

	// ErrorTypeForwardFailure indicates the downstream agent endpoint failed.
	ErrorTypeForwardFailure ErrorType = "forward_failure"

	// ErrorTypeServer indicates an unexpected internal error.
	ErrorTypeServer ErrorType = "server"
)

// InvokeError is the canonical pipeline error. Only these errors are allowed
// to shape the HTTP response status; bookkeeping failures are absorbed.
type InvokeError struct {
	// Type is the category of error.
	Type ErrorType `json:"type"`

	// Message is the client-facing error message.
	Message string `json:"message"`

	// Details carries machine-readable context (facilitator rejection reason,
	// forward failure classification). Safe to return to the caller.
	Details any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *InvokeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// HTTPStatusCode returns the response status for this error.
func (e *InvokeError) HTTPStatusCode() int {
	switch e.Type {
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeUnavailable:
		return http.StatusServiceUnavailable
	case ErrorTypePaymentRequired, ErrorTypePaymentInvalid:
		return http.StatusPaymentRequired
	case ErrorTypeForwardFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WithDetails attaches machine-readable context to the error.
func (e *InvokeError) WithDetails(details any) *InvokeError {
	e.Details = details
	return e
}

// Convenience constructors for the pipeline states

// ErrAgentNotFound creates a not_found error for an unknown handle.
func ErrAgentNotFound() *InvokeError {
	return &InvokeError{Type: ErrorTypeNotFound, Message: "Agent not found"}
}

// ErrAgentOffline creates an unavailable error for an offline agent.
func ErrAgentOffline() *InvokeError {
	return &InvokeError{Type: ErrorTypeUnavailable, Message: "Agent is offline"}
}

// ErrPaymentInvalid creates a payment_invalid error with facilitator details.
func ErrPaymentInvalid(details any) *InvokeError {
	return &InvokeError{
		Type:    ErrorTypePaymentInvalid,
		Message: "Payment verification failed",
		Details: details,
	}
}

// ErrForwardFailure creates a forward_failure error.
func ErrForwardFailure(message string) *InvokeError {
	return &InvokeError{Type: ErrorTypeForwardFailure, Message: message}
}

// ErrServer creates a generic internal error. Internal detail belongs in logs,
// never in the message.
func ErrServer() *InvokeError {
	return &InvokeError{Type: ErrorTypeServer, Message: "Failed to invoke agent"}
}
