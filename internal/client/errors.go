package client

import (
	"errors"
	"fmt"
	"net/http"
)

// NetworkFailureMessage is shown whenever the server could not be reached.
const NetworkFailureMessage = "Network connection failed. Please check your connection and try again."

// UnknownAPIErrorMessage is used when a response carries an empty error field.
const UnknownAPIErrorMessage = "Unknown API error"

// ErrInvalidResponse is returned when a 2xx body is not JSON.
var ErrInvalidResponse = errors.New("invalid response body")

// TransportError is a failure that produced no HTTP response at all.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return NetworkFailureMessage }
func (e *TransportError) Unwrap() error  { return e.Err }

// Retryable is always true: resubmitting is the only recovery.
func (e *TransportError) Retryable() bool { return true }

// APIError is an error answer from the server, either a non-2xx status or a
// 2xx body shaped as an error.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details []string
}

func (e *APIError) Error() string { return e.Message }

// Retryable reports whether a user-initiated retry can succeed.
func (e *APIError) Retryable() bool {
	switch {
	case e.Status >= 500:
		return true
	case e.Status == http.StatusRequestTimeout, e.Status == http.StatusTooManyRequests:
		return true
	}
	return false
}

var statusMessages = map[int]string{
	http.StatusBadRequest:          "Invalid request. Please check your input and try again.",
	http.StatusUnauthorized:        "Authentication required. Please sign in and try again.",
	http.StatusForbidden:           "You do not have permission to perform this action.",
	http.StatusNotFound:            "The requested resource was not found.",
	http.StatusRequestTimeout:      "The request timed out. Please try again.",
	http.StatusConflict:            "The request conflicts with the current state. Please refresh and try again.",
	http.StatusTooManyRequests:     "Too many requests. Please wait a moment and try again.",
	http.StatusInternalServerError: "An internal server error occurred. Please try again later.",
	http.StatusBadGateway:          "The server received an invalid response. Please try again later.",
	http.StatusServiceUnavailable:  "The service is temporarily unavailable. Please try again later.",
	http.StatusGatewayTimeout:      "The server took too long to respond. Please try again later.",
}

// StatusMessage is the generic user-facing text for an HTTP status.
func StatusMessage(status int) string {
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	return fmt.Sprintf("An unexpected error occurred (status %d). Please try again.", status)
}

// IsRetryable reports whether err is a client error worth retrying.
func IsRetryable(err error) bool {
	var r interface{ Retryable() bool }
	return errors.As(err, &r) && r.Retryable()
}
