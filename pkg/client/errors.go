package client

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")
)

// ErrorClass represents a classification of request failures. Classification
// happens once per attempt and the retry decision is derived from the class
// as data, never from inspecting exception types downstream.
type ErrorClass string

const (
	// ErrorClassRateLimited represents 429 responses: the server signalled
	// quota exhaustion and supplied (or implied) a wait duration.
	ErrorClassRateLimited ErrorClass = "rate_limited"

	// ErrorClassTransient represents 5xx responses and timeout or
	// connection-level faults.
	ErrorClassTransient ErrorClass = "transient"

	// ErrorClassNotFound represents 404 responses: a semantically empty
	// result, not an error.
	ErrorClassNotFound ErrorClass = "not_found"

	// ErrorClassPermanent represents all other client-side faults.
	ErrorClassPermanent ErrorClass = "permanent"
)

// APIError represents a Jira API error with classification context.
type APIError struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	RetryAfter time.Duration
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("jira %s error (status %d): %s: %v",
			e.ErrorClass, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("jira %s error (status %d): %s",
		e.ErrorClass, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code to an error class.
// Success statuses map to the empty class.
func classifyStatus(status int) ErrorClass {
	switch {
	case status < 400:
		return ""
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimited
	case status == http.StatusNotFound:
		return ErrorClassNotFound
	case status >= 500:
		return ErrorClassTransient
	default:
		return ErrorClassPermanent
	}
}

// shouldRetry determines if an error class is retryable.
func shouldRetry(class ErrorClass) bool {
	switch class {
	case ErrorClassRateLimited, ErrorClassTransient:
		return true
	default:
		// not_found is an absent value, permanent aborts immediately.
		return false
	}
}

// parseRetryAfter extracts the server-provided wait duration from a 429
// response, falling back to the given default when absent or unparseable.
func parseRetryAfter(headers http.Header, fallback time.Duration) time.Duration {
	raw := headers.Get("Retry-After")
	if raw == "" {
		return fallback
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}
