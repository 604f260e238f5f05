// Package errors provides the error taxonomy for calls to the generative API.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrRequestFailed = errors.New("request failed")
	ErrAuthFailed    = errors.New("authentication failed")
	ErrNoAPIKey      = errors.New("no API key configured")
	ErrEmptyPrompt   = errors.New("prompt cannot be empty")
	ErrNoContent     = errors.New("no content in response")
)

// RequestError is the generic failure of a call to the generative API.
// Every error returned by the API client is, or wraps, a RequestError.
type RequestError struct {
	Op  string
	Err error
}

func (e *RequestError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: request failed", e.Op)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Is matches ErrRequestFailed and any other RequestError
func (e *RequestError) Is(target error) bool {
	if target == ErrRequestFailed {
		return true
	}
	_, ok := target.(*RequestError)
	return ok
}

// NewRequestError wraps err as a RequestError for operation op
func NewRequestError(op string, err error) *RequestError {
	return &RequestError{Op: op, Err: err}
}

// AuthError represents a rejected or missing API key
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "authentication failed: API key may be invalid"
	}
	return fmt.Sprintf("authentication failed: %s", e.Message)
}

// Is allows comparison with sentinel errors
func (e *AuthError) Is(target error) bool {
	if target == ErrAuthFailed {
		return true
	}
	_, ok := target.(*AuthError)
	return ok
}

// NewAuthError creates a new AuthError
func NewAuthError(message string) *AuthError {
	return &AuthError{Message: message}
}

// APIError represents a non-success response from the API
type APIError struct {
	StatusCode int
	Status     string
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("API error [%d] at %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("API error at %s: %s", e.Endpoint, e.Message)
}

// NewAPIError creates a new APIError
func NewAPIError(statusCode int, endpoint, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Message:    message,
	}
}

// TimeoutError represents a request timeout
type TimeoutError struct {
	Message string
}

func (e *TimeoutError) Error() string {
	if e.Message == "" {
		return "request timed out"
	}
	return fmt.Sprintf("request timed out: %s", e.Message)
}

// NewTimeoutError creates a new TimeoutError
func NewTimeoutError(message string) *TimeoutError {
	return &TimeoutError{Message: message}
}

// UsageLimitError represents an exhausted quota
type UsageLimitError struct {
	Message string
}

func (e *UsageLimitError) Error() string {
	if e.Message == "" {
		return "usage limit exceeded"
	}
	return fmt.Sprintf("usage limit exceeded: %s", e.Message)
}

// NewUsageLimitError creates a new UsageLimitError
func NewUsageLimitError(message string) *UsageLimitError {
	return &UsageLimitError{Message: message}
}

// BlockedError represents a prompt or response withheld by safety filters
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	if e.Reason == "" {
		return "content blocked"
	}
	return fmt.Sprintf("content blocked: %s", e.Reason)
}

// NewBlockedError creates a new BlockedError
func NewBlockedError(reason string) *BlockedError {
	return &BlockedError{Reason: reason}
}

// IsAuthError reports whether err is an authentication failure
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuthFailed) || errors.Is(err, ErrNoAPIKey)
}

// IsRateLimitError reports whether err is a usage limit failure
func IsRateLimitError(err error) bool {
	var target *UsageLimitError
	return errors.As(err, &target)
}

// IsTimeoutError reports whether err is a timeout
func IsTimeoutError(err error) bool {
	var target *TimeoutError
	return errors.As(err, &target) || errors.Is(err, context.DeadlineExceeded)
}

// IsBlockedError reports whether err is a safety block
func IsBlockedError(err error) bool {
	var target *BlockedError
	return errors.As(err, &target)
}

// GetHTTPStatus extracts the HTTP status code from an APIError, or 0
func GetHTTPStatus(err error) int {
	var target *APIError
	if errors.As(err, &target) {
		return target.StatusCode
	}
	return 0
}

// GetEndpoint extracts the endpoint from an APIError, or ""
func GetEndpoint(err error) string {
	var target *APIError
	if errors.As(err, &target) {
		return target.Endpoint
	}
	return ""
}
