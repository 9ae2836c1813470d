// Package errors defines the error taxonomy shared by the generation pipeline.
// Every failure that can reach an HTTP client is mapped to one of these kinds;
// the kind decides the status code, whether fallback applies, and which
// user-facing message is shown.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// Kind classifies an error for status mapping and fallback decisions.
type Kind string

// Error kinds.
const (
	KindUnauthenticated Kind = "unauthenticated"
	KindRateLimited     Kind = "rate_limited"
	KindInvalidInput    Kind = "invalid_input"
	KindNoKeyConfigured Kind = "no_key_configured"
	KindProviderError   Kind = "provider_error"
	KindSchemaInvalid   Kind = "schema_invalid"
	KindParseFailure    Kind = "parse_failure"
	KindInternal        Kind = "internal_error"
)

// Error is the standardized pipeline error.
// Message is safe to show to end users; Cause and Snippet are for logs only.
type Error struct {
	Kind     Kind   `json:"kind"`
	Message  string `json:"message"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
	// Snippet holds a truncated piece of the offending model output.
	Snippet string `json:"-"`
	Cause   error  `json:"-"`
	// RetryAfter is set on rate limit failures.
	RetryAfter time.Duration `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s (provider=%s, model=%s): %v",
			e.Kind, e.Message, e.Provider, e.Model, e.Cause)
	}
	return fmt.Sprintf("[%s] %s (provider=%s, model=%s)",
		e.Kind, e.Message, e.Provider, e.Model)
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatusCode returns the HTTP status for the error kind.
func (e *Error) HTTPStatusCode() int {
	switch e.Kind {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// FallbackEligible reports whether a failure of this kind should move the
// generator on to the next provider attempt.
func (e *Error) FallbackEligible() bool {
	switch e.Kind {
	case KindProviderError, KindSchemaInvalid, KindParseFailure:
		return true
	default:
		return false
	}
}

// NewUnauthenticated creates an authentication failure (401).
func NewUnauthenticated(message string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: message}
}

// NewRateLimited creates a rate limit failure (429).
func NewRateLimited(message string) *Error {
	return &Error{Kind: KindRateLimited, Message: message}
}

// NewRateLimitedAfter creates a rate limit failure that clears after d.
func NewRateLimitedAfter(message string, d time.Duration) *Error {
	return &Error{Kind: KindRateLimited, Message: message, RetryAfter: d}
}

// NewInvalidInput creates an input validation failure (400).
func NewInvalidInput(message string) *Error {
	return &Error{Kind: KindInvalidInput, Message: message}
}

// NewNoKeyConfigured creates a missing credential failure. The message names
// the provider slot and where to configure it.
func NewNoKeyConfigured(provider, remediation string) *Error {
	return &Error{
		Kind:     KindNoKeyConfigured,
		Message:  fmt.Sprintf("no API key configured for %s: %s", provider, remediation),
		Provider: provider,
	}
}

// NewProviderError wraps a failed provider call.
func NewProviderError(provider, model string, cause error) *Error {
	return &Error{
		Kind:     KindProviderError,
		Message:  "provider call failed",
		Provider: provider,
		Model:    model,
		Cause:    cause,
	}
}

// NewSchemaInvalid reports output that parsed but broke the output contract.
func NewSchemaInvalid(provider, model, snippet string, cause error) *Error {
	return &Error{
		Kind:     KindSchemaInvalid,
		Message:  "provider output did not match the required schema",
		Provider: provider,
		Model:    model,
		Snippet:  snippet,
		Cause:    cause,
	}
}

// NewParseFailure reports output that was not valid JSON.
func NewParseFailure(provider, model, snippet string, cause error) *Error {
	return &Error{
		Kind:     KindParseFailure,
		Message:  "provider output was not valid JSON",
		Provider: provider,
		Model:    model,
		Snippet:  snippet,
		Cause:    cause,
	}
}

// NewInternal creates an internal failure (500).
func NewInternal(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: message, Cause: cause}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
