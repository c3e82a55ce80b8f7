// Package apperr defines the error taxonomy shared by every memq component.
//
// Errors carry a Code so that hosts (CLI, MCP) can map them to their own
// representation without string matching:
//
//	UNKNOWN_IDENTIFIER      caller supplied a state we cannot resolve
//	NOT_FOUND               a subject or school-type name has no match
//	MISSING_CONFIGURATION   startup cannot proceed
//	ENDPOINT_ERROR          triple-store answered with a non-success status
//	TRANSPORT_ERROR         the request never completed
//	PRECONDITION_VIOLATION  caller broke an operation contract
package apperr

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Code categorizes an Error.
type Code string

const (
	// CodeUnknownIdentifier indicates identifier resolution failed.
	CodeUnknownIdentifier Code = "UNKNOWN_IDENTIFIER"

	// CodeNotFound indicates a scoped vocabulary lookup returned no rows.
	CodeNotFound Code = "NOT_FOUND"

	// CodeMissingConfiguration indicates a required configuration value is absent.
	CodeMissingConfiguration Code = "MISSING_CONFIGURATION"

	// CodeEndpoint indicates the endpoint responded without success.
	CodeEndpoint Code = "ENDPOINT_ERROR"

	// CodeTransport indicates the exchange could not be completed.
	CodeTransport Code = "TRANSPORT_ERROR"

	// CodePrecondition indicates a caller-contract violation.
	CodePrecondition Code = "PRECONDITION_VIOLATION"
)

// MaxBodyExcerpt bounds the response body kept on endpoint errors.
const MaxBodyExcerpt = 200

// Error is the single error type returned across package boundaries.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description, suitable for end users.
	Message string

	// Status is the HTTP status for endpoint errors, zero otherwise.
	Status int

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether err, or any error it wraps, is an *Error with the given code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsUserError reports whether err stems from caller input rather than
// configuration or infrastructure.
func IsUserError(err error) bool {
	switch CodeOf(err) {
	case CodeUnknownIdentifier, CodeNotFound, CodePrecondition:
		return true
	default:
		return false
	}
}

// UnknownIdentifier creates an error for an unresolvable federal state.
func UnknownIdentifier(input string) *Error {
	return &Error{
		Code: CodeUnknownIdentifier,
		Message: fmt.Sprintf("Unknown Bundesland: %q. "+
			"Use a code (BY, SN, RP, ...) or name (Bayern, Sachsen, ...).", input),
		Details: map[string]string{"input": input},
	}
}

// NotFound creates an error for a vocabulary name with no match. listing names
// the operation that shows the valid values.
func NotFound(kind, name, listing, what string) *Error {
	return &Error{
		Code: CodeNotFound,
		Message: fmt.Sprintf("%s %q not found for this Bundesland. Use %s to see available %s.",
			kind, name, listing, what),
		Details: map[string]string{"kind": kind, "name": name},
	}
}

// MissingConfiguration creates an error for an absent required setting.
func MissingConfiguration(key string) *Error {
	return &Error{
		Code: CodeMissingConfiguration,
		Message: fmt.Sprintf("Missing required environment variable: %s. "+
			"See .env.example for reference.", key),
		Details: map[string]string{"key": key},
	}
}

// Endpoint creates an error for a non-success response. The body is cut to
// MaxBodyExcerpt characters.
func Endpoint(status int, body string) *Error {
	excerpt := Truncate(body, MaxBodyExcerpt)
	return &Error{
		Code:    CodeEndpoint,
		Message: fmt.Sprintf("SPARQL query failed (%d): %s", status, excerpt),
		Status:  status,
		Details: map[string]string{"body": excerpt},
	}
}

// Transport creates an error for an exchange that did not complete.
func Transport(err error) *Error {
	return &Error{
		Code:    CodeTransport,
		Message: "SPARQL request failed",
		Err:     err,
	}
}

// Precondition creates an error for a caller-contract violation.
func Precondition(message string) *Error {
	return &Error{
		Code:    CodePrecondition,
		Message: message,
	}
}

// Truncate returns at most n characters (runes) of s.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
