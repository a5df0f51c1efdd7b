package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Standard error kinds
var (
	ErrNetwork        = errors.New("NetworkError")
	ErrAPI            = errors.New("APIError")
	ErrGraphQL        = errors.New("GraphQLError")
	ErrConfiguration  = errors.New("ConfigError")
	ErrAuthentication = errors.New("AuthError")
	ErrValidation     = errors.New("validation error")
)

// Error is the failure value raised by the request and GraphQL layers.
// Kind is one of the sentinel kinds above.
type Error struct {
	Kind       error
	Message    string
	URL        string
	StatusCode int
	Attempts   int
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is this error's kind.
func (e *Error) Is(target error) bool {
	return e.Kind != nil && e.Kind == target
}

// Network builds a NetworkError for a non-success response from url.
func Network(url string, status int) *Error {
	return &Error{
		Kind:       ErrNetwork,
		Message:    fmt.Sprintf("request to %s failed with status %d", url, status),
		URL:        url,
		StatusCode: status,
	}
}

// Exhausted builds the NetworkError reported once the retry budget is spent.
func Exhausted(url string, attempts int, last error) *Error {
	return &Error{
		Kind:     ErrNetwork,
		Message:  fmt.Sprintf("request to %s failed after %d attempts", url, attempts),
		URL:      url,
		Attempts: attempts,
		Err:      last,
	}
}

// API builds an APIError carrying the serialized payload errors.
func API(url, serialized string) *Error {
	return &Error{
		Kind:    ErrAPI,
		Message: fmt.Sprintf("%s returned errors: %s", url, serialized),
		URL:     url,
	}
}

// GraphQL builds a GraphQLError with the given message.
func GraphQL(message string) *Error {
	return &Error{Kind: ErrGraphQL, Message: message}
}

// Config builds a ConfigError with the given message.
func Config(message string) *Error {
	return &Error{Kind: ErrConfiguration, Message: message}
}

// KindOf returns the kind of err when it is an *Error, nil otherwise.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return nil
}

// WrapError wraps an error with a standard error type
func WrapError(err error, errType error, message string) error {
	wrapped := fmt.Errorf("%s: %w", message, err)
	return fmt.Errorf("%w: %w", errType, wrapped)
}

// Is provides a convenience wrapper around errors.Is
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As provides a convenience wrapper around errors.As
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Unwrap provides a convenience wrapper around errors.Unwrap
func Unwrap(err error) error {
	return errors.Unwrap(err)
}
