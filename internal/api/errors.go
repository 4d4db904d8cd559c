package api

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnauthorized indicates the server rejected the bearer token (HTTP 401).
// It is never retried; the client clears the stored token and invokes the
// unauthorized hook before surfacing it.
var ErrUnauthorized = errors.New("unauthorized (401)")

// NetworkError wraps a transport-level failure: connection errors, timeouts,
// or non-200 HTTP statuses. Network errors are retried per the retry policy.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsNetworkError reports whether err originated from a transport failure.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var target *NetworkError
	return errors.As(err, &target)
}

// ErrorLocation points at a position in the operation document.
type ErrorLocation struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// GraphQLError is a structured error returned by the server alongside a 200
// response. It may accompany partial data and is never retried.
type GraphQLError struct {
	Message   string          `json:"message"`
	Locations []ErrorLocation `json:"locations,omitempty"`
	Path      []any           `json:"path,omitempty"`
}

func (e GraphQLError) Error() string {
	return e.Message
}

// GraphQLErrorList collects all errors from one response.
type GraphQLErrorList []GraphQLError

func (l GraphQLErrorList) Error() string {
	if len(l) == 0 {
		return "graphql error"
	}
	if len(l) == 1 {
		return fmt.Sprintf("graphql error: %s", l[0].Message)
	}
	msgs := make([]string, len(l))
	for i, e := range l {
		msgs[i] = e.Message
	}
	return fmt.Sprintf("graphql errors: %s", strings.Join(msgs, "; "))
}

// isRetryable determines if an error should trigger a retry.
// Transport failures are retried unless the message carries the 401 marker;
// application errors never reach the retry loop.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnauthorized) {
		return false
	}
	if strings.Contains(err.Error(), "401") {
		return false
	}
	return IsNetworkError(err)
}
