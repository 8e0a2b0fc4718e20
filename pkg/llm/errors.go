package llm

import (
	"errors"
	"fmt"
	"strings"
)

// Error represents a classified LLM error.
type Error struct {
	Message   string // human-readable message
	Retryable bool   // whether the operation can be retried
	Cause     error  // underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// ClassifyError categorizes an error into a structured Error with a
// retryability flag. Transient transport and server-side failures are
// retryable; auth and schema problems are not.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr
	}

	lower := strings.ToLower(err.Error())

	switch {
	case strings.Contains(lower, "401") || strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "invalid api key"):
		return &Error{Message: "authentication failed", Retryable: false, Cause: err}
	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host"):
		return &Error{Message: "connection failed", Retryable: true, Cause: err}
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded"):
		return &Error{Message: "request timeout", Retryable: true, Cause: err}
	case strings.Contains(lower, "429") || strings.Contains(lower, "rate limit"):
		return &Error{Message: "rate limited", Retryable: true, Cause: err}
	case strings.Contains(lower, "500") || strings.Contains(lower, "502") ||
		strings.Contains(lower, "503") || strings.Contains(lower, "504"):
		return &Error{Message: "server error", Retryable: true, Cause: err}
	default:
		return &Error{Message: "llm error", Retryable: false, Cause: err}
	}
}

// IsRetryable returns true if the error is a retryable LLM error.
func IsRetryable(err error) bool {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Retryable
	}
	return false
}
