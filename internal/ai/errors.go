package ai

import (
	"errors"
	"fmt"
)

// ErrEmptyResponse is returned when a provider answers 2xx without any text.
var ErrEmptyResponse = errors.New("provider returned no content")

// previewLimit caps the amount of model output echoed back in errors.
const previewLimit = 500

// ProviderError is a non-2xx answer from an upstream LLM API.
type ProviderError struct {
	Provider   string
	StatusCode int
	Status     string
	Body       string
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s API error: %s", e.Provider, e.Status)
	if e.Body != "" {
		msg += ": " + Preview(e.Body)
	}
	return msg
}

// ParseError means the model answered but its text was not the JSON we asked for.
type ParseError struct {
	Task    string
	Preview string
	Cause   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s response: %v", e.Task, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// IsParseError reports whether err (or anything it wraps) is a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// Preview truncates s for inclusion in logs and error bodies.
func Preview(s string) string {
	if len(s) <= previewLimit {
		return s
	}
	return s[:previewLimit] + "..."
}
