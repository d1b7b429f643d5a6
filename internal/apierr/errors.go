// Package apierr holds the error kinds that handlers return and the single
// translator that turns them into HTTP responses.
package apierr

import (
	"fmt"
	"strings"
)

type (
	FieldError struct {
		Field   string `json:"field"`
		Tag     string `json:"tag"`
		Message string `json:"message"`
	}

	// ValidationError means the request was malformed, Fields lists every
	// violation found (not only the first one).
	ValidationError struct {
		Message string
		Fields  []FieldError
	}

	// AuthenticationError covers bad credentials and every token verification
	// failure. Reason is only logged, clients always see the same message.
	AuthenticationError struct {
		Reason string
	}

	ConflictError struct {
		Message string
	}

	NotFoundError struct {
		Message string
	}
)

const (
	AuthenticationFailedMessage = "Authentication failed"
	InternalErrorMessage        = "Internal Server Error"
)

func Invalid(msg string) ValidationError {
	return ValidationError{Message: msg}
}

func (v ValidationError) Error() string {
	if v.Message != "" {
		return v.Message
	}
	if len(v.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, "; ")
}

func (a AuthenticationError) Error() string {
	if a.Reason == "" {
		return "authentication failed"
	}
	return fmt.Sprintf("authentication failed: %v", a.Reason)
}

func (c ConflictError) Error() string {
	return c.Message
}

func (n NotFoundError) Error() string {
	if n.Message == "" {
		return "not found"
	}
	return n.Message
}
