// Package jsonbody decodes request bodies into typed inputs.
package jsonbody

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/andrebq/taskbox/internal/apierr"
	"github.com/goccy/go-json"
)

// Decode reads a single JSON value from r into out. Malformed input, unknown
// fields and oversized bodies are reported as validation errors.
func Decode(r *http.Request, out interface{}) error {
	if r.Body == nil {
		return apierr.Invalid("Request body is required")
	}
	// read everything first, the decoder turns reader errors into io.EOF
	buf, err := io.ReadAll(r.Body)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apierr.Invalid(fmt.Sprintf("Request body must not exceed %v bytes", tooLarge.Limit))
	} else if err != nil {
		return fmt.Errorf("unable to read request body, cause %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(buf))
	dec.DisallowUnknownFields()
	err = dec.Decode(out)
	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		return apierr.Invalid("Request body is required")
	default:
		return apierr.ValidationError{Message: fmt.Sprintf("Malformed JSON body: %v", err)}
	}
	if dec.More() {
		return apierr.Invalid("Request body must contain a single JSON value")
	}
	return nil
}
