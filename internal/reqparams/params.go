// Package reqparams reads path and query parameters.
package reqparams

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/andrebq/taskbox/internal/apierr"
	"github.com/julienschmidt/httprouter"
)

type (
	// Query collects integer parse failures so they can be reported
	// together with the validator ones.
	Query struct {
		values url.Values
		Fields []apierr.FieldError
	}
)

// PathID returns the positive integer bound to name by the router. Any other
// value is reported with msg.
func PathID(r *http.Request, name, msg string) (int64, error) {
	id, err := strconv.ParseInt(httprouter.ParamsFromContext(r.Context()).ByName(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apierr.Invalid(msg)
	}
	return id, nil
}

func NewQuery(r *http.Request) *Query {
	return &Query{values: r.URL.Query()}
}

func (q *Query) String(name, def string) string {
	v := strings.TrimSpace(q.values.Get(name))
	if v == "" {
		return def
	}
	return v
}

func (q *Query) Int(name string, def int) int {
	v := strings.TrimSpace(q.values.Get(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		q.Fields = append(q.Fields, apierr.FieldError{
			Field:   name,
			Tag:     "number",
			Message: fmt.Sprintf("%v must be an integer", name),
		})
		return def
	}
	return n
}

// Merge combines the parse failures with err, which is usually the result
// of validating the decoded query.
func (q *Query) Merge(err error) error {
	if len(q.Fields) == 0 {
		return err
	}
	out := apierr.ValidationError{Fields: q.Fields}
	if verr, ok := err.(apierr.ValidationError); ok {
		out.Fields = append(out.Fields, verr.Fields...)
	} else if err != nil {
		return err
	}
	return out
}
