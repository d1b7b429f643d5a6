package apierr

import (
	"errors"
	"net/http"

	"github.com/andrebq/taskbox/internal/logutil"
	"github.com/goccy/go-json"
)

type (
	Response struct {
		Message   string      `json:"message"`
		RequestID string      `json:"requestId,omitempty"`
		Details   interface{} `json:"details,omitempty"`
	}
)

// Status maps err to the HTTP status code used to report it.
func Status(err error) int {
	var (
		validation ValidationError
		auth       AuthenticationError
		conflict   ConflictError
		notFound   NotFoundError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &auth):
		return http.StatusUnauthorized
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &notFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Write logs err with the request logger and sends the matching response.
// Internal errors never leak their message to the client.
func Write(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	log := logutil.GetOrDefault(ctx)
	status := Status(err)
	res := Response{
		Message:   err.Error(),
		RequestID: logutil.RequestID(ctx),
	}
	switch status {
	case http.StatusInternalServerError:
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("Request failed")
		res.Message = InternalErrorMessage
	case http.StatusUnauthorized:
		log.Warn().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("Request rejected")
		res.Message = AuthenticationFailedMessage
	default:
		log.Warn().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Int("status", status).Msg("Request rejected")
	}
	var validation ValidationError
	if errors.As(err, &validation) && len(validation.Fields) > 0 {
		res.Details = validation.Fields
	}
	WriteJSON(w, status, res)
}

func WriteJSON(w http.ResponseWriter, status int, body interface{}) {
	buf, err := json.Marshal(body)
	if err != nil {
		http.Error(w, InternalErrorMessage, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf)
}

// NotFound is used as the router fallback for unknown routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusNotFound, Response{
		Message:   "Route not found",
		RequestID: logutil.RequestID(r.Context()),
	})
}
