package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"dealdeck/internal/ports"
	"dealdeck/internal/services/deals"
	"dealdeck/internal/services/sessions"
)

// requestError is a client error with its status code.
type requestError struct {
	code int
	msg  string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error { return &requestError{code: http.StatusBadRequest, msg: msg} }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusOf(err error) int {
	var re *requestError
	switch {
	case errors.As(err, &re):
		return re.code
	case errors.Is(err, ports.ErrNotFound), errors.Is(err, sessions.ErrUnknownSession):
		return http.StatusNotFound
	case errors.Is(err, deals.ErrInvalidQuery), errors.Is(err, sessions.ErrInvalidPhase):
		return http.StatusBadRequest
	case errors.Is(err, sessions.ErrEmptyStack), errors.Is(err, sessions.ErrPressPending):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		log.Debug("client went away", "path", r.URL.Path)
		return
	}
	code := statusOf(err)
	msg := err.Error()
	if code >= http.StatusInternalServerError {
		log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		if code == http.StatusInternalServerError {
			msg = http.StatusText(code)
		}
	}
	writeJSON(w, code, map[string]string{"error": msg})
}
