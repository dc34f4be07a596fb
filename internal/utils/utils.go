package utils

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorResponse is the body of every non-2xx JSON answer.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	// Path is the request path, so a client polling several endpoints can
	// tell which one failed.
	Path string `json:"path,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write JSON", "error", err)
	}
}

// WriteError answers with an ErrorResponse. Server-side failures are also
// logged with the matched route; client errors are not.
func WriteError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	body := ErrorResponse{
		Error:   http.StatusText(status),
		Message: msg,
	}
	if r != nil {
		body.Path = r.URL.Path
		if status >= http.StatusInternalServerError {
			slog.Error("request failed",
				"method", r.Method,
				"route", r.Pattern,
				"status", status,
				"message", msg,
			)
		}
	}
	WriteJSON(w, status, body)
}
