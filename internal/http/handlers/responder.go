package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"nfl-scoreboard-service/internal/http/middleware"
	"nfl-scoreboard-service/internal/logging"
)

// errorResponse is the body of every non-2xx JSON reply.
type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
	Offline   bool   `json:"offline,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error(logger, "failed to encode response", err, logging.FieldStatusCode, status)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string, logger *slog.Logger) {
	writeErrorResponse(w, r, status, errorResponse{Error: message}, logger)
}

func writeErrorResponse(w http.ResponseWriter, r *http.Request, status int, body errorResponse, logger *slog.Logger) {
	body.RequestID = requestID(r)
	writeJSON(w, status, body, logger)
}

// requestID prefers the id assigned by the middleware over the raw header.
func requestID(r *http.Request) string {
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-Request-ID")
}

func loggerFromContext(r *http.Request, fallback *slog.Logger) *slog.Logger {
	if r == nil {
		return fallback
	}
	return logging.FromContext(r.Context(), fallback)
}
