package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"nfl-scoreboard-service/internal/http/requestutil"
	"nfl-scoreboard-service/internal/logging"
	"nfl-scoreboard-service/internal/offline"
)

// Messenger receives control messages.
type Messenger interface {
	Post(ctx context.Context, msg offline.Message)
}

// ControlHandler forwards control messages to the offline proxy. Messages are
// fire-and-forget: the request is acknowledged before the message is handled.
type ControlHandler struct {
	proxy  Messenger
	token  string
	logger *slog.Logger
}

// NewControlHandler constructs a ControlHandler. An empty token leaves the channel open.
func NewControlHandler(proxy Messenger, token string, logger *slog.Logger) *ControlHandler {
	return &ControlHandler{
		proxy:  proxy,
		token:  token,
		logger: logger,
	}
}

// Activate asks a waiting proxy to take control.
func (h *ControlHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.post(w, r, offline.MessageActivate)
}

// ClearCaches asks the proxy to delete every cache bucket.
func (h *ControlHandler) ClearCaches(w http.ResponseWriter, r *http.Request) {
	h.post(w, r, offline.MessageClearCaches)
}

func (h *ControlHandler) post(w http.ResponseWriter, r *http.Request, msg offline.Message) {
	logger := loggerFromContext(r, h.logger)
	if !h.authorize(r) {
		logging.Warn(logger, "control unauthorized",
			slog.String("path", r.URL.Path),
			slog.String("client_ip", requestutil.ClientIP(r)),
		)
		writeError(w, r, http.StatusUnauthorized, "unauthorized", logger)
		return
	}
	if h.proxy == nil {
		writeError(w, r, http.StatusServiceUnavailable, "offline proxy not configured", logger)
		return
	}

	ctx := context.WithoutCancel(r.Context())
	go h.proxy.Post(ctx, msg)

	logging.Info(logger, "control message posted", "message", string(msg))
	w.WriteHeader(http.StatusAccepted)
}

func (h *ControlHandler) authorize(r *http.Request) bool {
	if h.token == "" {
		return true
	}
	return r.Header.Get("Authorization") == "Bearer "+h.token
}
