package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	appscoreboard "nfl-scoreboard-service/internal/app/scoreboard"
	"nfl-scoreboard-service/internal/domain/scoreboard"
	"nfl-scoreboard-service/internal/logging"
	"nfl-scoreboard-service/internal/offline"
)

// ProxyState reports the offline proxy lifecycle.
type ProxyState interface {
	State() offline.State
}

// Handler wires HTTP routes to the scoreboard service.
type Handler struct {
	svc    *appscoreboard.Service
	proxy  ProxyState
	logger *slog.Logger
}

// NewHandler constructs a Handler. proxy may be nil.
func NewHandler(svc *appscoreboard.Service, proxy ProxyState, logger *slog.Logger) *Handler {
	return &Handler{
		svc:    svc,
		proxy:  proxy,
		logger: logger,
	}
}

type weeksResponse struct {
	Weeks []int                           `json:"weeks"`
	Data  map[int]*scoreboard.WeekPayload `json:"data"`
}

type statusResponse struct {
	appscoreboard.Status
	ProxyState string `json:"proxyState"`
}

// Health reports the service health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := r.Context().Err(); err != nil {
		writeError(w, r, http.StatusServiceUnavailable, "shutting down", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, h.logger)
}

// Ready reports readiness once the season has loaded.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.svc.Season().Loaded() {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"}, h.logger)
		return
	}
	writeError(w, r, http.StatusServiceUnavailable, "season not loaded", h.logger)
}

// Weeks returns every held week in ascending order.
func (h *Handler) Weeks(w http.ResponseWriter, r *http.Request) {
	s := h.svc.Season()
	writeJSON(w, http.StatusOK, weeksResponse{
		Weeks: s.Weeks(),
		Data:  s.All(),
	}, h.logger)
}

// Week returns one week, fetching it when it is not held yet.
func (h *Handler) Week(w http.ResponseWriter, r *http.Request) {
	week, ok := h.weekParam(w, r)
	if !ok {
		return
	}
	payload, err := h.svc.Week(r.Context(), week)
	if err != nil {
		h.writeUnavailable(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payload, h.logger)
}

// RefreshWeek forces a fresh fetch of one week.
func (h *Handler) RefreshWeek(w http.ResponseWriter, r *http.Request) {
	week, ok := h.weekParam(w, r)
	if !ok {
		return
	}
	payload, err := h.svc.RefreshWeek(r.Context(), week)
	if err != nil {
		h.writeUnavailable(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payload, h.logger)
}

// Status reports connectivity, live refresh and proxy state.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{Status: h.svc.Status()}
	if h.proxy != nil {
		resp.ProxyState = h.proxy.State().String()
	}
	writeJSON(w, http.StatusOK, resp, h.logger)
}

// View returns the current rendering.
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.View(), h.logger)
}

// Navigate switches to the route given as ?route=#/... and returns its rendering.
func (h *Handler) Navigate(w http.ResponseWriter, r *http.Request) {
	hash := r.URL.Query().Get("route")
	model, err := h.svc.Navigate(r.Context(), hash)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid week", h.logger)
		return
	}
	logging.Info(loggerFromContext(r, h.logger), "navigated", "route", model.Route)
	writeJSON(w, http.StatusOK, model, h.logger)
}

// Reload retries the full season load.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.LoadInitialData(r.Context()); err != nil {
		if errors.Is(err, appscoreboard.ErrNoData) {
			writeError(w, r, http.StatusServiceUnavailable, "no season data could be loaded", h.logger)
			return
		}
		writeError(w, r, http.StatusInternalServerError, "reload failed", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Status(), h.logger)
}

func (h *Handler) weekParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	week, err := strconv.Atoi(mux.Vars(r)["week"])
	if err != nil || week < 1 || week > h.svc.SeasonWeeks() {
		writeError(w, r, http.StatusBadRequest, "invalid week", h.logger)
		return 0, false
	}
	return week, true
}

func (h *Handler) writeUnavailable(w http.ResponseWriter, r *http.Request, err error) {
	logging.Warn(loggerFromContext(r, h.logger), "week request failed", "error", err)
	if h.svc.Season().Offline() {
		writeErrorResponse(w, r, http.StatusServiceUnavailable, errorResponse{Error: scoreboard.OfflineMessage, Offline: true}, h.logger)
		return
	}
	writeError(w, r, http.StatusBadGateway, "week unavailable", h.logger)
}
