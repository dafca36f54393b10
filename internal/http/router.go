package http

import (
	nethttp "net/http"

	"github.com/gorilla/mux"

	"nfl-scoreboard-service/internal/http/handlers"
)

// NewRouter registers the API and control routes. Every other path goes to shell,
// which may be nil when no application origin is configured.
func NewRouter(handler *handlers.Handler, control *handlers.ControlHandler, shell nethttp.Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", handler.Health).Methods(nethttp.MethodGet)
	r.HandleFunc("/ready", handler.Ready).Methods(nethttp.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/weeks", handler.Weeks).Methods(nethttp.MethodGet)
	api.HandleFunc("/weeks/{week:[0-9]+}", handler.Week).Methods(nethttp.MethodGet)
	api.HandleFunc("/weeks/{week:[0-9]+}/refresh", handler.RefreshWeek).Methods(nethttp.MethodPost)
	api.HandleFunc("/status", handler.Status).Methods(nethttp.MethodGet)
	api.HandleFunc("/view", handler.View).Methods(nethttp.MethodGet)
	api.HandleFunc("/view", handler.Navigate).Methods(nethttp.MethodPut)
	api.HandleFunc("/reload", handler.Reload).Methods(nethttp.MethodPost)
	if control != nil {
		api.HandleFunc("/control/activate", control.Activate).Methods(nethttp.MethodPost)
		api.HandleFunc("/control/clear-caches", control.ClearCaches).Methods(nethttp.MethodPost)
	}

	if shell != nil {
		r.PathPrefix("/").Handler(shell)
	}
	return r
}
