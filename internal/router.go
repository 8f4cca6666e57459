package internal

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps are the handlers mounted on the public HTTP listener.
// Gatherer is optional, /metrics is skipped when nil.
type RouterDeps struct {
	Log       *slog.Logger
	WebSocket http.Handler
	Gatherer  prometheus.Gatherer
	Online    func() []string
}

func NewRouter(deps RouterDeps) *mux.Router {
	router := mux.NewRouter()
	router.Handle("/ws", deps.WebSocket).Methods(http.MethodGet)
	router.HandleFunc("/healthz", healthz(deps.Online)).Methods(http.MethodGet)
	if deps.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	router.Use(logging(deps.Log))
	return router
}

// NewDebugRouter exposes the raw Badger records. It is meant for a listener
// bound to loopback, never for the public one.
func NewDebugRouter(log *slog.Logger, db *badger.DB) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/inspect", InspectHandler(db, RelayMapper)).Methods(http.MethodGet)
	router.Use(logging(log))
	return router
}

func healthz(online func() []string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		body := map[string]any{"status": "ok"}
		if online != nil {
			body["online"] = len(online())
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}
}

func logging(log *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
		})
	}
}
