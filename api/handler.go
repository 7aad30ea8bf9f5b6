// Package api provides the operations HTTP API of a vexsync process: health,
// manual job runs and notification dispatch. It serves no catalog queries.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/xraph/vexsync/notify"
	"github.com/xraph/vexsync/team"
)

// Notifier sends notifications. *vexsync.Engine implements it.
type Notifier interface {
	Notify(ctx context.Context, msg notify.Message, teams []team.Ref, reactions []string) *notify.Report
	NotifyMatch(ctx context.Context, content string, m notify.Match, payload any) *notify.Report
}

// Jobs runs scheduled jobs on demand. *schedule.Scheduler implements it.
type Jobs interface {
	Jobs() []string
	Trigger(ctx context.Context, name string) error
}

// Pinger checks a dependency. store.Store implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler is the root HTTP handler for the operations API.
type Handler struct {
	notifier Notifier
	jobs     Jobs
	health   Pinger
	logger   *slog.Logger
	mux      *http.ServeMux
}

// NewHandler creates a new operations API handler.
func NewHandler(notifier Notifier, jobs Jobs, health Pinger, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	h := &Handler{
		notifier: notifier,
		jobs:     jobs,
		health:   health,
		logger:   logger,
		mux:      http.NewServeMux(),
	}

	h.registerRoutes()
	return h
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /healthz", h.healthz)

	// Jobs
	h.mux.HandleFunc("GET /jobs", h.listJobs)
	h.mux.HandleFunc("POST /jobs/{name}/run", h.runJob)

	// Notifications
	h.mux.HandleFunc("POST /notify", h.notify)
	h.mux.HandleFunc("POST /notify/match", h.notifyMatch)
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.withMiddleware(h.mux).ServeHTTP(w, r)
}

func (h *Handler) withMiddleware(next http.Handler) http.Handler {
	return h.panicRecovery(h.logging(next))
}

func (h *Handler) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		h.logger.Info("api request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (h *Handler) panicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.Error("panic recovered",
					"error", rec,
					"stack", string(debug.Stack()),
				)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.health.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// JSON helpers.

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best effort
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
