// Package httpapi is the kernel's observability-only HTTP surface
// (SPEC_FULL §1): /healthz, /metrics, and a read-only /status JSON
// endpoint. Grounded on the teacher's internal/api.Server chi router
// shape, trimmed to the endpoints Section 6 allows — no wire or file
// format exposed by the core itself.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sagekernel/sagekernel/internal/model"
)

// Server is the kernel's status/metrics HTTP server.
type Server struct {
	m *model.Model
}

// NewServer returns a server reporting on m.
func NewServer(m *model.Model) *Server {
	return &Server{m: m}
}

// Handler returns the chi router with every route mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/status", s.handleStatus)

	return r
}

// statusResponse is the /status endpoint's body: executive clock/state/
// queue depth, observability only.
type statusResponse struct {
	State      string  `json:"state"`
	Clock      float64 `json:"clock"`
	QueueDepth int     `json:"queue_depth"`
	Errors     int     `json:"errors"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{
		State:      s.m.Machine.Current(),
		Clock:      float64(s.m.Exec.Now()),
		QueueDepth: s.m.Exec.Pending(),
		Errors:     len(s.m.Errors()),
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
