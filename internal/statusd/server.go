package statusd

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Status is the live view of the running job served at /status
type Status struct {
	RunID        string    `json:"run_id"`
	Name         string    `json:"name,omitempty"`
	Model        string    `json:"model,omitempty"`
	PID          int       `json:"pid"`
	State        string    `json:"state"`
	StartedAt    time.Time `json:"started_at"`
	SoftStopSent bool      `json:"soft_stop_sent"`
}

// Server exposes liveness, run status and metrics while a job runs
type Server struct {
	srv      *http.Server
	statusFn func() Status
}

// New creates a status server. metricsHandler serves /metrics,
// statusFn backs /status.
func New(addr string, metricsHandler http.Handler, statusFn func() Status) *Server {
	s := &Server{statusFn: statusFn}

	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	router.HandleFunc("/status", s.handleStatus).Methods("GET")
	router.Handle("/metrics", metricsHandler).Methods("GET")

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins serving in a background goroutine. Errors other than a
// clean shutdown are delivered on the returned channel.
func (s *Server) Start() <-chan error {
	errChan := make(chan error, 1)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()
	return errChan
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler returns the underlying handler, for tests
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.statusFn())
}
