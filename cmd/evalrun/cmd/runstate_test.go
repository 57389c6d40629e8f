package cmd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/deepseq/evalrun/internal/statusd"
)

func TestRunState_Lifecycle(t *testing.T) {
	state := newRunState("run-abc123", "sfd-eval", "setbert-base")

	s := state.Status()
	if s.State != "pending" || s.PID != 0 {
		t.Errorf("fresh state should be pending with no pid, got %+v", s)
	}

	state.Started(4242)
	s = state.Status()
	if s.PID != 4242 {
		t.Errorf("status should carry the child pid, got %d", s.PID)
	}
	if s.State != "running" {
		t.Errorf("expected running state, got %q", s.State)
	}
	if s.StartedAt.IsZero() {
		t.Error("start time should be set once the child is up")
	}
	if s.SoftStopSent {
		t.Error("soft stop should not be marked before delivery")
	}

	state.SoftStop()
	state.Finished()
	s = state.Status()
	if !s.SoftStopSent || s.State != "completed" {
		t.Errorf("final state wrong: %+v", s)
	}
}

// The status server reads run state from handler goroutines while the
// supervising goroutine updates it; snapshots must stay consistent.
func TestRunState_ConcurrentStatusReads(t *testing.T) {
	state := newRunState("run-def456", "sfd-eval", "setbert-base")
	server := statusd.New("127.0.0.1:0", http.NotFoundHandler(), state.Status)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		state.Started(777)
		state.SoftStop()
		state.Finished()
	}()

	for i := 0; i < 50; i++ {
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("/status returned %d", rec.Code)
		}
	}
	wg.Wait()

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	var got statusd.Status
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad /status payload: %v", err)
	}
	if got.PID != 777 {
		t.Errorf("expected pid 777 in /status, got %d", got.PID)
	}
	if got.StartedAt.IsZero() {
		t.Error("/status should report the real start time")
	}
}
