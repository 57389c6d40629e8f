package cmd

import (
	"sync"
	"time"

	"github.com/deepseq/evalrun/internal/statusd"
)

// runState is the live view of the supervised run served on /status.
// The launcher goroutine writes it through Started/SoftStop/Finished
// while the status server reads it from handler goroutines.
type runState struct {
	mu     sync.Mutex
	status statusd.Status
}

func newRunState(runID, name, model string) *runState {
	return &runState{
		status: statusd.Status{
			RunID: runID,
			Name:  name,
			Model: model,
			State: "pending",
		},
	}
}

// Started records the child PID and start time once the process is up.
func (r *runState) Started(pid int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status.PID = pid
	r.status.State = "running"
	r.status.StartedAt = time.Now()
}

func (r *runState) SoftStop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status.SoftStopSent = true
}

func (r *runState) Finished() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status.State = "completed"
}

// Status returns a snapshot safe to serialize from another goroutine.
func (r *runState) Status() statusd.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}
