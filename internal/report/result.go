package report

import (
	"fmt"
	"log"
	"time"
)

// ExitReason describes why the evaluation process terminated
type ExitReason string

const (
	ExitReasonSuccess  ExitReason = "success"  // exit code 0
	ExitReasonError    ExitReason = "error"    // non-zero exit code
	ExitReasonSignal   ExitReason = "signal"   // killed by a signal
	ExitReasonDeadline ExitReason = "deadline" // stopped at the walltime deadline
	ExitReasonUnknown  ExitReason = "unknown"
)

// IsSuccess returns true if the exit represents success
func (r ExitReason) IsSuccess() bool {
	return r == ExitReasonSuccess
}

// Result is the immutable record of one evaluation run. Set once at
// completion, never updated afterwards.
type Result struct {
	// Identity
	RunID string `json:"run_id"`
	Name  string `json:"name,omitempty"`
	PID   int    `json:"pid"`

	// Invocation
	Program string   `json:"program"`
	Script  string   `json:"script"`
	Dataset string   `json:"dataset,omitempty"`
	Model   string   `json:"model,omitempty"`
	Args    []string `json:"args,omitempty"`

	// Timing
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration_ns"`

	// Outcome
	ExitCode     int        `json:"exit_code"`
	ExitReason   ExitReason `json:"exit_reason"`
	Signal       string     `json:"signal,omitempty"`
	SoftStopSent bool       `json:"soft_stop_sent"`
	Error        string     `json:"error,omitempty"`
}

// NewResult creates a result for a finished run
func NewResult(runID string, pid, exitCode int, start, end time.Time) *Result {
	return &Result{
		RunID:     runID,
		PID:       pid,
		ExitCode:  exitCode,
		StartTime: start,
		EndTime:   end,
		Duration:  end.Sub(start),
	}
}

// LogSummary emits a one-line, grep-friendly run summary
func (r *Result) LogSummary() {
	softStop := ""
	if r.SoftStopSent {
		softStop = " | soft_stop=sent"
	}

	log.Printf("RUN %s | model=%s | runtime=%.0fs | exit=%d | reason=%s%s | pid=%d",
		r.RunID,
		r.Model,
		r.Duration.Seconds(),
		r.ExitCode,
		r.ExitReason,
		softStop,
		r.PID,
	)
}

// LauncherExitCode maps the child outcome onto the launcher's own exit
// code: the child's code verbatim, or 128+signal when it died to one.
func (r *Result) LauncherExitCode() int {
	if r.ExitCode >= 0 {
		return r.ExitCode
	}
	if sig := r.signalNumber(); sig > 0 {
		return 128 + sig
	}
	return 1
}

func (r *Result) signalNumber() int {
	switch r.Signal {
	case "SIGHUP":
		return 1
	case "SIGINT":
		return 2
	case "SIGQUIT":
		return 3
	case "SIGKILL":
		return 9
	case "SIGUSR1":
		return 10
	case "SIGUSR2":
		return 12
	case "SIGTERM":
		return 15
	}
	var n int
	if _, err := fmt.Sscanf(r.Signal, "SIG%d", &n); err == nil {
		return n
	}
	return 0
}
