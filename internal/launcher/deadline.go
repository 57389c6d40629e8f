package launcher

import (
	"syscall"
	"time"
)

// Deadline describes the walltime stop policy for a run: a soft signal
// delivered `Grace` before the hard deadline so the evaluation can
// checkpoint, then SIGTERM at the deadline, then SIGKILL after KillWait.
type Deadline struct {
	Walltime time.Duration
	Grace    time.Duration
	Signal   syscall.Signal
	KillWait time.Duration
}

// NewDeadline builds a stop policy. A zero walltime means no deadline.
func NewDeadline(walltime, grace time.Duration, sig syscall.Signal) *Deadline {
	if sig == 0 {
		sig = syscall.SIGUSR1
	}
	return &Deadline{
		Walltime: walltime,
		Grace:    grace,
		Signal:   sig,
		KillWait: 30 * time.Second,
	}
}

// SoftAfter returns how long after start the soft signal fires.
// When the grace exceeds the walltime the signal fires immediately.
func (d *Deadline) SoftAfter() time.Duration {
	soft := d.Walltime - d.Grace
	if soft < 0 {
		soft = 0
	}
	return soft
}

// Enabled reports whether a walltime deadline is set
func (d *Deadline) Enabled() bool {
	return d != nil && d.Walltime > 0
}
