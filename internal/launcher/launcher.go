package launcher

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/deepseq/evalrun/internal/observe"
	"github.com/deepseq/evalrun/internal/report"
)

// Options configures one launch
type Options struct {
	RunID    string
	Name     string
	Deadline *Deadline

	// Stdout/Stderr default to the launcher's own streams
	Stdout io.Writer
	Stderr io.Writer

	// OnStart is invoked with the child PID once the process is running
	OnStart func(pid int)

	// OnSoftStop is invoked after the soft-termination signal has been
	// delivered (metrics hook)
	OnSoftStop func()
}

// Run spawns the evaluation process and supervises it until exit.
//
// The child runs in its own process group so it survives a launcher
// crash. SIGINT/SIGTERM received by the launcher are relayed to the
// group and begin the SIGTERM-then-SIGKILL escalation. With a walltime
// deadline set, the soft signal is delivered Grace before the deadline,
// exactly once.
func Run(ctx context.Context, inv *Invocation, opts Options) (*report.Result, error) {
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	timing := observe.NewTiming()

	cmd := exec.Command(inv.Program, inv.Args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true, // child becomes its own group leader
		Pgid:    0,
	}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", inv.Program, err)
	}
	pid := cmd.Process.Pid
	if opts.OnStart != nil {
		opts.OnStart(pid)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var softTimer, hardTimer, killTimer *time.Timer
	var softC, hardC, killC <-chan time.Time
	if opts.Deadline.Enabled() {
		softTimer = time.NewTimer(opts.Deadline.SoftAfter())
		hardTimer = time.NewTimer(opts.Deadline.Walltime)
		softC = softTimer.C
		hardC = hardTimer.C
		defer softTimer.Stop()
		defer hardTimer.Stop()
	}

	killWait := 30 * time.Second
	if opts.Deadline != nil && opts.Deadline.KillWait > 0 {
		killWait = opts.Deadline.KillWait
	}

	softStopSent := false
	deadlineHit := false
	ctxDone := ctx.Done()
	var waitErr error

	startEscalation := func() {
		if killTimer == nil {
			killTimer = time.NewTimer(killWait)
			killC = killTimer.C
		}
	}

supervise:
	for {
		select {
		case waitErr = <-done:
			break supervise

		case <-softC:
			softC = nil
			if err := signalGroup(pid, opts.Deadline.Signal); err != nil {
				log.Printf("[launcher] WARNING: soft-stop signal not delivered to pid %d: %v", pid, err)
				continue
			}
			softStopSent = true
			if opts.OnSoftStop != nil {
				opts.OnSoftStop()
			}

		case <-hardC:
			hardC = nil
			deadlineHit = true
			signalGroup(pid, syscall.SIGTERM)
			startEscalation()

		case sig := <-sigChan:
			if s, ok := sig.(syscall.Signal); ok {
				signalGroup(pid, s)
			}
			startEscalation()

		case <-ctxDone:
			ctxDone = nil
			signalGroup(pid, syscall.SIGTERM)
			startEscalation()

		case <-killC:
			killC = nil
			signalGroup(pid, syscall.SIGKILL)
		}
	}
	if killTimer != nil {
		killTimer.Stop()
	}

	timing.Complete()

	exitCode := 0
	sigName := ""
	reason := report.ExitReasonSuccess

	if waitErr != nil {
		exitErr, ok := waitErr.(*exec.ExitError)
		if !ok {
			return nil, fmt.Errorf("wait failed: %w", waitErr)
		}

		exitCode = exitErr.ExitCode()
		reason = report.ExitReasonError

		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			exitCode = -1
			sigName = SignalName(status.Signal())
			reason = report.ExitReasonSignal
		}
		if deadlineHit {
			reason = report.ExitReasonDeadline
		}
	}

	result := report.NewResult(opts.RunID, pid, exitCode, timing.StartedAt, timing.CompletedAt)
	result.Name = opts.Name
	result.Program = inv.Program
	if len(inv.Args) > 0 {
		result.Script = inv.Args[0]
	}
	result.ExitReason = reason
	result.Signal = sigName
	result.SoftStopSent = softStopSent

	return result, nil
}
