package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func sampleResult() *Result {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	r := NewResult("run-abc123", 4242, 0, start, start.Add(90*time.Second))
	r.Name = "sfd-eval"
	r.Program = "python3"
	r.Script = "/opt/deepseq/scripts/evaluate.py"
	r.Dataset = "/scratch/sfd"
	r.Model = "setbert-base"
	r.ExitReason = ExitReasonSuccess
	return r
}

func TestLauncherExitCode(t *testing.T) {
	r := sampleResult()
	if code := r.LauncherExitCode(); code != 0 {
		t.Errorf("expected 0 for success, got %d", code)
	}

	r.ExitCode = 3
	if code := r.LauncherExitCode(); code != 3 {
		t.Errorf("expected child code 3, got %d", code)
	}

	r.ExitCode = -1
	r.Signal = "SIGTERM"
	if code := r.LauncherExitCode(); code != 143 {
		t.Errorf("expected 128+15 for SIGTERM, got %d", code)
	}

	r.Signal = "SIGUSR1"
	if code := r.LauncherExitCode(); code != 138 {
		t.Errorf("expected 128+10 for SIGUSR1, got %d", code)
	}

	r.Signal = ""
	if code := r.LauncherExitCode(); code != 1 {
		t.Errorf("expected fallback 1, got %d", code)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleResult().WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["run_id"] != "run-abc123" {
		t.Errorf("unexpected run_id: %v", decoded["run_id"])
	}
	if decoded["exit_reason"] != "success" {
		t.Errorf("unexpected exit_reason: %v", decoded["exit_reason"])
	}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleResult().WriteTable(&buf); err != nil {
		t.Fatalf("WriteTable failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"run-abc123", "setbert-base", "success"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evalrun.prom")
	if err := sampleResult().WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	out := string(data)
	for _, want := range []string{
		"evalrun_job_exit_code",
		"evalrun_job_duration_seconds",
		`run_id="run-abc123"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("textfile missing %q:\n%s", want, out)
		}
	}
}
