package jobspec

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

func TestParseWalltime(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"90", 90 * time.Minute},
		{"30:00", 30 * time.Minute},
		{"02:30:00", 2*time.Hour + 30*time.Minute},
		{"1-12:00:00", 36 * time.Hour},
		{"2-0", 48 * time.Hour},
	}

	for _, c := range cases {
		got, err := ParseWalltime(c.in)
		if err != nil {
			t.Errorf("ParseWalltime(%q) failed: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseWalltime(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseWalltime_Invalid(t *testing.T) {
	// negative components must not cancel against the positive ones
	for _, in := range []string{"", "0", "abc", "1:2:3:4", "-5", "1-", "05:-3", "1:-1:00", "1--12:00:00"} {
		if _, err := ParseWalltime(in); err == nil {
			t.Errorf("ParseWalltime(%q) should fail", in)
		}
	}
}

func TestParseSignalSpec(t *testing.T) {
	sig, grace, err := ParseSignalSpec("USR1@300")
	if err != nil {
		t.Fatalf("ParseSignalSpec failed: %v", err)
	}
	if sig != syscall.SIGUSR1 {
		t.Errorf("expected SIGUSR1, got %v", sig)
	}
	if grace != 5*time.Minute {
		t.Errorf("expected 5m grace, got %v", grace)
	}
}

func TestParseSignalSpec_Forms(t *testing.T) {
	cases := []struct {
		in  string
		sig syscall.Signal
	}{
		{"TERM", syscall.SIGTERM},
		{"SIGUSR2@60", syscall.SIGUSR2},
		{"usr1@10", syscall.SIGUSR1},
		{"10@30", syscall.SIGUSR1},
	}

	for _, c := range cases {
		sig, _, err := ParseSignalSpec(c.in)
		if err != nil {
			t.Errorf("ParseSignalSpec(%q) failed: %v", c.in, err)
			continue
		}
		if sig != c.sig {
			t.Errorf("ParseSignalSpec(%q) = %v, want %v", c.in, sig, c.sig)
		}
	}

	if _, _, err := ParseSignalSpec("BOGUS@10"); err == nil {
		t.Error("unknown signal name should fail")
	}
	if _, _, err := ParseSignalSpec("USR1@-5"); err == nil {
		t.Error("negative grace should fail")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yaml")
	content := `name: sfd-eval
script: scripts/evaluate.py
dataset: /scratch/sfd
model: setbert-base
walltime: "04:00:00"
args:
  - --batch-size
  - "64"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	spec, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if spec.Name != "sfd-eval" {
		t.Errorf("unexpected name: %s", spec.Name)
	}
	if spec.Program != DefaultProgram {
		t.Errorf("program should default to %s, got %s", DefaultProgram, spec.Program)
	}
	if spec.Signal != DefaultSignalSpec {
		t.Errorf("signal should default to %s, got %s", DefaultSignalSpec, spec.Signal)
	}
	if len(spec.Args) != 2 || spec.Args[0] != "--batch-size" || spec.Args[1] != "64" {
		t.Errorf("unexpected args: %v", spec.Args)
	}

	if err := spec.Validate(); err != nil {
		t.Errorf("spec should validate: %v", err)
	}
}

func TestValidate_MissingScript(t *testing.T) {
	spec := &Spec{}
	spec.ApplyDefaults()
	if err := spec.Validate(); err == nil {
		t.Error("spec without script should not validate")
	}
}
