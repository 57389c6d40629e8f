package jobspec

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultSignalSpec delivers SIGUSR1 five minutes before the walltime
	// deadline, matching the scheduler-side soft-stop convention.
	DefaultSignalSpec = "USR1@300"

	DefaultProgram  = "python3"
	DefaultKillWait = 30 * time.Second
)

// Spec describes one evaluation job
type Spec struct {
	Name      string   `yaml:"name,omitempty"`
	Program   string   `yaml:"program,omitempty"`
	Script    string   `yaml:"script"`
	Dataset   string   `yaml:"dataset,omitempty"`
	Model     string   `yaml:"model,omitempty"`
	OutputDir string   `yaml:"output_dir,omitempty"`
	Walltime  string   `yaml:"walltime,omitempty"`
	Signal    string   `yaml:"signal,omitempty"`
	Args      []string `yaml:"args,omitempty"`
}

// Load reads a job spec from a YAML file
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job file: %w", err)
	}

	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse job file %s: %w", path, err)
	}

	spec.ApplyDefaults()
	return &spec, nil
}

// ApplyDefaults fills unset fields with launcher defaults
func (s *Spec) ApplyDefaults() {
	if s.Program == "" {
		s.Program = DefaultProgram
	}
	if s.Signal == "" {
		s.Signal = DefaultSignalSpec
	}
}

// Validate checks the spec is launchable
func (s *Spec) Validate() error {
	if s.Script == "" {
		return fmt.Errorf("job spec: script is required")
	}
	if s.Walltime != "" {
		if _, err := ParseWalltime(s.Walltime); err != nil {
			return fmt.Errorf("job spec: %w", err)
		}
	}
	if s.Signal != "" {
		if _, _, err := ParseSignalSpec(s.Signal); err != nil {
			return fmt.Errorf("job spec: %w", err)
		}
	}
	return nil
}

// ParseWalltime parses a scheduler-style walltime string.
// Accepted forms: "M" (minutes), "MM:SS", "HH:MM:SS", "D-HH:MM:SS".
func ParseWalltime(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty walltime")
	}

	var days int
	if idx := strings.Index(s, "-"); idx >= 0 {
		d, err := strconv.Atoi(s[:idx])
		if err != nil || d < 0 {
			return 0, fmt.Errorf("invalid walltime %q", s)
		}
		days = d
		s = s[idx+1:]
	}

	parts := strings.Split(s, ":")
	for _, p := range parts {
		if p == "" {
			return 0, fmt.Errorf("invalid walltime %q", s)
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid walltime %q", s)
		}
	}

	var dur time.Duration
	switch len(parts) {
	case 1:
		// bare number: minutes (or hours when a day prefix is present)
		n, _ := strconv.Atoi(parts[0])
		if days > 0 {
			dur = time.Duration(n) * time.Hour
		} else {
			dur = time.Duration(n) * time.Minute
		}
	case 2:
		m, _ := strconv.Atoi(parts[0])
		sec, _ := strconv.Atoi(parts[1])
		dur = time.Duration(m)*time.Minute + time.Duration(sec)*time.Second
	case 3:
		h, _ := strconv.Atoi(parts[0])
		m, _ := strconv.Atoi(parts[1])
		sec, _ := strconv.Atoi(parts[2])
		dur = time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second
	default:
		return 0, fmt.Errorf("invalid walltime %q", s)
	}

	dur += time.Duration(days) * 24 * time.Hour
	if dur <= 0 {
		return 0, fmt.Errorf("walltime must be positive, got %q", s)
	}
	return dur, nil
}

// ParseSignalSpec parses a soft-stop signal spec of the form "USR1@300":
// the signal to deliver, and how many seconds before the walltime deadline
// to deliver it.
func ParseSignalSpec(s string) (syscall.Signal, time.Duration, error) {
	s = strings.TrimSpace(s)
	name := s
	grace := 0 * time.Second

	if idx := strings.Index(s, "@"); idx >= 0 {
		name = s[:idx]
		secs, err := strconv.Atoi(s[idx+1:])
		if err != nil || secs < 0 {
			return 0, 0, fmt.Errorf("invalid signal grace in %q", s)
		}
		grace = time.Duration(secs) * time.Second
	}

	sig, err := lookupSignal(name)
	if err != nil {
		return 0, 0, err
	}
	return sig, grace, nil
}

func lookupSignal(name string) (syscall.Signal, error) {
	name = strings.TrimPrefix(strings.ToUpper(name), "SIG")

	switch name {
	case "HUP":
		return syscall.SIGHUP, nil
	case "INT":
		return syscall.SIGINT, nil
	case "QUIT":
		return syscall.SIGQUIT, nil
	case "USR1":
		return syscall.SIGUSR1, nil
	case "USR2":
		return syscall.SIGUSR2, nil
	case "TERM":
		return syscall.SIGTERM, nil
	}

	// numeric form, e.g. "10"
	if n, err := strconv.Atoi(name); err == nil && n > 0 && n < 32 {
		return syscall.Signal(n), nil
	}

	return 0, fmt.Errorf("unknown signal %q", name)
}
