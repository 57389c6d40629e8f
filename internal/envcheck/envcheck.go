package envcheck

import (
	"fmt"
	"os"
	"path/filepath"
)

// Environment variable names consumed by the launcher. DEEPSEQ_ENV is set
// by the project's env.sh and acts as the readiness flag: nothing is
// launched without it.
const (
	ReadyVar  = "DEEPSEQ_ENV"
	HomeVar   = "DEEPSEQ_HOME"
	DataVar   = "DEEPSEQ_DATA"
	ModelsVar = "DEEPSEQ_MODELS"
	LogsVar   = "DEEPSEQ_LOGS"
)

// Environment holds the resolved project environment
type Environment struct {
	Ready  bool
	Env    string // value of DEEPSEQ_ENV (environment name, e.g. "cluster")
	Home   string
	Data   string
	Models string
	Logs   string
}

// NotReadyError indicates the project environment was never initialized
type NotReadyError struct {
	Var string
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("environment not initialized: %s is not set", e.Var)
}

// Guidance returns the user-facing message printed before exiting
func (e *NotReadyError) Guidance() string {
	return "Environment not initialized.\nRun `source env.sh` from the project root before submitting jobs."
}

// Resolve builds an Environment from a lookup function.
// Pass os.Getenv for the real environment.
func Resolve(lookup func(string) string) *Environment {
	env := &Environment{
		Env:    lookup(ReadyVar),
		Home:   lookup(HomeVar),
		Data:   lookup(DataVar),
		Models: lookup(ModelsVar),
		Logs:   lookup(LogsVar),
	}
	env.Ready = env.Env != ""

	// Path defaults derive from the project home when only it is set
	if env.Home != "" {
		if env.Data == "" {
			env.Data = filepath.Join(env.Home, "data")
		}
		if env.Models == "" {
			env.Models = filepath.Join(env.Home, "models")
		}
		if env.Logs == "" {
			env.Logs = filepath.Join(env.Home, "logs")
		}
	}

	return env
}

// FromOS resolves the environment from the process environment
func FromOS() *Environment {
	return Resolve(os.Getenv)
}

// Check verifies the launch preconditions.
// Returns *NotReadyError when the readiness flag is unset.
func (e *Environment) Check() error {
	if !e.Ready {
		return &NotReadyError{Var: ReadyVar}
	}
	if e.Home == "" {
		return fmt.Errorf("%s is not set", HomeVar)
	}
	return nil
}

// Missing returns the names of unset variables among the given ones
func (e *Environment) Missing(vars ...string) []string {
	var missing []string
	for _, v := range vars {
		if e.value(v) == "" {
			missing = append(missing, v)
		}
	}
	return missing
}

func (e *Environment) value(name string) string {
	switch name {
	case ReadyVar:
		return e.Env
	case HomeVar:
		return e.Home
	case DataVar:
		return e.Data
	case ModelsVar:
		return e.Models
	case LogsVar:
		return e.Logs
	}
	return ""
}

// Vars returns the variables in display order with their resolved values
func (e *Environment) Vars() [][2]string {
	return [][2]string{
		{ReadyVar, e.Env},
		{HomeVar, e.Home},
		{DataVar, e.Data},
		{ModelsVar, e.Models},
		{LogsVar, e.Logs},
	}
}
