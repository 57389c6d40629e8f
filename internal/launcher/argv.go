package launcher

import (
	"fmt"
	"path/filepath"

	"github.com/deepseq/evalrun/internal/envcheck"
	"github.com/deepseq/evalrun/internal/jobspec"
)

// Invocation is a fully resolved external command line
type Invocation struct {
	Program string
	Args    []string
}

// BuildInvocation assembles the evaluation command line: the configured
// interpreter and script, the fixed dataset/model/output arguments, then
// every caller-supplied argument verbatim and in order.
func BuildInvocation(env *envcheck.Environment, spec *jobspec.Spec, extra []string) (*Invocation, error) {
	if spec.Script == "" {
		return nil, fmt.Errorf("no evaluation script configured")
	}

	script := spec.Script
	if !filepath.IsAbs(script) && env.Home != "" {
		script = filepath.Join(env.Home, script)
	}

	args := []string{script}

	if spec.Dataset != "" {
		args = append(args, "--dataset", spec.Dataset)
	}
	if spec.Model != "" {
		args = append(args, "--model", spec.Model)
	}
	if spec.OutputDir != "" {
		args = append(args, "--output", spec.OutputDir)
	}

	// Spec-file args come before command-line extras; both are forwarded
	// untouched.
	args = append(args, spec.Args...)
	args = append(args, extra...)

	return &Invocation{
		Program: spec.Program,
		Args:    args,
	}, nil
}

// String renders the invocation for logs
func (inv *Invocation) String() string {
	out := inv.Program
	for _, a := range inv.Args {
		out += " " + a
	}
	return out
}
