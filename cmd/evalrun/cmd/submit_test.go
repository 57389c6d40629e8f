package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/deepseq/evalrun/internal/envcheck"
)

func resetSubmitFlags() {
	submitJobFile = ""
	submitName = ""
	submitProgram = ""
	submitScript = ""
	submitDataset = ""
	submitModel = ""
	submitOutputDir = ""
	submitWalltime = ""
	submitSignal = ""
}

func clusterEnv() *envcheck.Environment {
	return &envcheck.Environment{
		Ready: true,
		Env:   "cluster",
		Home:  "/opt/deepseq",
		Data:  "/opt/deepseq/data",
	}
}

func TestBuildSpec_FlagsWin(t *testing.T) {
	resetSubmitFlags()
	t.Cleanup(resetSubmitFlags)

	submitScript = "scripts/other.py"
	submitModel = "setbert-large"
	submitWalltime = "02:00:00"

	spec, err := buildSpec(clusterEnv())
	if err != nil {
		t.Fatalf("buildSpec failed: %v", err)
	}

	if spec.Script != "scripts/other.py" {
		t.Errorf("unexpected script: %s", spec.Script)
	}
	if spec.Model != "setbert-large" {
		t.Errorf("unexpected model: %s", spec.Model)
	}
	if spec.Dataset != "/opt/deepseq/data" {
		t.Errorf("dataset should default from the environment, got %s", spec.Dataset)
	}
	if spec.Program != "python3" {
		t.Errorf("program should default to python3, got %s", spec.Program)
	}
	if spec.Signal == "" {
		t.Error("signal spec should have a default")
	}
}

func TestBuildSpec_JobFile(t *testing.T) {
	resetSubmitFlags()
	t.Cleanup(resetSubmitFlags)

	path := filepath.Join(t.TempDir(), "job.yaml")
	content := `name: from-file
script: scripts/evaluate.py
model: setbert-base
walltime: "01:00:00"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	submitJobFile = path
	submitModel = "override-model"

	spec, err := buildSpec(clusterEnv())
	if err != nil {
		t.Fatalf("buildSpec failed: %v", err)
	}

	if spec.Name != "from-file" {
		t.Errorf("name should come from the job file, got %s", spec.Name)
	}
	if spec.Model != "override-model" {
		t.Errorf("flag should override the job file, got %s", spec.Model)
	}
	if spec.Walltime != "01:00:00" {
		t.Errorf("walltime should come from the job file, got %s", spec.Walltime)
	}
}

func TestBuildSpec_InvalidWalltime(t *testing.T) {
	resetSubmitFlags()
	t.Cleanup(resetSubmitFlags)

	submitScript = "scripts/evaluate.py"
	submitWalltime = "not-a-time"

	if _, err := buildSpec(clusterEnv()); err == nil {
		t.Error("invalid walltime should fail spec validation")
	}
}

func TestOverride(t *testing.T) {
	v := "current"
	override(&v, "flag", "fallback")
	if v != "flag" {
		t.Errorf("flag should win, got %s", v)
	}

	v = "current"
	override(&v, "", "fallback")
	if v != "current" {
		t.Errorf("current value should survive, got %s", v)
	}

	v = ""
	override(&v, "", "fallback")
	if v != "fallback" {
		t.Errorf("fallback should fill empty, got %s", v)
	}
}

func TestExitError(t *testing.T) {
	err := &ExitError{Code: 137}
	if err.Error() == "" {
		t.Error("ExitError should describe itself")
	}
}
