package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/deepseq/evalrun/cmd/evalrun/cmd"
	"github.com/deepseq/evalrun/internal/envcheck"
)

func main() {
	err := cmd.Execute()
	if err == nil {
		return
	}

	var notReady *envcheck.NotReadyError
	if errors.As(err, &notReady) {
		fmt.Fprintln(os.Stderr, notReady.Guidance())
		os.Exit(1)
	}

	// Mirror the evaluation's own exit code
	var exitErr *cmd.ExitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.Code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
