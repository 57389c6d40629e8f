package cmd

import (
	"encoding/json"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/deepseq/evalrun/internal/envcheck"
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Show the resolved project environment",
	Long: `Prints the project environment variables as evalrun resolves them and
verifies the launch preconditions. Exits non-zero when the environment
has not been initialized.`,
	RunE: runEnv,
}

func init() {
	rootCmd.AddCommand(envCmd)
}

func runEnv(cmd *cobra.Command, args []string) error {
	env := envcheck.FromOS()

	if IsJSONOutput() {
		out := map[string]interface{}{
			"ready": env.Ready,
			"vars":  map[string]string{},
		}
		vars := out["vars"].(map[string]string)
		for _, kv := range env.Vars() {
			vars[kv[0]] = kv[1]
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
	} else {
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Variable", "Value")
		for _, kv := range env.Vars() {
			value := kv[1]
			if value == "" {
				value = "(unset)"
			}
			table.Append(kv[0], value)
		}
		table.Render()
	}

	return env.Check()
}
