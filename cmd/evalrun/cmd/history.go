package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/deepseq/evalrun/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show past evaluation runs",
	Long:  `Lists runs recorded in the local history database, newest first. With a run ID, shows that single run.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	dbPath, err := HistoryDBPath()
	if err != nil {
		return err
	}

	store, err := history.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if len(args) == 1 {
		run, err := store.Get(args[0])
		if err != nil {
			return err
		}
		return printRuns([]*history.Run{run})
	}

	runs, err := store.Recent(historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}
	return printRuns(runs)
}

func printRuns(runs []*history.Run) error {
	if IsJSONOutput() {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Run ID", "Name", "Model", "Exit", "Reason", "Started", "Duration")

	for _, run := range runs {
		table.Append(
			run.RunID,
			run.Name,
			run.Model,
			fmt.Sprintf("%d", run.ExitCode),
			run.ExitReason,
			run.StartedAt.Local().Format(time.RFC3339),
			fmt.Sprintf("%.0fs", run.DurationSec),
		)
	}

	table.Render()
	return nil
}
