package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
)

// WriteJSON writes the result as indented JSON
func (r *Result) WriteJSON(out io.Writer) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteTable renders a human-readable run summary table
func (r *Result) WriteTable(out io.Writer) error {
	table := tablewriter.NewWriter(out)
	table.Header("Field", "Value")

	table.Append("Run ID", r.RunID)
	if r.Name != "" {
		table.Append("Name", r.Name)
	}
	table.Append("Script", r.Script)
	if r.Dataset != "" {
		table.Append("Dataset", r.Dataset)
	}
	if r.Model != "" {
		table.Append("Model", r.Model)
	}
	if len(r.Args) > 0 {
		table.Append("Extra Args", strings.Join(r.Args, " "))
	}
	table.Append("PID", fmt.Sprintf("%d", r.PID))
	table.Append("Started", r.StartTime.Format(time.RFC3339))
	table.Append("Duration", fmt.Sprintf("%.2fs", r.Duration.Seconds()))
	table.Append("Exit Code", fmt.Sprintf("%d", r.ExitCode))
	table.Append("Exit Reason", string(r.ExitReason))
	if r.Signal != "" {
		table.Append("Signal", r.Signal)
	}
	table.Append("Soft Stop", fmt.Sprintf("%v", r.SoftStopSent))

	table.Render()
	return nil
}
