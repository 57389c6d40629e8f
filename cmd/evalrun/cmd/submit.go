package cmd

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/deepseq/evalrun/internal/envcheck"
	"github.com/deepseq/evalrun/internal/history"
	"github.com/deepseq/evalrun/internal/jobspec"
	"github.com/deepseq/evalrun/internal/launcher"
	"github.com/deepseq/evalrun/internal/logging"
	"github.com/deepseq/evalrun/internal/metrics"
	"github.com/deepseq/evalrun/internal/shutdown"
	"github.com/deepseq/evalrun/internal/statusd"
)

var (
	submitJobFile   string
	submitName      string
	submitProgram   string
	submitScript    string
	submitDataset   string
	submitModel     string
	submitOutputDir string
	submitWalltime  string
	submitSignal    string
	submitKillWait  time.Duration
	statusAddr      string
	metricsFile     string
	noHistory       bool
)

var submitCmd = &cobra.Command{
	Use:   "submit [flags] [-- extra-args...]",
	Short: "Submit an evaluation job",
	Long: `Submit launches the configured evaluation script as a supervised child
process. The environment must have been initialized (source env.sh)
first; without it nothing is launched and evalrun exits with code 1.

All arguments after -- are forwarded to the evaluation script verbatim,
after the configured dataset/model/output arguments. With a walltime
set, the soft-termination signal (default USR1, 300s early) is
delivered to the process group ahead of the deadline so the evaluation
can checkpoint; at the deadline the process is stopped with SIGTERM,
then SIGKILL.

evalrun exits with the evaluation's own exit code (128+signal when it
died to a signal).

Example:
  evalrun submit --model setbert-base --walltime 04:00:00 -- --batch-size 64
  evalrun submit --job-file jobs/sfd-eval.yaml
  evalrun submit --script scripts/evaluate.py --signal USR2@120 -- --seed 42`,
	RunE: runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().StringVar(&submitJobFile, "job-file", "", "YAML job spec file")
	submitCmd.Flags().StringVar(&submitName, "name", "", "Job name (for the report and history)")
	submitCmd.Flags().StringVar(&submitProgram, "program", "", "Interpreter for the evaluation script (default python3)")
	submitCmd.Flags().StringVar(&submitScript, "script", "", "Evaluation script, relative paths resolve under $DEEPSEQ_HOME")
	submitCmd.Flags().StringVar(&submitDataset, "dataset", "", "Dataset path (default $DEEPSEQ_DATA)")
	submitCmd.Flags().StringVar(&submitModel, "model", "", "Model identifier")
	submitCmd.Flags().StringVar(&submitOutputDir, "output-dir", "", "Directory for evaluation outputs")
	submitCmd.Flags().StringVar(&submitWalltime, "walltime", "", "Walltime limit: M, MM:SS, HH:MM:SS or D-HH:MM:SS")
	submitCmd.Flags().StringVar(&submitSignal, "signal", "", "Soft-stop signal spec, e.g. USR1@300")
	submitCmd.Flags().DurationVar(&submitKillWait, "kill-wait", 30*time.Second, "Wait after SIGTERM before SIGKILL")
	submitCmd.Flags().StringVar(&statusAddr, "status-addr", "", "Serve /healthz, /status and /metrics on this address while running")
	submitCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write final run metrics to this textfile-collector path")
	submitCmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record this run in the local history")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	env := envcheck.FromOS()
	if err := env.Check(); err != nil {
		return err
	}

	spec, err := buildSpec(env)
	if err != nil {
		return err
	}

	var deadline *launcher.Deadline
	if spec.Walltime != "" {
		walltime, err := jobspec.ParseWalltime(spec.Walltime)
		if err != nil {
			return err
		}
		sig, grace, err := jobspec.ParseSignalSpec(spec.Signal)
		if err != nil {
			return err
		}
		deadline = launcher.NewDeadline(walltime, grace, sig)
		deadline.KillWait = submitKillWait
	}

	runID := "run-" + strings.Split(uuid.NewString(), "-")[0]

	log, err := logging.NewRunLogger(env.Logs, runID, logging.ParseLevel(logLevel), false)
	if err != nil {
		// Still launch when the log directory is unusable
		log = logging.New(logging.ParseLevel(logLevel), false)
		log.Warn("falling back to stderr-only logging", map[string]interface{}{"error": err.Error()})
	}
	log = log.WithField("run_id", runID)

	inv, err := launcher.BuildInvocation(env, spec, args)
	if err != nil {
		return err
	}

	cleanup := shutdown.New(15 * time.Second)
	defer func() {
		for _, cerr := range cleanup.Run() {
			log.Warn("cleanup error", map[string]interface{}{"error": cerr.Error()})
		}
	}()
	cleanup.Register(func(context.Context) error { return log.Close() })

	var store *history.Store
	if !noHistory {
		dbPath, err := HistoryDBPath()
		if err != nil {
			return err
		}
		store, err = history.Open(dbPath)
		if err != nil {
			return err
		}
		cleanup.Register(func(context.Context) error { return store.Close() })
	}

	collector := metrics.NewCollector(runID, spec.Model)

	state := newRunState(runID, spec.Name, spec.Model)
	if statusAddr != "" {
		server := statusd.New(statusAddr, collector.Handler(), state.Status)
		serverErr := server.Start()
		cleanup.Register(server.Shutdown)
		go func() {
			if err := <-serverErr; err != nil {
				log.Warn("status server failed", map[string]interface{}{"error": err.Error()})
			}
		}()
		log.Info("status server listening", map[string]interface{}{"addr": statusAddr})
	}

	log.Info("launching evaluation", map[string]interface{}{
		"command": inv.String(),
		"model":   spec.Model,
	})
	if deadline.Enabled() {
		log.Info("walltime policy", map[string]interface{}{
			"walltime":    deadline.Walltime.String(),
			"soft_signal": launcher.SignalName(deadline.Signal),
			"soft_after":  deadline.SoftAfter().String(),
		})
	}

	collector.JobStarted()
	result, err := launcher.Run(context.Background(), inv, launcher.Options{
		RunID:    runID,
		Name:     spec.Name,
		Deadline: deadline,
		OnStart:  state.Started,
		OnSoftStop: func() {
			state.SoftStop()
			collector.SoftStop()
			log.Info("soft-termination signal delivered")
		},
	})
	if err != nil {
		return err
	}
	state.Finished()
	collector.JobFinished(result.ExitCode)

	result.Dataset = spec.Dataset
	result.Model = spec.Model
	result.Args = args
	result.LogSummary()

	if store != nil {
		if err := store.Record(result); err != nil {
			log.Warn("failed to record run history", map[string]interface{}{"error": err.Error()})
		}
	}

	if metricsFile != "" {
		if err := result.WriteTextfile(metricsFile); err != nil {
			log.Warn("failed to write metrics textfile", map[string]interface{}{"error": err.Error()})
		}
	}

	if IsJSONOutput() {
		if err := result.WriteJSON(os.Stdout); err != nil {
			return err
		}
	} else {
		if err := result.WriteTable(os.Stdout); err != nil {
			return err
		}
	}

	if code := result.LauncherExitCode(); code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

// buildSpec resolves the job spec with flag > job file > config > env
// precedence
func buildSpec(env *envcheck.Environment) (*jobspec.Spec, error) {
	spec := &jobspec.Spec{}
	if submitJobFile != "" {
		loaded, err := jobspec.Load(submitJobFile)
		if err != nil {
			return nil, err
		}
		spec = loaded
	}

	override(&spec.Name, submitName, "")
	override(&spec.Program, submitProgram, viper.GetString("program"))
	override(&spec.Script, submitScript, viper.GetString("script"))
	override(&spec.Dataset, submitDataset, firstNonEmpty(viper.GetString("dataset"), env.Data))
	override(&spec.Model, submitModel, viper.GetString("model"))
	override(&spec.OutputDir, submitOutputDir, viper.GetString("output_dir"))
	override(&spec.Walltime, submitWalltime, viper.GetString("walltime"))
	override(&spec.Signal, submitSignal, viper.GetString("signal"))

	spec.ApplyDefaults()
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

// override applies flag > current > fallback precedence in place
func override(dst *string, flagVal, fallback string) {
	if flagVal != "" {
		*dst = flagVal
		return
	}
	if *dst == "" {
		*dst = fallback
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
