package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile      string
	outputFormat string
	logLevel     string
)

// ExitError carries the child process exit code up to main
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("evaluation exited with code %d", e.Code)
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "evalrun",
	Short: "Launcher for deepseq model evaluation jobs",
	Long: `evalrun submits model evaluation jobs on a compute node: it verifies
the project environment has been initialized, builds the evaluation
command line from the configured dataset and model, forwards any extra
arguments verbatim, and delivers a soft-termination signal ahead of the
walltime deadline so the evaluation can checkpoint before it is stopped.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.evalrun/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output", "table", "output format: table or json")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			os.Exit(1)
		}

		viper.AddConfigPath(filepath.Join(home, ".evalrun"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	viper.SetEnvPrefix("EVALRUN")
	viper.BindEnv("history_db")
	viper.BindEnv("status_addr")
	viper.BindEnv("metrics_file")

	viper.SetDefault("program", "python3")
	viper.SetDefault("script", "scripts/evaluate.py")
	viper.SetDefault("signal", "USR1@300")

	// Missing config file is fine; everything has a default
	viper.ReadInConfig()
}

// IsJSONOutput returns true if JSON output is requested
func IsJSONOutput() bool {
	return outputFormat == "json"
}

// HistoryDBPath returns the run-history database location
func HistoryDBPath() (string, error) {
	if path := viper.GetString("history_db"); path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to find home directory: %w", err)
	}
	dir := filepath.Join(home, ".evalrun")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return filepath.Join(dir, "history.db"), nil
}
