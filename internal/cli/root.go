package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/chainguard-dev/clog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/dshills/promptscore/internal/evalclient"
	"github.com/dshills/promptscore/internal/github"
)

// version is overridden at build time with -ldflags "-X".
var version = "0.1.0"

// Exit codes.
const (
	ExitSuccess      = 0
	ExitFindings     = 1
	ExitUsageError   = 2
	ExitAuthError    = 3
	ExitRuntimeError = 4
)

// Global flags
var (
	flagConfig      string
	flagLogLevel    string
	flagFormat      string
	flagOut         string
	flagMetricsFile string
)

var rootCmd = &cobra.Command{
	Use:   "promptscore",
	Short: "Evaluate LLM prompt files and report quality scores",
	Long: "promptscore sends prompt files to an evaluation service and renders the factor scores, " +
		"findings and, for pull requests, an approve/reject verdict.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(cmd)
	},
}

// Run executes the root command and returns an exit code.
func Run() int {
	return run(os.Args[1:])
}

func run(args []string) int {
	exitCode = ExitSuccess
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error
		return ExitUsageError
	}

	if flagMetricsFile != "" {
		if err := prometheus.WriteToTextfile(flagMetricsFile, prometheus.DefaultGatherer); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing metrics: %v\n", err)
			if exitCode == ExitSuccess {
				exitCode = ExitRuntimeError
			}
		}
	}
	return exitCode
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

func setupLogging(cmd *cobra.Command) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(flagLogLevel)); err != nil {
		return fmt.Errorf("invalid --log-level %q: use debug, info, warn or error", flagLogLevel)
	}
	logger := clog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	cmd.SetContext(clog.WithLogger(cmd.Context(), logger))
	return nil
}

// usageError marks errors caused by bad invocation rather than failures.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

func exitCodeFor(err error) int {
	var ue *usageError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &ue):
		return ExitUsageError
	case evalclient.IsAuthError(err), github.IsAuthError(err):
		return ExitAuthError
	default:
		return ExitRuntimeError
	}
}

// fail reports err and records the matching exit code. Handlers return nil
// afterwards so cobra does not print usage.
func fail(cmd *cobra.Command, err error) {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	exitCode = exitCodeFor(err)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print promptscore version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "promptscore version %s\n", version)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Config file path (default: ./.promptscore.yaml)")
	pf.StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&flagFormat, "format", "", "Output format (text, json, markdown, sarif)")
	pf.StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	pf.StringVar(&flagMetricsFile, "metrics-file", "", "Write Prometheus metrics in text format to this file on exit")

	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(prCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(hookCmd)
	rootCmd.AddCommand(versionCmd)
}
