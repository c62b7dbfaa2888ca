package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/graphreplay/internal/engine"
	"github.com/roach88/graphreplay/internal/logging"
	"github.com/roach88/graphreplay/internal/scenario"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath   string
	CycleTimeout time.Duration
	LogLevel     string
	LogFormat    string

	// Runner overrides the subprocess runner (for testing).
	// If nil, an engine.ExecRunner with the configured cycle timeout is used.
	Runner engine.Runner

	// RunIDs overrides the run id generator (for testing).
	// If nil, defaults to engine.UUIDv7Generator.
	RunIDs engine.RunIDGenerator
}

// RunOptions holds the flags of the root command, which runs the harness
// or, with --replay-manifest, the replay engine.
type RunOptions struct {
	*RootOptions
	Scenario                 string
	Passes                   int
	OutputDir                string
	ClearOutput              bool
	ReplayManifest           string
	SoakCycles               int
	SoakCheckpointIntervalMS int64
	RunID                    string
}

// ValidLogFormats defines the allowed log formats.
var ValidLogFormats = []string{logging.FormatText, logging.FormatJSON}

// NewRootCommand creates the root command with default options.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithOptions(&RootOptions{})
}

// NewRootCommandWithOptions creates the root command around opts, letting
// tests inject a runner and run id generator.
func NewRootCommandWithOptions(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "graphreplay",
		Short: "Deterministic conformance replay harness",
		Long: `Run conformance scenarios across labeled passes and prove the results are
reproducible: identical bundle ids and stable fingerprints in every pass,
every execution linked to its structured-log row.

Exit codes:
  0 - All scenarios passed and (with --passes >= 2) the determinism check passed
  1 - Argument, config or fixture error
  2 - Determinism or replay failure

Examples:
  graphreplay --config harness.yaml --output-dir out
  graphreplay --config harness.yaml --output-dir out --scenario soak_long_run --soak-cycles 10
  graphreplay --config harness.yaml --output-dir out --replay-manifest out/bundles/happy_path/pass_a/bundle_manifest_v1.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.initLogging(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.ReplayManifest != "" {
				return runReplay(cmd, opts)
			}
			return runHarness(cmd, opts)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&rootOpts.ConfigPath, "config", "", "path to harness config YAML")
	pf.DurationVar(&rootOpts.CycleTimeout, "cycle-timeout", 0, "per-cycle timeout, overrides cycle_timeout in config")
	pf.StringVar(&rootOpts.LogLevel, "log-level", "info", "log level (debug|info|warn|error)")
	pf.StringVar(&rootOpts.LogFormat, "log-format", logging.FormatText, "log format (text|json)")

	f := cmd.Flags()
	f.StringVar(&opts.Scenario, "scenario", scenario.SelectAll, "scenario id to run, or \"all\"")
	f.IntVar(&opts.Passes, "passes", 2, "number of labeled passes (>= 1)")
	f.StringVar(&opts.OutputDir, "output-dir", "", "directory for bundles, events and reports (required)")
	f.BoolVar(&opts.ClearOutput, "clear-output", false, "remove the output directory before running")
	f.StringVar(&opts.ReplayManifest, "replay-manifest", "", "replay a single bundle manifest instead of running scenarios")
	f.IntVar(&opts.SoakCycles, "soak-cycles", 3, "cycles per soak scenario (>= 1)")
	f.Int64Var(&opts.SoakCheckpointIntervalMS, "soak-checkpoint-interval-ms", 1000, "soak checkpoint interval in milliseconds (>= 1)")
	f.StringVar(&opts.RunID, "run-id", "", "run id to record (default: generated UUIDv7)")
	_ = cmd.MarkFlagRequired("output-dir")

	cmd.AddCommand(NewVerifyCommand(rootOpts))
	cmd.AddCommand(NewAdversarialCommand(rootOpts))

	return cmd
}

// initLogging configures slog on stderr. Stdout carries only reports.
func (o *RootOptions) initLogging(cmd *cobra.Command) error {
	if !isValidLogFormat(o.LogFormat) {
		return WrapExitError(ExitCommandError, "invalid flags",
			fmt.Errorf("invalid log format %q: must be one of %v", o.LogFormat, ValidLogFormats))
	}
	level, err := logging.ParseLevel(o.LogLevel)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	}
	logging.Init(level, o.LogFormat, cmd.ErrOrStderr())
	return nil
}

func isValidLogFormat(format string) bool {
	for _, f := range ValidLogFormats {
		if f == format {
			return true
		}
	}
	return false
}
