package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/graphreplay/internal/bundle"
	"github.com/roach88/graphreplay/internal/store"
	"github.com/roach88/graphreplay/internal/verify"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	EventsPath string
	OutputDir  string
	RunID      string
	Scenarios  []string
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Re-run the determinism check over recorded events",
		Long: `Re-run the multi-pass determinism check over events that were already
recorded, without executing anything.

Events are read from --events (a scenario_events.jsonl file) or, when it is
omitted, from the run ledger in --output-dir. The latest run is checked
unless --run-id is given. The report is written to
<output-dir>/determinism_report.json and printed.

Exit codes:
  0 - Determinism check passed
  1 - Command error (events not found, no runs recorded, etc.)
  2 - Determinism check failed

Examples:
  graphreplay verify --output-dir out
  graphreplay verify --events out/scenario_events.jsonl --output-dir out --run-id 0190...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.EventsPath, "events", "", "scenario_events.jsonl to verify (default: run ledger in --output-dir)")
	cmd.Flags().StringVar(&opts.OutputDir, "output-dir", "", "directory for determinism_report.json (required)")
	cmd.Flags().StringVar(&opts.RunID, "run-id", "", "run to verify (default: latest)")
	cmd.Flags().StringSliceVar(&opts.Scenarios, "scenario", nil, "scenarios that must be present (default: all recorded)")
	_ = cmd.MarkFlagRequired("output-dir")

	return cmd
}

func runVerify(cmd *cobra.Command, opts *VerifyOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	events, runID, err := loadEvents(ctx, opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load events", err)
	}

	report := verify.Verify(runID, events, opts.Scenarios)
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return WrapExitError(ExitCommandError, "create output dir", err)
	}
	if err := bundle.WriteJSONAtomic(filepath.Join(opts.OutputDir, verify.ReportFileName), report); err != nil {
		return fmt.Errorf("write determinism report: %w", err)
	}
	if err := writeReport(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if !report.Passed() {
		return failedReport("determinism check failed")
	}
	return nil
}

// loadEvents reads events from the JSONL log or the run ledger and resolves
// the run id to verify.
func loadEvents(ctx context.Context, opts *VerifyOptions) ([]bundle.ExecutionEvent, string, error) {
	if opts.EventsPath != "" {
		events, err := bundle.ReadEvents(opts.EventsPath)
		if err != nil {
			return nil, "", err
		}
		runID := opts.RunID
		if runID == "" {
			if runID, err = verify.LatestRunID(events); err != nil {
				return nil, "", err
			}
		}
		return events, runID, nil
	}

	dbPath := filepath.Join(opts.OutputDir, store.FileName)
	if _, err := os.Stat(dbPath); err != nil {
		return nil, "", fmt.Errorf("run ledger: %w", err)
	}
	ledger, err := store.Open(dbPath)
	if err != nil {
		return nil, "", err
	}
	defer ledger.Close()

	runID := opts.RunID
	if runID == "" {
		if runID, err = ledger.LatestRunID(ctx); err != nil {
			return nil, "", err
		}
	}
	events, err := ledger.Events(ctx, runID)
	if err != nil {
		return nil, "", err
	}
	return events, runID, nil
}
