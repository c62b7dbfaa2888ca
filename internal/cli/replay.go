package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/graphreplay/internal/bundle"
	"github.com/roach88/graphreplay/internal/logging"
	"github.com/roach88/graphreplay/internal/replay"
)

func runReplay(cmd *cobra.Command, opts *RunOptions) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateExecution(); err != nil {
		return configError(err)
	}
	exec, err := opts.buildExecution(cfg)
	if err != nil {
		return err
	}

	eng, err := replay.New(exec.executor, exec.linker, logging.New("replay"))
	if err != nil {
		return configError(err)
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	report, err := eng.Replay(ctx, opts.ReplayManifest)
	if err != nil {
		return WrapExitError(ExitCommandError, "replay aborted", err)
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return WrapExitError(ExitCommandError, "create output dir", err)
	}
	if err := bundle.WriteJSONAtomic(filepath.Join(opts.OutputDir, replay.ReportFileName), report); err != nil {
		return fmt.Errorf("write replay report: %w", err)
	}
	if err := writeReport(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if !report.Passed() {
		return failedReport(fmt.Sprintf("replay failed: %s", report.ReasonCode))
	}
	return nil
}
