package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/graphreplay/internal/engine"
	"github.com/roach88/graphreplay/internal/harness"
	"github.com/roach88/graphreplay/internal/logging"
	"github.com/roach88/graphreplay/internal/scenario"
)

func runHarness(cmd *cobra.Command, opts *RunOptions) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return configError(err)
	}

	catalog := scenario.DefaultCatalog()
	if cfg.CatalogPath != "" {
		if catalog, err = scenario.LoadCatalog(cfg.CatalogPath); err != nil {
			return configError(err)
		}
	}
	resolver, err := scenario.LoadResolver(cfg.SeedMatrixPath)
	if err != nil {
		return configError(err)
	}
	exec, err := opts.buildExecution(cfg)
	if err != nil {
		return err
	}

	h, err := harness.New(harness.Config{
		Catalog:         catalog,
		Resolver:        resolver,
		Executor:        exec.executor,
		Linker:          exec.linker,
		ReportArtifacts: cfg.ReportArtifacts,
		RunIDs:          opts.RunIDs,
	}, logging.New("harness"))
	if err != nil {
		return configError(err)
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	res, err := h.Run(ctx, harness.Options{
		Scenario:    opts.Scenario,
		Passes:      opts.Passes,
		OutputDir:   opts.OutputDir,
		ClearOutput: opts.ClearOutput,
		Soak: engine.SoakOptions{
			Cycles:               opts.SoakCycles,
			CheckpointIntervalMS: opts.SoakCheckpointIntervalMS,
		},
		RunID: opts.RunID,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "run aborted", err)
	}

	if err := writeReport(cmd.OutOrStdout(), res.Summary()); err != nil {
		return err
	}
	if !res.Passed() {
		return failedReport("run failed")
	}
	return nil
}

// signalContext cancels on SIGINT or SIGTERM so a running cycle's process
// is killed instead of orphaned.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
