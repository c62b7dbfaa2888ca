package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/graphreplay/internal/bundle"
	"github.com/roach88/graphreplay/internal/engine"
	"github.com/roach88/graphreplay/internal/forensics"
	"github.com/roach88/graphreplay/internal/logging"
	"github.com/roach88/graphreplay/internal/scenario"
	"github.com/roach88/graphreplay/internal/store"
	"github.com/roach88/graphreplay/internal/verify"
)

// Config wires the harness to its collaborators.
type Config struct {
	Catalog         scenario.Catalog
	Resolver        *scenario.Resolver
	Executor        *engine.Executor
	Linker          *forensics.Linker
	ReportArtifacts []string

	// RunIDs generates run ids when Options.RunID is empty. Defaults to
	// engine.UUIDv7Generator.
	RunIDs engine.RunIDGenerator
}

// Harness runs the pass × scenario matrix.
type Harness struct {
	catalog         scenario.Catalog
	resolver        *scenario.Resolver
	executor        *engine.Executor
	linker          *forensics.Linker
	reportArtifacts []string
	runIDs          engine.RunIDGenerator
	logger          *slog.Logger
}

// New creates a harness.
func New(cfg Config, logger *slog.Logger) (*Harness, error) {
	if cfg.Resolver == nil {
		return nil, errors.New("seed resolver is required")
	}
	if cfg.Executor == nil {
		return nil, errors.New("executor is required")
	}
	if cfg.Linker == nil {
		return nil, errors.New("forensics linker is required")
	}
	if len(cfg.Catalog.Specs()) == 0 {
		cfg.Catalog = scenario.DefaultCatalog()
	}
	if cfg.RunIDs == nil {
		cfg.RunIDs = engine.UUIDv7Generator{}
	}
	return &Harness{
		catalog:         cfg.Catalog,
		resolver:        cfg.Resolver,
		executor:        cfg.Executor,
		linker:          cfg.Linker,
		reportArtifacts: cfg.ReportArtifacts,
		runIDs:          cfg.RunIDs,
		logger:          logging.OrDiscard(logger),
	}, nil
}

// Run executes one run.
//
// Errors are reserved for configuration and I/O problems; a failing
// scenario or a failing determinism gate is reported through the Result.
func (h *Harness) Run(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	specs, err := h.catalog.Select(opts.Scenario)
	if err != nil {
		return nil, err
	}

	// Every seed is resolved before anything runs or is written.
	seeds, err := h.resolver.ResolveAll(specs)
	if err != nil {
		return nil, err
	}

	if err := prepareOutputDir(opts.OutputDir, opts.ClearOutput); err != nil {
		return nil, err
	}

	ledger, err := store.Open(filepath.Join(opts.OutputDir, store.FileName))
	if err != nil {
		return nil, fmt.Errorf("open run ledger: %w", err)
	}
	defer ledger.Close()

	res := &Result{RunID: opts.RunID}
	if res.RunID == "" {
		res.RunID = h.runIDs.Generate()
	}
	// The ledger keeps the first event per (run, scenario, pass), so a reused
	// run id would verify stale rows instead of this run's.
	recorded, err := ledger.HasRun(ctx, res.RunID)
	if err != nil {
		return nil, fmt.Errorf("check run ledger: %w", err)
	}
	if recorded {
		return nil, fmt.Errorf("run id %s already recorded in %s", res.RunID, store.FileName)
	}

	controller, err := engine.NewSoakController(h.executor, opts.Soak, h.logger)
	if err != nil {
		return nil, err
	}
	builder := bundle.NewBuilder(opts.OutputDir, h.reportArtifacts, h.logger)
	eventsPath := filepath.Join(opts.OutputDir, bundle.EventsFileName)

	for _, spec := range specs {
		res.scenarioIDs = append(res.scenarioIDs, spec.ScenarioID)
	}

	logger := h.logger.With("run_id", res.RunID)
	logger.Info("run started",
		"scenarios", len(specs),
		"passes", opts.Passes,
		"output_dir", opts.OutputDir,
		"structured_log", h.linker.Path())

matrix:
	for p := 0; p < opts.Passes; p++ {
		label := PassLabel(p)
		res.PassLabels = append(res.PassLabels, label)

		for _, spec := range specs {
			out, err := h.runScenario(ctx, controller, builder, res.RunID, label, spec, seeds[spec.ScenarioID])
			if err != nil {
				return nil, err
			}
			if err := bundle.AppendEvent(eventsPath, out.Event); err != nil {
				return nil, fmt.Errorf("append event: %w", err)
			}
			inserted, err := ledger.AppendEvent(ctx, out.Event)
			if err != nil {
				return nil, err
			}
			if !inserted {
				return nil, fmt.Errorf("event %s/%s already recorded for run %s", spec.ScenarioID, label, res.RunID)
			}
			res.Outputs = append(res.Outputs, out)

			if !out.Event.Passed() {
				failed := out.Event
				res.Failed = &failed
				res.Failure = out.Failure
				logger.Warn("scenario failed, aborting remaining matrix",
					"scenario_id", spec.ScenarioID,
					"pass_label", label,
					"reason_code", failed.ReasonCode,
					"error", out.Failure)
				break matrix
			}
		}
	}

	// Verification reads back from the ledger, not from memory, so the
	// report reflects exactly what was persisted.
	res.Events, err = ledger.Events(ctx, res.RunID)
	if err != nil {
		return nil, fmt.Errorf("read back events: %w", err)
	}
	if opts.Passes >= 2 {
		report := verify.Verify(res.RunID, res.Events, res.scenarioIDs)
		if err := bundle.WriteJSONAtomic(filepath.Join(opts.OutputDir, verify.ReportFileName), report); err != nil {
			return nil, fmt.Errorf("write determinism report: %w", err)
		}
		res.Report = &report
	}

	if err := bundle.WriteJSONAtomic(filepath.Join(opts.OutputDir, SummaryFileName), res.Summary()); err != nil {
		return nil, fmt.Errorf("write run summary: %w", err)
	}
	logger.Info("run finished",
		"passed", res.Passed(),
		"events", len(res.Events))
	return res, nil
}

// runScenario executes, links and persists one scenario/pass.
func (h *Harness) runScenario(
	ctx context.Context,
	controller *engine.SoakController,
	builder *bundle.Builder,
	runID, label string,
	spec scenario.ScenarioSpec,
	seed int64,
) (*bundle.Output, error) {
	// Only rows this execution appends may satisfy the forensics gate.
	since, err := h.linker.Mark()
	if err != nil {
		return nil, fmt.Errorf("scenario %s/%s: %w", spec.ScenarioID, label, err)
	}
	x, err := controller.Run(ctx, spec, seed)
	if err != nil {
		return nil, fmt.Errorf("scenario %s/%s: %w", spec.ScenarioID, label, err)
	}
	link, err := h.linker.Link(since, spec.FixtureID, spec.Mode)
	if err != nil {
		return nil, fmt.Errorf("scenario %s/%s: %w", spec.ScenarioID, label, err)
	}
	out, err := builder.Persist(bundle.Input{
		RunID:     runID,
		PassLabel: label,
		Execution: x,
		Link:      link,
	})
	if err != nil {
		return nil, fmt.Errorf("scenario %s/%s: persist bundle: %w", spec.ScenarioID, label, err)
	}
	h.logger.Debug("scenario recorded",
		"scenario_id", spec.ScenarioID,
		"pass_label", label,
		"status", out.Event.Status,
		"bundle_id", out.Event.BundleID)
	return out, nil
}

// prepareOutputDir creates dir, first removing it when clear is set.
func prepareOutputDir(dir string, clear bool) error {
	if clear {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("resolve output dir: %w", err)
		}
		if abs == filepath.Dir(abs) {
			return fmt.Errorf("refusing to clear filesystem root %s", abs)
		}
		if err := os.RemoveAll(abs); err != nil {
			return fmt.Errorf("clear output dir: %w", err)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}
