package adversarial

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/roach88/graphreplay/internal/bundle"
	"github.com/roach88/graphreplay/internal/logging"
)

// Output file names, all overwritten per run except the fixture bundle,
// which is merged by id.
const (
	SeedLedgerFileName     = "adversarial_seed_ledger.json"
	HarnessEventsFileName  = "adversarial_harness_events.jsonl"
	HarnessReportFileName  = "adversarial_harness_report.json"
	TriageEventsFileName   = "crash_triage_events.jsonl"
	TriageReportFileName   = "crash_triage_report.json"
	PromotionQueueFileName = "promotion_queue.json"
	FixtureBundleFileName  = "regression_fixture_bundle.json"
)

// FixtureMirror receives promoted fixtures for durable indexing.
type FixtureMirror interface {
	UpsertRegressionFixtures(ctx context.Context, fixtures []RegressionFixture) error
}

// Pipeline runs the ledger and triage stages against an output directory.
type Pipeline struct {
	tables Tables
	tool   string
	env    string
	mirror FixtureMirror
	logger *slog.Logger
}

// NewPipeline creates a pipeline. tool is the fuzz harness binary named in
// replay commands; env is the environment fingerprint used for triage ids.
// mirror may be nil.
func NewPipeline(tool, env string, mirror FixtureMirror, logger *slog.Logger) (*Pipeline, error) {
	if tool == "" {
		return nil, errors.New("adversarial tool is required")
	}
	if env == "" {
		return nil, errors.New("environment fingerprint is required")
	}
	return &Pipeline{
		tables: DefaultTables(),
		tool:   tool,
		env:    env,
		mirror: mirror,
		logger: logging.OrDiscard(logger),
	}, nil
}

// LedgerResult is the outcome of the ledger stage.
type LedgerResult struct {
	Ledger Ledger
	Events []HarnessEvent
	Report HarnessReport
}

// RunLedger expands the taxonomy at manifestPath and writes the seed
// ledger, harness events and harness report into outDir.
func (p *Pipeline) RunLedger(ctx context.Context, manifestPath, outDir string) (*LedgerResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tax, err := LoadTaxonomy(manifestPath)
	if err != nil {
		return nil, err
	}
	ledger, err := Expand(tax, p.tables, p.tool)
	if err != nil {
		return nil, err
	}
	res := &LedgerResult{
		Ledger: ledger,
		Events: HarnessEvents(ledger),
		Report: SummarizeHarness(ledger, p.tables),
	}
	for _, c := range res.Report.UnknownThreats {
		p.logger.Warn("threat class not in table, defaulting to compatibility", "threat_class", c)
	}

	if err := bundle.WriteJSONAtomic(filepath.Join(outDir, SeedLedgerFileName), res.Ledger); err != nil {
		return nil, fmt.Errorf("write seed ledger: %w", err)
	}
	if err := bundle.WriteJSONL(filepath.Join(outDir, HarnessEventsFileName), res.Events); err != nil {
		return nil, fmt.Errorf("write harness events: %w", err)
	}
	if err := bundle.WriteJSONAtomic(filepath.Join(outDir, HarnessReportFileName), res.Report); err != nil {
		return nil, fmt.Errorf("write harness report: %w", err)
	}
	p.logger.Info("seed ledger written",
		"entries", ledger.EntryCount,
		"output_dir", outDir)
	return res, nil
}

// TriageResult is the outcome of the triage stage.
type TriageResult struct {
	Records []TriageRecord
	Report  TriageReport
	Queue   PromotionQueue
	Bundle  *FixtureBundle
	Added   int
}

// RunTriage reads the ledger and harness events from outDir, triages them,
// and promotes every record into the fixture bundle.
func (p *Pipeline) RunTriage(ctx context.Context, outDir string) (*TriageResult, error) {
	var ledger Ledger
	if err := bundle.ReadJSONFile(filepath.Join(outDir, SeedLedgerFileName), &ledger); err != nil {
		return nil, fmt.Errorf("load seed ledger: %w", err)
	}
	events, err := bundle.ReadJSONLFile[HarnessEvent](filepath.Join(outDir, HarnessEventsFileName))
	if err != nil {
		return nil, fmt.Errorf("load harness events: %w", err)
	}
	return p.Triage(ctx, ledger, events, outDir)
}

// Triage is RunTriage over in-memory inputs.
func (p *Pipeline) Triage(ctx context.Context, ledger Ledger, events []HarnessEvent, outDir string) (*TriageResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	classifier := NewClassifier(p.tables, p.env, p.logger)
	records, report := classifier.Triage(ledger, events)
	res := &TriageResult{
		Records: records,
		Report:  report,
		Queue:   Queue(records),
	}

	if err := bundle.WriteJSONL(filepath.Join(outDir, TriageEventsFileName), records); err != nil {
		return nil, fmt.Errorf("write triage events: %w", err)
	}
	if err := bundle.WriteJSONAtomic(filepath.Join(outDir, TriageReportFileName), report); err != nil {
		return nil, fmt.Errorf("write triage report: %w", err)
	}
	if err := bundle.WriteJSONAtomic(filepath.Join(outDir, PromotionQueueFileName), res.Queue); err != nil {
		return nil, fmt.Errorf("write promotion queue: %w", err)
	}

	bundlePath := filepath.Join(outDir, FixtureBundleFileName)
	fb, err := LoadFixtureBundle(bundlePath)
	if err != nil {
		return nil, err
	}
	res.Added = fb.Promote(records)
	if err := fb.Write(bundlePath); err != nil {
		return nil, err
	}
	res.Bundle = fb

	if p.mirror != nil {
		if err := p.mirror.UpsertRegressionFixtures(ctx, fb.Sorted()); err != nil {
			return nil, fmt.Errorf("mirror regression fixtures: %w", err)
		}
	}
	p.logger.Info("crash triage complete",
		"records", report.RecordCount,
		"fixtures", len(fb.Fixtures),
		"added", res.Added)
	return res, nil
}
