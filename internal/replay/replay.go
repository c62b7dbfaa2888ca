// Package replay re-executes a saved bundle manifest and checks that the
// binary still produces the recorded forensics links, byte for byte.
//
// Shape validation always runs first. A manifest with any shape defect is
// reported as manifest_invalid with diagnostics and nothing is executed.
package replay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/roach88/graphreplay/internal/engine"
	"github.com/roach88/graphreplay/internal/forensics"
	"github.com/roach88/graphreplay/internal/ir"
	"github.com/roach88/graphreplay/internal/logging"
	"github.com/roach88/graphreplay/internal/scenario"
)

// ReportFileName is written under the output directory.
const ReportFileName = "replay_report.json"

// Report is replay_report.json.
type Report struct {
	SchemaVersion  string            `json:"schema_version"`
	ManifestPath   string            `json:"manifest_path"`
	ScenarioID     string            `json:"scenario_id,omitempty"`
	BundleID       string            `json:"bundle_id,omitempty"`
	Status         engine.Status     `json:"status"`
	ReasonCode     engine.ReasonCode `json:"reason_code,omitempty"`
	Diagnostics    []string          `json:"diagnostics"`
	Command        string            `json:"command,omitempty"`
	ExitCode       *int              `json:"exit_code,omitempty"`
	DurationMS     int64             `json:"duration_ms"`
	ForensicsMatch bool              `json:"forensics_match"`
	RecordedLinks  *forensics.Links  `json:"recorded_links,omitempty"`
	ObservedLinks  *forensics.Links  `json:"observed_links,omitempty"`
	MismatchedKeys []string          `json:"mismatched_keys,omitempty"`
}

// Passed reports status == passed.
func (r *Report) Passed() bool {
	return r.Status == engine.StatusPassed
}

// Engine replays manifests.
type Engine struct {
	executor *engine.Executor
	linker   *forensics.Linker
	logger   *slog.Logger
}

// New creates a replay engine.
func New(executor *engine.Executor, linker *forensics.Linker, logger *slog.Logger) (*Engine, error) {
	if executor == nil {
		return nil, errors.New("executor is required")
	}
	if linker == nil {
		return nil, errors.New("linker is required")
	}
	return &Engine{executor: executor, linker: linker, logger: logging.OrDiscard(logger)}, nil
}

// Replay validates and re-executes the manifest at path.
//
// The error is non-nil only for an unreadable path or a cancelled context.
// Every other failure is a report with a reason code.
func (e *Engine) Replay(ctx context.Context, path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	report := &Report{
		SchemaVersion: ir.ReportSchemaVersion,
		ManifestPath:  path,
		Status:        engine.StatusFailed,
		Diagnostics:   []string{},
	}

	m, diags := ValidateShape(data)
	if len(diags) > 0 {
		report.ReasonCode = engine.ReasonManifestInvalid
		report.Diagnostics = diags
		e.logger.Warn("manifest failed shape validation", "path", path, "diagnostics", diags)
		return report, nil
	}
	for _, k := range unknownKeys(data) {
		report.Diagnostics = append(report.Diagnostics, "unknown key ignored: "+k)
	}

	report.ScenarioID = m.ScenarioID
	report.BundleID = m.BundleID
	recorded := m.ForensicsLinks
	report.RecordedLinks = &recorded

	spec := scenario.ScenarioSpec{
		ScenarioID: m.ScenarioID,
		Mode:       m.Mode,
		FixtureID:  m.FixtureID,
	}
	report.Command = e.executor.ReplayCommand(spec)
	if report.Command != m.ReplayCommand {
		report.Diagnostics = append(report.Diagnostics,
			fmt.Sprintf("replay command differs from recorded %q", m.ReplayCommand))
	}

	// The recorded run's own row is already in the stream; only a row the
	// replay appends counts as observed.
	since, err := e.linker.Mark()
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", m.ScenarioID, err)
	}
	cycle := e.executor.RunCycle(ctx, spec, 1)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("replay %s: %w", m.ScenarioID, err)
	}
	res := cycle.Result
	exitCode := res.ExitCode
	report.ExitCode = &exitCode
	report.DurationMS = res.EndedAt.Sub(res.StartedAt).Milliseconds()
	if !res.Succeeded() {
		report.ReasonCode = res.Reason()
		if res.Err != nil {
			report.Diagnostics = append(report.Diagnostics, res.Err.Error())
		}
		return report, nil
	}

	link, err := e.linker.Link(since, m.FixtureID, m.Mode)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", m.ScenarioID, err)
	}
	if link.Row != nil {
		observed := link.Links
		report.ObservedLinks = &observed
	}
	if !link.OK() {
		report.ReasonCode = link.Reason
		report.Diagnostics = append(report.Diagnostics, link.SchemaErrors...)
		return report, nil
	}

	if diff := recorded.Diff(link.Links); len(diff) > 0 {
		report.ReasonCode = engine.ReasonForensicsMismatch
		report.MismatchedKeys = diff
		return report, nil
	}

	report.ForensicsMatch = true
	report.Status = engine.StatusPassed
	return report, nil
}
