package bundle

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/roach88/graphreplay/internal/engine"
	"github.com/roach88/graphreplay/internal/forensics"
	"github.com/roach88/graphreplay/internal/ir"
	"github.com/roach88/graphreplay/internal/logging"
)

// Input is everything the Builder needs for one scenario/pass.
type Input struct {
	RunID     string
	PassLabel string
	Execution *engine.Execution
	Link      forensics.Result
}

// Output is a persisted bundle.
type Output struct {
	Manifest     Manifest
	ManifestPath string // output-relative
	Event        ExecutionEvent

	// Failure explains a failed event and is nil when the event passed.
	Failure error
}

// Builder assembles manifests and writes bundle directories under an
// output directory.
type Builder struct {
	outputDir       string
	reportArtifacts []string
	logger          *slog.Logger
}

// NewBuilder creates a Builder. reportArtifacts are absolute or
// working-directory-relative paths of files the conformance binary writes;
// each is copied into every bundle when present.
func NewBuilder(outputDir string, reportArtifacts []string, logger *slog.Logger) *Builder {
	return &Builder{
		outputDir:       outputDir,
		reportArtifacts: append([]string(nil), reportArtifacts...),
		logger:          logging.OrDiscard(logger),
	}
}

// Status combines the cycle outcome with the forensics gate. A passing
// execution without complete links is downgraded; a failing execution keeps
// its own reason.
func Status(x *engine.Execution, link forensics.Result) (engine.Status, engine.ReasonCode) {
	if !x.Passed() {
		return engine.StatusFailed, x.Reason
	}
	if !link.OK() {
		return engine.StatusFailed, link.Reason
	}
	return engine.StatusPassed, ""
}

// Failure describes why in failed, nil when it passed. Like Status, an
// execution failure takes precedence over the forensics gate.
func Failure(in Input) error {
	x := in.Execution
	var se *engine.ScenarioError
	if errors.As(x.Err(), &se) {
		se.PassLabel = in.PassLabel
		return se
	}
	if in.Link.OK() {
		return nil
	}
	details := map[string]string{
		"fixture_id": x.Spec.FixtureID,
		"mode":       x.Spec.Mode,
	}
	if in.Link.Row != nil {
		details["structured_log_line"] = fmt.Sprint(in.Link.Row.Line)
	}
	if len(in.Link.SchemaErrors) > 0 {
		details["schema_errors"] = strings.Join(in.Link.SchemaErrors, "; ")
	}
	return &engine.ScenarioError{
		Reason:     in.Link.Reason,
		Message:    "forensics link check failed",
		ScenarioID: x.Spec.ScenarioID,
		PassLabel:  in.PassLabel,
		Details:    details,
	}
}

// BuildManifest assembles the manifest without touching disk.
// ArtifactRefs is left empty; Persist fills it.
func (b *Builder) BuildManifest(in Input) Manifest {
	x := in.Execution
	spec := x.Spec
	id := spec.Identity(x.Seed)
	status, reason := Status(x, in.Link)

	start := engine.UnixMillis(x.StartedAt)
	end := engine.UnixMillis(x.EndedAt)

	m := Manifest{
		SchemaVersion:     ir.BundleSchemaVersion,
		BundleID:          ir.BundleID(id),
		StableFingerprint: ir.StableFingerprint(id),
		ScenarioID:        spec.ScenarioID,
		ScenarioKind:      spec.ScenarioKind,
		JourneyID:         spec.JourneyID,
		Mode:              spec.Mode,
		FixtureID:         spec.FixtureID,
		PacketID:          spec.PacketID,
		SoakProfile:       spec.SoakProfile,
		SoakThreatClass:   spec.SoakThreatClass,
		DeterministicSeed: x.Seed,
		ReplayCommand:     x.Command,
		ExecutionMetadata: ExecutionMetadata{
			RunID:              in.RunID,
			PassLabel:          in.PassLabel,
			Status:             status,
			ReasonCode:         reason,
			StartMS:            start,
			EndMS:              end,
			DurationMS:         end - start,
			ExitCode:           x.ExitCode(),
			TargetCycleCount:   x.TargetCycles,
			RealizedCycleCount: x.RealizedCycles,
		},
		ForensicsLinks: in.Link.Links,
		ArtifactRefs:   []string{},
	}

	if spec.IsSoak() {
		summary := SoakTriageSummary{
			ScenarioID:         spec.ScenarioID,
			BundleManifestPath: ManifestPath(spec.ScenarioID, in.PassLabel),
			ReplayCommand:      x.Command,
			TargetCycleCount:   x.TargetCycles,
			RealizedCycleCount: x.RealizedCycles,
			Status:             status,
			ReasonCode:         reason,
		}
		if x.FirstFailingCycle > 0 {
			first := x.FirstFailingCycle
			summary.FirstFailingCycle = &first
		}
		checkpoints := x.Checkpoints
		if checkpoints == nil {
			checkpoints = []engine.SoakHealthCheckpoint{}
		}
		m.SoakTelemetry = &SoakTelemetry{
			ScenarioID:           spec.ScenarioID,
			SoakProfile:          spec.SoakProfile,
			SoakThreatClass:      spec.SoakThreatClass,
			CheckpointIntervalMS: x.IntervalMS,
			TargetCycleCount:     x.TargetCycles,
			RealizedCycleCount:   x.RealizedCycles,
			Checkpoints:          checkpoints,
			TriageSummary:        summary,
		}
	}
	return m
}

// Persist builds the manifest and writes the bundle directory:
// command log, matched log row, soak telemetry, report copies, then the
// manifest itself last.
func (b *Builder) Persist(in Input) (*Output, error) {
	m := b.BuildManifest(in)
	relDir := Dir(m.ScenarioID, in.PassLabel)
	absDir := filepath.Join(b.outputDir, filepath.FromSlash(relDir))

	var refs []string
	write := func(name string, data []byte) error {
		rel := path.Join(relDir, name)
		if err := WriteFileAtomic(filepath.Join(absDir, filepath.FromSlash(name)), data); err != nil {
			return fmt.Errorf("write %s: %w", rel, err)
		}
		refs = append(refs, rel)
		return nil
	}

	if err := write(CommandLogFileName, in.Execution.CommandLog()); err != nil {
		return nil, err
	}

	if in.Link.Row != nil {
		data, err := indentRaw(in.Link.Row.Raw)
		if err != nil {
			return nil, fmt.Errorf("format structured log row: %w", err)
		}
		if err := write(StructuredLogRowFileName, data); err != nil {
			return nil, err
		}
	}

	if m.SoakTelemetry != nil {
		data, err := MarshalIndent(m.SoakTelemetry)
		if err != nil {
			return nil, fmt.Errorf("marshal soak telemetry: %w", err)
		}
		if err := write(SoakTelemetryFileName, data); err != nil {
			return nil, err
		}
	}

	for _, src := range b.reportArtifacts {
		data, err := os.ReadFile(src)
		if errors.Is(err, fs.ErrNotExist) {
			b.logger.Warn("report artifact not found, skipping",
				"scenario_id", m.ScenarioID,
				"path", src)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read report artifact %s: %w", src, err)
		}
		if err := write(path.Join(ReportsDirName, filepath.Base(src)), data); err != nil {
			return nil, err
		}
	}

	sort.Strings(refs)
	m.ArtifactRefs = refs

	manifestRel := ManifestPath(m.ScenarioID, in.PassLabel)
	if err := WriteJSONAtomic(filepath.Join(b.outputDir, filepath.FromSlash(manifestRel)), m); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	return &Output{
		Manifest:     m,
		ManifestPath: manifestRel,
		Event:        EventFromManifest(m, manifestRel),
		Failure:      Failure(in),
	}, nil
}

// EventFromManifest derives the execution event for a persisted manifest.
func EventFromManifest(m Manifest, manifestPath string) ExecutionEvent {
	md := m.ExecutionMetadata
	return ExecutionEvent{
		RunID:              md.RunID,
		ScenarioID:         m.ScenarioID,
		PassLabel:          md.PassLabel,
		Mode:               m.Mode,
		FixtureID:          m.FixtureID,
		DeterministicSeed:  m.DeterministicSeed,
		Command:            m.ReplayCommand,
		Status:             md.Status,
		ReasonCode:         md.ReasonCode,
		StartMS:            md.StartMS,
		EndMS:              md.EndMS,
		DurationMS:         md.DurationMS,
		BundleID:           m.BundleID,
		StableFingerprint:  m.StableFingerprint,
		BundleManifestPath: manifestPath,
		ArtifactRefs:       append([]string{}, m.ArtifactRefs...),
	}
}

// LoadManifest reads a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	var m Manifest
	if err := ReadJSONFile(path, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func indentRaw(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
