// Package bundle builds and persists bundle manifests and execution events.
//
// A bundle is the self-contained record of one scenario/pass: the manifest,
// the command log, the matched structured-log row, optional soak telemetry,
// and copies of the conformance binary's own reports. Identity fields
// (bundle_id, stable_fingerprint) are pure hashes of scenario identity and
// seed; nothing recorded at execution time feeds them.
package bundle

import (
	"path"

	"github.com/roach88/graphreplay/internal/engine"
	"github.com/roach88/graphreplay/internal/forensics"
)

// File names inside a bundle directory.
const (
	ManifestFileName         = "bundle_manifest_v1.json"
	CommandLogFileName       = "command_log.txt"
	StructuredLogRowFileName = "structured_log_row.json"
	SoakTelemetryFileName    = "soak_telemetry.json"
	ReportsDirName           = "reports"
	BundlesDirName           = "bundles"
)

// Dir returns the output-relative bundle directory, slash separated.
func Dir(scenarioID, passLabel string) string {
	return path.Join(BundlesDirName, scenarioID, passLabel)
}

// ManifestPath returns the output-relative manifest path.
func ManifestPath(scenarioID, passLabel string) string {
	return path.Join(Dir(scenarioID, passLabel), ManifestFileName)
}

// ExecutionMetadata records how one scenario/pass executed.
type ExecutionMetadata struct {
	RunID              string            `json:"run_id"`
	PassLabel          string            `json:"pass_label"`
	Status             engine.Status     `json:"status"`
	ReasonCode         engine.ReasonCode `json:"reason_code,omitempty"`
	StartMS            int64             `json:"start_ms"`
	EndMS              int64             `json:"end_ms"`
	DurationMS         int64             `json:"duration_ms"`
	ExitCode           int               `json:"exit_code"`
	TargetCycleCount   int               `json:"target_cycle_count"`
	RealizedCycleCount int               `json:"realized_cycle_count"`
}

// SoakTriageSummary points a soak result back at its manifest and replay
// command.
type SoakTriageSummary struct {
	ScenarioID         string            `json:"scenario_id"`
	BundleManifestPath string            `json:"bundle_manifest_path"`
	ReplayCommand      string            `json:"replay_command"`
	TargetCycleCount   int               `json:"target_cycle_count"`
	RealizedCycleCount int               `json:"realized_cycle_count"`
	FirstFailingCycle  *int              `json:"first_failing_cycle,omitempty"`
	Status             engine.Status     `json:"status"`
	ReasonCode         engine.ReasonCode `json:"reason_code,omitempty"`
}

// SoakTelemetry is the per-cycle checkpoint series of a soak scenario.
type SoakTelemetry struct {
	ScenarioID           string                        `json:"scenario_id"`
	SoakProfile          string                        `json:"soak_profile"`
	SoakThreatClass      string                        `json:"soak_threat_class,omitempty"`
	CheckpointIntervalMS int64                         `json:"checkpoint_interval_ms"`
	TargetCycleCount     int                           `json:"target_cycle_count"`
	RealizedCycleCount   int                           `json:"realized_cycle_count"`
	Checkpoints          []engine.SoakHealthCheckpoint `json:"checkpoints"`
	TriageSummary        SoakTriageSummary             `json:"triage_summary"`
}

// Manifest is bundle_manifest_v1.json.
type Manifest struct {
	SchemaVersion     string            `json:"schema_version"`
	BundleID          string            `json:"bundle_id"`
	StableFingerprint string            `json:"stable_fingerprint"`
	ScenarioID        string            `json:"scenario_id"`
	ScenarioKind      string            `json:"scenario_kind"`
	JourneyID         string            `json:"journey_id"`
	Mode              string            `json:"mode"`
	FixtureID         string            `json:"fixture_id"`
	PacketID          string            `json:"packet_id"`
	SoakProfile       string            `json:"soak_profile,omitempty"`
	SoakThreatClass   string            `json:"soak_threat_class,omitempty"`
	DeterministicSeed int64             `json:"deterministic_seed"`
	ReplayCommand     string            `json:"replay_command"`
	ExecutionMetadata ExecutionMetadata `json:"execution_metadata"`
	ForensicsLinks    forensics.Links   `json:"forensics_links"`
	ArtifactRefs      []string          `json:"artifact_refs"`
	SoakTelemetry     *SoakTelemetry    `json:"soak_telemetry,omitempty"`
}

// ExecutionEvent is one line of scenario_events.jsonl.
type ExecutionEvent struct {
	RunID              string            `json:"run_id"`
	ScenarioID         string            `json:"scenario_id"`
	PassLabel          string            `json:"pass_label"`
	Mode               string            `json:"mode"`
	FixtureID          string            `json:"fixture_id"`
	DeterministicSeed  int64             `json:"deterministic_seed"`
	Command            string            `json:"command"`
	Status             engine.Status     `json:"status"`
	ReasonCode         engine.ReasonCode `json:"reason_code,omitempty"`
	StartMS            int64             `json:"start_ms"`
	EndMS              int64             `json:"end_ms"`
	DurationMS         int64             `json:"duration_ms"`
	BundleID           string            `json:"bundle_id"`
	StableFingerprint  string            `json:"stable_fingerprint"`
	BundleManifestPath string            `json:"bundle_manifest_path"`
	ArtifactRefs       []string          `json:"artifact_refs"`
}

// Passed reports status == passed.
func (e ExecutionEvent) Passed() bool {
	return e.Status == engine.StatusPassed
}
