package bundle

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/graphreplay/internal/engine"
	"github.com/roach88/graphreplay/internal/forensics"
	"github.com/roach88/graphreplay/internal/ir"
	"github.com/roach88/graphreplay/internal/scenario"
)

var t0 = time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC)

const happyCommand = "conformance-runner --fixture graph_core_shortest_path_strict.json --mode strict"

func lookup(t *testing.T, id string) scenario.ScenarioSpec {
	t.Helper()
	spec, ok := scenario.DefaultCatalog().Lookup(id)
	require.True(t, ok)
	return spec
}

// execution fakes a finished cycle set; exitCodes lists attempted cycles.
func execution(spec scenario.ScenarioSpec, seed int64, target int, exitCodes ...int) *engine.Execution {
	argv := engine.BuildArgv([]string{"conformance-runner"}, spec.FixtureID, spec.Mode)
	x := &engine.Execution{
		Spec:         spec,
		Seed:         seed,
		Argv:         argv,
		Command:      engine.DisplayCommand(argv),
		TargetCycles: target,
		Status:       engine.StatusPassed,
		StartedAt:    t0,
	}
	if spec.IsSoak() {
		x.IntervalMS = 1000
	}
	for i, code := range exitCodes {
		idx := i + 1
		start := t0.Add(time.Duration(i) * time.Second)
		x.Cycles = append(x.Cycles, engine.CycleResult{Index: idx, Result: engine.CommandResult{
			Argv: argv, ExitCode: code, StartedAt: start, EndedAt: start.Add(250 * time.Millisecond),
		}})
		x.RealizedCycles = idx
		x.EndedAt = start.Add(250 * time.Millisecond)
		if spec.IsSoak() {
			x.Checkpoints = append(x.Checkpoints, engine.NewCheckpoint(spec.ScenarioID, seed, 1000, idx, code == 0))
		}
		if code != 0 {
			x.Status = engine.StatusFailed
			x.Reason = engine.ReasonCommandFailed
			x.FirstFailingCycle = idx
			break
		}
	}
	return x
}

func linked(spec scenario.ScenarioSpec) forensics.Result {
	raw := `{"hash_id":"h-1","forensic_bundle_id":"fb-1","fixture_id":"` + spec.FixtureID +
		`","mode":"` + spec.Mode + `","forensics_bundle_index":{"bundle_hash_id":"bh-1","replay_ref":"replay://1"}}`
	row := forensics.Row{}
	if err := json.Unmarshal([]byte(raw), &row); err != nil {
		panic(err)
	}
	row.Raw = json.RawMessage(raw)
	return forensics.Result{Row: &row, Links: row.Links()}
}

func TestPersist_HappyPathGolden(t *testing.T) {
	out := t.TempDir()
	spec := lookup(t, "happy_path")
	b := NewBuilder(out, nil, nil)

	res, err := b.Persist(Input{
		RunID:     "run-0001",
		PassLabel: "pass_a",
		Execution: execution(spec, 7301, 1, 0),
		Link:      linked(spec),
	})
	require.NoError(t, err)

	assert.Equal(t, "bundles/happy_path/pass_a/bundle_manifest_v1.json", res.ManifestPath)
	assert.Equal(t, "bundle-7ff93779049797cb", res.Manifest.BundleID)
	assert.Equal(t, "70e2df824c157d25", res.Manifest.StableFingerprint)

	onDisk, err := LoadManifest(filepath.Join(out, filepath.FromSlash(res.ManifestPath)))
	require.NoError(t, err)
	assert.Equal(t, res.Manifest, *onDisk)

	snapshot, err := ir.Canonicalize(onDisk)
	require.NoError(t, err)
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "happy_path_manifest", snapshot)

	for _, ref := range res.Manifest.ArtifactRefs {
		assert.FileExists(t, filepath.Join(out, filepath.FromSlash(ref)))
	}

	assert.Equal(t, ExecutionEvent{
		RunID:              "run-0001",
		ScenarioID:         "happy_path",
		PassLabel:          "pass_a",
		Mode:               "strict",
		FixtureID:          "graph_core_shortest_path_strict.json",
		DeterministicSeed:  7301,
		Command:            happyCommand,
		Status:             engine.StatusPassed,
		StartMS:            1767225601000,
		EndMS:              1767225601250,
		DurationMS:         250,
		BundleID:           "bundle-7ff93779049797cb",
		StableFingerprint:  "70e2df824c157d25",
		BundleManifestPath: "bundles/happy_path/pass_a/bundle_manifest_v1.json",
		ArtifactRefs:       res.Manifest.ArtifactRefs,
	}, res.Event)
}

func TestBuildManifest_IdentityIgnoresExecutionData(t *testing.T) {
	spec := lookup(t, "legacy_tie_break")
	b := NewBuilder(t.TempDir(), nil, nil)

	a := b.BuildManifest(Input{RunID: "r1", PassLabel: "pass_a", Execution: execution(spec, 11, 1, 0), Link: linked(spec)})
	later := execution(spec, 11, 1, 0)
	later.StartedAt = later.StartedAt.Add(time.Hour)
	later.EndedAt = later.EndedAt.Add(2 * time.Hour)
	c := b.BuildManifest(Input{RunID: "r2", PassLabel: "pass_b", Execution: later, Link: linked(spec)})

	assert.Equal(t, a.BundleID, c.BundleID)
	assert.Equal(t, a.StableFingerprint, c.StableFingerprint)
	assert.NotEqual(t, a.ExecutionMetadata, c.ExecutionMetadata)

	reseeded := b.BuildManifest(Input{RunID: "r1", PassLabel: "pass_a", Execution: execution(spec, 12, 1, 0), Link: linked(spec)})
	assert.NotEqual(t, a.BundleID, reseeded.BundleID)
	assert.NotEqual(t, a.StableFingerprint, reseeded.StableFingerprint)
}

func TestBuildManifest_ForensicsGateDowngrades(t *testing.T) {
	spec := lookup(t, "happy_path")
	b := NewBuilder(t.TempDir(), nil, nil)

	link := linked(spec)
	link.Links.ForensicBundleID = ""
	link.Reason = engine.MissingFieldsReason(link.Links.MissingKeys())

	m := b.BuildManifest(Input{RunID: "r", PassLabel: "pass_a", Execution: execution(spec, 1, 1, 0), Link: link})

	assert.Equal(t, engine.StatusFailed, m.ExecutionMetadata.Status)
	assert.Equal(t, engine.ReasonCode("missing_forensics_fields:forensic_bundle_id"), m.ExecutionMetadata.ReasonCode)
	assert.Equal(t, 0, m.ExecutionMetadata.ExitCode)
}

func TestBuildManifest_ExecutionFailureKeepsItsReason(t *testing.T) {
	spec := lookup(t, "happy_path")
	b := NewBuilder(t.TempDir(), nil, nil)

	m := b.BuildManifest(Input{
		RunID: "r", PassLabel: "pass_a",
		Execution: execution(spec, 1, 1, 2),
		Link:      forensics.Result{Reason: engine.ReasonMissingStructuredLog},
	})

	assert.Equal(t, engine.StatusFailed, m.ExecutionMetadata.Status)
	assert.Equal(t, engine.ReasonCommandFailed, m.ExecutionMetadata.ReasonCode)
	assert.Equal(t, 2, m.ExecutionMetadata.ExitCode)
	assert.Equal(t, forensics.Links{}, m.ForensicsLinks)
}

func TestFailure(t *testing.T) {
	spec := lookup(t, "happy_path")

	assert.NoError(t, Failure(Input{PassLabel: "pass_a", Execution: execution(spec, 1, 1, 0), Link: linked(spec)}))

	var se *engine.ScenarioError
	err := Failure(Input{
		PassLabel: "pass_b",
		Execution: execution(spec, 1, 1, 2),
		Link:      forensics.Result{Reason: engine.ReasonMissingStructuredLog},
	})
	require.ErrorAs(t, err, &se)
	assert.Equal(t, engine.ReasonCommandFailed, se.Reason, "execution failure wins")
	assert.Equal(t, "pass_b", se.PassLabel)
	assert.Equal(t, "happy_path", se.ScenarioID)

	link := linked(spec)
	link.SchemaErrors = []string{"mode: conflicting values"}
	link.Reason = engine.ReasonSchemaViolation
	err = Failure(Input{PassLabel: "pass_a", Execution: execution(spec, 1, 1, 0), Link: link})
	require.ErrorAs(t, err, &se)
	assert.Equal(t, engine.ReasonSchemaViolation, se.Reason)
	assert.Equal(t, map[string]string{
		"fixture_id":          spec.FixtureID,
		"mode":                spec.Mode,
		"structured_log_line": "0",
		"schema_errors":       "mode: conflicting values",
	}, se.Details)
}

func TestPersist_SoakTelemetry(t *testing.T) {
	out := t.TempDir()
	spec := lookup(t, "soak_long_run")
	b := NewBuilder(out, nil, nil)

	res, err := b.Persist(Input{
		RunID: "r", PassLabel: "pass_a",
		Execution: execution(spec, 42, 5, 0, 0, 3),
		Link:      linked(spec),
	})
	require.NoError(t, err)

	tel := res.Manifest.SoakTelemetry
	require.NotNil(t, tel)
	assert.Equal(t, "long_run", tel.SoakProfile)
	assert.Equal(t, "resource_exhaustion", tel.SoakThreatClass)
	assert.Equal(t, 5, tel.TargetCycleCount)
	assert.Equal(t, 3, tel.RealizedCycleCount)
	require.Len(t, tel.Checkpoints, 3)
	assert.Equal(t, "ckpt-3e3725d5a131dc50", tel.Checkpoints[0].CheckpointID)
	require.NotNil(t, tel.TriageSummary.FirstFailingCycle)
	assert.Equal(t, 3, *tel.TriageSummary.FirstFailingCycle)
	assert.Equal(t, engine.StatusFailed, tel.TriageSummary.Status)
	assert.Equal(t, "bundles/soak_long_run/pass_a/bundle_manifest_v1.json", tel.TriageSummary.BundleManifestPath)

	var onDisk SoakTelemetry
	require.NoError(t, ReadJSONFile(filepath.Join(out, "bundles", "soak_long_run", "pass_a", SoakTelemetryFileName), &onDisk))
	assert.Equal(t, *tel, onDisk)
	assert.Contains(t, res.Manifest.ArtifactRefs, "bundles/soak_long_run/pass_a/soak_telemetry.json")
}

func TestPersist_NoRowNoRowArtifact(t *testing.T) {
	out := t.TempDir()
	spec := lookup(t, "hardened_path")
	b := NewBuilder(out, nil, nil)

	res, err := b.Persist(Input{
		RunID: "r", PassLabel: "pass_b",
		Execution: execution(spec, 5, 1, 0),
		Link:      forensics.Result{Reason: engine.ReasonMissingStructuredLog},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"bundles/hardened_path/pass_b/command_log.txt"}, res.Manifest.ArtifactRefs)
	assert.Equal(t, engine.ReasonMissingStructuredLog, res.Event.ReasonCode)
	assert.NoFileExists(t, filepath.Join(out, "bundles", "hardened_path", "pass_b", StructuredLogRowFileName))
}

func TestPersist_CopiesReportArtifacts(t *testing.T) {
	out := t.TempDir()
	src := t.TempDir()
	report := filepath.Join(src, "conformance_report.json")
	require.NoError(t, os.WriteFile(report, []byte(`{"ok":true}`), 0o644))

	spec := lookup(t, "happy_path")
	b := NewBuilder(out, []string{report, filepath.Join(src, "absent.json")}, nil)

	res, err := b.Persist(Input{RunID: "r", PassLabel: "pass_a", Execution: execution(spec, 1, 1, 0), Link: linked(spec)})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"bundles/happy_path/pass_a/command_log.txt",
		"bundles/happy_path/pass_a/reports/conformance_report.json",
		"bundles/happy_path/pass_a/structured_log_row.json",
	}, res.Manifest.ArtifactRefs)
	copied, err := os.ReadFile(filepath.Join(out, "bundles", "happy_path", "pass_a", "reports", "conformance_report.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(copied))
}
