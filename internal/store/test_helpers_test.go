package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/graphreplay/internal/adversarial"
	"github.com/roach88/graphreplay/internal/bundle"
	"github.com/roach88/graphreplay/internal/engine"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), FileName))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestEvent creates an event with every required field set.
func createTestEvent(runID, scenarioID, passLabel string) bundle.ExecutionEvent {
	return bundle.ExecutionEvent{
		RunID:              runID,
		ScenarioID:         scenarioID,
		PassLabel:          passLabel,
		Mode:               "strict",
		FixtureID:          scenarioID + ".json",
		DeterministicSeed:  7,
		Command:            "runner --fixture " + scenarioID + ".json --mode strict",
		Status:             engine.StatusPassed,
		StartMS:            1000,
		EndMS:              1250,
		DurationMS:         250,
		BundleID:           "bundle-" + scenarioID,
		StableFingerprint:  "fp-" + scenarioID,
		BundleManifestPath: bundle.ManifestPath(scenarioID, passLabel),
		ArtifactRefs:       []string{"bundles/" + scenarioID + "/" + passLabel + "/command_log.txt"},
	}
}

// createTestFixture creates a fixture keyed by id.
func createTestFixture(id, severity string) adversarial.RegressionFixture {
	return adversarial.RegressionFixture{
		RegressionFixtureID:    id,
		FixtureHashID:          "fixture-" + id,
		PacketID:               "FNX-P2C-001",
		ThreatClass:            "parser_abuse",
		ValidationGate:         "graph_parse_gate",
		GeneratorVariant:       "structure_mutation",
		Seed:                   42,
		ExpectedFailureMode:    "fail_closed_parse_error",
		FailureClassification:  adversarial.ClassSecurity,
		StackSignature:         "sig-" + id,
		SeverityTag:            severity,
		RoutingPolicy:          adversarial.RouteBug,
		PromotionAction:        adversarial.PromoteRegressionFixture,
		ReplayCommand:          "adversarial-harness --seed 42",
		TriageID:               "triage-" + id,
		EnvironmentFingerprint: "env-test",
	}
}
