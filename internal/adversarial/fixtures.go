package adversarial

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/roach88/graphreplay/internal/bundle"
	"github.com/roach88/graphreplay/internal/ir"
)

// RegressionFixture is a promoted adversarial finding.
type RegressionFixture struct {
	RegressionFixtureID    string `json:"regression_fixture_id"`
	FixtureHashID          string `json:"fixture_hash_id"`
	PacketID               string `json:"packet_id"`
	ThreatClass            string `json:"threat_class"`
	ValidationGate         string `json:"validation_gate"`
	GeneratorVariant       string `json:"generator_variant"`
	Seed                   int64  `json:"seed"`
	ExpectedFailureMode    string `json:"expected_failure_mode"`
	FailureClassification  string `json:"failure_classification"`
	StackSignature         string `json:"stack_signature"`
	SeverityTag            string `json:"severity_tag"`
	RoutingPolicy          string `json:"routing_policy"`
	PromotionAction        string `json:"promotion_action"`
	ReplayCommand          string `json:"replay_command"`
	TriageID               string `json:"triage_id"`
	EnvironmentFingerprint string `json:"environment_fingerprint"`
}

// FixtureFromRecord converts a triage record into its regression fixture.
func FixtureFromRecord(r TriageRecord) RegressionFixture {
	return RegressionFixture{
		RegressionFixtureID:    r.RegressionFixtureID,
		FixtureHashID:          r.FixtureHashID,
		PacketID:               r.PacketID,
		ThreatClass:            r.ThreatClass,
		ValidationGate:         r.ValidationGate,
		GeneratorVariant:       r.GeneratorVariant,
		Seed:                   r.Seed,
		ExpectedFailureMode:    r.ExpectedFailureMode,
		FailureClassification:  r.FailureClassification,
		StackSignature:         r.StackSignature,
		SeverityTag:            r.SeverityTag,
		RoutingPolicy:          r.RoutingPolicy,
		PromotionAction:        r.PromotionAction,
		ReplayCommand:          r.ReplayCommand,
		TriageID:               r.TriageID,
		EnvironmentFingerprint: r.EnvironmentFingerprint,
	}
}

// FixtureBundle is regression_fixture_bundle.json: the long-term memory of
// confirmed findings, keyed by regression fixture id.
type FixtureBundle struct {
	SchemaVersion string                       `json:"schema_version"`
	Fixtures      map[string]RegressionFixture `json:"fixtures"`
}

// NewFixtureBundle returns an empty bundle.
func NewFixtureBundle() *FixtureBundle {
	return &FixtureBundle{
		SchemaVersion: ir.ReportSchemaVersion,
		Fixtures:      map[string]RegressionFixture{},
	}
}

// LoadFixtureBundle reads a bundle. A missing file is an empty bundle.
func LoadFixtureBundle(path string) (*FixtureBundle, error) {
	b := NewFixtureBundle()
	err := bundle.ReadJSONFile(path, b)
	if errors.Is(err, fs.ErrNotExist) {
		return NewFixtureBundle(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load fixture bundle: %w", err)
	}
	if b.Fixtures == nil {
		b.Fixtures = map[string]RegressionFixture{}
	}
	if b.SchemaVersion == "" {
		b.SchemaVersion = ir.ReportSchemaVersion
	}
	return b, nil
}

// Promote overwrites fixtures by id. It returns how many ids were new.
func (b *FixtureBundle) Promote(records []TriageRecord) (added int) {
	for _, r := range records {
		if _, ok := b.Fixtures[r.RegressionFixtureID]; !ok {
			added++
		}
		b.Fixtures[r.RegressionFixtureID] = FixtureFromRecord(r)
	}
	return added
}

// IDs returns the fixture ids, sorted.
func (b *FixtureBundle) IDs() []string {
	ids := make([]string, 0, len(b.Fixtures))
	for id := range b.Fixtures {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Sorted returns the fixtures ordered by id.
func (b *FixtureBundle) Sorted() []RegressionFixture {
	out := make([]RegressionFixture, 0, len(b.Fixtures))
	for _, id := range b.IDs() {
		out = append(out, b.Fixtures[id])
	}
	return out
}

// Write persists the bundle atomically. encoding/json sorts map keys, so
// fixtures appear in id order.
func (b *FixtureBundle) Write(path string) error {
	if err := bundle.WriteJSONAtomic(path, b); err != nil {
		return fmt.Errorf("write fixture bundle: %w", err)
	}
	return nil
}
