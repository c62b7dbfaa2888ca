package scenario

import (
	"fmt"

	"github.com/roach88/graphreplay/internal/ir"
)

// Execution modes accepted by the conformance binary.
const (
	ModeStrict   = "strict"
	ModeHardened = "hardened"
)

// Scenario kinds used by the default catalog.
const (
	KindGoldenJourney   = "golden_journey"
	KindCompatAmbiguity = "compat_ambiguity"
	KindSoak            = "soak"
)

// ScenarioSpec describes one end-to-end conformance scenario.
type ScenarioSpec struct {
	ScenarioID   string `yaml:"scenario_id" json:"scenario_id"`
	ScenarioKind string `yaml:"scenario_kind" json:"scenario_kind"`
	JourneyID    string `yaml:"journey_id" json:"journey_id"`
	Mode         string `yaml:"mode" json:"mode"`
	FixtureID    string `yaml:"fixture_id" json:"fixture_id"`
	PacketID     string `yaml:"packet_id" json:"packet_id"`

	// SoakProfile marks a soak-class scenario. Empty for single-cycle scenarios.
	SoakProfile string `yaml:"soak_profile,omitempty" json:"soak_profile,omitempty"`

	// SoakThreatClass names the threat the soak run is meant to surface.
	SoakThreatClass string `yaml:"soak_threat_class,omitempty" json:"soak_threat_class,omitempty"`
}

// IsSoak reports whether the scenario repeats for multiple cycles.
func (s ScenarioSpec) IsSoak() bool {
	return s.SoakProfile != ""
}

// Identity returns the hash inputs for bundle identity.
func (s ScenarioSpec) Identity(seed int64) ir.ScenarioIdentity {
	return ir.ScenarioIdentity{
		ScenarioID:   s.ScenarioID,
		ScenarioKind: s.ScenarioKind,
		JourneyID:    s.JourneyID,
		PacketID:     s.PacketID,
		Mode:         s.Mode,
		FixtureID:    s.FixtureID,
		Seed:         seed,
	}
}

// Validate checks required fields.
func (s ScenarioSpec) Validate() error {
	if s.ScenarioID == "" {
		return fmt.Errorf("scenario_id is required")
	}
	if s.ScenarioKind == "" {
		return fmt.Errorf("%s: scenario_kind is required", s.ScenarioID)
	}
	if s.JourneyID == "" {
		return fmt.Errorf("%s: journey_id is required", s.ScenarioID)
	}
	if s.Mode != ModeStrict && s.Mode != ModeHardened {
		return fmt.Errorf("%s: mode must be %q or %q, got %q", s.ScenarioID, ModeStrict, ModeHardened, s.Mode)
	}
	if s.FixtureID == "" {
		return fmt.Errorf("%s: fixture_id is required", s.ScenarioID)
	}
	if s.PacketID == "" {
		return fmt.Errorf("%s: packet_id is required", s.ScenarioID)
	}
	if s.SoakThreatClass != "" && s.SoakProfile == "" {
		return fmt.Errorf("%s: soak_threat_class requires soak_profile", s.ScenarioID)
	}
	return nil
}
