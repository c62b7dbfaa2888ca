package adversarial

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/graphreplay/internal/ir"
)

// Shrink defaults recorded on every seed entry.
const (
	ShrinkStrategy      = "delta_debugging"
	ShrinkMaxIterations = 512
)

// ShrinkMetadata tells the fuzzer front-end how to minimize a crash.
type ShrinkMetadata struct {
	Strategy      string `json:"strategy"`
	MaxIterations int    `json:"max_iterations"`
	ShrinkSeed    int64  `json:"shrink_seed"`
	Minimized     bool   `json:"minimized"`
}

// SeedEntry is one deterministic (packet, threat class) fuzz seed.
type SeedEntry struct {
	PacketID              string         `json:"packet_id"`
	ThreatClass           string         `json:"threat_class"`
	ValidationGate        string         `json:"validation_gate"`
	GeneratorVariant      string         `json:"generator_variant"`
	Seed                  int64          `json:"seed"`
	ExpectedFailureMode   string         `json:"expected_failure_mode"`
	FailureClassification string         `json:"failure_classification"`
	FixtureHashID         string         `json:"fixture_hash_id"`
	ReplayCommand         string         `json:"replay_command"`
	ShrinkMetadata        ShrinkMetadata `json:"shrink_metadata"`
}

// Identity returns the hash inputs of the entry.
func (e SeedEntry) Identity() ir.FixtureIdentity {
	return ir.FixtureIdentity{
		PacketID:              e.PacketID,
		ThreatClass:           e.ThreatClass,
		ValidationGate:        e.ValidationGate,
		GeneratorVariant:      e.GeneratorVariant,
		Seed:                  e.Seed,
		ExpectedFailureMode:   e.ExpectedFailureMode,
		FailureClassification: e.FailureClassification,
	}
}

// Ledger is adversarial_seed_ledger.json.
type Ledger struct {
	SchemaVersion string      `json:"schema_version"`
	EntryCount    int         `json:"entry_count"`
	Entries       []SeedEntry `json:"entries"`
}

// Index maps fixture_hash_id to entry.
func (l Ledger) Index() map[string]SeedEntry {
	idx := make(map[string]SeedEntry, len(l.Entries))
	for _, e := range l.Entries {
		idx[e.FixtureHashID] = e
	}
	return idx
}

// HarnessReplayCommand renders the fuzz harness invocation for one seed.
func HarnessReplayCommand(tool, packetID, threatClass string, seed int64) string {
	return strings.Join([]string{
		tool,
		"--packet", packetID,
		"--threat-class", threatClass,
		"--seed", strconv.FormatInt(seed, 10),
	}, " ")
}

// Expand emits one entry per (threat_class, packet_id) pair, packets in
// manifest order and threat classes in packet order.
func Expand(tax Taxonomy, tables Tables, tool string) (Ledger, error) {
	if err := tax.Validate(); err != nil {
		return Ledger{}, err
	}
	if tool == "" {
		return Ledger{}, fmt.Errorf("adversarial tool is required")
	}

	var entries []SeedEntry
	for _, p := range tax.Packets {
		for _, class := range p.ThreatClasses {
			profile := tables.Threat(class)
			seed := ir.AdversarialSeed(p.PacketID, class, profile.GeneratorVariant)
			e := SeedEntry{
				PacketID:              p.PacketID,
				ThreatClass:           class,
				ValidationGate:        p.ValidationGate,
				GeneratorVariant:      profile.GeneratorVariant,
				Seed:                  seed,
				ExpectedFailureMode:   profile.ExpectedFailureMode,
				FailureClassification: profile.Classification,
				ReplayCommand:         HarnessReplayCommand(tool, p.PacketID, class, seed),
				ShrinkMetadata: ShrinkMetadata{
					Strategy:      ShrinkStrategy,
					MaxIterations: ShrinkMaxIterations,
					ShrinkSeed:    seed,
					Minimized:     false,
				},
			}
			e.FixtureHashID = ir.FixtureHashID(e.Identity())
			entries = append(entries, e)
		}
	}

	return Ledger{
		SchemaVersion: ir.ReportSchemaVersion,
		EntryCount:    len(entries),
		Entries:       entries,
	}, nil
}
