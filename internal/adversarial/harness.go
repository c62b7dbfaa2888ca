package adversarial

import (
	"sort"

	"github.com/roach88/graphreplay/internal/ir"
)

// OutcomeCrashReproduced is the only outcome the seed harness records.
const OutcomeCrashReproduced = "crash_reproduced"

// HarnessEvent is one line of adversarial_harness_events.jsonl.
type HarnessEvent struct {
	EventID             string `json:"event_id"`
	FixtureHashID       string `json:"fixture_hash_id"`
	PacketID            string `json:"packet_id"`
	ThreatClass         string `json:"threat_class"`
	Seed                int64  `json:"seed"`
	Outcome             string `json:"outcome"`
	ObservedFailureMode string `json:"observed_failure_mode"`
	ReplayCommand       string `json:"replay_command"`
}

// HarnessReport is adversarial_harness_report.json.
type HarnessReport struct {
	SchemaVersion    string         `json:"schema_version"`
	EntryCount       int            `json:"entry_count"`
	ByClassification map[string]int `json:"by_classification"`
	ByPacket         map[string]int `json:"by_packet"`
	UnknownThreats   []string       `json:"unknown_threat_classes"`
}

// HarnessEvents derives one reproduced-crash event per ledger entry.
// The seed harness is deterministic: the observed failure mode is the
// expected one.
func HarnessEvents(l Ledger) []HarnessEvent {
	events := make([]HarnessEvent, 0, len(l.Entries))
	for _, e := range l.Entries {
		events = append(events, HarnessEvent{
			EventID:             "event-" + ir.Hex(ir.HashParts("harness", e.FixtureHashID)),
			FixtureHashID:       e.FixtureHashID,
			PacketID:            e.PacketID,
			ThreatClass:         e.ThreatClass,
			Seed:                e.Seed,
			Outcome:             OutcomeCrashReproduced,
			ObservedFailureMode: e.ExpectedFailureMode,
			ReplayCommand:       e.ReplayCommand,
		})
	}
	return events
}

// SummarizeHarness counts ledger entries by classification and packet.
func SummarizeHarness(l Ledger, tables Tables) HarnessReport {
	r := HarnessReport{
		SchemaVersion:    ir.ReportSchemaVersion,
		EntryCount:       len(l.Entries),
		ByClassification: map[string]int{},
		ByPacket:         map[string]int{},
		UnknownThreats:   []string{},
	}
	unknown := map[string]bool{}
	for _, e := range l.Entries {
		r.ByClassification[e.FailureClassification]++
		r.ByPacket[e.PacketID]++
		if !tables.KnownThreat(e.ThreatClass) && !unknown[e.ThreatClass] {
			unknown[e.ThreatClass] = true
			r.UnknownThreats = append(r.UnknownThreats, e.ThreatClass)
		}
	}
	sort.Strings(r.UnknownThreats)
	return r
}
