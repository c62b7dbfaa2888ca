package adversarial

import (
	"log/slog"
	"sort"

	"github.com/roach88/graphreplay/internal/ir"
	"github.com/roach88/graphreplay/internal/logging"
)

// TriageRecord is a seed entry plus its triage decision.
type TriageRecord struct {
	SeedEntry

	EventID                string `json:"event_id"`
	ObservedFailureMode    string `json:"observed_failure_mode"`
	TriageID               string `json:"triage_id"`
	SeverityTag            string `json:"severity_tag"`
	RoutingPolicy          string `json:"routing_policy"`
	StackSignature         string `json:"stack_signature"`
	RegressionFixtureID    string `json:"regression_fixture_id"`
	PromotionAction        string `json:"promotion_action"`
	EnvironmentFingerprint string `json:"environment_fingerprint"`
}

// TriageReport is crash_triage_report.json.
type TriageReport struct {
	SchemaVersion          string         `json:"schema_version"`
	EnvironmentFingerprint string         `json:"environment_fingerprint"`
	RecordCount            int            `json:"record_count"`
	BySeverity             map[string]int `json:"by_severity"`
	ByRoutingPolicy        map[string]int `json:"by_routing_policy"`
	UnmatchedEvents        []string       `json:"unmatched_events"`
}

// PromotionEntry is one row of promotion_queue.json.
type PromotionEntry struct {
	RegressionFixtureID string `json:"regression_fixture_id"`
	TriageID            string `json:"triage_id"`
	FixtureHashID       string `json:"fixture_hash_id"`
	SeverityTag         string `json:"severity_tag"`
	RoutingPolicy       string `json:"routing_policy"`
	PromotionAction     string `json:"promotion_action"`
}

// PromotionQueue is promotion_queue.json.
type PromotionQueue struct {
	SchemaVersion string           `json:"schema_version"`
	Entries       []PromotionEntry `json:"entries"`
}

// Classifier assigns severity, routing and promotion to harness events.
type Classifier struct {
	tables Tables
	env    string
	logger *slog.Logger
}

// NewClassifier creates a classifier for one environment fingerprint.
func NewClassifier(tables Tables, environmentFingerprint string, logger *slog.Logger) *Classifier {
	return &Classifier{tables: tables, env: environmentFingerprint, logger: logging.OrDiscard(logger)}
}

// Classify triages one ledger entry. Pure: same entry and environment, same
// record.
func (c *Classifier) Classify(e SeedEntry, ev HarnessEvent) TriageRecord {
	sig := ir.StackSignature(e.ThreatClass, e.ExpectedFailureMode, e.ValidationGate)
	routing := c.tables.Routing(e.FailureClassification)
	return TriageRecord{
		SeedEntry:              e,
		EventID:                ev.EventID,
		ObservedFailureMode:    ev.ObservedFailureMode,
		TriageID:               ir.TriageID(e.FixtureHashID, c.env),
		SeverityTag:            c.tables.Severity(e.FailureClassification),
		RoutingPolicy:          routing,
		StackSignature:         sig,
		RegressionFixtureID:    ir.RegressionFixtureID(e.FixtureHashID, sig),
		PromotionAction:        PromotionAction(routing),
		EnvironmentFingerprint: c.env,
	}
}

// Triage classifies every harness event that joins to a ledger entry, in
// event order. Events with an unknown fixture_hash_id are reported, not
// classified.
func (c *Classifier) Triage(l Ledger, events []HarnessEvent) ([]TriageRecord, TriageReport) {
	idx := l.Index()
	report := TriageReport{
		SchemaVersion:          ir.ReportSchemaVersion,
		EnvironmentFingerprint: c.env,
		BySeverity:             map[string]int{},
		ByRoutingPolicy:        map[string]int{},
		UnmatchedEvents:        []string{},
	}

	records := make([]TriageRecord, 0, len(events))
	for _, ev := range events {
		entry, ok := idx[ev.FixtureHashID]
		if !ok {
			c.logger.Warn("harness event has no ledger entry",
				"event_id", ev.EventID,
				"fixture_hash_id", ev.FixtureHashID)
			report.UnmatchedEvents = append(report.UnmatchedEvents, ev.EventID)
			continue
		}
		rec := c.Classify(entry, ev)
		records = append(records, rec)
		report.BySeverity[rec.SeverityTag]++
		report.ByRoutingPolicy[rec.RoutingPolicy]++
	}
	report.RecordCount = len(records)
	return records, report
}

// Queue builds the promotion queue sorted by regression fixture id.
// Duplicate ids collapse to the last record.
func Queue(records []TriageRecord) PromotionQueue {
	byID := make(map[string]PromotionEntry, len(records))
	for _, r := range records {
		byID[r.RegressionFixtureID] = PromotionEntry{
			RegressionFixtureID: r.RegressionFixtureID,
			TriageID:            r.TriageID,
			FixtureHashID:       r.FixtureHashID,
			SeverityTag:         r.SeverityTag,
			RoutingPolicy:       r.RoutingPolicy,
			PromotionAction:     r.PromotionAction,
		}
	}
	entries := make([]PromotionEntry, 0, len(byID))
	for _, e := range byID {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].RegressionFixtureID < entries[j].RegressionFixtureID
	})
	return PromotionQueue{SchemaVersion: ir.ReportSchemaVersion, Entries: entries}
}
