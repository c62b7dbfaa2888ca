package adversarial

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const taxonomyYAML = `
schema_version: v1
packets:
  - packet_id: FNX-P2C-001
    validation_gate: graph_parse_gate
    threat_classes: [parser_abuse, resource_exhaustion]
  - packet_id: FNX-P2C-004
    validation_gate: tie_break_gate
    threat_classes: [nondeterministic_tie_break, mystery_class]
`

func testTaxonomy(t *testing.T) Taxonomy {
	t.Helper()
	tax, err := ParseTaxonomy([]byte(taxonomyYAML))
	require.NoError(t, err)
	return tax
}

func TestParseTaxonomy_JSON(t *testing.T) {
	tax, err := ParseTaxonomy([]byte(`{"schema_version":"v1","packets":[` +
		`{"packet_id":"P","validation_gate":"G","threat_classes":["version_skew"]}]}`))
	require.NoError(t, err)
	assert.Equal(t, []Packet{{PacketID: "P", ValidationGate: "G", ThreatClasses: []string{"version_skew"}}}, tax.Packets)
}

func TestParseTaxonomy_Rejects(t *testing.T) {
	tests := map[string]string{
		"unknown field":   "packets:\n  - packet_id: P\n    validation_gate: G\n    threat_classes: [a]\n    extra: 1\n",
		"no packets":      "schema_version: v1\npackets: []\n",
		"missing gate":    "packets:\n  - packet_id: P\n    threat_classes: [a]\n",
		"empty threats":   "packets:\n  - packet_id: P\n    validation_gate: G\n    threat_classes: []\n",
		"duplicate":       "packets:\n  - {packet_id: P, validation_gate: G, threat_classes: [a]}\n  - {packet_id: P, validation_gate: G, threat_classes: [b]}\n",
		"missing packets": "schema_version: v1\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseTaxonomy([]byte(input))
			require.Error(t, err)
		})
	}
}

func TestLoadTaxonomy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(taxonomyYAML), 0o644))

	tax, err := LoadTaxonomy(path)
	require.NoError(t, err)
	assert.Len(t, tax.Packets, 2)

	_, err = LoadTaxonomy(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestExpand_KnownVector(t *testing.T) {
	ledger, err := Expand(testTaxonomy(t), DefaultTables(), "adversarial-harness")
	require.NoError(t, err)

	require.Equal(t, 4, ledger.EntryCount)
	require.Len(t, ledger.Entries, 4)
	assert.Equal(t, SeedEntry{
		PacketID:              "FNX-P2C-001",
		ThreatClass:           "parser_abuse",
		ValidationGate:        "graph_parse_gate",
		GeneratorVariant:      "structure_mutation",
		Seed:                  1351163162,
		ExpectedFailureMode:   "fail_closed_parse_error",
		FailureClassification: ClassSecurity,
		FixtureHashID:         "fixture-8ea84d6f060c4681",
		ReplayCommand:         "adversarial-harness --packet FNX-P2C-001 --threat-class parser_abuse --seed 1351163162",
		ShrinkMetadata: ShrinkMetadata{
			Strategy:      "delta_debugging",
			MaxIterations: 512,
			ShrinkSeed:    1351163162,
			Minimized:     false,
		},
	}, ledger.Entries[0])
}

func TestExpand_OrderAndDefaults(t *testing.T) {
	ledger, err := Expand(testTaxonomy(t), DefaultTables(), "h")
	require.NoError(t, err)

	var got [][2]string
	for _, e := range ledger.Entries {
		got = append(got, [2]string{e.PacketID, e.ThreatClass})
	}
	assert.Equal(t, [][2]string{
		{"FNX-P2C-001", "parser_abuse"},
		{"FNX-P2C-001", "resource_exhaustion"},
		{"FNX-P2C-004", "nondeterministic_tie_break"},
		{"FNX-P2C-004", "mystery_class"},
	}, got)

	unknown := ledger.Entries[3]
	assert.Equal(t, ClassCompatibility, unknown.FailureClassification)
	assert.Equal(t, "generic_mutation", unknown.GeneratorVariant)
	assert.Equal(t, "compat_exception", unknown.ExpectedFailureMode)

	for _, e := range ledger.Entries {
		assert.GreaterOrEqual(t, e.Seed, int64(0))
		assert.LessOrEqual(t, e.Seed, int64(0x7FFFFFFF))
	}
}

func TestExpand_Idempotent(t *testing.T) {
	a, err := Expand(testTaxonomy(t), DefaultTables(), "h")
	require.NoError(t, err)
	b, err := Expand(testTaxonomy(t), DefaultTables(), "h")
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestExpand_RequiresTool(t *testing.T) {
	_, err := Expand(testTaxonomy(t), DefaultTables(), "")
	require.Error(t, err)
}

func TestTables_Total(t *testing.T) {
	tables := DefaultTables()

	tests := []struct {
		class, classification, severity, routing, action string
	}{
		{"parser_abuse", ClassSecurity, SeverityCritical, RouteBug, PromoteRegressionFixture},
		{"unsafe_deserialization", ClassSecurity, SeverityCritical, RouteBug, PromoteRegressionFixture},
		{"metadata_ambiguity", ClassCompatibility, SeverityMedium, RouteCompatibilityException, PromoteWithCompatException},
		{"attribute_confusion", ClassCompatibility, SeverityMedium, RouteCompatibilityException, PromoteWithCompatException},
		{"version_skew", ClassCompatibility, SeverityMedium, RouteCompatibilityException, PromoteWithCompatException},
		{"algorithmic_complexity_dos", ClassPerformanceTail, SeverityMedium, RouteKnownRiskAllowlist, PromoteWithAllowlist},
		{"resource_exhaustion", ClassPerformanceTail, SeverityMedium, RouteKnownRiskAllowlist, PromoteWithAllowlist},
		{"state_corruption", ClassMemoryStateCorruption, SeverityCritical, RouteBug, PromoteRegressionFixture},
		{"nondeterministic_tie_break", ClassDeterminism, SeverityHigh, RouteBug, PromoteRegressionFixture},
		{"never_heard_of_it", ClassCompatibility, SeverityMedium, RouteCompatibilityException, PromoteWithCompatException},
	}
	for _, tt := range tests {
		t.Run(tt.class, func(t *testing.T) {
			p := tables.Threat(tt.class)
			assert.Equal(t, tt.classification, p.Classification)
			assert.Equal(t, tt.severity, tables.Severity(p.Classification))
			routing := tables.Routing(p.Classification)
			assert.Equal(t, tt.routing, routing)
			assert.Equal(t, tt.action, PromotionAction(routing))
		})
	}
}

func TestHarnessEventsAndReport(t *testing.T) {
	tables := DefaultTables()
	ledger, err := Expand(testTaxonomy(t), tables, "h")
	require.NoError(t, err)

	events := HarnessEvents(ledger)
	require.Len(t, events, 4)
	for i, ev := range events {
		assert.Equal(t, ledger.Entries[i].FixtureHashID, ev.FixtureHashID)
		assert.Equal(t, OutcomeCrashReproduced, ev.Outcome)
		assert.Equal(t, ledger.Entries[i].ExpectedFailureMode, ev.ObservedFailureMode)
		assert.Regexp(t, `^event-[0-9a-f]{16}$`, ev.EventID)
	}

	report := SummarizeHarness(ledger, tables)
	assert.Equal(t, 4, report.EntryCount)
	assert.Equal(t, map[string]int{
		ClassSecurity:        1,
		ClassPerformanceTail: 1,
		ClassDeterminism:     1,
		ClassCompatibility:   1,
	}, report.ByClassification)
	assert.Equal(t, map[string]int{"FNX-P2C-001": 2, "FNX-P2C-004": 2}, report.ByPacket)
	assert.Equal(t, []string{"mystery_class"}, report.UnknownThreats)
}
