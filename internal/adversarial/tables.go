package adversarial

// Failure classifications.
const (
	ClassSecurity              = "security"
	ClassCompatibility         = "compatibility"
	ClassPerformanceTail       = "performance_tail"
	ClassMemoryStateCorruption = "memory_state_corruption"
	ClassDeterminism           = "determinism"
)

// Severity tags.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
)

// Routing policies and the promotion action each one maps to.
const (
	RouteBug                    = "bug"
	RouteKnownRiskAllowlist     = "known_risk_allowlist"
	RouteCompatibilityException = "compatibility_exception"

	PromoteRegressionFixture   = "promote_regression_fixture"
	PromoteWithAllowlist       = "promote_with_allowlist"
	PromoteWithCompatException = "promote_with_compat_exception"
)

// ThreatProfile is the fixed expansion of one threat class.
type ThreatProfile struct {
	Classification      string
	GeneratorVariant    string
	ExpectedFailureMode string
}

// unknownThreat applies to every class not in the table.
var unknownThreat = ThreatProfile{
	Classification:      ClassCompatibility,
	GeneratorVariant:    "generic_mutation",
	ExpectedFailureMode: "compat_exception",
}

// Tables holds the static lookup tables. It is built once by DefaultTables
// and passed by value; nothing mutates it after construction.
type Tables struct {
	threats  map[string]ThreatProfile
	severity map[string]string
	routing  map[string]string
}

// DefaultTables returns the built-in threat, severity and routing tables.
func DefaultTables() Tables {
	return Tables{
		threats: map[string]ThreatProfile{
			"parser_abuse":               {ClassSecurity, "structure_mutation", "fail_closed_parse_error"},
			"unsafe_deserialization":     {ClassSecurity, "payload_smuggling", "fail_closed_parse_error"},
			"metadata_ambiguity":         {ClassCompatibility, "attribute_shuffle", "strict_reject_hardened_recover"},
			"attribute_confusion":        {ClassCompatibility, "attribute_shuffle", "strict_reject_hardened_recover"},
			"version_skew":               {ClassCompatibility, "version_drift", "compat_exception"},
			"algorithmic_complexity_dos": {ClassPerformanceTail, "adversarial_topology", "bounded_latency_breach"},
			"resource_exhaustion":        {ClassPerformanceTail, "oversized_graph", "bounded_memory_breach"},
			"state_corruption":           {ClassMemoryStateCorruption, "mutation_interleave", "invariant_violation"},
			"nondeterministic_tie_break": {ClassDeterminism, "tie_break_permutation", "output_divergence"},
		},
		severity: map[string]string{
			ClassSecurity:              SeverityCritical,
			ClassMemoryStateCorruption: SeverityCritical,
			ClassDeterminism:           SeverityHigh,
			ClassPerformanceTail:       SeverityMedium,
		},
		routing: map[string]string{
			ClassSecurity:              RouteBug,
			ClassMemoryStateCorruption: RouteBug,
			ClassDeterminism:           RouteBug,
			ClassPerformanceTail:       RouteKnownRiskAllowlist,
		},
	}
}

// Threat looks up a threat class. Unknown classes get the compatibility
// profile; the table is total.
func (t Tables) Threat(class string) ThreatProfile {
	if p, ok := t.threats[class]; ok {
		return p
	}
	return unknownThreat
}

// KnownThreat reports whether class has its own table row.
func (t Tables) KnownThreat(class string) bool {
	_, ok := t.threats[class]
	return ok
}

// Severity maps a failure classification to a severity tag.
func (t Tables) Severity(classification string) string {
	if s, ok := t.severity[classification]; ok {
		return s
	}
	return SeverityMedium
}

// Routing maps a failure classification to a routing policy.
func (t Tables) Routing(classification string) string {
	if r, ok := t.routing[classification]; ok {
		return r
	}
	return RouteCompatibilityException
}

// PromotionAction maps a routing policy to its promotion action.
func PromotionAction(routing string) string {
	switch routing {
	case RouteBug:
		return PromoteRegressionFixture
	case RouteKnownRiskAllowlist:
		return PromoteWithAllowlist
	default:
		return PromoteWithCompatException
	}
}
