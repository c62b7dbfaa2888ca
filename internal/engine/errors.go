package engine

import (
	"fmt"
	"sort"
	"strings"
)

// ReasonCode explains why a scenario, cycle or replay failed.
// Reason codes are persisted verbatim in events, manifests and reports.
type ReasonCode string

const (
	// ReasonCommandFailed means the conformance binary exited non-zero.
	ReasonCommandFailed ReasonCode = "command_failed"

	// ReasonTimeout means a cycle exceeded the configured timeout.
	ReasonTimeout ReasonCode = "timeout"

	// ReasonSpawnFailed means the binary could not be started at all.
	ReasonSpawnFailed ReasonCode = "spawn_failed"

	// ReasonMissingStructuredLog means no log row matched (fixture_id, mode).
	ReasonMissingStructuredLog ReasonCode = "missing_structured_log"

	// ReasonMissingForensicsFields means the matched row lacks required links.
	// Scenario events append ":<comma-joined-keys>"; see MissingFieldsReason.
	ReasonMissingForensicsFields ReasonCode = "missing_forensics_fields"

	// ReasonSchemaViolation means the matched row failed the supplied schema.
	ReasonSchemaViolation ReasonCode = "structured_log_schema_violation"

	// ReasonForensicsMismatch means replayed links differ from the manifest.
	ReasonForensicsMismatch ReasonCode = "forensics_mismatch"

	// ReasonManifestInvalid means a manifest failed shape validation.
	ReasonManifestInvalid ReasonCode = "manifest_invalid"
)

// MissingFieldsReason builds "missing_forensics_fields:<keys>".
// Keys keep the order given; callers pass them in canonical field order.
func MissingFieldsReason(keys []string) ReasonCode {
	return ReasonCode(string(ReasonMissingForensicsFields) + ":" + strings.Join(keys, ","))
}

// ScenarioError is an error tied to one scenario execution.
//
// It carries a ReasonCode so callers can record the failure instead of
// crashing the orchestrator.
type ScenarioError struct {
	// Reason categorizes the failure.
	Reason ReasonCode

	// Message is a human-readable description.
	Message string

	// ScenarioID identifies the affected scenario.
	ScenarioID string

	// PassLabel identifies the affected pass, when known.
	PassLabel string

	// Details contains additional context.
	Details map[string]string
}

// Error implements the error interface.
func (e *ScenarioError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Reason, e.Message)
	if e.ScenarioID != "" {
		fmt.Fprintf(&b, " (scenario=%s", e.ScenarioID)
		if e.PassLabel != "" {
			fmt.Fprintf(&b, ", pass=%s", e.PassLabel)
		}
		b.WriteString(")")
	}
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%s", k, e.Details[k])
		}
	}
	return b.String()
}
