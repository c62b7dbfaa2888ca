// Package verify implements the multi-pass determinism gate.
//
// The gate is conjunctive: a single missing pass, identity mismatch or failed
// pass fails the whole report. There is no score.
package verify

import (
	"fmt"
	"strings"

	"github.com/roach88/graphreplay/internal/bundle"
	"github.com/roach88/graphreplay/internal/ir"
)

// ReportFileName is written under the output directory.
const ReportFileName = "determinism_report.json"

// Report statuses.
const (
	StatusPass = "pass"
	StatusFail = "fail"
)

// Failure codes. Scenario-scoped failures are prefixed "<scenario_id>:".
const (
	FailureInsufficientPassLabels = "insufficient_pass_labels"
	FailureMissingPassLabels      = "missing_pass_labels"
	FailureBundleIDMismatch       = "bundle_id_mismatch"
	FailureFingerprintMismatch    = "stable_fingerprint_mismatch"
	FailureStatusNotPassed        = "status_not_passed"
)

// ScenarioCheck is one row of the report.
type ScenarioCheck struct {
	ScenarioID             string `json:"scenario_id"`
	PassLabelsPresent      bool   `json:"pass_labels_present"`
	BundleIDMatch          bool   `json:"bundle_id_match"`
	StableFingerprintMatch bool   `json:"stable_fingerprint_match"`
	StatusPassed           bool   `json:"status_passed"`
}

// OK reports whether every check in the row holds.
func (c ScenarioCheck) OK() bool {
	return c.PassLabelsPresent && c.BundleIDMatch && c.StableFingerprintMatch && c.StatusPassed
}

// Report is determinism_report.json.
type Report struct {
	SchemaVersion  string          `json:"schema_version"`
	RunID          string          `json:"run_id"`
	Status         string          `json:"status"`
	PassLabels     []string        `json:"pass_labels"`
	Failures       []string        `json:"failures"`
	ScenarioChecks []ScenarioCheck `json:"scenario_checks"`
}

// Passed reports status == pass.
func (r Report) Passed() bool {
	return r.Status == StatusPass
}

// Verify checks events of one run.
//
// required lists the scenarios that must appear, in report order; when empty
// the scenarios seen in events are used in first-seen order. Pass labels are
// ordered by first appearance. When runID is non-empty, events from other
// runs are ignored.
func Verify(runID string, events []bundle.ExecutionEvent, required []string) Report {
	var scoped []bundle.ExecutionEvent
	for _, e := range events {
		if runID == "" || e.RunID == runID {
			scoped = append(scoped, e)
		}
	}

	labels := firstSeen(scoped, func(e bundle.ExecutionEvent) string { return e.PassLabel })
	if len(required) == 0 {
		required = firstSeen(scoped, func(e bundle.ExecutionEvent) string { return e.ScenarioID })
	}

	// scenario -> label -> last event
	index := make(map[string]map[string]bundle.ExecutionEvent)
	for _, e := range scoped {
		byLabel, ok := index[e.ScenarioID]
		if !ok {
			byLabel = make(map[string]bundle.ExecutionEvent)
			index[e.ScenarioID] = byLabel
		}
		byLabel[e.PassLabel] = e
	}

	report := Report{
		SchemaVersion:  ir.ReportSchemaVersion,
		RunID:          runID,
		PassLabels:     labels,
		Failures:       []string{},
		ScenarioChecks: []ScenarioCheck{},
	}
	if report.PassLabels == nil {
		report.PassLabels = []string{}
	}

	enough := len(labels) >= 2
	if !enough {
		report.Failures = append(report.Failures, FailureInsufficientPassLabels)
	}

	for _, id := range required {
		check, failures := checkScenario(id, labels, index[id], enough)
		report.ScenarioChecks = append(report.ScenarioChecks, check)
		report.Failures = append(report.Failures, failures...)
	}

	report.Status = StatusPass
	if len(report.Failures) > 0 {
		report.Status = StatusFail
	}
	return report
}

func checkScenario(id string, labels []string, byLabel map[string]bundle.ExecutionEvent, enough bool) (ScenarioCheck, []string) {
	check := ScenarioCheck{ScenarioID: id}
	var failures []string
	fail := func(code string) {
		failures = append(failures, id+":"+code)
	}

	var missing []string
	for _, l := range labels {
		if _, ok := byLabel[l]; !ok {
			missing = append(missing, l)
		}
	}
	check.PassLabelsPresent = len(labels) > 0 && len(missing) == 0
	if len(labels) > 0 && len(missing) > 0 {
		fail(FailureMissingPassLabels + ":" + strings.Join(missing, ","))
	}

	if enough {
		a, okA := byLabel[labels[0]]
		b, okB := byLabel[labels[1]]
		if okA && okB {
			check.BundleIDMatch = a.BundleID == b.BundleID
			check.StableFingerprintMatch = a.StableFingerprint == b.StableFingerprint
			check.StatusPassed = a.Passed() && b.Passed()
		}
		if !check.BundleIDMatch {
			fail(FailureBundleIDMismatch)
		}
		if !check.StableFingerprintMatch {
			fail(FailureFingerprintMismatch)
		}
	} else if len(labels) == 1 {
		if e, ok := byLabel[labels[0]]; ok {
			check.StatusPassed = e.Passed()
		}
	}

	if !check.StatusPassed {
		fail(FailureStatusNotPassed)
	}
	return check, failures
}

func firstSeen(events []bundle.ExecutionEvent, key func(bundle.ExecutionEvent) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range events {
		k := key(e)
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

// LatestRunID returns the run id of the last event, for verifying a shared
// event log after the fact.
func LatestRunID(events []bundle.ExecutionEvent) (string, error) {
	if len(events) == 0 {
		return "", fmt.Errorf("no execution events")
	}
	return events[len(events)-1].RunID, nil
}
