package harness

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/graphreplay/internal/bundle"
	"github.com/roach88/graphreplay/internal/engine"
	"github.com/roach88/graphreplay/internal/ir"
	"github.com/roach88/graphreplay/internal/verify"
)

// SummaryFileName is written under the output directory at the end of
// every run.
const SummaryFileName = "run_summary.json"

// Run statuses.
const (
	StatusPassed = "passed"
	StatusFailed = "failed"
)

// Options selects what one run executes.
type Options struct {
	// Scenario is scenario.SelectAll or a single scenario id.
	Scenario    string
	Passes      int
	OutputDir   string
	ClearOutput bool
	Soak        engine.SoakOptions

	// RunID overrides the generated run id.
	RunID string
}

// Validate checks option ranges.
func (o Options) Validate() error {
	var errs []error
	if o.Passes < 1 {
		errs = append(errs, fmt.Errorf("passes must be >= 1, got %d", o.Passes))
	}
	if strings.TrimSpace(o.OutputDir) == "" {
		errs = append(errs, errors.New("output dir is required"))
	}
	if err := o.Soak.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// PassLabel returns the label of the i-th pass (0-based): pass_a through
// pass_z, then pass_aa, pass_ab, and so on.
func PassLabel(i int) string {
	var b []byte
	for n := i + 1; n > 0; n = (n - 1) / 26 {
		b = append([]byte{byte('a' + (n-1)%26)}, b...)
	}
	return "pass_" + string(b)
}

// Summary is run_summary.json, printed on stdout at the end of a run.
type Summary struct {
	SchemaVersion     string                 `json:"schema_version"`
	HarnessVersion    string                 `json:"harness_version"`
	RunID             string                 `json:"run_id"`
	Status            string                 `json:"status"`
	ScenarioIDs       []string               `json:"scenario_ids"`
	PassLabels        []string               `json:"pass_labels"`
	EventCount        int                    `json:"event_count"`
	EventsPath        string                 `json:"events_path"`
	FailedEvent       *bundle.ExecutionEvent `json:"failed_event,omitempty"`
	Failure           string                 `json:"failure,omitempty"`
	DeterminismReport *verify.Report         `json:"determinism_report,omitempty"`
}

// Result is the outcome of Run.
type Result struct {
	RunID      string
	PassLabels []string
	Outputs    []*bundle.Output
	Events     []bundle.ExecutionEvent

	// Failed is the event that stopped the run, nil when every scenario in
	// every pass passed.
	Failed *bundle.ExecutionEvent

	// Failure describes Failed; it is an *engine.ScenarioError.
	Failure error

	// Report is nil when fewer than two passes were requested.
	Report *verify.Report

	scenarioIDs []string
}

// Passed reports whether every event passed and, when verification ran,
// the determinism gate passed too.
func (r *Result) Passed() bool {
	if r.Failed != nil {
		return false
	}
	return r.Report == nil || r.Report.Passed()
}

// Summary renders the result for run_summary.json.
func (r *Result) Summary() Summary {
	s := Summary{
		SchemaVersion:     ir.ReportSchemaVersion,
		HarnessVersion:    ir.HarnessVersion,
		RunID:             r.RunID,
		Status:            StatusPassed,
		ScenarioIDs:       append([]string{}, r.scenarioIDs...),
		PassLabels:        append([]string{}, r.PassLabels...),
		EventCount:        len(r.Events),
		EventsPath:        bundle.EventsFileName,
		FailedEvent:       r.Failed,
		DeterminismReport: r.Report,
	}
	if r.Failure != nil {
		s.Failure = r.Failure.Error()
	}
	if !r.Passed() {
		s.Status = StatusFailed
	}
	return s
}
