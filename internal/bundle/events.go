package bundle

import (
	"fmt"
)

// EventsFileName is the run-scoped execution event log.
const EventsFileName = "scenario_events.jsonl"

// ValidateEvent checks the fields every event must carry.
func ValidateEvent(e ExecutionEvent) error {
	switch {
	case e.RunID == "":
		return fmt.Errorf("event: run_id is required")
	case e.ScenarioID == "":
		return fmt.Errorf("event: scenario_id is required")
	case e.PassLabel == "":
		return fmt.Errorf("event %s: pass_label is required", e.ScenarioID)
	case e.BundleID == "":
		return fmt.Errorf("event %s/%s: bundle_id is required", e.ScenarioID, e.PassLabel)
	case e.Status == "":
		return fmt.Errorf("event %s/%s: status is required", e.ScenarioID, e.PassLabel)
	}
	return nil
}

// AppendEvent validates e and appends it to the JSONL log at path.
// Events are never rewritten.
func AppendEvent(path string, e ExecutionEvent) error {
	if err := ValidateEvent(e); err != nil {
		return err
	}
	return AppendJSONL(path, e)
}

// ReadEvents reads and validates an event log.
func ReadEvents(path string) ([]ExecutionEvent, error) {
	events, err := ReadJSONLFile[ExecutionEvent](path)
	if err != nil {
		return nil, err
	}
	for i, e := range events {
		if err := ValidateEvent(e); err != nil {
			return nil, fmt.Errorf("%s: event %d: %w", path, i+1, err)
		}
	}
	return events, nil
}
