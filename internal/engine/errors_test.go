package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMissingFieldsReason(t *testing.T) {
	r := MissingFieldsReason([]string{"structured_log_hash_id", "forensics_bundle_replay_ref"})

	assert.Equal(t,
		ReasonCode("missing_forensics_fields:structured_log_hash_id,forensics_bundle_replay_ref"), r)
}

func TestScenarioError_Error(t *testing.T) {
	err := &ScenarioError{
		Reason:     ReasonCommandFailed,
		Message:    "cycle 2 failed",
		ScenarioID: "soak_long_run",
		PassLabel:  "pass_b",
		Details:    map[string]string{"z": "1", "a": "2"},
	}

	assert.Equal(t,
		"command_failed: cycle 2 failed (scenario=soak_long_run, pass=pass_b) a=2 z=1",
		err.Error())
}
