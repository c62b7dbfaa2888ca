package forensics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/graphreplay/internal/engine"
)

const rowSchema = `
#Row: {
	hash_id:            string & !=""
	forensic_bundle_id: string
	fixture_id:         string
	mode:               "strict" | "hardened"
	forensics_bundle_index: {
		bundle_hash_id: string
		replay_ref:     string
		...
	}
	...
}
`

func TestCompileSchema(t *testing.T) {
	s, err := CompileSchema([]byte(rowSchema), "row.cue")
	require.NoError(t, err)

	assert.Empty(t, s.Validate([]byte(fullRow("h-1"))))
	assert.Empty(t, s.Validate([]byte(`{"hash_id":"h","forensic_bundle_id":"f","fixture_id":"x","mode":"hardened",`+
		`"forensics_bundle_index":{"bundle_hash_id":"b","replay_ref":"r"},"elapsed_ms":12}`)),
		"extra fields are allowed by the open definition")

	errs := s.Validate([]byte(`{"hash_id":"h","forensic_bundle_id":"f","fixture_id":"x","mode":"lenient",` +
		`"forensics_bundle_index":{"bundle_hash_id":"b","replay_ref":"r"}}`))
	assert.NotEmpty(t, errs)
}

func TestCompileSchema_Errors(t *testing.T) {
	_, err := CompileSchema([]byte(`#Other: {}`), "row.cue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "#Row not found")

	_, err = CompileSchema([]byte(`#Row: {`), "row.cue")
	require.Error(t, err)
}

func TestLoadSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "row.cue")
	require.NoError(t, os.WriteFile(path, []byte(rowSchema), 0o644))

	s, err := LoadSchema(path)
	require.NoError(t, err)
	assert.NotNil(t, s)

	_, err = LoadSchema(filepath.Join(t.TempDir(), "missing.cue"))
	require.Error(t, err)
}

func TestLinker_SchemaViolation(t *testing.T) {
	s, err := CompileSchema([]byte(rowSchema), "row.cue")
	require.NoError(t, err)
	path := writeLog(t,
		`{"hash_id":"h","forensic_bundle_id":"fb","fixture_id":"`+fixture+
			`","mode":"strict","forensics_bundle_index":{"bundle_hash_id":7,"replay_ref":"r"}}`)

	// A numeric bundle_hash_id reads as a missing link, and missing fields
	// are reported before the schema runs.
	res, err := NewLinker(path, s, nil).Link(Cursor{}, fixture, mode)
	require.NoError(t, err)
	assert.Equal(t, engine.ReasonCode("missing_forensics_fields:forensics_bundle_hash_id"), res.Reason)
	assert.Empty(t, res.SchemaErrors)

	path = writeLog(t,
		`{"hash_id":"h","forensic_bundle_id":"fb","fixture_id":"`+fixture+
			`","mode":"strict","forensics_bundle_index":{"bundle_hash_id":"bh","replay_ref":"r"},"seed":"x"}`)
	strict, err := CompileSchema([]byte(`#Row: { seed?: int, ... }`), "row.cue")
	require.NoError(t, err)

	res, err = NewLinker(path, strict, nil).Link(Cursor{}, fixture, mode)
	require.NoError(t, err)
	assert.Equal(t, engine.ReasonSchemaViolation, res.Reason)
	assert.NotEmpty(t, res.SchemaErrors)
	assert.Equal(t, "h", res.Links.StructuredLogHashID)
}

func TestLinker_MissingFieldsBeatSchema(t *testing.T) {
	s, err := CompileSchema([]byte(rowSchema), "row.cue")
	require.NoError(t, err)
	path := writeLog(t, `{"hash_id":"","fixture_id":"`+fixture+`","mode":"strict"}`)

	res, err := NewLinker(path, s, nil).Link(Cursor{}, fixture, mode)
	require.NoError(t, err)
	assert.Equal(t,
		engine.MissingFieldsReason(RequiredKeys()),
		res.Reason)
	assert.Empty(t, res.SchemaErrors)
}
