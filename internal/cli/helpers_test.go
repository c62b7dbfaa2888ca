package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/graphreplay/internal/testutil"
)

const happyFixture = "graph_core_shortest_path_strict.json"

const testSeedMatrix = `{
  "schema_version": "v1",
  "entries": [
    {"journey_id": "J-GRAPH-CORE", "mode": "strict", "deterministic_seed": 7301},
    {"journey_id": "J-GRAPH-CORE", "mode": "hardened", "deterministic_seed": 7302},
    {"journey_id": "J-TIE-BREAK", "mode": "strict", "deterministic_seed": 7401},
    {"journey_id": "J-SOAK", "mode": "hardened", "deterministic_seed": 42}
  ]
}`

const testConfig = `tool: [conformance-runner]
structured_log_path: structured.jsonl
seed_matrix_path: seeds.json
cycle_timeout: 30s
`

// cliEnv is a temp workspace with a config, a seed matrix and a fake
// conformance binary shared by every command built from it.
type cliEnv struct {
	dir        string
	configPath string
	out        string
	fake       *testutil.FakeConformance
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seeds.json"), []byte(testSeedMatrix), 0o644))
	configPath := filepath.Join(dir, "harness.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(testConfig), 0o644))

	return &cliEnv{
		dir:        dir,
		configPath: configPath,
		out:        filepath.Join(dir, "out"),
		fake:       testutil.NewFakeConformance(filepath.Join(dir, "structured.jsonl"), nil),
	}
}

// run builds a fresh root command and executes it with args.
func (e *cliEnv) run(t *testing.T, args ...string) (int, string) {
	t.Helper()
	cmd := NewRootCommandWithOptions(&RootOptions{
		Runner: e.fake,
		RunIDs: testutil.NewFixedRunID("run-0001"),
	})
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	code := Execute(context.Background(), cmd)
	return code, stdout.String()
}

func decode[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v), "stdout: %s", s)
	return v
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
