package testutil

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/graphreplay/internal/engine"
)

func argv(fixture, mode string) []string {
	return engine.BuildArgv([]string{"fake"}, fixture, mode)
}

func TestFakeConformance_AppendsCompleteRow(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "structured.jsonl")
	f := NewFakeConformance(logPath, nil)

	res := f.Run(context.Background(), argv("a.json", "strict"))
	require.True(t, res.Succeeded())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	hashID, _, _, replayRef := ExpectedLinks("a.json", "strict")
	assert.Contains(t, string(data), `"hash_id":"`+hashID+`"`)
	assert.Contains(t, string(data), `"replay_ref":"`+replayRef+`"`)
	assert.True(t, res.EndedAt.After(res.StartedAt))
}

func TestFakeConformance_ScriptedFailures(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "structured.jsonl")
	f := NewFakeConformance(logPath, nil).FailOn("a.json", 0, 3)

	assert.Equal(t, 0, f.Run(context.Background(), argv("a.json", "strict")).ExitCode)
	assert.Equal(t, 3, f.Run(context.Background(), argv("a.json", "strict")).ExitCode)
	assert.Equal(t, 0, f.Run(context.Background(), argv("a.json", "strict")).ExitCode)
	assert.Len(t, f.Calls(), 3)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"), "failed calls write no row")
}

func TestFakeConformance_TimeoutAndBadArgs(t *testing.T) {
	f := NewFakeConformance(filepath.Join(t.TempDir(), "s.jsonl"), nil).TimeoutOn("slow.json")

	res := f.Run(context.Background(), argv("slow.json", "strict"))
	assert.Equal(t, engine.ReasonTimeout, res.Reason())

	res = f.Run(context.Background(), []string{"fake"})
	assert.Equal(t, engine.ReasonSpawnFailed, res.Reason())
}

func TestFakeConformance_RowBehaviors(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "s.jsonl")
	f := NewFakeConformance(logPath, nil).
		Rows("none.json", RowNone).
		Rows("partial.json", RowMissingReplayRef)

	f.Run(context.Background(), argv("none.json", "strict"))
	f.Run(context.Background(), argv("partial.json", "strict"))

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "none.json")
	assert.Contains(t, string(data), "partial.json")
	assert.NotContains(t, string(data), "replay_ref")
}
