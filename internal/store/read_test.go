package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvents_InsertionOrderAndRunScope(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	order := [][3]string{
		{"run-1", "legacy_tie_break", "pass_a"},
		{"run-1", "happy_path", "pass_a"},
		{"run-2", "happy_path", "pass_a"},
		{"run-1", "legacy_tie_break", "pass_b"},
		{"run-1", "happy_path", "pass_b"},
	}
	for _, o := range order {
		_, err := s.AppendEvent(ctx, createTestEvent(o[0], o[1], o[2]))
		require.NoError(t, err)
	}

	got, err := s.Events(ctx, "run-1")
	require.NoError(t, err)

	var keys [][2]string
	for _, e := range got {
		keys = append(keys, [2]string{e.ScenarioID, e.PassLabel})
	}
	assert.Equal(t, [][2]string{
		{"legacy_tie_break", "pass_a"},
		{"happy_path", "pass_a"},
		{"legacy_tie_break", "pass_b"},
		{"happy_path", "pass_b"},
	}, keys)

	all, err := s.AllEvents(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestEvents_UnknownRunIsEmpty(t *testing.T) {
	s := createTestStore(t)

	got, err := s.Events(context.Background(), "nope")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLatestRunID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.LatestRunID(ctx)
	require.ErrorIs(t, err, ErrNoRuns)

	_, err = s.AppendEvent(ctx, createTestEvent("run-1", "happy_path", "pass_a"))
	require.NoError(t, err)
	_, err = s.AppendEvent(ctx, createTestEvent("run-2", "happy_path", "pass_a"))
	require.NoError(t, err)

	id, err := s.LatestRunID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-2", id)
}

func TestHasRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	ok, err := s.HasRun(ctx, "nightly")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.AppendEvent(ctx, createTestEvent("nightly", "happy_path", "pass_a"))
	require.NoError(t, err)

	ok, err = s.HasRun(ctx, "nightly")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.HasRun(ctx, "nightly-2")
	require.NoError(t, err)
	assert.False(t, ok)
}
