package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/graphreplay/internal/adversarial"
	"github.com/roach88/graphreplay/internal/bundle"
	"github.com/roach88/graphreplay/internal/engine"
)

// ErrNoRuns is returned by LatestRunID on an empty ledger.
var ErrNoRuns = errors.New("run ledger has no events")

const eventColumns = `run_id, scenario_id, pass_label, mode, fixture_id, deterministic_seed, command,
	status, reason_code, start_ms, end_ms, duration_ms, bundle_id, stable_fingerprint,
	bundle_manifest_path, artifact_refs`

// Events returns the events of one run in insertion order.
// Returns an empty slice (not nil) if the run has no events.
func (s *Store) Events(ctx context.Context, runID string) ([]bundle.ExecutionEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM execution_events
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return collectEvents(rows)
}

// HasRun reports whether any event of runID is already in the ledger.
func (s *Store) HasRun(ctx context.Context, runID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM execution_events WHERE run_id = ?)`, runID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query run %s: %w", runID, err)
	}
	return exists, nil
}

// AllEvents returns every event in the ledger in insertion order.
func (s *Store) AllEvents(ctx context.Context) ([]bundle.ExecutionEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM execution_events
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return collectEvents(rows)
}

// LatestRunID returns the run_id of the most recently inserted event.
func (s *Store) LatestRunID(ctx context.Context) (string, error) {
	var runID string
	err := s.db.QueryRowContext(ctx, `
		SELECT run_id FROM execution_events ORDER BY seq DESC LIMIT 1
	`).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoRuns
	}
	if err != nil {
		return "", fmt.Errorf("latest run id: %w", err)
	}
	return runID, nil
}

// RegressionFixtures returns every fixture ordered by regression_fixture_id.
func (s *Store) RegressionFixtures(ctx context.Context) ([]adversarial.RegressionFixture, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT regression_fixture_id, fixture_hash_id, packet_id, threat_class, validation_gate,
			generator_variant, seed, expected_failure_mode, failure_classification,
			stack_signature, severity_tag, routing_policy, promotion_action, replay_command,
			triage_id, environment_fingerprint
		FROM regression_fixtures
		ORDER BY regression_fixture_id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query regression fixtures: %w", err)
	}
	defer rows.Close()

	fixtures := []adversarial.RegressionFixture{}
	for rows.Next() {
		var f adversarial.RegressionFixture
		if err := rows.Scan(
			&f.RegressionFixtureID,
			&f.FixtureHashID,
			&f.PacketID,
			&f.ThreatClass,
			&f.ValidationGate,
			&f.GeneratorVariant,
			&f.Seed,
			&f.ExpectedFailureMode,
			&f.FailureClassification,
			&f.StackSignature,
			&f.SeverityTag,
			&f.RoutingPolicy,
			&f.PromotionAction,
			&f.ReplayCommand,
			&f.TriageID,
			&f.EnvironmentFingerprint,
		); err != nil {
			return nil, fmt.Errorf("scan regression fixture: %w", err)
		}
		fixtures = append(fixtures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate regression fixtures: %w", err)
	}
	return fixtures, nil
}

func collectEvents(rows *sql.Rows) ([]bundle.ExecutionEvent, error) {
	defer rows.Close()

	events := []bundle.ExecutionEvent{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

func scanEvent(rows *sql.Rows) (bundle.ExecutionEvent, error) {
	var (
		e      bundle.ExecutionEvent
		status string
		reason string
		refs   string
	)
	if err := rows.Scan(
		&e.RunID,
		&e.ScenarioID,
		&e.PassLabel,
		&e.Mode,
		&e.FixtureID,
		&e.DeterministicSeed,
		&e.Command,
		&status,
		&reason,
		&e.StartMS,
		&e.EndMS,
		&e.DurationMS,
		&e.BundleID,
		&e.StableFingerprint,
		&e.BundleManifestPath,
		&refs,
	); err != nil {
		return bundle.ExecutionEvent{}, fmt.Errorf("scan event: %w", err)
	}
	e.Status = engine.Status(status)
	e.ReasonCode = engine.ReasonCode(reason)

	var err error
	if e.ArtifactRefs, err = unmarshalRefs(refs); err != nil {
		return bundle.ExecutionEvent{}, fmt.Errorf("event %s/%s: %w", e.ScenarioID, e.PassLabel, err)
	}
	return e, nil
}
