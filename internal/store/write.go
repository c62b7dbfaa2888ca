package store

import (
	"context"
	"fmt"

	"github.com/roach88/graphreplay/internal/adversarial"
	"github.com/roach88/graphreplay/internal/bundle"
)

// AppendEvent inserts an execution event. Returns inserted=false when an
// event for the same (run_id, scenario_id, pass_label) already exists; the
// stored row is never rewritten.
func (s *Store) AppendEvent(ctx context.Context, e bundle.ExecutionEvent) (inserted bool, err error) {
	if err := bundle.ValidateEvent(e); err != nil {
		return false, fmt.Errorf("append event: %w", err)
	}
	refs, err := marshalRefs(e.ArtifactRefs)
	if err != nil {
		return false, fmt.Errorf("append event: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO execution_events
		(run_id, scenario_id, pass_label, mode, fixture_id, deterministic_seed, command,
		 status, reason_code, start_ms, end_ms, duration_ms, bundle_id, stable_fingerprint,
		 bundle_manifest_path, artifact_refs)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, scenario_id, pass_label) DO NOTHING
	`,
		e.RunID,
		e.ScenarioID,
		e.PassLabel,
		e.Mode,
		e.FixtureID,
		e.DeterministicSeed,
		e.Command,
		string(e.Status),
		string(e.ReasonCode),
		e.StartMS,
		e.EndMS,
		e.DurationMS,
		e.BundleID,
		e.StableFingerprint,
		e.BundleManifestPath,
		refs,
	)
	if err != nil {
		return false, fmt.Errorf("append event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("append event: rows affected: %w", err)
	}
	return n > 0, nil
}

// UpsertRegressionFixtures writes fixtures in one transaction, replacing any
// row with the same regression_fixture_id.
func (s *Store) UpsertRegressionFixtures(ctx context.Context, fixtures []adversarial.RegressionFixture) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("upsert regression fixtures: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO regression_fixtures
		(regression_fixture_id, fixture_hash_id, packet_id, threat_class, validation_gate,
		 generator_variant, seed, expected_failure_mode, failure_classification,
		 stack_signature, severity_tag, routing_policy, promotion_action, replay_command,
		 triage_id, environment_fingerprint)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(regression_fixture_id) DO UPDATE SET
			fixture_hash_id = excluded.fixture_hash_id,
			packet_id = excluded.packet_id,
			threat_class = excluded.threat_class,
			validation_gate = excluded.validation_gate,
			generator_variant = excluded.generator_variant,
			seed = excluded.seed,
			expected_failure_mode = excluded.expected_failure_mode,
			failure_classification = excluded.failure_classification,
			stack_signature = excluded.stack_signature,
			severity_tag = excluded.severity_tag,
			routing_policy = excluded.routing_policy,
			promotion_action = excluded.promotion_action,
			replay_command = excluded.replay_command,
			triage_id = excluded.triage_id,
			environment_fingerprint = excluded.environment_fingerprint
	`)
	if err != nil {
		return fmt.Errorf("upsert regression fixtures: prepare: %w", err)
	}
	defer stmt.Close()

	for _, f := range fixtures {
		if f.RegressionFixtureID == "" {
			return fmt.Errorf("upsert regression fixtures: regression_fixture_id is required")
		}
		if _, err := stmt.ExecContext(ctx,
			f.RegressionFixtureID,
			f.FixtureHashID,
			f.PacketID,
			f.ThreatClass,
			f.ValidationGate,
			f.GeneratorVariant,
			f.Seed,
			f.ExpectedFailureMode,
			f.FailureClassification,
			f.StackSignature,
			f.SeverityTag,
			f.RoutingPolicy,
			f.PromotionAction,
			f.ReplayCommand,
			f.TriageID,
			f.EnvironmentFingerprint,
		); err != nil {
			return fmt.Errorf("upsert regression fixture %s: %w", f.RegressionFixtureID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("upsert regression fixtures: commit: %w", err)
	}
	return nil
}
