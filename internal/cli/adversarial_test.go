package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/graphreplay/internal/adversarial"
	"github.com/roach88/graphreplay/internal/store"
)

const testTaxonomy = `schema_version: v1
packets:
  - packet_id: FNX-P2C-001
    validation_gate: graph_parse_gate
    threat_classes: [parser_abuse, resource_exhaustion]
`

func TestAdversarial_LedgerThenTriage(t *testing.T) {
	env := newCLIEnv(t)
	manifest := filepath.Join(env.dir, "taxonomy.yaml")
	writeFile(t, manifest, testTaxonomy)
	advOut := filepath.Join(env.dir, "adv")

	code, stdout := env.run(t, "adversarial", "ledger", "--manifest", manifest, "--output-dir", advOut)
	require.Equal(t, ExitSuccess, code, stdout)
	harnessReport := decode[adversarial.HarnessReport](t, stdout)
	assert.Equal(t, 2, harnessReport.EntryCount)

	var ledger adversarial.Ledger
	require.NoError(t, readJSON(filepath.Join(advOut, adversarial.SeedLedgerFileName), &ledger))
	assert.Equal(t,
		"adversarial-harness --packet FNX-P2C-001 --threat-class parser_abuse --seed 1351163162",
		ledger.Entries[0].ReplayCommand)

	code, stdout = env.run(t, "adversarial", "triage", "--output-dir", advOut)
	require.Equal(t, ExitSuccess, code, stdout)
	triage := decode[adversarial.TriageReport](t, stdout)
	assert.Equal(t, 2, triage.RecordCount)
	assert.Empty(t, triage.UnmatchedEvents)

	fb, err := adversarial.LoadFixtureBundle(filepath.Join(advOut, adversarial.FixtureBundleFileName))
	require.NoError(t, err)
	assert.Contains(t, fb.Fixtures, "regression-8a089c35fc53f2cb")

	ledgerDB, err := store.Open(filepath.Join(advOut, store.FileName))
	require.NoError(t, err)
	defer ledgerDB.Close()
	mirrored, err := ledgerDB.RegressionFixtures(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fb.Sorted(), mirrored)
}

func TestAdversarial_ToolFlagOverridesConfig(t *testing.T) {
	env := newCLIEnv(t)
	manifest := filepath.Join(env.dir, "taxonomy.yaml")
	writeFile(t, manifest, testTaxonomy)
	advOut := filepath.Join(env.dir, "adv")

	code, _ := env.run(t, "--config", env.configPath, "adversarial", "ledger",
		"--manifest", manifest, "--output-dir", advOut, "--adversarial-tool", "fuzzer")
	require.Equal(t, ExitSuccess, code)

	var ledger adversarial.Ledger
	require.NoError(t, readJSON(filepath.Join(advOut, adversarial.SeedLedgerFileName), &ledger))
	assert.Equal(t, "fuzzer --packet FNX-P2C-001 --threat-class parser_abuse --seed 1351163162",
		ledger.Entries[0].ReplayCommand)
}

func TestAdversarial_LedgerRequiresManifest(t *testing.T) {
	env := newCLIEnv(t)
	code, _ := env.run(t, "adversarial", "ledger", "--output-dir", env.out)
	assert.Equal(t, ExitCommandError, code)
}

func TestAdversarial_InvalidTaxonomy(t *testing.T) {
	env := newCLIEnv(t)
	manifest := filepath.Join(env.dir, "taxonomy.yaml")
	writeFile(t, manifest, "packets: []\n")

	code, stdout := env.run(t, "adversarial", "ledger", "--manifest", manifest, "--output-dir", env.out)

	assert.Equal(t, ExitCommandError, code)
	assert.Equal(t, ErrCodeConfig, decode[ErrorResponse](t, stdout).Code)
}

func TestAdversarial_TriageWithoutLedger(t *testing.T) {
	env := newCLIEnv(t)
	code, _ := env.run(t, "adversarial", "triage", "--output-dir", env.out)
	assert.Equal(t, ExitCommandError, code)
}
