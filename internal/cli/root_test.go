package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "graphreplay", cmd.Use)
	assert.Contains(t, cmd.Long, "Exit codes")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()

	for _, path := range [][]string{
		{"verify"},
		{"adversarial"},
		{"adversarial", "ledger"},
		{"adversarial", "triage"},
	} {
		sub, _, err := cmd.Find(path)
		require.NoError(t, err, "command %v should exist", path)
		assert.Equal(t, path[len(path)-1], sub.Name())
	}
}

func TestRootFlagDefaults(t *testing.T) {
	cmd := NewRootCommand()

	tests := map[string]string{
		"scenario":                    "all",
		"passes":                      "2",
		"output-dir":                  "",
		"clear-output":                "false",
		"replay-manifest":             "",
		"soak-cycles":                 "3",
		"soak-checkpoint-interval-ms": "1000",
		"run-id":                      "",
	}
	for name, def := range tests {
		flag := cmd.Flags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, def, flag.DefValue, name)
	}

	for name, def := range map[string]string{
		"config":        "",
		"cycle-timeout": "0s",
		"log-level":     "info",
		"log-format":    "text",
	} {
		flag := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, def, flag.DefValue, name)
	}
}

func TestVerifyCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	verifyCmd, _, err := cmd.Find([]string{"verify"})
	require.NoError(t, err)

	for _, name := range []string{"events", "output-dir", "run-id", "scenario"} {
		assert.NotNil(t, verifyCmd.Flags().Lookup(name), name)
	}
}

func TestAdversarialLedgerFlags(t *testing.T) {
	cmd := NewRootCommand()
	ledgerCmd, _, err := cmd.Find([]string{"adversarial", "ledger"})
	require.NoError(t, err)

	assert.NotNil(t, ledgerCmd.Flags().Lookup("manifest"))
	assert.NotNil(t, ledgerCmd.InheritedFlags().Lookup("output-dir"))
	assert.NotNil(t, ledgerCmd.InheritedFlags().Lookup("adversarial-tool"))
}

func TestRoot_InvalidLogFormat(t *testing.T) {
	env := newCLIEnv(t)
	code, stdout := env.run(t, "--config", env.configPath, "--output-dir", env.out, "--log-format", "xml")

	assert.Equal(t, ExitCommandError, code)
	resp := decode[ErrorResponse](t, stdout)
	assert.Equal(t, ErrCodeConfig, resp.Code)
	assert.Contains(t, resp.Error, "invalid log format")
}

func TestRoot_InvalidLogLevel(t *testing.T) {
	env := newCLIEnv(t)
	code, _ := env.run(t, "--config", env.configPath, "--output-dir", env.out, "--log-level", "loud")
	assert.Equal(t, ExitCommandError, code)
}

func TestRoot_MissingConfig(t *testing.T) {
	env := newCLIEnv(t)
	code, stdout := env.run(t, "--output-dir", env.out)

	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, decode[ErrorResponse](t, stdout).Error, "--config is required")
	assert.NoDirExists(t, env.out)
}

func TestRoot_MissingOutputDir(t *testing.T) {
	env := newCLIEnv(t)
	code, _ := env.run(t, "--config", env.configPath)
	assert.Equal(t, ExitCommandError, code)
}

func TestIsValidLogFormat(t *testing.T) {
	assert.True(t, isValidLogFormat("text"))
	assert.True(t, isValidLogFormat("json"))
	assert.False(t, isValidLogFormat("yaml"))
}
