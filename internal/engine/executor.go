package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/roach88/graphreplay/internal/logging"
	"github.com/roach88/graphreplay/internal/scenario"
)

// Status is the outcome of a cycle set or replay.
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
)

// CycleResult is one attempted cycle.
type CycleResult struct {
	Index  int // 1-based
	Result CommandResult
}

// Executor runs the conformance binary once per call.
//
// Executor owns the argv prefix of the conformance binary; callers only
// supply the scenario. It has no notion of cycles or soak profiles.
type Executor struct {
	runner Runner
	tool   []string
	logger *slog.Logger
}

// NewExecutor creates an Executor. tool is the argv prefix of the
// conformance binary (binary path plus any fixed arguments).
func NewExecutor(runner Runner, tool []string, logger *slog.Logger) (*Executor, error) {
	if runner == nil {
		return nil, errors.New("runner is required")
	}
	if len(tool) == 0 || tool[0] == "" {
		return nil, errors.New("conformance tool argv is required")
	}
	return &Executor{
		runner: runner,
		tool:   append([]string(nil), tool...),
		logger: logging.OrDiscard(logger),
	}, nil
}

// Argv returns the invocation for a fixture/mode pair.
func (e *Executor) Argv(fixtureID, mode string) []string {
	return BuildArgv(e.tool, fixtureID, mode)
}

// ReplayCommand returns the display form of the scenario's invocation.
func (e *Executor) ReplayCommand(spec scenario.ScenarioSpec) string {
	return DisplayCommand(e.Argv(spec.FixtureID, spec.Mode))
}

// RunCycle executes one cycle for spec and blocks until it finishes.
func (e *Executor) RunCycle(ctx context.Context, spec scenario.ScenarioSpec, index int) CycleResult {
	argv := e.Argv(spec.FixtureID, spec.Mode)
	e.logger.Debug("cycle starting",
		"scenario_id", spec.ScenarioID,
		"cycle", index,
		"command", DisplayCommand(argv))

	res := e.runner.Run(ctx, argv)

	e.logger.Debug("cycle finished",
		"scenario_id", spec.ScenarioID,
		"cycle", index,
		"exit_code", res.ExitCode,
		"timed_out", res.TimedOut,
		"duration_ms", res.EndedAt.Sub(res.StartedAt).Milliseconds())
	return CycleResult{Index: index, Result: res}
}
