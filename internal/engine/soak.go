package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/graphreplay/internal/logging"
	"github.com/roach88/graphreplay/internal/scenario"
)

// CycleState is a state of the per-scenario cycle machine.
type CycleState string

const (
	StateIdle         CycleState = "idle"
	StateCycleRunning CycleState = "cycle_running"
	StateCyclePassed  CycleState = "cycle_passed"
	StateCycleFailed  CycleState = "cycle_failed"
	StateAborted      CycleState = "aborted"
	StateCompleted    CycleState = "completed"
)

// SoakOptions configures soak-class scenarios. Non-soak scenarios ignore it.
type SoakOptions struct {
	Cycles               int
	CheckpointIntervalMS int64
}

// Validate rejects non-positive cycle counts and intervals.
func (o SoakOptions) Validate() error {
	if o.Cycles < 1 {
		return fmt.Errorf("soak cycles must be >= 1, got %d", o.Cycles)
	}
	if o.CheckpointIntervalMS < 1 {
		return fmt.Errorf("soak checkpoint interval must be >= 1ms, got %d", o.CheckpointIntervalMS)
	}
	return nil
}

// Execution is the result of one cycle set for one scenario/pass.
type Execution struct {
	Spec           scenario.ScenarioSpec
	Seed           int64
	Argv           []string
	Command        string
	TargetCycles   int
	RealizedCycles int
	Cycles         []CycleResult
	Checkpoints    []SoakHealthCheckpoint // soak scenarios only
	IntervalMS     int64

	// FirstFailingCycle is 0 when every cycle passed.
	FirstFailingCycle int

	State     CycleState
	Status    Status
	Reason    ReasonCode
	StartedAt time.Time
	EndedAt   time.Time
}

// ExitCode returns the exit code of the last attempted cycle, or -1 when
// nothing ran.
func (x *Execution) ExitCode() int {
	if len(x.Cycles) == 0 {
		return -1
	}
	return x.Cycles[len(x.Cycles)-1].Result.ExitCode
}

// Passed reports whether every target cycle passed.
func (x *Execution) Passed() bool {
	return x.Status == StatusPassed
}

// Err returns a ScenarioError describing the failure, or nil on success.
func (x *Execution) Err() error {
	if x.Passed() {
		return nil
	}
	details := map[string]string{
		"realized_cycle_count": fmt.Sprint(x.RealizedCycles),
		"target_cycle_count":   fmt.Sprint(x.TargetCycles),
	}
	return &ScenarioError{
		Reason:     x.Reason,
		Message:    fmt.Sprintf("cycle %d failed", x.FirstFailingCycle),
		ScenarioID: x.Spec.ScenarioID,
		Details:    details,
	}
}

// SoakController repeats Executor cycles for one scenario, failing fast.
type SoakController struct {
	executor *Executor
	soak     SoakOptions
	logger   *slog.Logger
}

// NewSoakController creates a controller.
func NewSoakController(executor *Executor, soak SoakOptions, logger *slog.Logger) (*SoakController, error) {
	if executor == nil {
		return nil, errors.New("executor is required")
	}
	if err := soak.Validate(); err != nil {
		return nil, err
	}
	return &SoakController{
		executor: executor,
		soak:     soak,
		logger:   logging.OrDiscard(logger),
	}, nil
}

// TargetCycles returns how many cycles spec runs: 1 unless it is a soak.
func (c *SoakController) TargetCycles(spec scenario.ScenarioSpec) int {
	if spec.IsSoak() {
		return c.soak.Cycles
	}
	return 1
}

// Run drives the cycle state machine for spec until every target cycle
// passes or one fails. The returned error is non-nil only when ctx is
// cancelled; scenario failures are reported through Execution.Status.
func (c *SoakController) Run(ctx context.Context, spec scenario.ScenarioSpec, seed int64) (*Execution, error) {
	argv := c.executor.Argv(spec.FixtureID, spec.Mode)
	x := &Execution{
		Spec:         spec,
		Seed:         seed,
		Argv:         argv,
		Command:      DisplayCommand(argv),
		TargetCycles: c.TargetCycles(spec),
		State:        StateIdle,
	}
	if spec.IsSoak() {
		x.IntervalMS = c.soak.CheckpointIntervalMS
	}

	for i := 1; i <= x.TargetCycles; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("scenario %s cycle %d: %w", spec.ScenarioID, i, err)
		}

		x.transition(StateCycleRunning)
		cycle := c.executor.RunCycle(ctx, spec, i)
		x.Cycles = append(x.Cycles, cycle)
		x.RealizedCycles = i
		if i == 1 {
			x.StartedAt = cycle.Result.StartedAt
		}
		x.EndedAt = cycle.Result.EndedAt

		ok := cycle.Result.Succeeded()
		if spec.IsSoak() {
			x.Checkpoints = append(x.Checkpoints,
				NewCheckpoint(spec.ScenarioID, seed, c.soak.CheckpointIntervalMS, i, ok))
		}

		if !ok {
			// A cancelled parent looks like a killed process; report it as such.
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("scenario %s cycle %d: %w", spec.ScenarioID, i, err)
			}
			x.transition(StateCycleFailed)
			x.FirstFailingCycle = i
			x.Reason = cycle.Result.Reason()
			x.Status = StatusFailed
			x.transition(StateAborted)
			c.logger.Warn("cycle failed, aborting remaining cycles",
				"scenario_id", spec.ScenarioID,
				"cycle", i,
				"target_cycle_count", x.TargetCycles,
				"reason_code", x.Reason)
			return x, nil
		}
		x.transition(StateCyclePassed)
	}

	x.Status = StatusPassed
	x.transition(StateCompleted)
	return x, nil
}

func (x *Execution) transition(to CycleState) {
	x.State = to
}
