package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CommandResult captures one synchronous subprocess execution.
type CommandResult struct {
	Argv      []string
	ExitCode  int // -1 when the process never exited normally
	Stdout    string
	Stderr    string
	StartedAt time.Time
	EndedAt   time.Time
	TimedOut  bool
	Err       error // spawn/wait error other than a non-zero exit
}

// Succeeded reports a zero exit within the timeout.
func (r CommandResult) Succeeded() bool {
	return r.Err == nil && !r.TimedOut && r.ExitCode == 0
}

// Reason classifies a failed result. Returns "" on success.
func (r CommandResult) Reason() ReasonCode {
	switch {
	case r.TimedOut:
		return ReasonTimeout
	case r.Err != nil:
		return ReasonSpawnFailed
	case r.ExitCode != 0:
		return ReasonCommandFailed
	default:
		return ""
	}
}

// Runner executes an argument vector synchronously.
//
// Implementations must block until the process exits (or times out) and
// must never interpret argv through a shell.
type Runner interface {
	Run(ctx context.Context, argv []string) CommandResult
}

// ExecRunner runs commands with os/exec and a per-command timeout.
type ExecRunner struct {
	timeout time.Duration
	clock   Clock
	env     []string
}

// NewExecRunner creates a runner. The timeout is required: there is no
// sensible default for how long a fixture may take.
func NewExecRunner(timeout time.Duration, clock Clock) (*ExecRunner, error) {
	if timeout <= 0 {
		return nil, fmt.Errorf("cycle timeout is required and must be positive, got %s", timeout)
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &ExecRunner{timeout: timeout, clock: clock}, nil
}

// WithEnv appends environment entries (KEY=VALUE) passed to every command
// on top of the inherited environment.
func (r *ExecRunner) WithEnv(env ...string) *ExecRunner {
	r.env = append(r.env, env...)
	return r
}

// Timeout returns the configured per-command timeout.
func (r *ExecRunner) Timeout() time.Duration {
	return r.timeout
}

// Run executes argv and waits for it.
func (r *ExecRunner) Run(ctx context.Context, argv []string) CommandResult {
	result := CommandResult{
		Argv:      append([]string(nil), argv...),
		ExitCode:  -1,
		StartedAt: r.clock.Now(),
	}
	if len(argv) == 0 {
		result.EndedAt = result.StartedAt
		result.Err = errors.New("empty argument vector")
		return result
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second
	if len(r.env) > 0 {
		cmd.Env = append(cmd.Environ(), r.env...)
	}

	err := cmd.Run()
	result.EndedAt = r.clock.Now()
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		result.TimedOut = true
		return result
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		result.ExitCode = 0
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		result.Err = err
	}
	return result
}

// BuildArgv derives the conformance binary invocation for a fixture/mode pair:
// <tool...> --fixture <fixture_id> --mode <mode>.
func BuildArgv(tool []string, fixtureID, mode string) []string {
	argv := make([]string, 0, len(tool)+4)
	argv = append(argv, tool...)
	return append(argv, "--fixture", fixtureID, "--mode", mode)
}

// DisplayCommand renders argv for logs and manifests. Display only: it is
// never passed to a shell.
func DisplayCommand(argv []string) string {
	return strings.Join(argv, " ")
}
