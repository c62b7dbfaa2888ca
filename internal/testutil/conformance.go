package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/roach88/graphreplay/internal/engine"
	"github.com/roach88/graphreplay/internal/ir"
)

// RowBehavior controls what FakeConformance writes to the structured log.
type RowBehavior int

const (
	// RowComplete writes a row with all four forensics links.
	RowComplete RowBehavior = iota
	// RowNone writes nothing.
	RowNone
	// RowMissingReplayRef omits forensics_bundle_index.replay_ref.
	RowMissingReplayRef
	// RowDrifted writes links that differ on every call.
	RowDrifted
)

// FakeConformance stands in for the conformance binary.
//
// It understands "--fixture <id> --mode <mode>", appends a structured-log
// row to LogPath and returns the configured exit code. Links are pure
// functions of (fixture, mode), so repeated calls agree unless RowDrifted
// is set.
//
// Implements engine.Runner.
type FakeConformance struct {
	LogPath string
	Clock   engine.Clock

	mu        sync.Mutex
	exitCodes map[string][]int // fixture -> per-call exit codes
	rows      map[string]RowBehavior
	timeouts  map[string]bool
	calls     [][]string
	perCall   map[string]int
}

// NewFakeConformance creates a fake that logs to logPath.
func NewFakeConformance(logPath string, clock engine.Clock) *FakeConformance {
	if clock == nil {
		clock = NewDeterministicClock(250 * time.Millisecond)
	}
	return &FakeConformance{
		LogPath:   logPath,
		Clock:     clock,
		exitCodes: make(map[string][]int),
		rows:      make(map[string]RowBehavior),
		timeouts:  make(map[string]bool),
		perCall:   make(map[string]int),
	}
}

// FailOn scripts exit codes for successive calls with fixture. Calls past
// the script exit 0.
func (f *FakeConformance) FailOn(fixture string, codes ...int) *FakeConformance {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exitCodes[fixture] = codes
	return f
}

// TimeoutOn makes every call for fixture time out.
func (f *FakeConformance) TimeoutOn(fixture string) *FakeConformance {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timeouts[fixture] = true
	return f
}

// Rows sets the structured-log behavior for fixture.
func (f *FakeConformance) Rows(fixture string, b RowBehavior) *FakeConformance {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[fixture] = b
	return f
}

// Calls returns a copy of every argv received.
func (f *FakeConformance) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// ExpectedLinks returns the links a complete row carries for (fixture, mode).
func ExpectedLinks(fixture, mode string) (hashID, bundleID, bundleHashID, replayRef string) {
	h := ir.Hex(ir.HashParts("fake-conformance", fixture, mode))
	return "log-" + h, "fb-" + h, "bh-" + h, "replay://" + fixture + "/" + mode
}

// Run implements engine.Runner.
func (f *FakeConformance) Run(ctx context.Context, argv []string) engine.CommandResult {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, append([]string(nil), argv...))
	res := engine.CommandResult{Argv: argv, ExitCode: -1, StartedAt: f.Clock.Now()}

	fixture, mode, err := parseArgs(argv)
	if err != nil {
		res.Err = err
		res.EndedAt = f.Clock.Now()
		return res
	}
	if f.timeouts[fixture] {
		res.TimedOut = true
		res.EndedAt = f.Clock.Now()
		return res
	}

	n := f.perCall[fixture]
	f.perCall[fixture] = n + 1
	code := 0
	if script := f.exitCodes[fixture]; n < len(script) {
		code = script[n]
	}
	res.ExitCode = code
	res.Stdout = fmt.Sprintf("fixture=%s mode=%s exit=%d\n", fixture, mode, code)

	if code == 0 {
		if err := f.appendRow(fixture, mode, n); err != nil {
			res.Err = err
			res.ExitCode = -1
		}
	}
	res.EndedAt = f.Clock.Now()
	return res
}

func (f *FakeConformance) appendRow(fixture, mode string, call int) error {
	behavior := f.rows[fixture]
	if behavior == RowNone {
		return nil
	}
	hashID, bundleID, bundleHash, replayRef := ExpectedLinks(fixture, mode)
	index := map[string]string{"bundle_hash_id": bundleHash, "replay_ref": replayRef}
	switch behavior {
	case RowMissingReplayRef:
		delete(index, "replay_ref")
	case RowDrifted:
		hashID = fmt.Sprintf("%s-%d", hashID, call)
	}
	row := map[string]any{
		"hash_id":                hashID,
		"forensic_bundle_id":     bundleID,
		"fixture_id":             fixture,
		"mode":                   mode,
		"forensics_bundle_index": index,
	}
	data, err := json.Marshal(row)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.LogPath), 0o755); err != nil {
		return err
	}
	fh, err := os.OpenFile(f.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer fh.Close()
	_, err = fh.Write(append(data, '\n'))
	return err
}

func parseArgs(argv []string) (fixture, mode string, err error) {
	for i := 0; i < len(argv)-1; i++ {
		switch argv[i] {
		case "--fixture":
			fixture = argv[i+1]
		case "--mode":
			mode = argv[i+1]
		}
	}
	if fixture == "" || mode == "" {
		return "", "", fmt.Errorf("fake conformance: missing --fixture or --mode in %v", argv)
	}
	return fixture, mode, nil
}
