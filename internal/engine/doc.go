// Package engine runs the external conformance binary for one scenario.
//
// ARCHITECTURE:
//
// Strictly sequential, single goroutine. The only suspension points are the
// blocking subprocess waits. Nothing here spawns two cycles at once.
//
// Per scenario/pass the SoakController drives a small state machine:
//
//	idle → cycle_running → cycle_passed → next cycle ...
//	                     ↘ cycle_failed → aborted
//
// Non-soak scenarios run exactly one cycle. A failing cycle aborts the
// remaining cycles immediately: no partial credit.
//
// CRITICAL PATTERNS:
//
// Argument Vectors:
// The conformance binary is exec'd with an explicit argv. The space-joined
// command string exists only for logs and manifests, never as a shell input.
//
// Required Timeout:
// ExecRunner has no default timeout. A cycle that exceeds it fails with
// reason_code "timeout".
//
// Synthetic Telemetry:
// Soak checkpoints are pure functions of (scenario_id, seed, interval,
// cycle_index). They never read real process metrics, so two passes produce
// identical checkpoint ids.
package engine
