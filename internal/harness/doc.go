// Package harness orchestrates a conformance run.
//
// A run executes the selected scenarios once per pass, outer loop over pass
// labels (pass_a, pass_b, ...) and inner loop over scenarios in catalog
// order:
//
//	resolve seeds → [clear output] → for pass: for scenario:
//	    soak controller → forensics linker → bundle builder → event log + ledger
//	→ determinism verifier (passes ≥ 2)
//
// # Failure Handling
//
// Configuration problems (unknown scenario, missing seed) are returned as
// errors before anything is executed or written. A scenario that fails is
// recorded as a failed event and stops the remaining matrix; it is not an
// error. Every outcome ends with run_summary.json on disk.
//
// # Determinism
//
// Wall-clock time and run ids are recorded but never hashed. With a fixed
// seed matrix, two passes over the same scenarios produce identical bundle
// ids and stable fingerprints; the verifier checks exactly that.
package harness
