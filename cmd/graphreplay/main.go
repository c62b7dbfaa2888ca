// graphreplay runs conformance scenarios across labeled passes, verifies
// they are bit-for-bit reproducible, replays single bundle manifests, and
// promotes adversarial findings into regression fixtures.
//
// Usage:
//
//	graphreplay --config harness.yaml --output-dir out [--scenario all] [--passes 2]
//	graphreplay --config harness.yaml --output-dir out --replay-manifest <manifest>
//	graphreplay verify --output-dir out [--events out/scenario_events.jsonl]
//	graphreplay adversarial ledger --manifest taxonomy.yaml --output-dir out/adv
//	graphreplay adversarial triage --output-dir out/adv
package main

import (
	"context"
	"os"

	"github.com/roach88/graphreplay/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background(), cli.NewRootCommand()))
}
