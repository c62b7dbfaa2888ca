package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/graphreplay/internal/ir"
)

// AssertGolden compares the canonical JSON of v against
// testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Canonical JSON keeps the comparison independent of struct field order.
func AssertGolden(t *testing.T, name string, v any) {
	t.Helper()

	data, err := ir.Canonicalize(v)
	if err != nil {
		t.Fatalf("canonicalize %s: %v", name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}
