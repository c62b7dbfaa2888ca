package scenario

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrSeedMissing means the scenario matrix has no seed for a journey/mode
// pair. Callers must treat it as fatal: inventing a seed breaks replay.
var ErrSeedMissing = errors.New("deterministic seed missing from scenario matrix")

// SeedEntry is one row of the scenario-matrix artifact.
type SeedEntry struct {
	JourneyID         string `json:"journey_id"`
	Mode              string `json:"mode"`
	DeterministicSeed *int64 `json:"deterministic_seed"`
}

// SeedMatrix is the scenario-matrix artifact produced upstream.
type SeedMatrix struct {
	SchemaVersion string      `json:"schema_version"`
	Entries       []SeedEntry `json:"entries"`
}

type seedKey struct {
	journeyID string
	mode      string
}

// Resolver looks up deterministic seeds by (journey_id, mode).
type Resolver struct {
	seeds map[seedKey]int64
}

// NewResolver indexes a seed matrix. Entries without a seed are rejected;
// a duplicate pair with a conflicting seed is rejected too.
func NewResolver(matrix SeedMatrix) (*Resolver, error) {
	seeds := make(map[seedKey]int64, len(matrix.Entries))
	for i, entry := range matrix.Entries {
		if entry.JourneyID == "" || entry.Mode == "" {
			return nil, fmt.Errorf("entries[%d]: journey_id and mode are required", i)
		}
		if entry.DeterministicSeed == nil {
			return nil, fmt.Errorf("entries[%d]: deterministic_seed is required", i)
		}
		key := seedKey{journeyID: entry.JourneyID, mode: entry.Mode}
		if prev, ok := seeds[key]; ok && prev != *entry.DeterministicSeed {
			return nil, fmt.Errorf("entries[%d]: conflicting seed for %s/%s (%d != %d)",
				i, entry.JourneyID, entry.Mode, prev, *entry.DeterministicSeed)
		}
		seeds[key] = *entry.DeterministicSeed
	}
	return &Resolver{seeds: seeds}, nil
}

// LoadResolver reads the scenario-matrix JSON artifact at path.
func LoadResolver(path string) (*Resolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario matrix: %w", err)
	}
	var matrix SeedMatrix
	if err := json.Unmarshal(data, &matrix); err != nil {
		return nil, fmt.Errorf("failed to parse scenario matrix: %w", err)
	}
	resolver, err := NewResolver(matrix)
	if err != nil {
		return nil, fmt.Errorf("invalid scenario matrix %s: %w", path, err)
	}
	return resolver, nil
}

// Resolve returns the seed recorded for (journeyID, mode).
func (r *Resolver) Resolve(journeyID, mode string) (int64, error) {
	seed, ok := r.seeds[seedKey{journeyID: journeyID, mode: mode}]
	if !ok {
		return 0, fmt.Errorf("%w: journey=%s mode=%s", ErrSeedMissing, journeyID, mode)
	}
	return seed, nil
}

// ResolveAll resolves seeds for every spec before anything executes, so a
// missing pair aborts the run with no partial artifacts.
func (r *Resolver) ResolveAll(specs []ScenarioSpec) (map[string]int64, error) {
	seeds := make(map[string]int64, len(specs))
	for _, spec := range specs {
		seed, err := r.Resolve(spec.JourneyID, spec.Mode)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", spec.ScenarioID, err)
		}
		seeds[spec.ScenarioID] = seed
	}
	return seeds, nil
}
