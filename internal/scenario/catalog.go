package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SelectAll selects every scenario in catalog order.
const SelectAll = "all"

// ErrUnknownScenario is returned by Select for an id not in the catalog.
var ErrUnknownScenario = errors.New("unknown scenario")

// Catalog is an ordered, immutable table of scenarios.
// Order matters: scenarios always execute in catalog order.
type Catalog struct {
	specs []ScenarioSpec
}

// catalogFile is the YAML shape of a catalog override.
type catalogFile struct {
	Scenarios []ScenarioSpec `yaml:"scenarios"`
}

// DefaultCatalog returns the built-in scenario table.
func DefaultCatalog() Catalog {
	return Catalog{specs: []ScenarioSpec{
		{
			ScenarioID:   "happy_path",
			ScenarioKind: KindGoldenJourney,
			JourneyID:    "J-GRAPH-CORE",
			Mode:         ModeStrict,
			FixtureID:    "graph_core_shortest_path_strict.json",
			PacketID:     "FNX-P2C-001",
		},
		{
			ScenarioID:   "hardened_path",
			ScenarioKind: KindGoldenJourney,
			JourneyID:    "J-GRAPH-CORE",
			Mode:         ModeHardened,
			FixtureID:    "graph_core_shortest_path_hardened.json",
			PacketID:     "FNX-P2C-001",
		},
		{
			ScenarioID:   "legacy_tie_break",
			ScenarioKind: KindCompatAmbiguity,
			JourneyID:    "J-TIE-BREAK",
			Mode:         ModeStrict,
			FixtureID:    "graph_tie_break_ordering_strict.json",
			PacketID:     "FNX-P2C-004",
		},
		{
			ScenarioID:      "soak_long_run",
			ScenarioKind:    KindSoak,
			JourneyID:       "J-SOAK",
			Mode:            ModeHardened,
			FixtureID:       "graph_core_shortest_path_hardened.json",
			PacketID:        "FNX-P2C-001",
			SoakProfile:     "long_run",
			SoakThreatClass: "resource_exhaustion",
		},
	}}
}

// NewCatalog builds a catalog from specs, validating each and rejecting
// duplicate ids. The slice is copied.
func NewCatalog(specs []ScenarioSpec) (Catalog, error) {
	if len(specs) == 0 {
		return Catalog{}, fmt.Errorf("catalog must contain at least one scenario")
	}
	seen := make(map[string]bool, len(specs))
	for i, spec := range specs {
		if err := spec.Validate(); err != nil {
			return Catalog{}, fmt.Errorf("scenarios[%d]: %w", i, err)
		}
		if seen[spec.ScenarioID] {
			return Catalog{}, fmt.Errorf("scenarios[%d]: duplicate scenario_id %q", i, spec.ScenarioID)
		}
		seen[spec.ScenarioID] = true
	}
	return Catalog{specs: append([]ScenarioSpec(nil), specs...)}, nil
}

// LoadCatalog reads a YAML catalog. Unknown fields are rejected so typos
// surface as errors instead of silently dropped settings.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var file catalogFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return Catalog{}, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}

	catalog, err := NewCatalog(file.Scenarios)
	if err != nil {
		return Catalog{}, fmt.Errorf("invalid catalog: %w", err)
	}
	return catalog, nil
}

// Specs returns a copy of all scenarios in catalog order.
func (c Catalog) Specs() []ScenarioSpec {
	return append([]ScenarioSpec(nil), c.specs...)
}

// Lookup finds a scenario by id.
func (c Catalog) Lookup(id string) (ScenarioSpec, bool) {
	for _, spec := range c.specs {
		if spec.ScenarioID == id {
			return spec, true
		}
	}
	return ScenarioSpec{}, false
}

// Select returns the scenarios named by selector: SelectAll or a single id.
func (c Catalog) Select(selector string) ([]ScenarioSpec, error) {
	if selector == "" || selector == SelectAll {
		return c.Specs(), nil
	}
	spec, ok := c.Lookup(selector)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScenario, selector)
	}
	return []ScenarioSpec{spec}, nil
}

// IDs returns scenario ids in catalog order.
func (c Catalog) IDs() []string {
	ids := make([]string, len(c.specs))
	for i, spec := range c.specs {
		ids[i] = spec.ScenarioID
	}
	return ids
}
