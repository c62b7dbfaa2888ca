package replay

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/roach88/graphreplay/internal/bundle"
	"github.com/roach88/graphreplay/internal/forensics"
	"github.com/roach88/graphreplay/internal/scenario"
)

// requiredKeys are the top-level manifest keys replay depends on.
var requiredKeys = []string{
	"schema_version",
	"bundle_id",
	"stable_fingerprint",
	"scenario_id",
	"mode",
	"fixture_id",
	"deterministic_seed",
	"replay_command",
	"execution_metadata",
	"forensics_links",
}

// ValidateShape checks a raw manifest before anything is executed.
// It returns the decoded manifest and a diagnostic per defect; the manifest
// is only usable when the diagnostics are empty.
func ValidateShape(data []byte) (*bundle.Manifest, []string) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, []string{fmt.Sprintf("manifest is not a JSON object: %v", err)}
	}

	var diags []string
	for _, k := range requiredKeys {
		if _, ok := raw[k]; !ok {
			diags = append(diags, "missing key: "+k)
		}
	}

	for _, k := range []string{"replay_command", "fixture_id", "scenario_id", "bundle_id"} {
		if v, ok := raw[k]; ok && !nonEmptyString(v) {
			diags = append(diags, k+" must be a non-empty string")
		}
	}
	if v, ok := raw["mode"]; ok {
		if s, _ := v.(string); s != scenario.ModeStrict && s != scenario.ModeHardened {
			diags = append(diags, fmt.Sprintf("mode must be %q or %q", scenario.ModeStrict, scenario.ModeHardened))
		}
	}
	if v, ok := raw["execution_metadata"]; ok {
		if _, isObj := v.(map[string]any); !isObj {
			diags = append(diags, "execution_metadata must be an object")
		}
	}
	if v, ok := raw["forensics_links"]; ok {
		links, isObj := v.(map[string]any)
		if !isObj {
			diags = append(diags, "forensics_links must be an object")
		} else {
			for _, k := range forensics.RequiredKeys() {
				if !nonEmptyString(links[k]) {
					diags = append(diags, "forensics_links."+k+" must be a non-empty string")
				}
			}
		}
	}

	if len(diags) > 0 {
		return nil, diags
	}

	var m bundle.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, []string{fmt.Sprintf("manifest fields have unexpected types: %v", err)}
	}
	return &m, nil
}

// unknownKeys lists top-level keys the current manifest type does not know,
// sorted. They are reported but never fatal.
func unknownKeys(data []byte) []string {
	var raw map[string]json.RawMessage
	if json.Unmarshal(data, &raw) != nil {
		return nil
	}
	known := map[string]bool{
		"packet_id": true, "scenario_kind": true, "journey_id": true,
		"soak_profile": true, "soak_threat_class": true, "artifact_refs": true,
		"soak_telemetry": true,
	}
	for _, k := range requiredKeys {
		known[k] = true
	}
	var out []string
	for k := range raw {
		if !known[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func nonEmptyString(v any) bool {
	s, ok := v.(string)
	return ok && s != ""
}
