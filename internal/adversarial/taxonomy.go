// Package adversarial turns a threat taxonomy into deterministic fuzz seeds
// and promotes crash findings into regression fixtures.
//
// The pipeline is independent of scenario replay and shares only the hashing
// conventions in package ir:
//
//	taxonomy manifest → seed ledger → harness events → triage → fixture bundle
//
// Every id along the way is a pure hash, so rerunning any stage over the same
// input overwrites its previous output instead of adding to it.
package adversarial

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Packet is one taxonomy entry: a validation gate and the threats aimed at it.
type Packet struct {
	PacketID       string   `yaml:"packet_id" json:"packet_id"`
	ValidationGate string   `yaml:"validation_gate" json:"validation_gate"`
	ThreatClasses  []string `yaml:"threat_classes" json:"threat_classes"`
}

// Taxonomy is the threat-taxonomy manifest.
type Taxonomy struct {
	SchemaVersion string   `yaml:"schema_version" json:"schema_version"`
	Packets       []Packet `yaml:"packets" json:"packets"`
}

// Validate checks required fields and duplicate packets.
func (t Taxonomy) Validate() error {
	if len(t.Packets) == 0 {
		return fmt.Errorf("taxonomy: at least one packet is required")
	}
	seen := make(map[string]bool, len(t.Packets))
	for i, p := range t.Packets {
		if p.PacketID == "" {
			return fmt.Errorf("taxonomy: packets[%d]: packet_id is required", i)
		}
		if seen[p.PacketID] {
			return fmt.Errorf("taxonomy: duplicate packet %q", p.PacketID)
		}
		seen[p.PacketID] = true
		if p.ValidationGate == "" {
			return fmt.Errorf("taxonomy: %s: validation_gate is required", p.PacketID)
		}
		if len(p.ThreatClasses) == 0 {
			return fmt.Errorf("taxonomy: %s: threat_classes must not be empty", p.PacketID)
		}
		for j, c := range p.ThreatClasses {
			if c == "" {
				return fmt.Errorf("taxonomy: %s: threat_classes[%d] is empty", p.PacketID, j)
			}
		}
	}
	return nil
}

// ParseTaxonomy decodes a YAML or JSON manifest. Unknown fields are rejected.
func ParseTaxonomy(data []byte) (Taxonomy, error) {
	var t Taxonomy
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return Taxonomy{}, fmt.Errorf("parse taxonomy: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Taxonomy{}, err
	}
	return t, nil
}

// LoadTaxonomy reads a manifest file.
func LoadTaxonomy(path string) (Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Taxonomy{}, fmt.Errorf("read taxonomy: %w", err)
	}
	t, err := ParseTaxonomy(data)
	if err != nil {
		return Taxonomy{}, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
