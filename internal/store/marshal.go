package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/graphreplay/internal/ir"
)

// marshalRefs converts artifact refs to canonical JSON TEXT for storage.
func marshalRefs(refs []string) (string, error) {
	if refs == nil {
		refs = []string{}
	}
	data, err := ir.Canonicalize(refs)
	if err != nil {
		return "", fmt.Errorf("marshal artifact refs: %w", err)
	}
	return string(data), nil
}

// unmarshalRefs parses stored artifact refs. Empty input yields an empty,
// non-nil slice.
func unmarshalRefs(data string) ([]string, error) {
	refs := []string{}
	if data == "" {
		return refs, nil
	}
	if err := json.Unmarshal([]byte(data), &refs); err != nil {
		return nil, fmt.Errorf("unmarshal artifact refs: %w", err)
	}
	return refs, nil
}
