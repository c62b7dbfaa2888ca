// Package forensics ties a scenario execution to the conformance binary's
// structured log.
//
// The binary appends one JSON row per execution to a shared JSONL stream.
// Rows are keyed by (fixture_id, mode). The stream is append-only, so when
// several rows match, the last one belongs to the latest execution and wins.
//
// A passing exit code is never enough: the matched row must carry all four
// forensics links, and may additionally be checked against a supplied CUE
// schema.
package forensics

// Link keys in canonical order. Missing-field reason codes list them in this
// order.
const (
	KeyStructuredLogHashID      = "structured_log_hash_id"
	KeyForensicBundleID         = "forensic_bundle_id"
	KeyForensicsBundleHashID    = "forensics_bundle_hash_id"
	KeyForensicsBundleReplayRef = "forensics_bundle_replay_ref"
)

// RequiredKeys returns the four link keys in canonical order.
func RequiredKeys() []string {
	return []string{
		KeyStructuredLogHashID,
		KeyForensicBundleID,
		KeyForensicsBundleHashID,
		KeyForensicsBundleReplayRef,
	}
}

// Links are the cross-references from an execution to its structured-log row.
type Links struct {
	StructuredLogHashID      string `json:"structured_log_hash_id"`
	ForensicBundleID         string `json:"forensic_bundle_id"`
	ForensicsBundleHashID    string `json:"forensics_bundle_hash_id"`
	ForensicsBundleReplayRef string `json:"forensics_bundle_replay_ref"`
}

// Get returns the value for a canonical key.
func (l Links) Get(key string) string {
	switch key {
	case KeyStructuredLogHashID:
		return l.StructuredLogHashID
	case KeyForensicBundleID:
		return l.ForensicBundleID
	case KeyForensicsBundleHashID:
		return l.ForensicsBundleHashID
	case KeyForensicsBundleReplayRef:
		return l.ForensicsBundleReplayRef
	}
	return ""
}

// MissingKeys lists empty links in canonical order.
func (l Links) MissingKeys() []string {
	var missing []string
	for _, k := range RequiredKeys() {
		if l.Get(k) == "" {
			missing = append(missing, k)
		}
	}
	return missing
}

// Complete reports whether all four links are non-empty.
func (l Links) Complete() bool {
	return len(l.MissingKeys()) == 0
}

// Diff lists keys whose values differ byte-for-byte, in canonical order.
func (l Links) Diff(other Links) []string {
	var diff []string
	for _, k := range RequiredKeys() {
		if l.Get(k) != other.Get(k) {
			diff = append(diff, k)
		}
	}
	return diff
}
