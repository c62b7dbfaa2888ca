package ir

// Version constants for persisted artifacts.
const (
	// BundleSchemaVersion salts bundle ids and names the manifest file
	// (bundle_manifest_v1.json). Changing it invalidates every recorded bundle id.
	BundleSchemaVersion = "v1"

	// ReportSchemaVersion is stamped on verifier, replay and triage reports.
	ReportSchemaVersion = "v1"

	// HarnessVersion is the graphreplay release.
	HarnessVersion = "0.1.0"
)
