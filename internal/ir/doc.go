// Package ir provides the identity layer shared by every graphreplay component.
//
// All other internal packages import ir; ir imports nothing internal. It holds
// the deterministic FNV-1a hash, the identity derivations built on it (bundle
// ids, stable fingerprints, fixture hashes, triage keys) and canonical JSON
// used for golden snapshots.
//
// Key constraints:
//   - Identity is a pure function of its inputs; no wall-clock time, pass
//     label or process state ever enters a hash.
//   - Hash parts are joined with "|" and hashed byte-wise over UTF-8.
//   - Hash values render as 16 lowercase hex digits.
package ir
