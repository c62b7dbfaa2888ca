package forensics

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/graphreplay/internal/logging"
)

// maxRowBytes bounds a single structured-log line.
const maxRowBytes = 16 << 20

// BundleIndex is the nested forensics_bundle_index object of a row.
type BundleIndex struct {
	BundleHashID string `json:"bundle_hash_id"`
	ReplayRef    string `json:"replay_ref"`
}

// Row is the subset of a structured-log row the harness reads.
// Raw keeps the original line for persistence and schema validation.
type Row struct {
	HashID               string       `json:"hash_id"`
	ForensicBundleID     string       `json:"forensic_bundle_id"`
	FixtureID            string       `json:"fixture_id"`
	Mode                 string       `json:"mode"`
	ForensicsBundleIndex *BundleIndex `json:"forensics_bundle_index,omitempty"`

	Line int             `json:"-"`
	Raw  json.RawMessage `json:"-"`
}

// rowWire decodes the link fields as raw values so a wrongly typed link
// reads as missing instead of making the whole row unreadable.
type rowWire struct {
	HashID               json.RawMessage `json:"hash_id"`
	ForensicBundleID     json.RawMessage `json:"forensic_bundle_id"`
	FixtureID            string          `json:"fixture_id"`
	Mode                 string          `json:"mode"`
	ForensicsBundleIndex json.RawMessage `json:"forensics_bundle_index"`
}

// UnmarshalJSON decodes a row. fixture_id and mode must be strings; a link
// field of any other JSON type decodes as empty.
func (r *Row) UnmarshalJSON(data []byte) error {
	var w rowWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = Row{
		HashID:           linkString(w.HashID),
		ForensicBundleID: linkString(w.ForensicBundleID),
		FixtureID:        w.FixtureID,
		Mode:             w.Mode,
	}
	var idx map[string]json.RawMessage
	if err := json.Unmarshal(w.ForensicsBundleIndex, &idx); err == nil && idx != nil {
		r.ForensicsBundleIndex = &BundleIndex{
			BundleHashID: linkString(idx["bundle_hash_id"]),
			ReplayRef:    linkString(idx["replay_ref"]),
		}
	}
	return nil
}

func linkString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// Links extracts the four forensics links. A missing nested index yields
// empty bundle fields.
func (r Row) Links() Links {
	links := Links{
		StructuredLogHashID: r.HashID,
		ForensicBundleID:    r.ForensicBundleID,
	}
	if r.ForensicsBundleIndex != nil {
		links.ForensicsBundleHashID = r.ForensicsBundleIndex.BundleHashID
		links.ForensicsBundleReplayRef = r.ForensicsBundleIndex.ReplayRef
	}
	return links
}

// Matches reports whether the row belongs to (fixtureID, mode).
func (r Row) Matches(fixtureID, mode string) bool {
	return r.FixtureID == fixtureID && r.Mode == mode
}

// ReadRows parses a JSONL structured-log stream.
//
// Blank lines are ignored. Malformed lines are skipped and logged: one bad
// row written by an unrelated run must not hide every later row.
func ReadRows(r io.Reader, logger *slog.Logger) ([]Row, error) {
	logger = logging.OrDiscard(logger)

	var rows []Row
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxRowBytes)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var row Row
		if err := json.Unmarshal(line, &row); err != nil {
			logger.Warn("skipping malformed structured log line", "line", lineNo, "error", err)
			continue
		}
		row.Line = lineNo
		row.Raw = append(json.RawMessage(nil), line...)
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read structured log: %w", err)
	}
	return rows, nil
}

// countLines counts complete lines, matching the numbering ReadRows uses.
// A trailing line without a newline is still being written and is not
// counted.
func countLines(r io.Reader) (int, error) {
	br := bufio.NewReader(r)
	n := 0
	for {
		_, err := br.ReadSlice('\n')
		switch {
		case err == nil:
			n++
		case errors.Is(err, bufio.ErrBufferFull):
			// Long line: keep reading until its newline.
		case errors.Is(err, io.EOF):
			return n, nil
		default:
			return 0, err
		}
	}
}

// FindLast returns the last row matching (fixtureID, mode).
func FindLast(rows []Row, fixtureID, mode string) (Row, bool) {
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].Matches(fixtureID, mode) {
			return rows[i], true
		}
	}
	return Row{}, false
}
