package forensics

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/roach88/graphreplay/internal/engine"
	"github.com/roach88/graphreplay/internal/logging"
)

// Result is the outcome of linking one execution.
type Result struct {
	// Row is the matched row, nil when none matched.
	Row *Row

	// Links are empty when Row is nil.
	Links Links

	// Reason is empty when the links are complete and conform.
	Reason engine.ReasonCode

	// SchemaErrors lists CUE validation errors for
	// structured_log_schema_violation.
	SchemaErrors []string
}

// OK reports whether the execution is fully linked.
func (r Result) OK() bool {
	return r.Reason == ""
}

// Linker reads the structured-log stream and validates forensics links.
type Linker struct {
	path   string
	schema *Schema
	logger *slog.Logger
}

// NewLinker creates a linker over the stream at path. schema may be nil.
func NewLinker(path string, schema *Schema, logger *slog.Logger) *Linker {
	return &Linker{path: path, schema: schema, logger: logging.OrDiscard(logger)}
}

// Path returns the structured-log path.
func (l *Linker) Path() string {
	return l.path
}

// Cursor is a position in the structured-log stream, counted in complete
// lines. Rows at or before it were written by earlier executions.
type Cursor struct {
	Lines int `json:"lines"`
}

// Mark returns the current end of the stream. Call it before executing so
// that Link only accepts rows the execution itself appended.
func (l *Linker) Mark() (Cursor, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Cursor{}, nil
	}
	if err != nil {
		return Cursor{}, fmt.Errorf("open structured log: %w", err)
	}
	defer f.Close()

	n, err := countLines(f)
	if err != nil {
		return Cursor{}, fmt.Errorf("read structured log: %w", err)
	}
	return Cursor{Lines: n}, nil
}

// rows reads the whole stream. A stream that does not exist yet has no rows.
func (l *Linker) rows() ([]Row, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open structured log: %w", err)
	}
	defer f.Close()
	return ReadRows(f, l.logger.With("path", l.path))
}

// Link finds the last row for (fixtureID, mode) appended after since and
// validates it. A row older than since never satisfies the gate, however
// well it matches.
//
// Validation order: missing row, then missing fields, then schema. Only the
// first failing check sets Reason.
func (l *Linker) Link(since Cursor, fixtureID, mode string) (Result, error) {
	rows, err := l.rows()
	if err != nil {
		return Result{}, err
	}
	fresh := rows[:0:0]
	for _, r := range rows {
		if r.Line > since.Lines {
			fresh = append(fresh, r)
		}
	}
	return l.evaluate(fresh, fixtureID, mode), nil
}

func (l *Linker) evaluate(rows []Row, fixtureID, mode string) Result {
	row, ok := FindLast(rows, fixtureID, mode)
	if !ok {
		return Result{Reason: engine.ReasonMissingStructuredLog}
	}

	res := Result{Row: &row, Links: row.Links()}
	if missing := res.Links.MissingKeys(); len(missing) > 0 {
		res.Reason = engine.MissingFieldsReason(missing)
		return res
	}
	if l.schema != nil {
		if errs := l.schema.Validate(row.Raw); len(errs) > 0 {
			l.logger.Warn("structured log row violates schema",
				"fixture_id", fixtureID,
				"mode", mode,
				"line", row.Line,
				"errors", errs)
			res.Reason = engine.ReasonSchemaViolation
			res.SchemaErrors = errs
		}
	}
	return res
}
