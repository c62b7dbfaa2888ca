package forensics

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// SchemaDefinition is the CUE definition a supplied schema must declare.
const SchemaDefinition = "#Row"

// Schema validates structured-log rows against a supplied CUE definition.
//
// Definitions are closed in CUE; a schema that should tolerate extra row
// fields must end its #Row body with "...".
type Schema struct {
	ctx  *cue.Context
	def  cue.Value
	name string
}

// LoadSchema reads and compiles a CUE schema file.
func LoadSchema(path string) (*Schema, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read log schema: %w", err)
	}
	return CompileSchema(src, path)
}

// CompileSchema compiles CUE source and looks up its #Row definition.
func CompileSchema(src []byte, filename string) (*Schema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile log schema %s: %w", filename, err)
	}
	def := v.LookupPath(cue.ParsePath(SchemaDefinition))
	if !def.Exists() {
		return nil, fmt.Errorf("log schema %s: definition %s not found", filename, SchemaDefinition)
	}
	if err := def.Err(); err != nil {
		return nil, fmt.Errorf("log schema %s: %w", filename, err)
	}
	return &Schema{ctx: ctx, def: def, name: filename}, nil
}

// Validate unifies a raw JSON row with #Row and requires a concrete result.
// It returns one message per CUE error, or nil when the row conforms.
func (s *Schema) Validate(raw []byte) []string {
	data := s.ctx.CompileBytes(raw, cue.Filename("structured_log_row.json"))
	if err := data.Err(); err != nil {
		return errorMessages(err)
	}
	unified := s.def.Unify(data)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return errorMessages(err)
	}
	return nil
}

func errorMessages(err error) []string {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return []string{err.Error()}
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return msgs
}
