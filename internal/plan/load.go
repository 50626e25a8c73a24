package plan

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schemaSource []byte

// Load reads and validates the plan file at path.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan: %w", err)
	}
	return Parse(data, path)
}

// Parse validates a CUE plan document against the embedded schema and
// decodes it. filename is only used in error positions.
func Parse(data []byte, filename string) (*Plan, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compiling plan schema: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("parsing plan %s: %w", filename, err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Plan")).Unify(v)
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return nil, fmt.Errorf("validating plan %s: %w", filename, err)
	}

	var p Plan
	if err := unified.Decode(&p); err != nil {
		return nil, fmt.Errorf("decoding plan %s: %w", filename, err)
	}

	// The schema cannot check duration syntax; surface it as a
	// validation error rather than at run start.
	if _, err := p.Budget.Duration(); err != nil {
		return nil, fmt.Errorf("validating plan %s: %w", filename, err)
	}
	if _, err := p.Source.Build(); err != nil {
		return nil, fmt.Errorf("validating plan %s: %w", filename, err)
	}

	return &p, nil
}
