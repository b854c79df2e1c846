package loader

import (
	_ "embed"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schemaSource []byte

// ParseCUE compiles a CUE document, checks it against the document schema
// and parses it.
func ParseCUE(data []byte, filename string) (*Document, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, formatCUEError(err, ErrCodeGeneric, "schema.cue")
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err, ErrCodeParseFailed, filename)
	}

	v = v.Unify(schema.LookupPath(cue.ParsePath("#Document")))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err, ErrCodeSchema, filename)
	}

	root, err := fromCUE(v)
	if err != nil {
		return nil, err
	}
	return parseDocument(root, filename)
}
