package predicate

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/roach88/pushdown/internal/ir"
)

// General is a compiled CEL filter over a single element. The expression
// sees three variables:
//
//	id     int                the element identifier
//	label  int                the element label
//	props  map(string, dyn)   properties keyed by decimal identifier
//
// Example: `label == 3 && props["1"] >= 10`.
//
// A General is safe for concurrent use.
type General struct {
	source  string
	program cel.Program
}

var generalEnv = sync.OnceValues(func() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("id", cel.IntType),
		cel.Variable("label", cel.IntType),
		cel.Variable("props", cel.MapType(cel.StringType, cel.DynType)),
		cel.CrossTypeNumericComparisons(true),
	)
})

// CompileGeneral parses and type-checks source.
func CompileGeneral(source string) (*General, error) {
	env, err := generalEnv()
	if err != nil {
		return nil, fmt.Errorf("cel environment: %w", err)
	}

	ast, issues := env.Compile(source)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", source, issues.Err())
	}
	switch out := ast.OutputType().String(); out {
	case "bool", "dyn":
	default:
		return nil, fmt.Errorf("compile %q: expression must return bool, got %s", source, out)
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", source, err)
	}
	return &General{source: source, program: prg}, nil
}

// MustCompileGeneral is CompileGeneral for static expressions; it panics
// on error.
func MustCompileGeneral(source string) *General {
	g, err := CompileGeneral(source)
	if err != nil {
		panic(err)
	}
	return g
}

// Source returns the expression text.
func (g *General) Source() string {
	if g == nil {
		return ""
	}
	return g.source
}

func (g *General) String() string {
	return "expr(" + g.Source() + ")"
}

// Matches evaluates the expression against one element.
func (g *General) Matches(id int64, label int32, props ir.IRObject) (bool, error) {
	if g == nil || g.program == nil {
		return false, fmt.Errorf("matches: expression not compiled")
	}

	vars := map[string]any{
		"id":    id,
		"label": int64(label),
		"props": ir.ToAny(props),
	}

	out, _, err := g.program.Eval(vars)
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", g.source, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("eval %q: expression must return bool, got %T", g.source, out.Value())
	}
	return result, nil
}
