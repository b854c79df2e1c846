package predicate

import (
	"fmt"

	"github.com/roach88/pushdown/internal/ir"
)

// ValidationResult is the outcome of a structural check of a filter tree.
type ValidationResult struct {
	// WellFormed is false when the engine itself cannot evaluate the tree:
	// nil nodes or operands, constants without a value, existence tests on
	// constants, or comparators outside the enumeration.
	WellFormed bool
	Problems   []string

	// Portable is true when every operand and comparator in the tree has a
	// storage counterpart. Constant values and Init nodes are not examined;
	// Warnings lists each non-portable feature with its path.
	Portable bool
	Warnings []string
}

// Validate walks p and reports problems and portability warnings. Paths
// start at "root" and descend through "left", "right" and "inner".
//
// Validate is a pure function with no side effects.
func Validate(p Predicates) ValidationResult {
	v := &validator{}
	v.validateNode(p, "root")
	return v.result()
}

// ValidateEvaluator is Validate for a compiled filter. A general expression
// is well-formed when compiled and never portable.
func ValidateEvaluator(e Evaluator) ValidationResult {
	v := &validator{}
	switch ev := e.(type) {
	case PredicateEvaluator:
		v.validateNode(ev.Tree, "root")
	case *PredicateEvaluator:
		if ev == nil {
			v.addProblem("root: nil evaluator")
			break
		}
		v.validateNode(ev.Tree, "root")
	case GeneralEvaluator:
		v.validateGeneral(ev.Expr)
	case *GeneralEvaluator:
		if ev == nil {
			v.addProblem("root: nil evaluator")
			break
		}
		v.validateGeneral(ev.Expr)
	case nil:
		v.addProblem("root: nil evaluator")
	default:
		v.addProblem("root: unknown evaluator type %T", e)
	}
	return v.result()
}

type validator struct {
	problems []string
	warnings []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) result() ValidationResult {
	return ValidationResult{
		WellFormed: len(v.problems) == 0,
		Problems:   v.problems,
		Portable:   len(v.problems) == 0 && len(v.warnings) == 0,
		Warnings:   v.warnings,
	}
}

func (v *validator) validateGeneral(g *General) {
	if g == nil || g.program == nil {
		v.addProblem("root: general expression is not compiled")
		return
	}
	v.addWarning("root: general expression %q is evaluated by the engine", g.Source())
}

func (v *validator) validateNode(p Predicates, path string) {
	if p == nil || isNilNode(p) {
		v.addProblem("%s: nil node", path)
		return
	}

	switch node := p.(type) {
	case Init, *Init:
	case SingleItem:
		v.validateSingleItem(node, path)
	case *SingleItem:
		v.validateSingleItem(*node, path)
	case Predicate:
		v.validatePredicate(node, path)
	case *Predicate:
		v.validatePredicate(*node, path)
	case Not:
		v.validateNode(node.Inner, path+".inner")
	case *Not:
		v.validateNode(node.Inner, path+".inner")
	case And:
		v.validateNode(node.Left, path+".left")
		v.validateNode(node.Right, path+".right")
	case *And:
		v.validateNode(node.Left, path+".left")
		v.validateNode(node.Right, path+".right")
	case Or:
		v.validateNode(node.Left, path+".left")
		v.validateNode(node.Right, path+".right")
	case *Or:
		v.validateNode(node.Left, path+".left")
		v.validateNode(node.Right, path+".right")
	default:
		v.addProblem("%s: unknown node type %T", path, p)
	}
}

func (v *validator) validateSingleItem(s SingleItem, path string) {
	variable, ok := v.operand(s.Operand, path+".operand")
	if !ok {
		return
	}
	if variable == nil {
		v.addProblem("%s: has() needs a variable, got constant", path)
		return
	}
	if _, isID := variable.Key.(KeyID); !isID || variable.Tag != "" {
		v.addWarning("%s: has(%s) is not a property identifier test", path, variable)
	}
}

func (v *validator) validatePredicate(p Predicate, path string) {
	switch {
	case !p.Cmp.Known():
		v.addProblem("%s: unknown comparator %s", path, p.Cmp.Name())
	case !p.Cmp.IsComparator():
		v.addProblem("%s: %s is a connective, not a comparator", path, p.Cmp.Name())
	case p.Cmp > OpWithout:
		v.addWarning("%s: comparator %s has no storage counterpart", path, p.Cmp.Name())
	}

	for _, side := range []struct {
		name string
		op   Operand
	}{{"left", p.Left}, {"right", p.Right}} {
		variable, ok := v.operand(side.op, path+"."+side.name)
		if ok && variable != nil {
			v.checkVarPortable(*variable, path+"."+side.name)
		}
	}
}

// operand checks op and returns it as a variable when it is one. ok is
// false when op is malformed.
func (v *validator) operand(op Operand, path string) (variable *Var, ok bool) {
	switch o := op.(type) {
	case Var:
		return &o, true
	case *Var:
		if o == nil {
			break
		}
		return o, true
	case Const:
		return nil, v.checkConst(o, path)
	case *Const:
		if o == nil {
			break
		}
		return nil, v.checkConst(*o, path)
	case nil:
	default:
		v.addProblem("%s: unknown operand type %T", path, op)
		return nil, false
	}
	v.addProblem("%s: nil operand", path)
	return nil, false
}

func (v *validator) checkConst(c Const, path string) bool {
	if c.Value == nil {
		v.addProblem("%s: constant without a value", path)
		return false
	}
	if _, isObj := c.Value.(ir.IRObject); isObj {
		v.addWarning("%s: object constant has no storage counterpart", path)
	}
	return true
}

func (v *validator) checkVarPortable(variable Var, path string) {
	if variable.Tag != "" {
		v.addWarning("%s: %s references tagged element %q", path, variable, variable.Tag)
		return
	}
	switch variable.Key.(type) {
	case KeyID, LabelKey, IDKey:
	case nil:
		v.addWarning("%s: %s references the whole element", path, variable)
	default:
		v.addWarning("%s: key %s has no storage counterpart", path, variable.Key)
	}
}
