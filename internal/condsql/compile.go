// Package condsql compiles storage conditions to parameterized SQLite.
//
// The target table is
//
//	vertices(id INTEGER PRIMARY KEY, label INTEGER NOT NULL, props TEXT NOT NULL)
//
// where props is a JSON object keyed by decimal property identifier.
package condsql

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/pushdown/internal/condition"
)

// DefaultTable is the table compiled queries read from.
const DefaultTable = "vertices"

// SQLCompiler compiles conditions to parameterized SQL for SQLite.
//
// Every query includes ORDER BY id, and every constant is passed as a
// parameter. Property identifiers are integers and are inlined into JSON
// paths.
//
// Comparisons use two-valued logic: a leaf that SQL would evaluate to NULL
// (a missing property, a JSON null) counts as false, so NOT(c) selects
// exactly the rows c does not.
type SQLCompiler struct {
	// Table is the vertex table name. Empty means DefaultTable.
	Table string
}

// NewSQLCompiler creates a compiler reading from DefaultTable.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{Table: DefaultTable}
}

// Compile converts cond to a SELECT over the vertex table. A nil condition
// selects every row. Returns (sql, params, error).
func (c *SQLCompiler) Compile(cond condition.Condition) (string, []any, error) {
	table := c.Table
	if table == "" {
		table = DefaultTable
	}

	var whereClause string
	var params []any
	if cond != nil {
		where, whereParams, err := c.Where(cond)
		if err != nil {
			return "", nil, fmt.Errorf("compile condition: %w", err)
		}
		whereClause = " WHERE " + where
		params = whereParams
	}

	sql := fmt.Sprintf("SELECT id, label, props FROM %s%s ORDER BY id ASC", table, whereClause)
	return sql, params, nil
}

// Where compiles cond to a boolean SQL expression.
func (c *SQLCompiler) Where(cond condition.Condition) (string, []any, error) {
	switch node := cond.(type) {
	case condition.Pred:
		sql, params, err := c.compileLeaf(node.Cond)
		if err != nil {
			return "", nil, err
		}
		return "COALESCE((" + sql + "), 0)", params, nil
	case condition.And:
		return c.compileJunction(node.Items, " AND ", "1")
	case condition.Or:
		return c.compileJunction(node.Items, " OR ", "0")
	case condition.Not:
		if node.Inner == nil {
			return "", nil, fmt.Errorf("NOT without operand")
		}
		sql, params, err := c.Where(node.Inner)
		if err != nil {
			return "", nil, err
		}
		return "NOT " + sql, params, nil
	case nil:
		return "", nil, fmt.Errorf("cannot compile nil condition")
	default:
		return "", nil, fmt.Errorf("unsupported condition type: %T", cond)
	}
}

// compileJunction joins items with sep. An empty junction is its identity.
func (c *SQLCompiler) compileJunction(items []condition.Condition, sep, identity string) (string, []any, error) {
	if len(items) == 0 {
		return identity, nil, nil
	}

	parts := make([]string, 0, len(items))
	var allParams []any
	for i, item := range items {
		sql, params, err := c.Where(item)
		if err != nil {
			return "", nil, fmt.Errorf("item %d: %w", i, err)
		}
		parts = append(parts, sql)
		allParams = append(allParams, params...)
	}
	return "(" + strings.Join(parts, sep) + ")", allParams, nil
}

func (c *SQLCompiler) compileLeaf(p condition.PredCondition) (string, []any, error) {
	switch leaf := p.(type) {
	case condition.HasProp:
		return fmt.Sprintf("json_type(props, %s) IS NOT NULL", propPath(leaf.Prop)), nil, nil
	case condition.Compare:
		return c.compileCompare(leaf)
	case nil:
		return "", nil, fmt.Errorf("cannot compile nil leaf")
	default:
		return "", nil, fmt.Errorf("unsupported leaf type: %T", p)
	}
}

var sqlOperators = map[condition.CmpOperator]string{
	condition.Equal:        "=",
	condition.NotEqual:     "<>",
	condition.LessThan:     "<",
	condition.LessEqual:    "<=",
	condition.GreaterThan:  ">",
	condition.GreaterEqual: ">=",
}

func (c *SQLCompiler) compileCompare(cmp condition.Compare) (string, []any, error) {
	left, leftParams, err := compileOperand(cmp.Left)
	if err != nil {
		return "", nil, fmt.Errorf("left operand: %w", err)
	}

	if cmp.Op == condition.WithIn || cmp.Op == condition.WithOut {
		list, err := listParam(cmp.Right)
		if err != nil {
			return "", nil, fmt.Errorf("%s: %w", cmp.Op, err)
		}
		keyword := "IN"
		if cmp.Op == condition.WithOut {
			keyword = "NOT IN"
		}
		sql := fmt.Sprintf("%s %s (SELECT value FROM json_each(?))", left, keyword)
		return sql, append(leftParams, list), nil
	}

	op, ok := sqlOperators[cmp.Op]
	if !ok {
		return "", nil, fmt.Errorf("unsupported operator: %s", cmp.Op)
	}

	if ref, isConst := cmp.Right.(condition.ConstRef); isConst {
		if _, isNull := ref.Value.(condition.Null); isNull {
			switch cmp.Op {
			case condition.Equal:
				return left + " IS NULL", leftParams, nil
			case condition.NotEqual:
				return left + " IS NOT NULL", leftParams, nil
			}
		}
	}

	if cmp.Op == condition.Equal || cmp.Op == condition.NotEqual {
		if prop, list, ok := propAndList(cmp.Left, cmp.Right); ok {
			return listEquality(prop, list, cmp.Op == condition.NotEqual)
		}
	}

	right, rightParams, err := compileOperand(cmp.Right)
	if err != nil {
		return "", nil, fmt.Errorf("right operand: %w", err)
	}
	sql := fmt.Sprintf("%s %s %s", left, op, right)
	return sql, append(leftParams, rightParams...), nil
}

// propAndList matches a property compared with a list constant, in either
// order.
func propAndList(a, b condition.Operand) (condition.PropRef, condition.Property, bool) {
	if prop, ok := a.(condition.PropRef); ok {
		if ref, ok := b.(condition.ConstRef); ok && isList(ref.Value) {
			return prop, ref.Value, true
		}
	}
	if prop, ok := b.(condition.PropRef); ok {
		if ref, ok := a.(condition.ConstRef); ok && isList(ref.Value) {
			return prop, ref.Value, true
		}
	}
	return 0, nil, false
}

func isList(p condition.Property) bool {
	switch p.(type) {
	case condition.ListLong, condition.ListDouble, condition.ListString:
		return true
	}
	return false
}

// listEquality compares a stored array with a list element by element, so
// 2 and 2.0 are equal as they are for scalars. A missing property or a
// JSON null is neither equal nor unequal.
func listEquality(prop condition.PropRef, list condition.Property, negate bool) (string, []any, error) {
	param, err := marshalList(list)
	if err != nil {
		return "", nil, err
	}
	path := propPath(int32(prop))
	same := fmt.Sprintf("json_type(props, %[1]s) = 'array'"+
		" AND json_array_length(props, %[1]s) = json_array_length(?)"+
		" AND NOT EXISTS (SELECT 1 FROM json_each(props, %[1]s) AS a"+
		" JOIN json_each(?) AS b ON a.key = b.key WHERE a.value IS NOT b.value)", path)
	params := []any{param, param}
	if !negate {
		return same, params, nil
	}
	return fmt.Sprintf("json_type(props, %s) <> 'null' AND NOT (%s)", path, same), params, nil
}

func compileOperand(op condition.Operand) (string, []any, error) {
	switch o := op.(type) {
	case condition.PropRef:
		return fmt.Sprintf("json_extract(props, %s)", propPath(int32(o))), nil, nil
	case condition.LabelRef:
		return "label", nil, nil
	case condition.IDRef:
		return "id", nil, nil
	case condition.ConstRef:
		param, err := propertyParam(o.Value)
		if err != nil {
			return "", nil, err
		}
		return "?", []any{param}, nil
	case nil:
		return "", nil, fmt.Errorf("nil operand")
	default:
		return "", nil, fmt.Errorf("unsupported operand type: %T", op)
	}
}

// propPath is the JSON path of a property; identifiers are quoted because
// object keys are decimal strings.
func propPath(id int32) string {
	return `'$."` + strconv.FormatInt(int64(id), 10) + `"'`
}

// propertyParam converts a property to a driver value. Lists are bound as
// JSON text, the form json_extract returns for arrays.
func propertyParam(p condition.Property) (any, error) {
	switch val := p.(type) {
	case condition.Null:
		return nil, nil
	case condition.Bool:
		if val {
			return int64(1), nil
		}
		return int64(0), nil
	case condition.Int:
		return int64(val), nil
	case condition.Long:
		return int64(val), nil
	case condition.Double:
		return float64(val), nil
	case condition.String:
		return string(val), nil
	case condition.ListLong, condition.ListDouble, condition.ListString:
		return marshalList(val)
	case nil:
		return nil, fmt.Errorf("nil property")
	default:
		return nil, fmt.Errorf("unsupported property type: %T", p)
	}
}

func listParam(op condition.Operand) (string, error) {
	ref, ok := op.(condition.ConstRef)
	if !ok {
		return "", fmt.Errorf("right operand must be a list constant, got %v", op)
	}
	switch ref.Value.(type) {
	case condition.ListLong, condition.ListDouble, condition.ListString:
		return marshalList(ref.Value)
	default:
		return "", fmt.Errorf("right operand must be a list constant, got %v", ref.Value)
	}
}

func marshalList(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("marshal list: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
