package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pushdown/internal/ir"
	"github.com/roach88/pushdown/internal/predicate"
	"github.com/roach88/pushdown/internal/store"
)

func requireLoadError(t *testing.T, err error, code string) *LoadError {
	t.Helper()
	require.Error(t, err)
	var le *LoadError
	require.True(t, errors.As(err, &le), "expected *LoadError, got %T: %v", err, err)
	assert.Equal(t, code, le.Code, "message: %s", le.Message)
	return le
}

func TestLoadFileYAMLAndCUEAgree(t *testing.T) {
	fromYAML, err := LoadFile("testdata/ranges.yaml")
	require.NoError(t, err)
	fromCUE, err := LoadFile("testdata/ranges.cue")
	require.NoError(t, err)

	for _, doc := range []*Document{fromYAML, fromCUE} {
		assert.Equal(t, "ranges", doc.Name)
		require.Len(t, doc.Filters, 3)

		ageRange := doc.Filters[0]
		assert.Equal(t, "age-range", ageRange.Name)
		tree, ok := ageRange.Evaluator.(predicate.PredicateEvaluator)
		require.True(t, ok)
		assert.Equal(t, predicate.AllOf(
			predicate.Compare(predicate.Prop(1), predicate.OpGe, predicate.Int(10)),
			predicate.Compare(predicate.Prop(1), predicate.OpLe, predicate.Int(20)),
		), tree.Tree)
		assert.Equal(t, &Expect{
			Outcome:   OutcomePushed,
			Condition: "AND(prop[1] >= 10, prop[1] <= 20)",
			IDs:       []int64{2, 3},
			CheckIDs:  true,
		}, ageRange.Expect)

		tagged := doc.Filters[1].Evaluator.(predicate.PredicateEvaluator)
		assert.Equal(t, "@a.1 == 1", predicate.Format(tagged.Tree))
		assert.Equal(t, OutcomeError, doc.Filters[1].Expect.Outcome)
		assert.Equal(t, "unsupported_operand", doc.Filters[1].Expect.Error)
		assert.False(t, doc.Filters[1].Expect.CheckIDs)

		general, ok := doc.Filters[2].Evaluator.(predicate.GeneralEvaluator)
		require.True(t, ok)
		assert.Equal(t, "id > 1", general.Expr.Source())
		assert.Nil(t, doc.Filters[2].Expect)

		assert.Equal(t, []store.Vertex{
			{ID: 1, Label: 7, Props: ir.IRObject{"1": ir.IRInt(5)}},
			{ID: 2, Label: 7, Props: ir.IRObject{"1": ir.IRInt(10)}},
			{ID: 3, Label: 8, Props: ir.IRObject{"1": ir.IRFloat(20), "2": ir.IRString("x")}},
		}, doc.Vertices)
	}

	assert.Equal(t, "testdata/ranges.yaml", fromYAML.Path)
	assert.Equal(t, 3, fromYAML.Filters[0].Pos.Line)
	assert.Equal(t, "testdata/ranges.cue", fromCUE.Filters[0].Pos.File)
}

func TestParseYAMLNodes(t *testing.T) {
	tests := []struct {
		name   string
		filter string
		want   string
	}{
		{"init true", `{init: true}`, "true"},
		{"init empty", `{init: {}}`, "true"},
		{"has", `{has: {prop: 3}}`, "has(@.3)"},
		{"named prop", `{has: {prop: name}}`, "has(@.name)"},
		{"label", `{cmp: {left: {label: true}, op: eq, right: {const: 7}}}`, "@.~label == 7"},
		{"id", `{cmp: {left: {id: true}, op: "!=", right: {const: 1}}}`, "@.~id != 1"},
		{"len", `{cmp: {left: {len: true}, op: gt, right: {const: 0}}}`, "@.~len > 0"},
		{"whole tagged element", `{has: {tag: b}}`, "has(@b)"},
		{"within list", `{cmp: {left: {prop: 1}, op: within, right: {const: [1, 2]}}}`, "@.1 within [1, 2]"},
		{"not", `{not: {has: {prop: 1}}}`, "!(has(@.1))"},
		{"and folds left", `{and: [{has: {prop: 1}}, {has: {prop: 2}}, {has: {prop: 3}}]}`, "((has(@.1) && has(@.2)) && has(@.3))"},
		{"or", `{or: [{has: {prop: 1}}, {init: true}]}`, "(has(@.1) || true)"},
		{"numeric operator", `{cmp: {left: {prop: 1}, op: 99, right: {const: 1}}}`, "@.1 Logical(99) 1"},
		{"null const", `{cmp: {left: {prop: 1}, op: eq, right: {const: null}}}`, "@.1 == null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "name: t\nfilters:\n  - name: f\n    filter: " + tt.filter + "\n"
			doc, err := ParseYAML([]byte(src), "t.yaml")
			require.NoError(t, err)
			tree, ok := doc.Filters[0].Evaluator.(predicate.PredicateEvaluator)
			require.True(t, ok)
			assert.Equal(t, tt.want, predicate.Format(tree.Tree))
		})
	}
}

func TestParseYAMLErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
		msg  string
	}{
		{"syntax", "name: [unclosed\n", ErrCodeParseFailed, "yaml"},
		{"empty", "", ErrCodeParseFailed, "empty document"},
		{"not a mapping", "- 1\n", ErrCodeInvalidNode, "document must be a mapping"},
		{"unknown document key", "name: t\nfilter: []\n", ErrCodeInvalidNode, `unknown document key "filter"`},
		{"missing name", "filters: []\n", ErrCodeInvalidNode, `missing "name"`},
		{"no filters", "name: t\nfilters: []\n", ErrCodeInvalidNode, "non-empty filters"},
		{"duplicate key", "name: t\nname: u\n", ErrCodeInvalidNode, `duplicate key "name"`},
		{
			"duplicate filter",
			"name: t\nfilters:\n  - {name: a, filter: {init: true}}\n  - {name: a, filter: {init: true}}\n",
			ErrCodeDuplicateName, `duplicate filter name "a"`,
		},
		{"two node keys", filterDoc(`{has: {prop: 1}, not: {init: true}}`), ErrCodeInvalidNode, "exactly one of"},
		{"unknown node", filterDoc(`{xor: []}`), ErrCodeInvalidNode, `unknown filter node "xor"`},
		{"and of one", filterDoc(`{and: [{init: true}]}`), ErrCodeInvalidNode, "at least two"},
		{"nested expr", filterDoc(`{not: {expr: "true"}}`), ErrCodeInvalidNode, "only allowed at the top"},
		{"bad expr", filterDoc(`{expr: "id +"}`), ErrCodeInvalidExpr, ""},
		{"cmp missing op", filterDoc(`{cmp: {left: {prop: 1}, right: {const: 1}}}`), ErrCodeInvalidNode, `missing "op"`},
		{"unknown op", filterDoc(`{cmp: {left: {prop: 1}, op: like, right: {const: 1}}}`), ErrCodeInvalidOperator, "unknown operator"},
		{"empty operand", filterDoc(`{has: {}}`), ErrCodeInvalidOperand, "operand needs"},
		{"two keys", filterDoc(`{has: {prop: 1, id: true}}`), ErrCodeInvalidOperand, "both prop and id"},
		{"const with extras", filterDoc(`{has: {const: 1, tag: a}}`), ErrCodeInvalidOperand, "no other keys"},
		{"prop overflow", filterDoc(`{has: {prop: 4294967296}}`), ErrCodeInvalidOperand, "int32 range"},
		{"label false", filterDoc(`{has: {label: false}}`), ErrCodeInvalidOperand, "label takes true"},
		{"unknown operand key", filterDoc(`{has: {proprty: 1}}`), ErrCodeInvalidOperand, `unknown operand key "proprty"`},
		{
			"bad outcome",
			"name: t\nfilters:\n  - {name: a, filter: {init: true}, expect: {outcome: maybe}}\n",
			ErrCodeInvalidExpect, "outcome must be",
		},
		{
			"condition on fallback",
			"name: t\nfilters:\n  - {name: a, filter: {init: true}, expect: {outcome: fallback, condition: x}}\n",
			ErrCodeInvalidExpect, "only applies to outcome pushed",
		},
		{
			"error on pushed",
			"name: t\nfilters:\n  - {name: a, filter: {init: true}, expect: {outcome: pushed, error: x}}\n",
			ErrCodeInvalidExpect, "only applies to outcome error",
		},
		{
			"vertex without id",
			"name: t\nfilters:\n  - {name: a, filter: {init: true}}\nvertices:\n  - {label: 1}\n",
			ErrCodeInvalidVertex, "needs an id",
		},
		{
			"duplicate vertex",
			"name: t\nfilters:\n  - {name: a, filter: {init: true}}\nvertices:\n  - {id: 1}\n  - {id: 1}\n",
			ErrCodeInvalidVertex, "duplicate vertex id 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYAML([]byte(tt.src), "bad.yaml")
			le := requireLoadError(t, err, tt.code)
			assert.Contains(t, le.Message, tt.msg)
		})
	}
}

func filterDoc(filter string) string {
	return "name: t\nfilters:\n  - name: f\n    filter: " + filter + "\n"
}

func TestParseYAMLErrorPosition(t *testing.T) {
	src := "name: t\nfilters:\n  - name: f\n    filter:\n      has: {prop: 1, id: true}\n"
	_, err := ParseYAML([]byte(src), "pos.yaml")
	le := requireLoadError(t, err, ErrCodeInvalidOperand)
	assert.Equal(t, "pos.yaml", le.Pos.File)
	assert.Equal(t, 5, le.Pos.Line)
	assert.Contains(t, le.Error(), "pos.yaml:5:")
}

func TestParseYAMLExpectIDs(t *testing.T) {
	src := "name: t\nfilters:\n  - {name: a, filter: {init: true}, expect: {outcome: pushed, ids: []}}\n"
	doc, err := ParseYAML([]byte(src), "t.yaml")
	require.NoError(t, err)

	e := doc.Filters[0].Expect
	assert.True(t, e.CheckIDs)
	assert.Empty(t, e.IDs)
}

func TestParseCUEErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
		msg  string
	}{
		{"syntax", `name: "t`, ErrCodeParseFailed, ""},
		{"closed schema", `name: "t", filters: [{name: "a", filter: init: true, expct: {}}]`, ErrCodeSchema, "not allowed"},
		{"bad outcome", `name: "t", filters: [{name: "a", filter: init: true, expect: outcome: "maybe"}]`, ErrCodeSchema, ""},
		{"no filters", `name: "t", filters: []`, ErrCodeSchema, ""},
		{"grammar", `name: "t", filters: [{name: "a", filter: has: {}}]`, ErrCodeInvalidOperand, "operand needs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCUE([]byte(tt.src), "bad.cue")
			le := requireLoadError(t, err, tt.code)
			assert.Contains(t, le.Message, tt.msg)
		})
	}
}

func TestParseCUEErrorPosition(t *testing.T) {
	src := "name: \"t\"\nfilters: [{\n\tname: \"a\"\n\tfilter: init: true\n\tbogus: 1\n}]\n"
	_, err := ParseCUE([]byte(src), "pos.cue")
	le := requireLoadError(t, err, ErrCodeSchema)
	assert.Equal(t, "pos.cue", le.Pos.File)
	assert.Positive(t, le.Pos.Line)
}

func TestParseUnsupportedExtension(t *testing.T) {
	_, err := Parse([]byte("{}"), "filters.json")
	requireLoadError(t, err, ErrCodeExtension)
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	requireLoadError(t, err, ErrCodeNotFound)
}

func TestFindFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	for _, name := range []string{"b.yaml", "a.cue", "nested/c.yml", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	files, err := FindFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.cue"),
		filepath.Join(dir, "b.yaml"),
		filepath.Join(dir, "nested", "c.yml"),
	}, files)
}

func TestFindFilesErrors(t *testing.T) {
	_, err := FindFiles(filepath.Join(t.TempDir(), "nope"))
	requireLoadError(t, err, ErrCodeNotFound)

	_, err = FindFiles(t.TempDir())
	requireLoadError(t, err, ErrCodeNoFiles)
}
