package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pushdown/internal/condition"
	"github.com/roach88/pushdown/internal/ir"
	"github.com/roach88/pushdown/internal/predicate"
	"github.com/roach88/pushdown/internal/pushdown"
)

func fixtureVertices() []Vertex {
	return []Vertex{
		{ID: 1, Label: 1, Props: ir.IRObject{"1": ir.IRInt(5), "2": ir.IRString("alice")}},
		{ID: 2, Label: 1, Props: ir.IRObject{"1": ir.IRInt(10), "3": ir.Ints(1, 2)}},
		{ID: 3, Label: 2, Props: ir.IRObject{"1": ir.IRFloat(15.5), "2": ir.IRString("bob")}},
		{ID: 4, Label: 2, Props: ir.IRObject{"1": ir.IRInt(20), "2": ir.IRNull{}}},
		{ID: 5, Label: 3, Props: ir.IRObject{}},
		{ID: 6, Label: 3, Props: ir.IRObject{"1": ir.IRInt(25), "4": ir.IRBool(true)}},
	}
}

func seededStore(t *testing.T) *Store {
	t.Helper()
	s := createTestStore(t)
	require.NoError(t, s.PutVertices(context.Background(), fixtureVertices()))
	return s
}

func ids(vs []Vertex) []int64 {
	out := make([]int64, len(vs))
	for i, v := range vs {
		out[i] = v.ID
	}
	return out
}

func TestPutAndGetVertex(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	v := Vertex{ID: 9, Label: 4, Props: ir.IRObject{"1": ir.IRFloat(20), "7": ir.Strings("a", "b")}}
	require.NoError(t, s.PutVertex(ctx, v))

	got, ok, err := s.GetVertex(ctx, 9)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, v, got)

	_, ok, err = s.GetVertex(ctx, 10)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPutVertexReplaces(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	require.NoError(t, s.PutVertex(ctx, Vertex{ID: 1, Label: 1, Props: ir.IRObject{"1": ir.IRInt(1)}}))
	require.NoError(t, s.PutVertex(ctx, Vertex{ID: 1, Label: 2}))

	got, ok, err := s.GetVertex(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Vertex{ID: 1, Label: 2, Props: ir.IRObject{}}, got)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPutVertexRejectsBadKeys(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	for _, key := range []string{"age", "01", "-0", "1.5", "4294967296", ""} {
		t.Run(key, func(t *testing.T) {
			err := s.PutVertex(ctx, Vertex{ID: 1, Props: ir.IRObject{key: ir.IRInt(1)}})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "is not a decimal int32 identifier")
		})
	}
}

func TestPutVerticesIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	err := s.PutVertices(ctx, []Vertex{
		{ID: 1, Label: 1},
		{ID: 2, Label: 1, Props: ir.IRObject{"name": ir.IRString("x")}},
	})
	require.Error(t, err)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestScanNilConditionReturnsAll(t *testing.T) {
	s := seededStore(t)

	vs, err := s.Scan(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6}, ids(vs))
	assert.Equal(t, fixtureVertices(), vs)
}

func TestClear(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	require.NoError(t, s.Clear(ctx))
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, s.PutVertex(ctx, fixtureVertices()[0]))
	n, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestScanEmptyResultIsNotNil(t *testing.T) {
	s := createTestStore(t)

	vs, err := s.Scan(context.Background(), condition.HasPropCond(1))
	require.NoError(t, err)
	assert.NotNil(t, vs)
	assert.Empty(t, vs)
}

func TestScanPushedDownFilters(t *testing.T) {
	prop := predicate.Prop
	ge10 := predicate.Compare(prop(1), predicate.OpGe, predicate.Int(10))
	le20 := predicate.Compare(prop(1), predicate.OpLe, predicate.Int(20))

	tests := []struct {
		name string
		tree predicate.Predicates
		want []int64
	}{
		{"and range", predicate.And{Left: ge10, Right: le20}, []int64{2, 3, 4}},
		{"or range", predicate.Or{Left: ge10, Right: le20}, []int64{1, 2, 3, 4, 6}},
		{"not includes missing", predicate.Negate(ge10), []int64{1, 5}},
		{"has counts json null", predicate.Has(prop(2)), []int64{1, 3, 4}},
		{"not has", predicate.Negate(predicate.Has(prop(2))), []int64{2, 5, 6}},
		{"label within", predicate.Compare(predicate.Label(), predicate.OpWithin, predicate.Value(ir.Ints(2, 3))), []int64{3, 4, 5, 6}},
		{"label without", predicate.Compare(predicate.Label(), predicate.OpWithout, predicate.Value(ir.Ints(1))), []int64{3, 4, 5, 6}},
		{"id within", predicate.Compare(predicate.ID(), predicate.OpWithin, predicate.Value(ir.Ints(1, 6, 9))), []int64{1, 6}},
		{"string eq", predicate.Compare(prop(2), predicate.OpEq, predicate.Str("bob")), []int64{3}},
		{"string ne skips null and missing", predicate.Compare(prop(2), predicate.OpNe, predicate.Str("bob")), []int64{1}},
		{"eq null", predicate.Compare(prop(2), predicate.OpEq, predicate.Value(ir.IRNull{})), []int64{2, 4, 5, 6}},
		{"ne null", predicate.Compare(prop(2), predicate.OpNe, predicate.Value(ir.IRNull{})), []int64{1, 3}},
		{"bool", predicate.Compare(prop(4), predicate.OpEq, predicate.Value(ir.IRBool(true))), []int64{6}},
		{"within doubles", predicate.Compare(prop(1), predicate.OpWithin, predicate.Value(ir.IRArray{ir.IRInt(5), ir.IRFloat(15.5)})), []int64{1, 3}},
		{"long constant", predicate.Compare(prop(1), predicate.OpLt, predicate.Int(1 << 40)), []int64{1, 2, 3, 4, 6}},
		{"id vs label", predicate.Compare(predicate.ID(), predicate.OpGt, predicate.Label()), []int64{2, 3, 4, 5, 6}},
		{"left-deep and", predicate.AllOf(ge10, le20, predicate.Compare(predicate.Label(), predicate.OpEq, predicate.Int(2))), []int64{3, 4}},
		{"not or", predicate.Negate(predicate.Or{Left: predicate.Has(prop(3)), Right: predicate.Has(prop(4))}), []int64{1, 3, 4, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := seededStore(t)

			cond, ok, err := pushdown.Translate(tt.tree)
			require.NoError(t, err)
			require.True(t, ok)

			vs, err := s.Scan(context.Background(), cond)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(vs))
		})
	}
}

func TestScanNegationPartitions(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	cond, ok, err := pushdown.Translate(predicate.Compare(predicate.Prop(2), predicate.OpEq, predicate.Str("alice")))
	require.NoError(t, err)
	require.True(t, ok)

	matched, err := s.Scan(ctx, cond)
	require.NoError(t, err)
	rest, err := s.Scan(ctx, condition.Not{Inner: cond})
	require.NoError(t, err)

	assert.Len(t, append(ids(matched), ids(rest)...), len(fixtureVertices()))
	assert.ElementsMatch(t, []int64{1, 2, 3, 4, 5, 6}, append(ids(matched), ids(rest)...))
}

func TestScanListEqualityComparesElements(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	require.NoError(t, s.PutVertices(ctx, []Vertex{
		{ID: 1, Label: 1, Props: ir.IRObject{"1": ir.IRArray{ir.IRFloat(2)}}},
		{ID: 2, Label: 1, Props: ir.IRObject{"1": ir.IRArray{ir.IRFloat(2), ir.IRFloat(3.5)}}},
		{ID: 3, Label: 1, Props: ir.IRObject{"1": ir.IRFloat(2)}},
		{ID: 4, Label: 1, Props: ir.IRObject{"1": ir.IRNull{}}},
		{ID: 5, Label: 1, Props: ir.IRObject{}},
		{ID: 6, Label: 1, Props: ir.IRObject{"1": ir.Strings("2")}},
	}))

	list := func(op condition.CmpOperator, p condition.Property) condition.Condition {
		return condition.CompareCond(condition.PropRef(1), op, condition.ConstRef{Value: p})
	}

	tests := []struct {
		name string
		cond condition.Condition
		want []int64
	}{
		{"doubles", list(condition.Equal, condition.ListDouble{2}), []int64{1}},
		{"longs", list(condition.Equal, condition.ListLong{2}), []int64{1}},
		{"two elements", list(condition.Equal, condition.ListDouble{2, 3.5}), []int64{2}},
		{"strings", list(condition.Equal, condition.ListString{"2"}), []int64{6}},
		{"not equal skips null and missing", list(condition.NotEqual, condition.ListLong{2}), []int64{2, 3, 6}},
		{"const on left", condition.CompareCond(condition.ConstRef{Value: condition.ListLong{2}}, condition.Equal, condition.PropRef(1)), []int64{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vs, err := s.Scan(ctx, tt.cond)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(vs))
		})
	}

	cond, ok, err := pushdown.Translate(predicate.Compare(predicate.Prop(1), predicate.OpEq, predicate.Value(ir.Ints(2))))
	require.NoError(t, err)
	require.True(t, ok)
	vs, err := s.Scan(ctx, cond)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids(vs))
}

func TestScanCompileError(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Scan(context.Background(), condition.Pred{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan: compile condition")
}
