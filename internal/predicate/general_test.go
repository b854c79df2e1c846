package predicate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pushdown/internal/ir"
)

func TestCompileGeneral(t *testing.T) {
	g, err := CompileGeneral(`label == 3 && props["1"] >= 10`)
	require.NoError(t, err)
	assert.Equal(t, `label == 3 && props["1"] >= 10`, g.Source())
	assert.Equal(t, `expr(label == 3 && props["1"] >= 10)`, g.String())
}

func TestCompileGeneralErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		msg    string
	}{
		{"syntax", `label ==`, "compile"},
		{"undeclared", `weight > 1`, "undeclared reference"},
		{"not bool", `id + 1`, "must return bool"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileGeneral(tt.source)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestGeneralMatches(t *testing.T) {
	g := MustCompileGeneral(`label == 3 && props["1"] >= 10`)

	ok, err := g.Matches(1, 3, ir.IRObject{"1": ir.IRInt(12)})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.Matches(2, 3, ir.IRObject{"1": ir.IRInt(5)})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = g.Matches(3, 4, ir.IRObject{"1": ir.IRInt(12)})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGeneralMatchesMixedNumbers(t *testing.T) {
	g := MustCompileGeneral(`props["w"] > 1`)

	ok, err := g.Matches(1, 0, ir.IRObject{"w": ir.IRFloat(1.5)})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGeneralMatchesMissingProperty(t *testing.T) {
	g := MustCompileGeneral(`has(props.age) && props.age > 1`)

	ok, err := g.Matches(1, 0, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = MustCompileGeneral(`props["age"] > 1`).Matches(1, 0, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "eval")
}

func TestGeneralNil(t *testing.T) {
	var g *General
	assert.Equal(t, "", g.Source())

	_, err := g.Matches(1, 0, nil)
	require.Error(t, err)
}

func TestMustCompileGeneralPanics(t *testing.T) {
	assert.Panics(t, func() { MustCompileGeneral(`)`) })
}
