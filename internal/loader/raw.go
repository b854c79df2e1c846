package loader

import (
	"fmt"

	"cuelang.org/go/cue"
	"gopkg.in/yaml.v3"
)

// node is a format-neutral view of a filter subtree. Exactly one of
// fields, items or scalar is meaningful, selected by kind.
type node struct {
	kind   nodeKind
	fields []field
	items  []*node
	scalar any
	pos    Position
}

type field struct {
	key   string
	value *node
	pos   Position
}

type nodeKind int

const (
	kindScalar nodeKind = iota
	kindMap
	kindList
)

func (k nodeKind) String() string {
	switch k {
	case kindMap:
		return "mapping"
	case kindList:
		return "list"
	default:
		return "scalar"
	}
}

// lookup returns the value of key, or nil.
func (n *node) lookup(key string) *node {
	for _, f := range n.fields {
		if f.key == key {
			return f.value
		}
	}
	return nil
}

// keys returns the field names in source order.
func (n *node) keys() []string {
	out := make([]string, len(n.fields))
	for i, f := range n.fields {
		out[i] = f.key
	}
	return out
}

// toAny returns the plain Go value of the subtree.
func (n *node) toAny() any {
	switch n.kind {
	case kindMap:
		m := make(map[string]any, len(n.fields))
		for _, f := range n.fields {
			m[f.key] = f.value.toAny()
		}
		return m
	case kindList:
		l := make([]any, len(n.items))
		for i, item := range n.items {
			l[i] = item.toAny()
		}
		return l
	default:
		return n.scalar
	}
}

// fromYAML converts a yaml.v3 node tree. Duplicate mapping keys are
// rejected.
func fromYAML(y *yaml.Node, file string) (*node, error) {
	pos := Position{File: file, Line: y.Line, Column: y.Column}

	switch y.Kind {
	case yaml.DocumentNode:
		if len(y.Content) == 0 {
			return nil, errorf(ErrCodeInvalidNode, pos, "empty document")
		}
		return fromYAML(y.Content[0], file)

	case yaml.AliasNode:
		return fromYAML(y.Alias, file)

	case yaml.MappingNode:
		n := &node{kind: kindMap, pos: pos}
		seen := make(map[string]bool, len(y.Content)/2)
		for i := 0; i+1 < len(y.Content); i += 2 {
			k, v := y.Content[i], y.Content[i+1]
			keyPos := Position{File: file, Line: k.Line, Column: k.Column}
			if k.Kind != yaml.ScalarNode {
				return nil, errorf(ErrCodeInvalidNode, keyPos, "mapping keys must be scalars")
			}
			if seen[k.Value] {
				return nil, errorf(ErrCodeInvalidNode, keyPos, "duplicate key %q", k.Value)
			}
			seen[k.Value] = true

			child, err := fromYAML(v, file)
			if err != nil {
				return nil, err
			}
			n.fields = append(n.fields, field{key: k.Value, value: child, pos: keyPos})
		}
		return n, nil

	case yaml.SequenceNode:
		n := &node{kind: kindList, pos: pos, items: make([]*node, 0, len(y.Content))}
		for _, c := range y.Content {
			child, err := fromYAML(c, file)
			if err != nil {
				return nil, err
			}
			n.items = append(n.items, child)
		}
		return n, nil

	case yaml.ScalarNode:
		var v any
		if err := y.Decode(&v); err != nil {
			return nil, errorf(ErrCodeParseFailed, pos, "%v", err)
		}
		return &node{kind: kindScalar, scalar: v, pos: pos}, nil

	default:
		return nil, errorf(ErrCodeInvalidNode, pos, "unexpected YAML node kind %d", y.Kind)
	}
}

// fromCUE converts a concrete CUE value. Numbers keep their kind: CUE
// ints become int64, floats float64.
func fromCUE(v cue.Value) (*node, error) {
	pos := cuePosition(v.Pos())

	switch v.Kind() {
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err, ErrCodeSchema, pos.File)
		}
		n := &node{kind: kindMap, pos: pos}
		for iter.Next() {
			child, err := fromCUE(iter.Value())
			if err != nil {
				return nil, err
			}
			n.fields = append(n.fields, field{
				key:   iter.Selector().Unquoted(),
				value: child,
				pos:   child.pos,
			})
		}
		return n, nil

	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err, ErrCodeSchema, pos.File)
		}
		n := &node{kind: kindList, pos: pos}
		for iter.Next() {
			child, err := fromCUE(iter.Value())
			if err != nil {
				return nil, err
			}
			n.items = append(n.items, child)
		}
		return n, nil

	case cue.NullKind:
		return &node{kind: kindScalar, pos: pos}, nil

	case cue.BoolKind:
		b, err := v.Bool()
		return scalarOrError(b, err, pos)

	case cue.IntKind:
		i, err := v.Int64()
		return scalarOrError(i, err, pos)

	case cue.FloatKind:
		f, err := v.Float64()
		return scalarOrError(f, err, pos)

	case cue.StringKind:
		s, err := v.String()
		return scalarOrError(s, err, pos)

	case cue.BottomKind:
		if err := v.Err(); err != nil {
			return nil, formatCUEError(err, ErrCodeSchema, pos.File)
		}
		return nil, errorf(ErrCodeSchema, pos, "value is not concrete")

	default:
		return nil, errorf(ErrCodeInvalidNode, pos, "unsupported CUE kind %s", v.Kind())
	}
}

func scalarOrError(v any, err error, pos Position) (*node, error) {
	if err != nil {
		return nil, errorf(ErrCodeInvalidNode, pos, "%v", err)
	}
	return &node{kind: kindScalar, scalar: v, pos: pos}, nil
}

// describe names a node for error messages.
func describe(n *node) string {
	if n.kind == kindScalar {
		if n.scalar == nil {
			return "null"
		}
		return fmt.Sprintf("%T %v", n.scalar, n.scalar)
	}
	return n.kind.String()
}
