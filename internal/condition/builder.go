package condition

import "slices"

// Builder accumulates a condition.
//
// And and Or combine the accumulated root with c. When the root is already
// of the same kind, c is appended to its items; otherwise the root becomes
// the first item of a new node. Not wraps the whole root.
//
// A Builder is not safe for concurrent use. Conditions it returns are never
// modified afterwards.
type Builder struct {
	root Condition
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// And combines the root with c by conjunction.
func (b *Builder) And(c Condition) *Builder {
	switch root := b.root.(type) {
	case nil:
		b.root = c
	case And:
		b.root = And{Items: append(slices.Clone(root.Items), c)}
	default:
		b.root = And{Items: []Condition{root, c}}
	}
	return b
}

// Or combines the root with c by disjunction.
func (b *Builder) Or(c Condition) *Builder {
	switch root := b.root.(type) {
	case nil:
		b.root = c
	case Or:
		b.root = Or{Items: append(slices.Clone(root.Items), c)}
	default:
		b.root = Or{Items: []Condition{root, c}}
	}
	return b
}

// Not negates the root. It is a no-op on an empty builder.
func (b *Builder) Not() *Builder {
	if b.root != nil {
		b.root = Not{Inner: b.root}
	}
	return b
}

// Build returns the accumulated condition, or false when nothing was added.
func (b *Builder) Build() (Condition, bool) {
	if b.root == nil {
		return nil, false
	}
	return b.root, true
}
