package loader

import (
	"math"
	"slices"
	"strings"

	"github.com/roach88/pushdown/internal/ir"
	"github.com/roach88/pushdown/internal/store"
)

var outcomes = []Outcome{OutcomePushed, OutcomeFallback, OutcomeError}

// parseDocument builds a Document from the format-neutral tree. YAML and
// CUE share it so both report the same errors.
func parseDocument(root *node, path string) (*Document, error) {
	if root.kind != kindMap {
		return nil, errorf(ErrCodeInvalidNode, root.pos, "document must be a mapping, got %s", describe(root))
	}
	if err := checkKeys(root, "document", []string{"name", "filters", "vertices"}); err != nil {
		return nil, err
	}

	doc := &Document{Path: path}

	name, err := requiredString(root, "name")
	if err != nil {
		return nil, err
	}
	doc.Name = name

	filters := root.lookup("filters")
	if filters == nil || filters.kind != kindList || len(filters.items) == 0 {
		return nil, errorf(ErrCodeInvalidNode, root.pos, "document %q needs a non-empty filters list", name)
	}
	seen := make(map[string]bool, len(filters.items))
	for _, item := range filters.items {
		f, err := parseFilter(item)
		if err != nil {
			return nil, err
		}
		if seen[f.Name] {
			return nil, errorf(ErrCodeDuplicateName, f.Pos, "duplicate filter name %q", f.Name)
		}
		seen[f.Name] = true
		doc.Filters = append(doc.Filters, f)
	}

	if vertices := root.lookup("vertices"); vertices != nil {
		if doc.Vertices, err = parseVertices(vertices); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func parseFilter(n *node) (Filter, error) {
	if n.kind != kindMap {
		return Filter{}, errorf(ErrCodeInvalidNode, n.pos, "filter entry must be a mapping, got %s", describe(n))
	}
	if err := checkKeys(n, "filter entry", []string{"name", "filter", "expect"}); err != nil {
		return Filter{}, err
	}

	name, err := requiredString(n, "name")
	if err != nil {
		return Filter{}, err
	}
	f := Filter{Name: name, Pos: n.pos}

	body := n.lookup("filter")
	if body == nil {
		return Filter{}, errorf(ErrCodeInvalidNode, n.pos, "filter %q has no filter", name)
	}
	if f.Evaluator, err = parseEvaluator(body); err != nil {
		return Filter{}, err
	}

	if e := n.lookup("expect"); e != nil {
		if f.Expect, err = parseExpect(e); err != nil {
			return Filter{}, err
		}
	}
	return f, nil
}

func parseExpect(n *node) (*Expect, error) {
	if n.kind != kindMap {
		return nil, errorf(ErrCodeInvalidExpect, n.pos, "expect must be a mapping, got %s", describe(n))
	}
	for _, f := range n.fields {
		switch f.key {
		case "outcome", "condition", "error", "ids":
		default:
			return nil, errorf(ErrCodeInvalidExpect, f.pos, "unknown expect key %q", f.key)
		}
	}

	o := n.lookup("outcome")
	if o == nil {
		return nil, errorf(ErrCodeInvalidExpect, n.pos, "expect needs an outcome")
	}
	outcome, _ := o.scalar.(string)
	e := &Expect{Outcome: Outcome(strings.ToLower(outcome))}
	if !slices.Contains(outcomes, e.Outcome) {
		return nil, errorf(ErrCodeInvalidExpect, o.pos, "outcome must be pushed, fallback or error, got %s", describe(o))
	}

	if c := n.lookup("condition"); c != nil {
		if e.Outcome != OutcomePushed {
			return nil, errorf(ErrCodeInvalidExpect, c.pos, "condition only applies to outcome pushed")
		}
		s, ok := c.scalar.(string)
		if !ok {
			return nil, errorf(ErrCodeInvalidExpect, c.pos, "condition must be a string, got %s", describe(c))
		}
		e.Condition = s
	}

	if c := n.lookup("error"); c != nil {
		if e.Outcome != OutcomeError {
			return nil, errorf(ErrCodeInvalidExpect, c.pos, "error only applies to outcome error")
		}
		s, ok := c.scalar.(string)
		if !ok || s == "" {
			return nil, errorf(ErrCodeInvalidExpect, c.pos, "error must be an error code, got %s", describe(c))
		}
		e.Error = strings.ToLower(s)
	}

	if ids := n.lookup("ids"); ids != nil {
		if ids.kind != kindList {
			return nil, errorf(ErrCodeInvalidExpect, ids.pos, "ids must be a list, got %s", describe(ids))
		}
		e.CheckIDs = true
		e.IDs = make([]int64, 0, len(ids.items))
		for _, item := range ids.items {
			id, ok := intScalar(item)
			if !ok {
				return nil, errorf(ErrCodeInvalidExpect, item.pos, "ids must be integers, got %s", describe(item))
			}
			e.IDs = append(e.IDs, id)
		}
	}
	return e, nil
}

func parseVertices(n *node) ([]store.Vertex, error) {
	if n.kind != kindList {
		return nil, errorf(ErrCodeInvalidVertex, n.pos, "vertices must be a list, got %s", describe(n))
	}

	out := make([]store.Vertex, 0, len(n.items))
	seen := make(map[int64]bool, len(n.items))
	for _, item := range n.items {
		if item.kind != kindMap {
			return nil, errorf(ErrCodeInvalidVertex, item.pos, "vertex must be a mapping, got %s", describe(item))
		}
		for _, f := range item.fields {
			switch f.key {
			case "id", "label", "props":
			default:
				return nil, errorf(ErrCodeInvalidVertex, f.pos, "unknown vertex key %q", f.key)
			}
		}

		var v store.Vertex
		idNode := item.lookup("id")
		if idNode == nil {
			return nil, errorf(ErrCodeInvalidVertex, item.pos, "vertex needs an id")
		}
		id, ok := intScalar(idNode)
		if !ok {
			return nil, errorf(ErrCodeInvalidVertex, idNode.pos, "id must be an integer, got %s", describe(idNode))
		}
		if seen[id] {
			return nil, errorf(ErrCodeInvalidVertex, idNode.pos, "duplicate vertex id %d", id)
		}
		seen[id] = true
		v.ID = id

		if l := item.lookup("label"); l != nil {
			label, ok := intScalar(l)
			if !ok || label < math.MinInt32 || label > math.MaxInt32 {
				return nil, errorf(ErrCodeInvalidVertex, l.pos, "label must be an int32, got %s", describe(l))
			}
			v.Label = int32(label)
		}

		v.Props = ir.IRObject{}
		if p := item.lookup("props"); p != nil {
			if p.kind != kindMap {
				return nil, errorf(ErrCodeInvalidVertex, p.pos, "props must be a mapping, got %s", describe(p))
			}
			val, err := ir.FromAny(p.toAny())
			if err != nil {
				return nil, errorf(ErrCodeInvalidVertex, p.pos, "props: %v", err)
			}
			v.Props = val.(ir.IRObject)
		}
		out = append(out, v)
	}
	return out, nil
}

func requiredString(n *node, key string) (string, error) {
	v := n.lookup(key)
	if v == nil {
		return "", errorf(ErrCodeInvalidNode, n.pos, "missing %q", key)
	}
	s, ok := v.scalar.(string)
	if v.kind != kindScalar || !ok || s == "" {
		return "", errorf(ErrCodeInvalidNode, v.pos, "%s must be a non-empty string, got %s", key, describe(v))
	}
	return s, nil
}

func intScalar(n *node) (int64, bool) {
	if n.kind != kindScalar {
		return 0, false
	}
	switch v := n.scalar.(type) {
	case int, int64:
		return toInt64(v), true
	default:
		return 0, false
	}
}
