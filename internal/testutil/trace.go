package testutil

import "sync"

// DefaultTraceID is used when FixedTraceIDs is given no IDs.
const DefaultTraceID = "test-trace-default"

// FixedTraceIDs returns predetermined trace IDs in order, repeating the
// last one once the list runs out. It satisfies harness.TraceIDGenerator.
type FixedTraceIDs struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedTraceIDs returns a generator over ids.
//
//	gen := NewFixedTraceIDs("t-1", "t-2")
//	gen.Generate() // "t-1"
//	gen.Generate() // "t-2"
//	gen.Generate() // "t-2"
func NewFixedTraceIDs(ids ...string) *FixedTraceIDs {
	if len(ids) == 0 {
		ids = []string{DefaultTraceID}
	}
	return &FixedTraceIDs{ids: ids}
}

func (g *FixedTraceIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.ids[g.idx]
	if g.idx < len(g.ids)-1 {
		g.idx++
	}
	return id
}
