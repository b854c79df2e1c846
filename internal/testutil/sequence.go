// Package testutil holds deterministic stand-ins for the sources of
// variation in a harness run: sequence numbers and trace IDs.
package testutil

import "sync/atomic"

// Sequence hands out 1, 2, 3, ... and can be rewound so a rerun of the
// same document numbers its filters identically. Safe for concurrent use.
type Sequence struct {
	n atomic.Int64
}

// NewSequence returns a sequence whose first Next is 1.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Next advances and returns the new value.
func (s *Sequence) Next() int64 {
	return s.n.Add(1)
}

// Current returns the last value handed out, or 0.
func (s *Sequence) Current() int64 {
	return s.n.Load()
}

// Reset rewinds to 0.
func (s *Sequence) Reset() {
	s.n.Store(0)
}
