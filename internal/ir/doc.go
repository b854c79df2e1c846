// Package ir provides the query engine's generic value representation.
//
// Constants inside engine predicates carry an IRValue. The storage layer has
// its own typed property representation (see package condition); converting
// between the two is the only place where values cross the engine/storage
// boundary.
//
// This package imports nothing internal. All other internal packages may
// import ir.
//
// Key design constraints:
//   - IRValue is sealed; type switches over it are exhaustive
//   - Integers are always int64, floats always float64
//   - JSON null decodes to IRNull, never to a nil IRValue
//   - Canonical JSON (MarshalCanonical) is used for golden files
package ir
