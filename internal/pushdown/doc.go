// Package pushdown translates engine filters into storage conditions.
//
// Given a predicate.Predicates tree, Translate returns one of three
// outcomes:
//
//	cond, true, nil    the whole tree runs inside storage as cond
//	nil, false, nil    storage cannot run it; the engine filters locally
//	nil, false, err    the tree is invalid for push-down
//
// The second outcome is not a failure. It is what callers use to decide
// that the engine evaluates the filter itself.
//
// TRANSLATION RULES:
//
//	Init                  fall back (nothing to push)
//	SingleItem(@.n)       has(prop[n])
//	Predicate(l, cmp, r)  l' cmp' r', comparators mapped one to one
//	Not(p)                NOT(p') when p is pushed, else fall back
//	And(l, r)             AND(l', r') when both are pushed, else fall back
//	Or(l, r)              OR(l', r') when both are pushed, else fall back
//
// Push-down is all or nothing at every connective. A tree with any
// untranslatable part falls back as a whole; no residual filter is split
// off.
//
// Only untagged variables reading a property identifier, the label or the
// identifier have storage counterparts. Constants are converted with
// condition.FromValue.
//
// ERRORS:
//
// Every error is an *Error carrying a Code and the path of the offending
// node ("root.left.inner"). Match kinds with errors.Is against the
// sentinels (ErrUnsupportedOperand, ...) or with the Is* helpers. Errors
// abort the walk: the left child is translated before the right, and the
// first error wins.
//
// All functions are pure and safe for concurrent use.
package pushdown
