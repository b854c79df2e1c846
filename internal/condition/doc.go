// Package condition is the storage layer's filter algebra.
//
// A Condition is a tree of Pred leaves joined by And, Or and Not. Leaves
// test for a property (HasProp) or compare two operands (Compare). Operands
// reference a property by identifier, the label, the identifier, or carry
// a typed constant Property.
//
// Conditions are assembled with a Builder, whose combination order is part
// of the contract:
//
//	NewBuilder().And(a).And(b).Build()  // AND(a, b)
//	NewBuilder().And(a).Or(b).Build()   // OR(a, b)
//	NewBuilder().And(a).Not().Build()   // NOT(a)
package condition
