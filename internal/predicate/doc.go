// Package predicate defines the query engine's filter algebra.
//
// A filter is a tree of Predicates whose leaves compare Operands:
//
//	[Predicates] -> Init | SingleItem | Predicate | Not | And | Or
//	[Operand]    -> Var{Tag, Key} | Const{Value}
//
// The storage layer never sees these types directly. The pushdown package
// translates a tree into a storage condition, or reports that it cannot,
// in which case the engine evaluates the tree itself.
//
// SEALED INTERFACES:
//
// Operand, PropKey, Predicates and Evaluator are sealed with marker
// methods. Consumers switch over the concrete types exhaustively:
//
//	switch p := tree.(type) {
//	case Init:
//	case SingleItem:
//	case Predicate:
//	case Not:
//	case And:
//	case Or:
//	}
//
// Both value and pointer forms satisfy the interfaces, so a switch that
// accepts trees built by other packages handles both.
//
// GENERAL EXPRESSIONS:
//
// Filters that do not fit the structural algebra are carried as a General
// expression (a compiled CEL program). They are evaluated locally and are
// never pushed down.
package predicate
