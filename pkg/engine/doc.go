// Package engine implements an incremental, pull-based dataflow graph.
//
// The engine tracks a directed acyclic graph of nodes. Leaf nodes hold
// mutable values ([Cell]) or mutable sets ([Set]); derived nodes cache the
// result of a pure function over other nodes ([Computed]) or an incremental
// transformation of another set ([MapSet], [FilterSet]). Mutating a leaf
// invalidates exactly the transitive dependents of that leaf; nothing is
// recomputed until a caller pulls a fresh value.
//
// # Architecture
//
// The life of a value change:
//
//	txn, _ := g.Begin()          // open a transaction
//	cell.Write(txn, 42)          // stage writes (cells keep their old value)
//	txn.Commit()                 // apply atomically, mark dependents dirty
//	v, _ := node.Evaluate()      // pull: recompute only what is dirty
//
// Evaluation is lazy. A [Computed] node that nobody evaluates never runs its
// compute function, no matter how many upstream writes occur. A node whose
// dirty flag is clear returns its cached value in O(1).
//
// # Dependency discovery
//
// Dependencies are discovered dynamically, per evaluation. The compute
// function receives an [EvalContext]; every upstream read made through that
// context records a dependency edge for this evaluation. When a node
// re-evaluates with a different read set, stale dependent edges are removed,
// so the dependent relation is always the exact transpose of the most recent
// read sets.
//
// # Purity contract
//
// Compute functions must be pure: for a fixed assignment of upstream values
// they must return the same result. The at-most-once re-evaluation guarantee
// per transaction holds only under this contract. Impure compute functions
// (external randomness, hidden state) break change detection; if a node must
// be recomputed regardless of upstream values, use [Txn.ForceDirty] instead.
//
// # Concurrency
//
// Exactly one transaction may be open per graph at a time (enforced by
// [Graph.Begin]). Any number of goroutines may evaluate concurrently;
// evaluation of a given node is serialized so its compute function never
// runs twice for one invalidation. Cycle detection covers a single
// evaluation tree: a graph that is only cyclic across concurrently
// evaluating goroutines is a programming error and may deadlock rather
// than return [ErrCyclicDependency].
package engine
