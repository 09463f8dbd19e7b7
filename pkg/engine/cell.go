package engine

// Cell is a mutable leaf node holding a single value. Cells are the root
// sources of change in a graph: they have no dependencies, are never dirty,
// and may only be written inside an open transaction.
type Cell[T any] struct {
	nodeState
	value T
}

// NewCell adds a value cell to the graph with the given label and initial
// value. The label becomes the node ID when it is unique in the graph;
// otherwise a generated suffix keeps the identity stable and unique.
func NewCell[T any](g *Graph, label string, initial T) *Cell[T] {
	c := &Cell[T]{
		nodeState: nodeState{g: g, label: label, kind: KindCell},
		value:     initial,
	}
	g.register(c, label)
	return c
}

// Value returns the cell's current committed value. When called during an
// evaluation (ec non-nil), the read is recorded as a dependency of the node
// being evaluated. Staged writes of an open transaction are not visible
// until commit.
func (c *Cell[T]) Value(ec *EvalContext) T {
	ec.record(c.id)
	c.g.mu.Lock()
	defer c.g.mu.Unlock()
	return c.value
}

// Write stages a new value for the cell in the given transaction. The
// cell's visible value does not change until the transaction commits.
// Multiple writes to the same cell within one transaction coalesce: only
// the final value is applied, and the cell contributes a single seed to the
// invalidation wave.
//
// Returns [ErrNoTransaction] when txn is nil, [ErrTransactionClosed] when it
// was already committed or aborted, and [ErrWrongGraph] when it belongs to
// another graph.
func (c *Cell[T]) Write(txn *Txn, v T) error {
	if txn == nil {
		return ErrNoTransaction
	}
	return txn.stageReplace(c.g, c.id, func() bool {
		c.value = v
		return true
	})
}

func (c *Cell[T]) evaluateAny(parent *EvalContext) (any, error) {
	return c.Value(parent), nil
}
