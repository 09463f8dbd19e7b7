package engine

import "errors"

var (
	// ErrNoTransaction is returned by [Cell.Write], [Set.Add], and [Set.Remove]
	// when no transaction is supplied. Mutations are only legal inside an open
	// transaction; a write with a nil transaction is always rejected, never
	// silently queued.
	ErrNoTransaction = errors.New("mutation outside transaction")

	// ErrTransactionOpen is returned by [Graph.Begin] when a transaction is
	// already open on the graph. Transactions do not nest in this design.
	ErrTransactionOpen = errors.New("transaction already open")

	// ErrTransactionClosed is returned when staging a write against, or
	// committing, a transaction that has already been committed or aborted.
	ErrTransactionClosed = errors.New("transaction already closed")

	// ErrCyclicDependency is returned by Evaluate when a node under evaluation
	// is re-entered, directly or transitively. Since dependency sets are
	// discovered dynamically, cycles are detected at evaluation time, not at
	// construction.
	ErrCyclicDependency = errors.New("cyclic dependency")

	// ErrUnknownNode is returned by [Graph.Evaluate] and [Graph.Subscribe]
	// when the referenced node is not part of the graph.
	ErrUnknownNode = errors.New("unknown node")

	// ErrWrongGraph is returned when a transaction from one graph is used to
	// mutate a node that belongs to another.
	ErrWrongGraph = errors.New("transaction belongs to a different graph")
)
