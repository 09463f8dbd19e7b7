package engine

import (
	"maps"
	"slices"
	"time"

	"github.com/pullwave/pullwave/pkg/observability"
)

// Txn is a scoped unit of mutation. Writes staged through a transaction are
// invisible to readers until Commit, which applies every staged write
// atomically and then propagates invalidation through the graph exactly once
// per affected node, no matter how many writes the transaction carried.
//
// Exactly one transaction may be open per graph at a time; see [Graph.Begin].
// Transactions are not safe for concurrent use by multiple goroutines.
type Txn struct {
	g *Graph

	// writes holds staged apply thunks per node, each reporting whether it
	// changed anything. Cells coalesce (last write wins); sets append
	// deltas in order.
	writes map[string][]func() bool
	order  []string
	forced map[string]struct{}
	closed bool
}

// Begin opens a transaction on the graph. Returns [ErrTransactionOpen] if
// another transaction is already open; transactions do not nest.
func (g *Graph) Begin() (*Txn, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.txn != nil {
		return nil, ErrTransactionOpen
	}
	t := &Txn{
		g:      g,
		writes: make(map[string][]func() bool),
		forced: make(map[string]struct{}),
	}
	g.txn = t
	return t, nil
}

// stageReplace stages a coalescing write: a later write to the same node
// replaces the earlier one.
func (t *Txn) stageReplace(g *Graph, id string, apply func() bool) error {
	return t.stage(g, id, apply, true)
}

// stageAppend stages an ordered delta: writes to the same node accumulate.
func (t *Txn) stageAppend(g *Graph, id string, apply func() bool) error {
	return t.stage(g, id, apply, false)
}

func (t *Txn) stage(g *Graph, id string, apply func() bool, replace bool) error {
	if t.g != g {
		return ErrWrongGraph
	}
	t.g.mu.Lock()
	defer t.g.mu.Unlock()
	if t.closed {
		return ErrTransactionClosed
	}
	if _, ok := t.writes[id]; !ok {
		t.order = append(t.order, id)
	}
	if replace {
		t.writes[id] = []func() bool{apply}
	} else {
		t.writes[id] = append(t.writes[id], apply)
	}
	return nil
}

// ForceDirty marks the node, and transitively its dependents, dirty at
// commit even though no upstream value changed. This is the supported way
// to force recomputation of a node whose compute function is not fully
// captured by its dependencies; prefer modeling such inputs as cells.
func (t *Txn) ForceDirty(n Node) error {
	s := n.node()
	if s.g != t.g {
		return ErrWrongGraph
	}
	t.g.mu.Lock()
	defer t.g.mu.Unlock()
	if t.closed {
		return ErrTransactionClosed
	}
	t.forced[s.id] = struct{}{}
	return nil
}

// Commit applies all staged writes atomically and fires a single
// invalidation wave over the transitive dependents of the written nodes.
// No dependent observes a partially applied transaction: every staged write
// lands before any dirty flag is set, and the graph lock is held for the
// whole apply-and-invalidate step.
//
// Commit never recomputes anything; dependents are only marked dirty and
// recompute lazily on their next Evaluate.
func (t *Txn) Commit() error {
	g := t.g
	start := time.Now()

	g.mu.Lock()
	if t.closed {
		g.mu.Unlock()
		return ErrTransactionClosed
	}
	// Apply every staged write; only nodes that actually changed seed the
	// invalidation wave, so a transaction full of no-op deltas dirties
	// nothing.
	var changed []string
	for _, id := range t.order {
		touched := false
		for _, apply := range t.writes[id] {
			if apply() {
				touched = true
			}
		}
		if touched {
			changed = append(changed, id)
		}
	}
	dirtied := g.invalidateLocked(changed, slices.Collect(maps.Keys(t.forced)))
	t.closed = true
	g.txn = nil
	g.commits++

	// Cells notify at commit: their value is already fresh.
	var notify []func()
	for _, id := range changed {
		if n, ok := g.nodes[id]; ok && n.Kind() == KindCell {
			notify = append(notify, g.subsLocked(id)...)
		}
	}
	g.mu.Unlock()

	observability.Txn().OnCommit(len(t.order), dirtied, time.Since(start))
	for _, fn := range notify {
		fn()
	}
	return nil
}

// Abort discards all staged writes. No invalidation occurs and no cell
// changes value. Aborting an already-closed transaction returns
// [ErrTransactionClosed].
func (t *Txn) Abort() error {
	t.g.mu.Lock()
	if t.closed {
		t.g.mu.Unlock()
		return ErrTransactionClosed
	}
	t.closed = true
	t.g.txn = nil
	t.g.mu.Unlock()

	observability.Txn().OnAbort()
	return nil
}
