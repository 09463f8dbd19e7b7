package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/pullwave/pullwave/pkg/observability"
)

// Computed is a derived node whose value is a pure function of the nodes it
// reads. The result is cached; the compute function only re-runs after an
// upstream change marked the node dirty and a caller pulls a fresh value.
type Computed[T any] struct {
	nodeState
	compute func(*EvalContext) (T, error)

	// evalMu serializes evaluation of this node. Concurrent Evaluate calls
	// on the same dirty node run compute once; the second caller blocks
	// until the first result is cached.
	evalMu sync.Mutex

	cached T
	valid  bool
}

// NewComputed adds a computed node to the graph. The compute function must
// be pure and must read upstream nodes only through the supplied
// [EvalContext]; see the package documentation for the purity contract.
//
// The node starts dirty: compute does not run until the first Evaluate.
func NewComputed[T any](g *Graph, label string, compute func(*EvalContext) (T, error)) *Computed[T] {
	n := &Computed[T]{
		nodeState: nodeState{g: g, label: label, kind: KindComputed, dirty: true},
		compute:   compute,
	}
	g.register(n, label)
	return n
}

// Evaluate returns the node's value, recomputing it only if a dependency
// changed since the last evaluation. Clean nodes return the cached value in
// O(1). Returns [ErrCyclicDependency] if the node transitively reads itself.
func (n *Computed[T]) Evaluate() (T, error) {
	return n.eval(nil)
}

// Value reads the node from inside another node's compute function,
// registering the dependency edge and evaluating this node first if it is
// dirty.
func (n *Computed[T]) Value(ec *EvalContext) (T, error) {
	return n.eval(ec)
}

func (n *Computed[T]) eval(parent *EvalContext) (T, error) {
	var zero T
	if parent.onStack(n.id) {
		return zero, fmt.Errorf("%w: %s", ErrCyclicDependency, n.id)
	}
	parent.record(n.id)

	g := n.g
	if v, ok := n.cachedClean(); ok {
		observability.Engine().OnCacheHit(n.id)
		return v, nil
	}

	n.evalMu.Lock()
	defer n.evalMu.Unlock()

	// A concurrent caller may have recomputed while we waited for the lock.
	if v, ok := n.cachedClean(); ok {
		observability.Engine().OnCacheHit(n.id)
		return v, nil
	}

	g.mu.Lock()
	epoch := n.epoch
	g.mu.Unlock()

	observability.Engine().OnEvaluateStart(n.id)
	start := time.Now()

	ec := newEvalContext(n.id, parent)
	v, err := n.compute(ec)
	if err != nil {
		observability.Engine().OnEvaluateComplete(n.id, time.Since(start), err)
		return zero, err
	}

	g.mu.Lock()
	g.rewireLocked(n.id, ec.reads)
	n.cached = v
	n.valid = true
	// Only clear the dirty flag if no transaction invalidated the node while
	// compute was running; otherwise the next Evaluate recomputes.
	if n.epoch == epoch {
		n.dirty = false
	}
	notify := g.takePendingLocked(n.id)
	g.mu.Unlock()

	observability.Engine().OnEvaluateComplete(n.id, time.Since(start), nil)
	for _, fn := range notify {
		fn()
	}
	return v, nil
}

// cachedClean returns the cached value when the node is valid and clean.
func (n *Computed[T]) cachedClean() (T, bool) {
	n.g.mu.Lock()
	defer n.g.mu.Unlock()
	if !n.dirty && n.valid {
		return n.cached, true
	}
	var zero T
	return zero, false
}

func (n *Computed[T]) evaluateAny(parent *EvalContext) (any, error) {
	return n.eval(parent)
}
