package engine

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/pullwave/pullwave/pkg/observability"
)

// maxJournal bounds the per-set delta journal. Consumers that fall further
// behind than this rebuild from a full snapshot instead of replaying deltas.
const maxJournal = 1024

// setDelta is one incremental membership change.
type setDelta[T comparable] struct {
	Add  bool
	Item T
}

// setJournal records membership changes so downstream derived sets can catch
// up in O(|delta|). version counts membership changes; entries[i] is the
// change that produced version start+i+1.
type setJournal[T comparable] struct {
	version uint64
	entries []setDelta[T]
	start   uint64
}

func (j *setJournal[T]) append(d setDelta[T]) {
	j.entries = append(j.entries, d)
	j.version++
	if over := len(j.entries) - maxJournal; over > 0 {
		j.entries = slices.Clone(j.entries[over:])
		j.start += uint64(over)
	}
}

// barrier invalidates all outstanding delta coverage, forcing consumers to
// rebuild. Used after a full recomputation of a derived set.
func (j *setJournal[T]) barrier() {
	j.version++
	j.entries = nil
	j.start = j.version
}

// since returns the deltas needed to catch up from version v, and whether
// the journal still covers that span.
func (j *setJournal[T]) since(v uint64) ([]setDelta[T], bool) {
	if v == j.version {
		return nil, true
	}
	if v < j.start || v > j.version {
		return nil, false
	}
	return j.entries[v-j.start:], true
}

// SetNode is the handle shared by root sets and derived sets. It is sealed:
// only types in this package implement it.
type SetNode[T comparable] interface {
	Node

	// refreshSet brings the set's membership and journal up to date.
	refreshSet(parent *EvalContext) error
	// setVersionLocked, setDeltasLocked, and setItemsLocked are called with
	// the graph lock held.
	setVersionLocked() uint64
	setDeltasLocked(v uint64) ([]setDelta[T], bool)
	setItemsLocked() map[T]struct{}
}

// Set is a mutable leaf collection, the set-valued analogue of [Cell].
// Membership changes inside a transaction are staged as ordered deltas and
// journaled at commit, so derived sets downstream can apply them
// incrementally instead of rescanning the whole set.
type Set[T comparable] struct {
	nodeState
	items   map[T]struct{}
	journal setJournal[T]
}

// NewSet adds a root set to the graph with the given initial members.
func NewSet[T comparable](g *Graph, label string, items ...T) *Set[T] {
	s := &Set[T]{
		nodeState: nodeState{g: g, label: label, kind: KindSet},
		items:     make(map[T]struct{}, len(items)),
	}
	for _, it := range items {
		s.items[it] = struct{}{}
	}
	g.register(s, label)
	return s
}

// Add stages the insertion of item in the given transaction. Inserting an
// existing member is a no-op that produces no delta. Legal only inside an
// open transaction, like [Cell.Write].
func (s *Set[T]) Add(txn *Txn, item T) error {
	if txn == nil {
		return ErrNoTransaction
	}
	return txn.stageAppend(s.g, s.id, func() bool {
		if _, ok := s.items[item]; ok {
			return false
		}
		s.items[item] = struct{}{}
		s.journal.append(setDelta[T]{Add: true, Item: item})
		return true
	})
}

// Remove stages the removal of item in the given transaction. Removing a
// non-member is a no-op that produces no delta.
func (s *Set[T]) Remove(txn *Txn, item T) error {
	if txn == nil {
		return ErrNoTransaction
	}
	return txn.stageAppend(s.g, s.id, func() bool {
		if _, ok := s.items[item]; !ok {
			return false
		}
		delete(s.items, item)
		s.journal.append(setDelta[T]{Add: false, Item: item})
		return true
	})
}

// Value returns a snapshot of the current committed membership. When called
// during an evaluation, the read is recorded as a dependency.
func (s *Set[T]) Value(ec *EvalContext) map[T]struct{} {
	ec.record(s.id)
	s.g.mu.Lock()
	defer s.g.mu.Unlock()
	return maps.Clone(s.items)
}

func (s *Set[T]) refreshSet(*EvalContext) error { return nil }

func (s *Set[T]) setVersionLocked() uint64 { return s.journal.version }

func (s *Set[T]) setDeltasLocked(v uint64) ([]setDelta[T], bool) { return s.journal.since(v) }

func (s *Set[T]) setItemsLocked() map[T]struct{} { return s.items }

func (s *Set[T]) evaluateAny(parent *EvalContext) (any, error) {
	return sortedItems(s.Value(parent)), nil
}

// DerivedSet is a set-valued computed node defined as a transformation of
// another set. When the upstream change is covered by the source's delta
// journal, evaluation applies the deltas in O(|delta|); otherwise it falls
// back to a full recomputation over a snapshot of the source.
//
// Construct derived sets with [MapSet] or [FilterSet].
type DerivedSet[S, T comparable] struct {
	nodeState
	source SetNode[S]
	xform  func(S) (T, bool)

	evalMu sync.Mutex

	items  map[T]struct{}
	counts map[T]int // multiplicity per output item; the transform need not be injective
	// srcVersion is the source journal version the cached membership
	// reflects. primed reports whether a first full build happened.
	srcVersion uint64
	primed     bool
	journal    setJournal[T]
}

// MapSet adds a derived set that contains fn(item) for every member of
// source. fn must be pure.
func MapSet[S, T comparable](g *Graph, label string, source SetNode[S], fn func(S) T) *DerivedSet[S, T] {
	return newDerivedSet(g, label, source, func(s S) (T, bool) { return fn(s), true })
}

// FilterSet adds a derived set containing the members of source for which
// keep returns true. keep must be pure.
func FilterSet[T comparable](g *Graph, label string, source SetNode[T], keep func(T) bool) *DerivedSet[T, T] {
	return newDerivedSet(g, label, source, func(s T) (T, bool) { return s, keep(s) })
}

func newDerivedSet[S, T comparable](g *Graph, label string, source SetNode[S], xform func(S) (T, bool)) *DerivedSet[S, T] {
	d := &DerivedSet[S, T]{
		nodeState: nodeState{g: g, label: label, kind: KindDerivedSet, dirty: true},
		source:    source,
		xform:     xform,
		items:     make(map[T]struct{}),
		counts:    make(map[T]int),
	}
	g.register(d, label)

	// The upstream source is fixed at construction, so the dependency edge
	// is static; it never needs rewiring after evaluations.
	g.mu.Lock()
	g.addStaticEdgeLocked(d.id, source.ID())
	g.mu.Unlock()
	return d
}

// Evaluate returns a snapshot of the derived membership, catching up on
// source deltas or rebuilding as needed.
func (d *DerivedSet[S, T]) Evaluate() (map[T]struct{}, error) {
	return d.eval(nil)
}

// Value reads the derived set from inside another node's compute function,
// registering the dependency edge.
func (d *DerivedSet[S, T]) Value(ec *EvalContext) (map[T]struct{}, error) {
	return d.eval(ec)
}

func (d *DerivedSet[S, T]) eval(parent *EvalContext) (map[T]struct{}, error) {
	if parent.onStack(d.id) {
		return nil, fmt.Errorf("%w: %s", ErrCyclicDependency, d.id)
	}
	parent.record(d.id)

	g := d.g
	if m, ok := d.cachedClean(); ok {
		observability.Engine().OnCacheHit(d.id)
		return m, nil
	}

	d.evalMu.Lock()
	defer d.evalMu.Unlock()
	if m, ok := d.cachedClean(); ok {
		observability.Engine().OnCacheHit(d.id)
		return m, nil
	}

	observability.Engine().OnEvaluateStart(d.id)
	start := time.Now()

	// Bring the source up to date first; for derived-set chains this
	// recurses, keeping every hop incremental.
	ec := newEvalContext(d.id, parent)
	if err := d.source.refreshSet(ec); err != nil {
		observability.Engine().OnEvaluateComplete(d.id, time.Since(start), err)
		return nil, err
	}

	g.mu.Lock()
	epoch := d.epoch
	srcV := d.source.setVersionLocked()
	var deltas []setDelta[S]
	covered := false
	if d.primed {
		deltas, covered = d.source.setDeltasLocked(d.srcVersion)
		deltas = slices.Clone(deltas)
	}
	var snapshot map[S]struct{}
	if !covered {
		snapshot = maps.Clone(d.source.setItemsLocked())
	}
	g.mu.Unlock()

	// Run the user transform outside the graph lock.
	if covered {
		changes := d.applyDeltas(deltas)
		g.mu.Lock()
		for _, ch := range changes {
			if ch.Add {
				d.items[ch.Item] = struct{}{}
			} else {
				delete(d.items, ch.Item)
			}
			d.journal.append(ch)
		}
	} else {
		fresh := make(map[T]struct{})
		counts := make(map[T]int)
		for s := range snapshot {
			if t, ok := d.xform(s); ok {
				counts[t]++
				fresh[t] = struct{}{}
			}
		}
		g.mu.Lock()
		d.items = fresh
		d.counts = counts
		if d.primed {
			d.journal.barrier()
		}
	}

	d.srcVersion = srcV
	d.primed = true
	if d.epoch == epoch {
		d.dirty = false
	}
	notify := g.takePendingLocked(d.id)
	result := maps.Clone(d.items)
	g.mu.Unlock()

	observability.Engine().OnEvaluateComplete(d.id, time.Since(start), nil)
	for _, fn := range notify {
		fn()
	}
	return result, nil
}

// applyDeltas maps source deltas through the transform, maintaining output
// multiplicities, and returns the resulting membership changes. counts is
// guarded by evalMu.
func (d *DerivedSet[S, T]) applyDeltas(deltas []setDelta[S]) []setDelta[T] {
	var changes []setDelta[T]
	for _, del := range deltas {
		t, ok := d.xform(del.Item)
		if !ok {
			continue
		}
		if del.Add {
			d.counts[t]++
			if d.counts[t] == 1 {
				changes = append(changes, setDelta[T]{Add: true, Item: t})
			}
		} else {
			d.counts[t]--
			if d.counts[t] <= 0 {
				delete(d.counts, t)
				changes = append(changes, setDelta[T]{Add: false, Item: t})
			}
		}
	}
	return changes
}

func (d *DerivedSet[S, T]) cachedClean() (map[T]struct{}, bool) {
	d.g.mu.Lock()
	defer d.g.mu.Unlock()
	if !d.dirty && d.primed {
		return maps.Clone(d.items), true
	}
	return nil, false
}

func (d *DerivedSet[S, T]) refreshSet(parent *EvalContext) error {
	_, err := d.eval(parent)
	return err
}

func (d *DerivedSet[S, T]) setVersionLocked() uint64 { return d.journal.version }

func (d *DerivedSet[S, T]) setDeltasLocked(v uint64) ([]setDelta[T], bool) { return d.journal.since(v) }

func (d *DerivedSet[S, T]) setItemsLocked() map[T]struct{} { return d.items }

func (d *DerivedSet[S, T]) evaluateAny(parent *EvalContext) (any, error) {
	m, err := d.eval(parent)
	if err != nil {
		return nil, err
	}
	return sortedItems(m), nil
}

// Ensure both set variants satisfy SetNode.
var (
	_ SetNode[int] = (*Set[int])(nil)
	_ SetNode[int] = (*DerivedSet[string, int])(nil)
)

// sortedItems flattens a set snapshot into a deterministic slice for
// untyped consumers (JSON, CLI tables).
func sortedItems[T comparable](m map[T]struct{}) []T {
	items := make([]T, 0, len(m))
	for it := range m {
		items = append(items, it)
	}
	slices.SortFunc(items, func(a, b T) int {
		return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
	})
	return items
}
