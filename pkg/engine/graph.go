package engine

import (
	"cmp"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// NodeKind identifies the variant of a graph node.
type NodeKind string

// Node kinds, as reported by [Node.Kind] and exposed to inspection tooling.
const (
	KindCell       NodeKind = "cell"
	KindComputed   NodeKind = "computed"
	KindSet        NodeKind = "set"
	KindDerivedSet NodeKind = "derived-set"
)

// Node is the read-only handle common to all graph node variants.
// Concrete types ([Cell], [Computed], [Set], and derived sets) provide the
// typed operations; Node is what inspection tooling and [Graph.Subscribe]
// work with.
type Node interface {
	// ID returns the node's stable, graph-unique identifier.
	ID() string
	// Label returns the display label the node was constructed with.
	Label() string
	// Kind returns the node variant.
	Kind() NodeKind

	node() *nodeState
}

// Edge is a directed dependency edge: From read To during its most recent
// evaluation.
type Edge struct {
	From string // dependent (downstream reader)
	To   string // dependency (upstream)
}

// nodeState carries the bookkeeping shared by all node variants. It is
// embedded in each concrete node type; all fields except id and label are
// guarded by the owning graph's mutex.
type nodeState struct {
	g     *Graph
	id    string
	label string
	kind  NodeKind

	dirty bool
	// epoch increments every time the node is invalidated. Evaluations
	// capture it before running compute and only clear the dirty flag if no
	// commit invalidated the node mid-compute.
	epoch uint64
}

func (s *nodeState) ID() string       { return s.id }
func (s *nodeState) Label() string    { return s.label }
func (s *nodeState) Kind() NodeKind   { return s.kind }
func (s *nodeState) node() *nodeState { return s }

func (s *nodeState) markDirtyLocked() {
	s.dirty = true
	s.epoch++
}

// evaluator is implemented by node variants that can produce a value for
// untyped callers (the CLI, the HTTP inspector).
type evaluator interface {
	evaluateAny(parent *EvalContext) (any, error)
}

// Graph owns a set of dataflow nodes and the dependency edges between them.
//
// The graph records, for every node, the ordered dependencies observed
// during its most recent evaluation and the transposed dependent edges used
// for invalidation fan-out. Dependent edges are index-based (node ID to ID
// set) rather than embedded pointers, so a node never keeps its dependents
// alive.
//
// The zero value is not usable; call [New].
type Graph struct {
	mu sync.Mutex

	nodes map[string]Node
	// deps maps a node to the ordered dependency IDs recorded during its
	// most recent evaluation. dependents is the exact transpose.
	deps       map[string][]string
	dependents map[string]map[string]struct{}

	txn     *Txn
	commits uint64

	subs   map[string]map[int]func()
	subSeq int
	// pending holds invalidated nodes with subscribers; their callbacks fire
	// after the next successful evaluation.
	pending map[string]struct{}
}

// New creates an empty dataflow graph.
func New() *Graph {
	return &Graph{
		nodes:      make(map[string]Node),
		deps:       make(map[string][]string),
		dependents: make(map[string]map[string]struct{}),
		subs:       make(map[string]map[int]func()),
		pending:    make(map[string]struct{}),
	}
}

// register assigns an identity to a new node and adds it to the registry.
// The label is used as the ID when free; otherwise (or when empty) a UUID
// keeps identities unique for the node's lifetime.
func (g *Graph) register(n Node, label string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := label
	if id == "" {
		id = uuid.NewString()
	} else if _, taken := g.nodes[id]; taken {
		id = label + "-" + uuid.NewString()[:8]
	}
	n.node().id = id
	g.nodes[id] = n
	return id
}

// Node returns the node with the given ID and true, or nil and false.
func (g *Graph) Node(id string) (Node, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes sorted by ID for deterministic iteration.
func (g *Graph) Nodes() []Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	nodes := make([]Node, 0, len(g.nodes))
	for _, id := range slices.Sorted(maps.Keys(g.nodes)) {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// Commits returns the number of transactions committed against the graph.
func (g *Graph) Commits() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.commits
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.nodes)
}

// Edges returns every dependency edge recorded by the most recent
// evaluations, sorted by (From, To) for deterministic output.
func (g *Graph) Edges() []Edge {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.edgesLocked()
}

func (g *Graph) edgesLocked() []Edge {
	var edges []Edge
	for reader, targets := range g.deps {
		for _, t := range targets {
			edges = append(edges, Edge{From: reader, To: t})
		}
	}
	slices.SortFunc(edges, func(a, b Edge) int {
		if c := cmp.Compare(a.From, b.From); c != 0 {
			return c
		}
		return cmp.Compare(a.To, b.To)
	})
	return edges
}

// NodeInfo is one node's identity and dirty state as captured by
// [Graph.Structure].
type NodeInfo struct {
	ID    string
	Label string
	Kind  NodeKind
	Dirty bool
}

// Structure returns every node's identity and dirty state together with all
// dependency edges, captured under a single lock so the two views agree
// even while transactions commit concurrently. Nodes are sorted by ID and
// edges by (From, To).
func (g *Graph) Structure() ([]NodeInfo, []Edge) {
	g.mu.Lock()
	defer g.mu.Unlock()
	nodes := make([]NodeInfo, 0, len(g.nodes))
	for _, id := range slices.Sorted(maps.Keys(g.nodes)) {
		n := g.nodes[id]
		nodes = append(nodes, NodeInfo{
			ID:    id,
			Label: n.Label(),
			Kind:  n.Kind(),
			Dirty: n.node().dirty,
		})
	}
	return nodes, g.edgesLocked()
}

// EdgeCount returns the number of dependency edges.
func (g *Graph) EdgeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, from := range g.deps {
		n += len(from)
	}
	return n
}

// Dependencies returns the ordered dependency IDs recorded during the node's
// most recent evaluation. The result is a copy.
func (g *Graph) Dependencies(id string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.deps[id])
}

// Dependents returns the IDs of nodes that read this node during their most
// recent evaluation, sorted for determinism.
func (g *Graph) Dependents(id string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Sorted(maps.Keys(g.dependents[id]))
}

// Dirty reports whether the node's cached value is stale. Leaf nodes are
// never dirty. Unknown IDs report false.
func (g *Graph) Dirty(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n, ok := g.nodes[id]; ok {
		return n.node().dirty
	}
	return false
}

// Evaluate pulls a fresh value for the node with the given ID. It is the
// untyped counterpart of the Evaluate method on [Computed] and the set
// types, intended for inspection tooling; set values are returned as sorted
// slices. Cells return their current value. Returns [ErrUnknownNode] for
// IDs not in the graph.
func (g *Graph) Evaluate(id string) (any, error) {
	g.mu.Lock()
	n, ok := g.nodes[id]
	g.mu.Unlock()
	if !ok {
		return nil, ErrUnknownNode
	}
	return n.(evaluator).evaluateAny(nil)
}

// Subscribe registers fn to run after node changes. For cells the callback
// fires when a transaction writing the cell commits. For derived nodes it
// fires after a commit invalidates the node and the node is subsequently
// evaluated — the push layer stays on top of the pull model, so an
// invalidated node that nobody evaluates never notifies.
//
// The returned cancel function removes the subscription and is safe to call
// more than once.
func (g *Graph) Subscribe(n Node, fn func()) (cancel func(), err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := n.node().id
	if _, ok := g.nodes[id]; !ok || n.node().g != g {
		return nil, ErrUnknownNode
	}
	if g.subs[id] == nil {
		g.subs[id] = make(map[int]func())
	}
	g.subSeq++
	seq := g.subSeq
	g.subs[id][seq] = fn

	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.subs[id], seq)
	}, nil
}

// rewireLocked replaces the dependency set of a node after an evaluation.
// Edges to dependencies no longer read are removed from the transposed
// dependent index; newly read dependencies gain a dependent edge. Called
// with the graph lock held.
func (g *Graph) rewireLocked(id string, reads []string) {
	for _, old := range g.deps[id] {
		if !slices.Contains(reads, old) {
			delete(g.dependents[old], id)
		}
	}
	for _, dep := range reads {
		set := g.dependents[dep]
		if set == nil {
			set = make(map[string]struct{})
			g.dependents[dep] = set
		}
		set[id] = struct{}{}
	}
	if len(reads) == 0 {
		delete(g.deps, id)
		return
	}
	g.deps[id] = slices.Clone(reads)
}

// addStaticEdgeLocked records a construction-time dependency edge. Used by
// derived sets, whose single upstream source never changes.
func (g *Graph) addStaticEdgeLocked(id, dep string) {
	g.deps[id] = append(g.deps[id], dep)
	set := g.dependents[dep]
	if set == nil {
		set = make(map[string]struct{})
		g.dependents[dep] = set
	}
	set[id] = struct{}{}
}

// invalidateLocked marks the transitive dependents of the seed nodes dirty
// and additionally marks every node in alsoMark (force-dirtied nodes) dirty
// itself. Marking is idempotent: a node reached through several paths of a
// diamond is marked once. Returns the number of nodes marked. Called with
// the graph lock held.
func (g *Graph) invalidateLocked(seeds, alsoMark []string) int {
	visited := make(map[string]struct{})
	var queue []string

	mark := func(id string) {
		if _, seen := visited[id]; seen {
			return
		}
		visited[id] = struct{}{}
		if n, ok := g.nodes[id]; ok {
			// Leaves (cells, root sets) have no compute step to re-run; they
			// propagate the wave without ever going dirty themselves.
			if k := n.Kind(); k == KindComputed || k == KindDerivedSet {
				n.node().markDirtyLocked()
			}
			if len(g.subs[id]) > 0 {
				g.pending[id] = struct{}{}
			}
		}
		queue = append(queue, id)
	}

	for _, id := range alsoMark {
		mark(id)
	}
	for _, id := range seeds {
		for dep := range g.dependents[id] {
			mark(dep)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for dep := range g.dependents[id] {
			mark(dep)
		}
	}
	return len(visited)
}

// takePendingLocked collects and clears the pending-notification callbacks
// for a node that just finished evaluating. Called with the graph lock held;
// the caller fires the callbacks after releasing it.
func (g *Graph) takePendingLocked(id string) []func() {
	if _, ok := g.pending[id]; !ok {
		return nil
	}
	delete(g.pending, id)
	return g.subsLocked(id)
}

// subsLocked returns the current subscriber callbacks for a node.
func (g *Graph) subsLocked(id string) []func() {
	if len(g.subs[id]) == 0 {
		return nil
	}
	fns := make([]func(), 0, len(g.subs[id]))
	for _, fn := range g.subs[id] {
		fns = append(fns, fn)
	}
	return fns
}
