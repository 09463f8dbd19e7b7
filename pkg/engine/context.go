package engine

// EvalContext records the upstream reads made by one evaluation of one
// derived node. Compute functions receive an EvalContext and must thread it
// through every read they make; each read through the context becomes a
// dependency edge for this evaluation, which is how dependency sets are
// discovered dynamically (a node's reads may differ between evaluations).
//
// Contexts form a chain for nested evaluations (a compute function reading
// another computed node). The chain doubles as the evaluation stack used to
// detect cycles: re-entering a node already on the chain fails with
// [ErrCyclicDependency].
//
// A nil *EvalContext is valid and records nothing; it is what external
// callers (outside any evaluation) pass to read methods.
type EvalContext struct {
	owner  string // ID of the node being computed
	parent *EvalContext

	reads []string
	seen  map[string]struct{}
}

func newEvalContext(owner string, parent *EvalContext) *EvalContext {
	return &EvalContext{owner: owner, parent: parent, seen: make(map[string]struct{})}
}

// record registers a dependency read, deduplicating while preserving first
// read order.
func (ec *EvalContext) record(id string) {
	if ec == nil {
		return
	}
	if _, dup := ec.seen[id]; dup {
		return
	}
	ec.seen[id] = struct{}{}
	ec.reads = append(ec.reads, id)
}

// onStack reports whether the node is already being evaluated somewhere up
// the context chain.
func (ec *EvalContext) onStack(id string) bool {
	for c := ec; c != nil; c = c.parent {
		if c.owner == id {
			return true
		}
	}
	return false
}
