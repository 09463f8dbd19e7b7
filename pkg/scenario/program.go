package scenario

import (
	"fmt"
	"math"

	"github.com/pullwave/pullwave/pkg/engine"
)

// Program is a scenario bound to a live graph. The graph is exported for
// inspection and rendering; mutation should go through [Program.Apply] and
// the single-write helpers so every change is transactional.
type Program struct {
	Graph    *engine.Graph
	Scenario Scenario

	cells map[string]*engine.Cell[float64]
	sets  map[string]*engine.Set[string]
	nodes map[string]*engine.Computed[float64]
}

// Step is the observable state after one commit: every declared output
// pulled fresh.
type Step struct {
	Outputs map[string]float64
}

// Build binds a scenario to a new live graph. The scenario is validated
// first, so Build accepts values constructed in code as well as parsed
// ones.
func Build(s Scenario) (*Program, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	p := &Program{
		Graph:    engine.New(),
		Scenario: s,
		cells:    make(map[string]*engine.Cell[float64], len(s.Cells)),
		sets:     make(map[string]*engine.Set[string], len(s.Sets)),
		nodes:    make(map[string]*engine.Computed[float64], len(s.Nodes)),
	}
	for _, c := range s.Cells {
		p.cells[c.Name] = engine.NewCell(p.Graph, c.Name, c.Value)
	}
	for _, sd := range s.Sets {
		p.sets[sd.Name] = engine.NewSet(p.Graph, sd.Name, sd.Items...)
	}
	for _, nd := range s.Nodes {
		p.nodes[nd.Name] = p.buildNode(nd)
	}
	return p, nil
}

func (p *Program) buildNode(nd NodeDef) *engine.Computed[float64] {
	spec := ops[nd.Op]
	switch spec.kind {
	case opCount:
		set := p.sets[nd.Inputs[0]]
		return engine.NewComputed(p.Graph, nd.Name, func(ec *engine.EvalContext) (float64, error) {
			return float64(len(set.Value(ec))), nil
		})

	case opSelect:
		selector := p.numReader(nd.Inputs[0])
		branches := make([]func(*engine.EvalContext) (float64, error), len(nd.Inputs)-1)
		for i, in := range nd.Inputs[1:] {
			branches[i] = p.numReader(in)
		}
		return engine.NewComputed(p.Graph, nd.Name, func(ec *engine.EvalContext) (float64, error) {
			sel, err := selector(ec)
			if err != nil {
				return 0, err
			}
			idx := int(sel)
			if sel != math.Trunc(sel) || idx < 0 || idx >= len(branches) {
				return 0, fmt.Errorf("%w: node %q selector %v of %d branches",
					ErrSelectOutOfRange, nd.Name, sel, len(branches))
			}
			// Only the chosen branch is read, so the graph rewires to it.
			return branches[idx](ec)
		})

	default:
		readers := make([]func(*engine.EvalContext) (float64, error), len(nd.Inputs))
		for i, in := range nd.Inputs {
			readers[i] = p.numReader(in)
		}
		return engine.NewComputed(p.Graph, nd.Name, func(ec *engine.EvalContext) (float64, error) {
			vals := make([]float64, len(readers))
			for i, read := range readers {
				v, err := read(ec)
				if err != nil {
					return 0, err
				}
				vals[i] = v
			}
			v, err := spec.fold(vals)
			if err != nil {
				return 0, fmt.Errorf("node %q: %w", nd.Name, err)
			}
			return v, nil
		})
	}
}

// numReader resolves a validated input name to a read function. Inputs are
// declared before use, so the name is always present in one of the maps.
func (p *Program) numReader(name string) func(*engine.EvalContext) (float64, error) {
	if c, ok := p.cells[name]; ok {
		return func(ec *engine.EvalContext) (float64, error) {
			return c.Value(ec), nil
		}
	}
	return p.nodes[name].Value
}

// Apply replays one declared transaction as a single atomic commit. Staging
// errors abort the transaction and leave the graph unchanged.
func (p *Program) Apply(t TxnDef) error {
	txn, err := p.Graph.Begin()
	if err != nil {
		return err
	}
	stage := func() error {
		for _, w := range t.Set {
			if err := p.cells[w.Cell].Write(txn, w.Value); err != nil {
				return err
			}
		}
		for _, d := range t.Add {
			if err := p.sets[d.Set].Add(txn, d.Item); err != nil {
				return err
			}
		}
		for _, d := range t.Remove {
			if err := p.sets[d.Set].Remove(txn, d.Item); err != nil {
				return err
			}
		}
		for _, f := range t.Force {
			if err := txn.ForceDirty(p.nodes[f]); err != nil {
				return err
			}
		}
		return nil
	}
	if err := stage(); err != nil {
		_ = txn.Abort()
		return err
	}
	return txn.Commit()
}

// SetNumber writes one cell in its own transaction.
func (p *Program) SetNumber(name string, v float64) error {
	c, ok := p.cells[name]
	if !ok {
		return fmt.Errorf("%w: cell %q", ErrUnknownName, name)
	}
	txn, err := p.Graph.Begin()
	if err != nil {
		return err
	}
	if err := c.Write(txn, v); err != nil {
		_ = txn.Abort()
		return err
	}
	return txn.Commit()
}

// UpdateSet applies membership deltas to one set in its own transaction.
func (p *Program) UpdateSet(name string, add, remove []string) error {
	s, ok := p.sets[name]
	if !ok {
		return fmt.Errorf("%w: set %q", ErrUnknownName, name)
	}
	txn, err := p.Graph.Begin()
	if err != nil {
		return err
	}
	for _, item := range add {
		if err := s.Add(txn, item); err != nil {
			_ = txn.Abort()
			return err
		}
	}
	for _, item := range remove {
		if err := s.Remove(txn, item); err != nil {
			_ = txn.Abort()
			return err
		}
	}
	return txn.Commit()
}

// Outputs pulls every declared output fresh.
func (p *Program) Outputs() (map[string]float64, error) {
	out := make(map[string]float64, len(p.Scenario.Outputs))
	for _, name := range p.Scenario.Outputs {
		if c, ok := p.cells[name]; ok {
			out[name] = c.Value(nil)
			continue
		}
		v, err := p.nodes[name].Evaluate()
		if err != nil {
			return nil, fmt.Errorf("output %q: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

// Run replays the scenario: the first step captures the initial outputs,
// then each declared transaction commits and the outputs are pulled again.
func (p *Program) Run() ([]Step, error) {
	steps := make([]Step, 0, len(p.Scenario.Transactions)+1)
	out, err := p.Outputs()
	if err != nil {
		return nil, err
	}
	steps = append(steps, Step{Outputs: out})

	for i, t := range p.Scenario.Transactions {
		if err := p.Apply(t); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		out, err := p.Outputs()
		if err != nil {
			return nil, err
		}
		steps = append(steps, Step{Outputs: out})
	}
	return steps, nil
}
