package scenario

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Scenario is the declarative description of a graph and a sequence of
// transactions to replay against it.
type Scenario struct {
	Title        string    `toml:"title"`
	Cells        []CellDef `toml:"cells"`
	Sets         []SetDef  `toml:"sets"`
	Nodes        []NodeDef `toml:"nodes"`
	Transactions []TxnDef  `toml:"transactions"`
	Outputs      []string  `toml:"outputs"`
}

// CellDef declares a numeric value cell.
type CellDef struct {
	Name  string  `toml:"name"`
	Value float64 `toml:"value"`
}

// SetDef declares a collection of string items.
type SetDef struct {
	Name  string   `toml:"name"`
	Items []string `toml:"items"`
}

// NodeDef declares a derived node. Inputs must name cells, sets, or nodes
// declared earlier in the file.
type NodeDef struct {
	Name   string   `toml:"name"`
	Op     string   `toml:"op"`
	Inputs []string `toml:"inputs"`
}

// TxnDef declares one transaction: writes, set deltas, and forced
// recomputations, applied atomically.
type TxnDef struct {
	Set    []CellWrite `toml:"set"`
	Add    []SetDelta  `toml:"add"`
	Remove []SetDelta  `toml:"remove"`
	Force  []string    `toml:"force"`
}

// CellWrite stages one value for one cell.
type CellWrite struct {
	Cell  string  `toml:"cell"`
	Value float64 `toml:"value"`
}

// SetDelta stages one membership change for one set.
type SetDelta struct {
	Set  string `toml:"set"`
	Item string `toml:"item"`
}

// Load reads and validates a scenario file.
func Load(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, err
	}
	return Parse(data)
}

// Parse decodes and validates a TOML scenario.
func Parse(data []byte) (Scenario, error) {
	var s Scenario
	if err := toml.Unmarshal(data, &s); err != nil {
		return Scenario{}, fmt.Errorf("decode scenario: %w", err)
	}
	if err := s.validate(); err != nil {
		return Scenario{}, err
	}
	return s, nil
}

type declKind int

const (
	declCell declKind = iota
	declSet
	declNode
)

func (s Scenario) validate() error {
	decls := make(map[string]declKind)
	declare := func(name string, kind declKind) error {
		if name == "" {
			return fmt.Errorf("%w: empty name", ErrUnknownName)
		}
		if _, ok := decls[name]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
		decls[name] = kind
		return nil
	}

	for _, c := range s.Cells {
		if err := declare(c.Name, declCell); err != nil {
			return err
		}
	}
	for _, set := range s.Sets {
		if err := declare(set.Name, declSet); err != nil {
			return err
		}
	}

	// Nodes may only reference earlier declarations, so a valid file is
	// already in dependency order (select branches excepted, they stay
	// dynamic).
	for _, n := range s.Nodes {
		op, ok := ops[n.Op]
		if !ok {
			return fmt.Errorf("%w: %q on node %q", ErrUnknownOp, n.Op, n.Name)
		}
		if err := op.checkInputs(n, decls); err != nil {
			return err
		}
		if err := declare(n.Name, declNode); err != nil {
			return err
		}
	}

	for _, out := range s.Outputs {
		kind, ok := decls[out]
		if !ok {
			return fmt.Errorf("%w: output %q", ErrUnknownName, out)
		}
		if kind == declSet {
			return fmt.Errorf("%w: output %q is a set, wrap it in a count node", ErrArity, out)
		}
	}

	for i, txn := range s.Transactions {
		if err := txn.validate(i, decls); err != nil {
			return err
		}
	}
	return nil
}

func (t TxnDef) validate(i int, decls map[string]declKind) error {
	for _, w := range t.Set {
		if kind, ok := decls[w.Cell]; !ok || kind != declCell {
			return fmt.Errorf("%w: transaction %d writes %q, not a cell", ErrUnknownName, i, w.Cell)
		}
	}
	for _, d := range append(append([]SetDelta(nil), t.Add...), t.Remove...) {
		if kind, ok := decls[d.Set]; !ok || kind != declSet {
			return fmt.Errorf("%w: transaction %d touches %q, not a set", ErrUnknownName, i, d.Set)
		}
	}
	for _, f := range t.Force {
		if kind, ok := decls[f]; !ok || kind != declNode {
			return fmt.Errorf("%w: transaction %d forces %q, not a node", ErrUnknownName, i, f)
		}
	}
	return nil
}
