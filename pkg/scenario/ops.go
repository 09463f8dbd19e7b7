package scenario

import "fmt"

type opKind int

const (
	opNumeric opKind = iota // folds numeric inputs
	opCount                 // counts a single set input
	opSelect                // picks one numeric branch by selector value
)

type opSpec struct {
	kind opKind
	min  int
	fold func(vals []float64) (float64, error)
}

var ops = map[string]opSpec{
	"sum": {kind: opNumeric, min: 1, fold: func(vals []float64) (float64, error) {
		total := 0.0
		for _, v := range vals {
			total += v
		}
		return total, nil
	}},
	"sub": {kind: opNumeric, min: 2, fold: func(vals []float64) (float64, error) {
		out := vals[0]
		for _, v := range vals[1:] {
			out -= v
		}
		return out, nil
	}},
	"mul": {kind: opNumeric, min: 1, fold: func(vals []float64) (float64, error) {
		out := 1.0
		for _, v := range vals {
			out *= v
		}
		return out, nil
	}},
	"div": {kind: opNumeric, min: 2, fold: func(vals []float64) (float64, error) {
		out := vals[0]
		for _, v := range vals[1:] {
			if v == 0 {
				return 0, ErrDivideByZero
			}
			out /= v
		}
		return out, nil
	}},
	"min": {kind: opNumeric, min: 1, fold: func(vals []float64) (float64, error) {
		out := vals[0]
		for _, v := range vals[1:] {
			if v < out {
				out = v
			}
		}
		return out, nil
	}},
	"max": {kind: opNumeric, min: 1, fold: func(vals []float64) (float64, error) {
		out := vals[0]
		for _, v := range vals[1:] {
			if v > out {
				out = v
			}
		}
		return out, nil
	}},
	"mean": {kind: opNumeric, min: 1, fold: func(vals []float64) (float64, error) {
		total := 0.0
		for _, v := range vals {
			total += v
		}
		return total / float64(len(vals)), nil
	}},
	"count":  {kind: opCount, min: 1},
	"select": {kind: opSelect, min: 2},
}

func (o opSpec) checkInputs(n NodeDef, decls map[string]declKind) error {
	if len(n.Inputs) < o.min {
		return fmt.Errorf("%w: node %q needs at least %d inputs, has %d", ErrArity, n.Name, o.min, len(n.Inputs))
	}
	for _, in := range n.Inputs {
		kind, ok := decls[in]
		if !ok {
			return fmt.Errorf("%w: node %q reads %q", ErrUnknownName, n.Name, in)
		}
		switch o.kind {
		case opCount:
			if len(n.Inputs) != 1 {
				return fmt.Errorf("%w: node %q: count takes exactly one set", ErrArity, n.Name)
			}
			if kind != declSet {
				return fmt.Errorf("%w: node %q: count input %q is not a set", ErrArity, n.Name, in)
			}
		default:
			if kind == declSet {
				return fmt.Errorf("%w: node %q: %s input %q is a set", ErrArity, n.Name, n.Op, in)
			}
		}
	}
	return nil
}
