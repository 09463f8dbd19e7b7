package engine_test

import (
	"fmt"

	"github.com/pullwave/pullwave/pkg/engine"
)

func ExampleComputed_basic() {
	// A spreadsheet-style sum: total = price * quantity.
	g := engine.New()
	price := engine.NewCell(g, "price", 3.50)
	qty := engine.NewCell(g, "qty", 2)
	total := engine.NewComputed(g, "total", func(ec *engine.EvalContext) (float64, error) {
		return price.Value(ec) * float64(qty.Value(ec)), nil
	})

	v, _ := total.Evaluate()
	fmt.Println("total:", v)

	// Writes are transactional; dependents recompute lazily on the next pull.
	txn, _ := g.Begin()
	_ = qty.Write(txn, 5)
	_ = txn.Commit()

	v, _ = total.Evaluate()
	fmt.Println("total:", v)
	// Output:
	// total: 7
	// total: 17.5
}

func ExampleTxn_coalescing() {
	g := engine.New()
	counter := engine.NewCell(g, "counter", 0)
	squared := engine.NewComputed(g, "squared", func(ec *engine.EvalContext) (int, error) {
		v := counter.Value(ec)
		return v * v, nil
	})

	// Ten writes, one transaction: dependents see a single change.
	txn, _ := g.Begin()
	for i := 1; i <= 10; i++ {
		_ = counter.Write(txn, i)
	}
	_ = txn.Commit()

	v, _ := squared.Evaluate()
	fmt.Println("squared:", v)
	// Output:
	// squared: 100
}

func ExampleMapSet() {
	g := engine.New()
	nums := engine.NewSet(g, "nums", 1, 2, 3)
	doubled := engine.MapSet(g, "doubled", nums, func(v int) int { return v * 2 })

	items, _ := doubled.Evaluate()
	fmt.Println("members:", len(items))

	// Adding one member flows through as a delta, not a rescan.
	txn, _ := g.Begin()
	_ = nums.Add(txn, 4)
	_ = txn.Commit()

	items, _ = doubled.Evaluate()
	_, has := items[8]
	fmt.Println("members:", len(items), "has 8:", has)
	// Output:
	// members: 3
	// members: 4 has 8: true
}

func ExampleGraph_Dependencies() {
	// Dependencies are discovered per evaluation, so a branch switch
	// rewires the graph.
	g := engine.New()
	useA := engine.NewCell(g, "use-a", true)
	a := engine.NewCell(g, "a", 1)
	b := engine.NewCell(g, "b", 2)
	pick := engine.NewComputed(g, "pick", func(ec *engine.EvalContext) (int, error) {
		if useA.Value(ec) {
			return a.Value(ec), nil
		}
		return b.Value(ec), nil
	})

	_, _ = pick.Evaluate()
	fmt.Println("deps:", g.Dependencies(pick.ID()))

	txn, _ := g.Begin()
	_ = useA.Write(txn, false)
	_ = txn.Commit()
	_, _ = pick.Evaluate()
	fmt.Println("deps:", g.Dependencies(pick.ID()))
	// Output:
	// deps: [use-a a]
	// deps: [use-a b]
}
