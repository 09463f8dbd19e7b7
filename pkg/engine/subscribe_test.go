package engine

import (
	"errors"
	"testing"
)

func TestSubscribeCellFiresOnCommit(t *testing.T) {
	g := New()
	c := NewCell(g, "c", 1)
	fired := 0
	cancel, err := g.Subscribe(c, func() { fired++ })
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	txn, _ := g.Begin()
	_ = c.Write(txn, 2)
	_ = c.Write(txn, 3)
	_ = txn.Commit()
	if fired != 1 {
		t.Errorf("callback fired %d times, want 1 per commit", fired)
	}

	// Aborted transactions never notify.
	txn, _ = g.Begin()
	_ = c.Write(txn, 4)
	_ = txn.Abort()
	if fired != 1 {
		t.Errorf("callback fired %d times after abort, want 1", fired)
	}

	cancel()
	cancel() // safe to call twice
	txn, _ = g.Begin()
	_ = c.Write(txn, 5)
	_ = txn.Commit()
	if fired != 1 {
		t.Errorf("callback fired %d times after cancel, want 1", fired)
	}
}

func TestSubscribeComputedFiresAfterEvaluate(t *testing.T) {
	g := New()
	c := NewCell(g, "c", 1)
	n := NewComputed(g, "n", func(ec *EvalContext) (int, error) {
		return c.Value(ec) * 2, nil
	})
	_, _ = n.Evaluate()

	fired := 0
	if _, err := g.Subscribe(n, func() { fired++ }); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	txn, _ := g.Begin()
	_ = c.Write(txn, 2)
	_ = txn.Commit()

	// Invalidation alone does not notify: the push layer rides on pulls.
	if fired != 0 {
		t.Fatalf("callback fired %d times before Evaluate, want 0", fired)
	}
	if _, err := n.Evaluate(); err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if fired != 1 {
		t.Errorf("callback fired %d times after Evaluate, want 1", fired)
	}

	// A clean re-pull does not notify again.
	_, _ = n.Evaluate()
	if fired != 1 {
		t.Errorf("callback fired %d times after cached pull, want 1", fired)
	}
}

func TestSubscribeUnknownNode(t *testing.T) {
	g := New()
	other := New()
	foreign := NewCell(other, "foreign", 1)

	if _, err := g.Subscribe(foreign, func() {}); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("Subscribe(foreign) error = %v, want ErrUnknownNode", err)
	}
}
