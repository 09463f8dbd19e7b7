package snapshot

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pullwave/pullwave/pkg/engine"
)

func buildGraph(t *testing.T) *engine.Graph {
	t.Helper()
	g := engine.New()
	a := engine.NewCell(g, "a", 1)
	b := engine.NewCell(g, "b", 2)
	sum := engine.NewComputed(g, "sum", func(ec *engine.EvalContext) (int, error) {
		return a.Value(ec) + b.Value(ec), nil
	})
	if _, err := sum.Evaluate(); err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	return g
}

func TestFromGraph(t *testing.T) {
	g := buildGraph(t)

	got := FromGraph(g)
	want := Graph{
		Nodes: []Node{
			{ID: "a", Kind: "cell"},
			{ID: "b", Kind: "cell"},
			{ID: "sum", Kind: "computed"},
		},
		Edges: []Edge{
			{From: "sum", To: "a"},
			{From: "sum", To: "b"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FromGraph() mismatch (-want +got):\n%s", diff)
	}
}

func TestFromGraphDirtyFlag(t *testing.T) {
	g := buildGraph(t)

	sum, ok := g.Node("sum")
	if !ok {
		t.Fatal("sum node missing")
	}
	txn, _ := g.Begin()
	_ = txn.ForceDirty(sum)
	_ = txn.Commit()

	snap := FromGraph(g)
	for _, n := range snap.Nodes {
		switch n.ID {
		case "sum":
			if !n.Dirty {
				t.Error("sum not marked dirty in snapshot")
			}
		default:
			if n.Dirty {
				t.Errorf("%s marked dirty in snapshot", n.ID)
			}
		}
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	g := buildGraph(t)

	data, err := Marshal(g)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), `"from": "sum"`) {
		t.Errorf("marshaled output missing edge, got:\n%s", data)
	}

	back, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if diff := cmp.Diff(FromGraph(g), back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteFile(t *testing.T) {
	g := buildGraph(t)
	path := t.TempDir() + "/graph.json"

	if err := WriteFile(g, path); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := WriteFile(g, t.TempDir()+"/missing/graph.json"); err == nil {
		t.Error("WriteFile() to missing dir succeeded, want error")
	}
}

func TestDisplayLabel(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want string
	}{
		{"label set", Node{ID: "nums-ab12cd34", Label: "nums"}, "nums"},
		{"label empty", Node{ID: "nums"}, "nums"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.DisplayLabel(); got != tt.want {
				t.Errorf("DisplayLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}
