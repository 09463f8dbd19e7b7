package render

import (
	"strings"
	"testing"

	"github.com/pullwave/pullwave/pkg/snapshot"
)

func sampleSnapshot() snapshot.Graph {
	return snapshot.Graph{
		Nodes: []snapshot.Node{
			{ID: "price", Kind: "cell"},
			{ID: "tags", Kind: "set"},
			{ID: "total", Kind: "computed", Dirty: true},
		},
		Edges: []snapshot.Edge{
			{From: "total", To: "price"},
		},
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(sampleSnapshot(), Options{})

	wantFragments := []string{
		`"price" [label="price", shape=box];`,
		`"tags" [label="tags", shape=box3d];`,
		`"total" [label="total", shape=ellipse, style="rounded,filled,dashed", fillcolor=lightgrey];`,
		`"total" -> "price";`,
	}
	for _, frag := range wantFragments {
		if !strings.Contains(dot, frag) {
			t.Errorf("DOT missing %q, got:\n%s", frag, dot)
		}
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(sampleSnapshot(), Options{Detailed: true})
	if !strings.Contains(dot, `label="total\ncomputed"`) {
		t.Errorf("detailed DOT missing kind in label, got:\n%s", dot)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	svg := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00"><g/></svg>`)
	got := string(normalizeViewBox(svg))
	if !strings.Contains(got, `viewBox="0 0 100.00 50.00"`) {
		t.Errorf("viewBox not normalized, got: %s", got)
	}
	if !strings.Contains(got, `width="100" height="50"`) {
		t.Errorf("dimensions not rewritten, got: %s", got)
	}

	plain := []byte(`<svg><g/></svg>`)
	if string(normalizeViewBox(plain)) != string(plain) {
		t.Error("svg without viewBox was modified")
	}
}
