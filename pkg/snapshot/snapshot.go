package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pullwave/pullwave/pkg/engine"
)

// Graph is the node-link serialization of a dependency graph's structure at
// a point in time.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is one graph node in serialized form.
type Node struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"` // display label; defaults to ID
	Kind  string `json:"kind"`
	Dirty bool   `json:"dirty,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Edge is a directed dependency: From read To during its last evaluation.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// FromGraph captures the current structure of a live graph. Nodes are sorted
// by ID and edges by (from, to) for deterministic output. Node states and
// edges come from one atomic capture, so the snapshot never mixes the
// before and after of a concurrent commit.
func FromGraph(g *engine.Graph) Graph {
	nodes, edges := g.Structure()
	out := Graph{
		Nodes: make([]Node, len(nodes)),
	}
	for i, n := range nodes {
		sn := Node{
			ID:    n.ID,
			Kind:  string(n.Kind),
			Dirty: n.Dirty,
		}
		if n.Label != n.ID {
			sn.Label = n.Label
		}
		out.Nodes[i] = sn
	}
	for _, e := range edges {
		out.Edges = append(out.Edges, Edge{From: e.From, To: e.To})
	}
	return out
}

// Marshal converts a live graph to indented JSON bytes.
func Marshal(g *engine.Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write writes a live graph as indented JSON to an io.Writer.
func Write(g *engine.Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromGraph(g)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteFile writes a live graph to a JSON file.
// The file is created with 0644 permissions.
func WriteFile(g *engine.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(g, f)
}

// Unmarshal deserializes JSON bytes to a Graph.
func Unmarshal(data []byte) (Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return Graph{}, err
	}
	return g, nil
}
