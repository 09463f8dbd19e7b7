// Package render converts graph snapshots to Graphviz DOT and renders them
// to SVG or PNG.
//
// Rendering works on [snapshot.Graph] rather than a live graph, so a picture
// always shows one consistent point in time. Node shape encodes the node
// kind (boxes for cells and sets, ellipses for derived nodes) and dirty
// nodes are drawn dashed with a grey fill.
package render
