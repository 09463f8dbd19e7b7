// Package snapshot provides the serialization format for dependency graphs.
//
// This package defines the canonical wire format for PullWave graph state,
// used for JSON files, the inspector API, and cross-tool interoperability.
//
// Snapshots use a simple node-link JSON format:
//
//	{
//	  "nodes": [{"id": "price", "kind": "cell"}, {"id": "total", "kind": "computed", "dirty": true}],
//	  "edges": [{"from": "total", "to": "price"}]
//	}
//
// Edges point from a reader to the node it read during its most recent
// evaluation. A snapshot is a structural capture only: it never evaluates
// anything, so taking one does not change which nodes are dirty.
package snapshot
