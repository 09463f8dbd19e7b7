// Package pkg provides the core libraries for PullWave incremental
// computation.
//
// # Overview
//
// PullWave keeps derived values consistent with their inputs while
// recomputing as little as possible. The pkg directory is organized into
// five areas:
//
//  1. [engine] - The incremental core: cells, computed nodes, sets,
//     transactions, and the dependency graph
//  2. [scenario] - Declarative TOML descriptions of graphs and transaction
//     replays
//  3. [snapshot] - Node-link JSON serialization of graph structure
//  4. [render] - Graphviz DOT export and SVG/PNG rendering of snapshots
//  5. [cache], [observability], [buildinfo] - Supporting infrastructure
//
// # Architecture
//
// The typical data flow:
//
//	scenario.toml
//	     ↓ scenario.Load / scenario.Build
//	engine.Graph (cells, computed nodes, sets)
//	     ↓ transactions commit, dependents marked dirty
//	Evaluate pulls fresh values, recomputing only dirty nodes
//	     ↓ snapshot.FromGraph
//	JSON / DOT / SVG / HTTP inspection
//
// The engine is usable on its own; scenario, snapshot, and render are
// conveniences layered on top of its public API.
package pkg
