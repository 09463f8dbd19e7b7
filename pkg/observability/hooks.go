// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register hooks
// at startup to receive events about node evaluation and transaction
// commits.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach avoids import cycles (hooks are registered by main, not by
// the engine) and keeps the core library free of observability framework
// dependencies.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetEngineHooks(&myEngineHooks{})
//	    // ... run application
//	}
//
// The engine calls hooks to emit events:
//
//	observability.Engine().OnEvaluateStart(nodeID)
//	// ... run compute ...
//	observability.Engine().OnEvaluateComplete(nodeID, duration, err)
package observability

import (
	"sync"
	"time"
)

// EngineHooks receives events from node evaluation.
type EngineHooks interface {
	// OnEvaluateStart records that a dirty node began recomputing.
	OnEvaluateStart(nodeID string)

	// OnEvaluateComplete records the end of a recomputation.
	OnEvaluateComplete(nodeID string, duration time.Duration, err error)

	// OnCacheHit records an evaluation served from the cached value.
	OnCacheHit(nodeID string)
}

// TxnHooks receives events from transaction lifecycle operations.
type TxnHooks interface {
	// OnCommit records a committed transaction: how many nodes were
	// written, how many dependents were marked dirty, and how long the
	// apply-and-invalidate step took.
	OnCommit(writes, dirtied int, duration time.Duration)

	// OnAbort records an aborted transaction.
	OnAbort()
}

// NoopEngineHooks is a no-op implementation of EngineHooks.
type NoopEngineHooks struct{}

func (NoopEngineHooks) OnEvaluateStart(string)                          {}
func (NoopEngineHooks) OnEvaluateComplete(string, time.Duration, error) {}
func (NoopEngineHooks) OnCacheHit(string)                               {}

// NoopTxnHooks is a no-op implementation of TxnHooks.
type NoopTxnHooks struct{}

func (NoopTxnHooks) OnCommit(int, int, time.Duration) {}
func (NoopTxnHooks) OnAbort()                         {}

var (
	engineHooks EngineHooks = NoopEngineHooks{}
	txnHooks    TxnHooks    = NoopTxnHooks{}
	hooksMu     sync.RWMutex
)

// SetEngineHooks registers custom evaluation hooks.
// This should be called once at application startup before any evaluation.
func SetEngineHooks(h EngineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		engineHooks = h
	}
}

// SetTxnHooks registers custom transaction hooks.
// This should be called once at application startup before any transaction.
func SetTxnHooks(h TxnHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		txnHooks = h
	}
}

// Engine returns the registered evaluation hooks.
func Engine() EngineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return engineHooks
}

// Txn returns the registered transaction hooks.
func Txn() TxnHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return txnHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	engineHooks = NoopEngineHooks{}
	txnHooks = NoopTxnHooks{}
}
