package observability

import (
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	e := NoopEngineHooks{}
	e.OnEvaluateStart("total")
	e.OnEvaluateComplete("total", time.Millisecond, nil)
	e.OnCacheHit("total")

	x := NoopTxnHooks{}
	x.OnCommit(2, 3, time.Millisecond)
	x.OnAbort()
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Engine().(NoopEngineHooks); !ok {
		t.Error("Engine() should return NoopEngineHooks by default")
	}
	if _, ok := Txn().(NoopTxnHooks); !ok {
		t.Error("Txn() should return NoopTxnHooks by default")
	}

	customEngine := &testEngineHooks{}
	SetEngineHooks(customEngine)
	if Engine() != customEngine {
		t.Error("SetEngineHooks should set custom hooks")
	}

	customTxn := &testTxnHooks{}
	SetTxnHooks(customTxn)
	if Txn() != customTxn {
		t.Error("SetTxnHooks should set custom hooks")
	}

	Reset()
	if _, ok := Engine().(NoopEngineHooks); !ok {
		t.Error("Reset() should restore NoopEngineHooks")
	}
	if _, ok := Txn().(NoopTxnHooks); !ok {
		t.Error("Reset() should restore NoopTxnHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testEngineHooks{}
	SetEngineHooks(custom)

	SetEngineHooks(nil)
	SetTxnHooks(nil)

	if Engine() != custom {
		t.Error("SetEngineHooks(nil) should be ignored")
	}
	if _, ok := Txn().(NoopTxnHooks); !ok {
		t.Error("SetTxnHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testEngineHooks struct{ NoopEngineHooks }
type testTxnHooks struct{ NoopTxnHooks }
