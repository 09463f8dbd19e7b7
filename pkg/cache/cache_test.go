package cache

import (
	"bytes"
	"testing"
	"time"
)

func TestFileCacheRoundTrip(t *testing.T) {
	c, err := NewFileCache(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}

	key := Key("digraph G {}", "svg")
	if _, ok, _ := c.Get(key); ok {
		t.Fatal("empty cache reported a hit")
	}

	want := []byte("<svg/>")
	if err := c.Set(key, want); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, ok, err := c.Get(key)
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v, %v", got, ok, err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Get() = %q, want %q", got, want)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	c, err := NewFileCache(t.TempDir(), time.Nanosecond)
	if err != nil {
		t.Fatal(err)
	}
	key := Key("dot")
	if err := c.Set(key, []byte("data")); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	if _, ok, _ := c.Get(key); ok {
		t.Error("expired entry reported a hit")
	}
}

func TestFileCacheClear(t *testing.T) {
	c, err := NewFileCache(t.TempDir(), 0)
	if err != nil {
		t.Fatal(err)
	}
	_ = c.Set(Key("a"), []byte("1"))
	_ = c.Set(Key("b"), []byte("2"))
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if _, ok, _ := c.Get(Key("a")); ok {
		t.Error("entry survived Clear")
	}
}

func TestKeyIsStable(t *testing.T) {
	if Key("a", "b") != Key("a", "b") {
		t.Error("identical inputs produced different keys")
	}
	if Key("a", "b") == Key("ab") {
		t.Error("part boundaries do not affect the key")
	}
}

func TestNullCache(t *testing.T) {
	c := NewNullCache()
	if err := c.Set("k", []byte("v")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, ok, _ := c.Get("k"); ok {
		t.Error("null cache reported a hit")
	}
}
