// Package cache provides a small file-based cache for rendered artifacts.
//
// Rendering a graph to SVG or PNG is by far the slowest step of the CLI, and
// the output depends only on the DOT text, so renders are cached on disk
// keyed by a content hash. A [NullCache] disables caching without changing
// call sites.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Cache stores rendered artifacts by key.
type Cache interface {
	// Get returns the cached bytes for key and whether the entry exists
	// and is still fresh.
	Get(key string) ([]byte, bool, error)

	// Set stores data under key.
	Set(key string, data []byte) error

	// Clear removes all entries.
	Clear() error
}

// Key derives a cache key from the content that determines the artifact.
// Identical inputs always produce the same key, so a re-render of an
// unchanged graph is a hit.
func Key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// FileCache stores entries as files in a directory. Entries carry an
// expiration timestamp; expired or undecodable entries are treated as
// misses and removed.
type FileCache struct {
	dir string
	ttl time.Duration
}

// NewFileCache creates a file-based cache in dir with the given TTL.
// The directory is created if it doesn't exist. A TTL of 0 means entries
// never expire.
func NewFileCache(dir string, ttl time.Duration) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir, ttl: ttl}, nil
}

type entry struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (c *FileCache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Get retrieves a cached artifact.
func (c *FileCache) Get(key string) ([]byte, bool, error) {
	data, err := os.ReadFile(c.path(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		// Corrupt entry, treat as miss.
		_ = os.Remove(c.path(key))
		return nil, false, nil
	}
	if !e.ExpiresAt.IsZero() && time.Now().After(e.ExpiresAt) {
		_ = os.Remove(c.path(key))
		return nil, false, nil
	}
	return e.Data, true, nil
}

// Set stores an artifact.
func (c *FileCache) Set(key string, data []byte) error {
	e := entry{Data: data}
	if c.ttl > 0 {
		e.ExpiresAt = time.Now().Add(c.ttl)
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path(key), raw, 0o644)
}

// Clear removes every entry in the cache directory.
func (c *FileCache) Clear() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}
	for _, de := range entries {
		if filepath.Ext(de.Name()) != ".json" {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, de.Name())); err != nil {
			return err
		}
	}
	return nil
}

// NullCache never stores anything. It is used when caching is disabled.
type NullCache struct{}

// NewNullCache creates a cache that always misses.
func NewNullCache() *NullCache { return &NullCache{} }

func (*NullCache) Get(string) ([]byte, bool, error) { return nil, false, nil }
func (*NullCache) Set(string, []byte) error         { return nil }
func (*NullCache) Clear() error                     { return nil }

var (
	_ Cache = (*FileCache)(nil)
	_ Cache = (*NullCache)(nil)
)
