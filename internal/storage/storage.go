package storage

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Package storage persists the client session (bearer tokens) between runs.

// Store is a small key/value store with per-entry expiry.
type Store interface {
	Close() error
	Get(key string) (string, bool, error)
	Put(key, value string, ttl time.Duration) error
	Delete(key string) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	CleanupInterval time.Duration
}

const defaultCleanupInterval = time.Hour

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "memory":
		return NewMemoryStore(), nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                            { return nil }
func (noopStore) Get(string) (string, bool, error)        { return "", false, nil }
func (noopStore) Put(string, string, time.Duration) error { return nil }
func (noopStore) Delete(string) error                     { return nil }

type memoryEntry struct {
	value  string
	expiry time.Time
}

// MemoryStore keeps entries in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) Get(key string) (string, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	if !m.expired(e) {
		return e.value, true, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// a Put may have refreshed the entry since the read lock was released
	if e, ok = m.entries[key]; ok && !m.expired(e) {
		return e.value, true, nil
	}
	delete(m.entries, key)
	return "", false, nil
}

func (m *MemoryStore) expired(e memoryEntry) bool {
	return !e.expiry.IsZero() && !e.expiry.After(m.now())
}

// Put stores value under key. A non-positive ttl never expires.
func (m *MemoryStore) Put(key, value string, ttl time.Duration) error {
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiry = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}
