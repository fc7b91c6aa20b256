// Package ledger provides the persistent public state consumed by the
// protocol operations: a keyed store abstraction, the state handle owning
// the indexed tree, nullifier set, counters and admin map, and a
// deterministic snapshot codec for off-chain witness reconstruction.
package ledger

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

// ErrNotFound is returned by Store.Get for missing keys.
var ErrNotFound = errors.New("ledger: key not found")

// Store is the persistent keyed map/set primitive consumed from the host
// platform. Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(key []byte) ([]byte, error)

	// Put stores value under key, replacing any existing value.
	Put(key, value []byte) error

	// Has reports whether key is present.
	Has(key []byte) (bool, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key []byte) error

	// Iterate calls fn for every key with the given prefix, in ascending
	// key order. Returning an error from fn stops the iteration.
	Iterate(prefix []byte, fn func(key, value []byte) error) error

	// Close releases the store's resources.
	Close() error
}

// MemoryStore is an in-memory Store for tests and the host's ephemeral
// execution environment.
type MemoryStore struct {
	mu sync.RWMutex
	kv map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{kv: make(map[string][]byte)}
}

// Get implements Store.
func (m *MemoryStore) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.kv[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Put implements Store.
func (m *MemoryStore) Put(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.kv[string(key)] = v
	return nil
}

// Has implements Store.
func (m *MemoryStore) Has(key []byte) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.kv[string(key)]
	return ok, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.kv, string(key))
	return nil
}

// Iterate implements Store. Keys are visited in ascending order so that
// iteration is deterministic.
func (m *MemoryStore) Iterate(prefix []byte, fn func(key, value []byte) error) error {
	m.mu.RLock()
	keys := make([]string, 0, len(m.kv))
	for k := range m.kv {
		if strings.HasPrefix(k, string(prefix)) {
			keys = append(keys, k)
		}
	}
	m.mu.RUnlock()
	sort.Strings(keys)

	for _, k := range keys {
		m.mu.RLock()
		v, ok := m.kv[k]
		m.mu.RUnlock()
		if !ok {
			continue
		}
		if err := fn([]byte(k), v); err != nil {
			return err
		}
	}
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error { return nil }
