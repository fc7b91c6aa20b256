package ledger

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/shieldkit/shieldkit/core/types"
	"github.com/shieldkit/shieldkit/tree"
)

// Store key prefixes. One flat keyspace holds every ledger structure.
const (
	prefixLeaf      = "t/" // index -> tree leaf
	prefixNullifier = "n/" // nullifier -> present
	prefixAdmin     = "a/" // roleID -> admin roleID
	prefixCounter   = "c/" // name -> uint64
	prefixCell      = "s/" // name -> hash cell
	prefixBucket    = "b/" // bucket/key -> value (plain modules)
)

// State is the explicit handle to the shared public ledger state. It owns
// the indexed tree, the nullifier set, named counters and hash cells, the
// role admin map, and the plain-module buckets. Every protocol operation
// receives a State; there are no ambient globals.
//
// State serializes its own mutations with a mutex so independent goroutines
// observe the same ordering the host's serial executor would impose.
type State struct {
	mu         sync.Mutex
	store      Store
	tree       *tree.IndexedTree
	nullifiers *NullifierSet
}

// Open builds a State over the given store, rebuilding the in-memory tree
// from the persisted leaves.
func Open(store Store) (*State, error) {
	return OpenWithHasher(store, tree.NewSHA256Hasher())
}

// OpenWithHasher builds a State whose tree uses the given node hasher.
func OpenWithHasher(store Store, h tree.NodeHasher) (*State, error) {
	s := &State{
		store:      store,
		tree:       tree.NewWithHasher(h),
		nullifiers: newNullifierSet(store),
	}

	// Replay persisted leaves in index order. Keys are 8 big-endian bytes,
	// so lexicographic iteration order is index order.
	var next uint64
	err := store.Iterate([]byte(prefixLeaf), func(key, value []byte) error {
		idx := binary.BigEndian.Uint64(key[len(prefixLeaf):])
		if idx != next {
			return fmt.Errorf("ledger: leaf gap at index %d (expected %d)", idx, next)
		}
		next++
		return s.tree.Insert(idx, types.BytesToHash(value))
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Tree returns the indexed append tree.
func (s *State) Tree() *tree.IndexedTree { return s.tree }

// Nullifiers returns the nullifier set.
func (s *State) Nullifiers() *NullifierSet { return s.nullifiers }

// AppendLeaf inserts a leaf at the given index (which must be the current
// frontier) and persists it. The frontier check re-validates the index
// against live state, so a stale witness-built index fails here. The store
// write happens before the in-memory insert: a failed write must leave the
// handle and the store in agreement.
func (s *State) AppendLeaf(index uint64, leaf types.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	frontier := s.tree.Frontier()
	switch {
	case index < frontier:
		stored, err := s.tree.Leaf(index)
		if err != nil {
			return err
		}
		if stored == leaf {
			return nil
		}
		return tree.ErrSlotOccupied
	case index > frontier:
		return tree.ErrInvalidIndex
	case frontier >= uint64(1)<<tree.Depth:
		return tree.ErrTreeFull
	}

	if err := s.store.Put(leafKey(index), leaf[:]); err != nil {
		return err
	}
	return s.tree.Insert(index, leaf)
}

// InsertNullifier adds a nullifier to the set.
func (s *State) InsertNullifier(value types.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nullifiers.Insert(value)
}

// RoleAdmin returns the admin role for a role. Unset roles default to
// types.DefaultAdminRole.
func (s *State) RoleAdmin(roleID types.Hash) (types.Hash, error) {
	v, err := s.store.Get(adminKey(roleID))
	if err == ErrNotFound {
		return types.DefaultAdminRole, nil
	}
	if err != nil {
		return types.Hash{}, err
	}
	return types.BytesToHash(v), nil
}

// SetRoleAdmin records the admin role for a role. Authorization is the
// protocol layer's concern.
func (s *State) SetRoleAdmin(roleID, adminRole types.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Put(adminKey(roleID), adminRole[:])
}

// RoleAdmins returns every explicitly configured (role, admin) pair in
// ascending role order.
func (s *State) RoleAdmins() ([][2]types.Hash, error) {
	var out [][2]types.Hash
	err := s.store.Iterate([]byte(prefixAdmin), func(key, value []byte) error {
		out = append(out, [2]types.Hash{
			types.BytesToHash(key[len(prefixAdmin):]),
			types.BytesToHash(value),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Counter returns the named counter, zero if unset.
func (s *State) Counter(name string) (uint64, error) {
	v, err := s.store.Get(counterKey(name))
	if err == ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(v), nil
}

// SetCounter stores the named counter.
func (s *State) SetCounter(name string, value uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], value)
	return s.store.Put(counterKey(name), b[:])
}

// Counters returns every set counter by name.
func (s *State) Counters() (map[string]uint64, error) {
	out := make(map[string]uint64)
	err := s.store.Iterate([]byte(prefixCounter), func(key, value []byte) error {
		out[string(key[len(prefixCounter):])] = binary.BigEndian.Uint64(value)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Cell returns the named hash cell and whether it has been written.
func (s *State) Cell(name string) (types.Hash, bool, error) {
	v, err := s.store.Get(cellKey(name))
	if err == ErrNotFound {
		return types.Hash{}, false, nil
	}
	if err != nil {
		return types.Hash{}, false, err
	}
	return types.BytesToHash(v), true, nil
}

// SetCell stores the named hash cell.
func (s *State) SetCell(name string, value types.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Put(cellKey(name), value[:])
}

// Bucket returns a namespaced key-value view for a plain module.
func (s *State) Bucket(name string) *Bucket {
	return &Bucket{store: s.store, prefix: prefixBucket + name + "/"}
}

// Bucket is a namespaced key-value view over the ledger store, used by the
// plain (non-shielded) modules for their balance and approval maps.
type Bucket struct {
	store  Store
	prefix string
}

// Get returns the value for key, or ErrNotFound.
func (b *Bucket) Get(key []byte) ([]byte, error) {
	return b.store.Get(b.fullKey(key))
}

// Put stores value under key.
func (b *Bucket) Put(key, value []byte) error {
	return b.store.Put(b.fullKey(key), value)
}

// Has reports whether key is present.
func (b *Bucket) Has(key []byte) (bool, error) {
	return b.store.Has(b.fullKey(key))
}

// Delete removes key.
func (b *Bucket) Delete(key []byte) error {
	return b.store.Delete(b.fullKey(key))
}

// Iterate visits every key in the bucket in ascending order. Keys passed to
// fn have the bucket prefix stripped.
func (b *Bucket) Iterate(fn func(key, value []byte) error) error {
	return b.store.Iterate([]byte(b.prefix), func(key, value []byte) error {
		return fn(key[len(b.prefix):], value)
	})
}

func (b *Bucket) fullKey(key []byte) []byte {
	return append([]byte(b.prefix), key...)
}

func leafKey(index uint64) []byte {
	b := make([]byte, len(prefixLeaf)+8)
	copy(b, prefixLeaf)
	binary.BigEndian.PutUint64(b[len(prefixLeaf):], index)
	return b
}

func adminKey(roleID types.Hash) []byte {
	return append([]byte(prefixAdmin), roleID[:]...)
}

func counterKey(name string) []byte {
	return []byte(prefixCounter + name)
}

func cellKey(name string) []byte {
	return []byte(prefixCell + name)
}
