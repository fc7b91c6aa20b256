// Package witnesskit implements the off-chain witness side of the shielded
// membership protocol: a private store for secret nonces and a provider
// that reconstructs slot indices and membership paths from public
// snapshots. Nothing in this package ever touches live ledger state.
package witnesskit

import (
	"os"
	"sort"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"

	"github.com/shieldkit/shieldkit/core/types"
)

// ErrNoNonce is returned when the store holds no nonce for a pair.
var ErrNoNonce = errors.New("witnesskit: no nonce for role")

// storeVersion is the private-state file format version.
const storeVersion = "1.0.0"

type nonceKey struct {
	Role    types.Hash
	Account types.AccountRef
}

// Store holds an actor's private role nonces. A granter also records the
// nonces it chose for grants it issued, so it can later recompute the
// grantee's commitments for revocation.
//
// The store is persisted as a deterministic CBOR file. It never contains
// public-ledger data.
type Store struct {
	mu     sync.RWMutex
	path   string // empty for a memory-only store
	nonces map[nonceKey]types.Nonce
}

// NewStore creates an empty memory-only store.
func NewStore() *Store {
	return &Store{nonces: make(map[nonceKey]types.Nonce)}
}

// LoadStore loads a store from path, or returns an empty store bound to
// path when the file does not exist yet.
func LoadStore(path string) (*Store, error) {
	s := NewStore()
	s.path = path

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "witnesskit: read store")
	}

	var file storeFile
	if err := cbor.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "witnesskit: decode store")
	}
	for _, e := range file.Entries {
		key := nonceKey{
			Role:    e.Role,
			Account: types.AccountRef{Kind: types.AccountKind(e.Kind), Address: e.Address},
		}
		s.nonces[key] = e.Nonce
	}
	return s, nil
}

// Save writes the store back to its file. Memory-only stores save nothing.
func (s *Store) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.path == "" {
		return nil
	}

	file := storeFile{Version: storeVersion}
	for key, nonce := range s.nonces {
		file.Entries = append(file.Entries, nonceEntry{
			Role:    key.Role,
			Kind:    uint8(key.Account.Kind),
			Address: key.Account.Address,
			Nonce:   nonce,
		})
	}
	sort.Slice(file.Entries, func(i, j int) bool { return file.Entries[i].less(file.Entries[j]) })

	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return err
	}
	data, err := em.Marshal(&file)
	if err != nil {
		return errors.Wrap(err, "witnesskit: encode store")
	}
	return errors.Wrap(os.WriteFile(s.path, data, 0600), "witnesskit: write store")
}

// PutNonce records the nonce for (roleID, account), replacing any previous
// one (nonce rotation).
func (s *Store) PutNonce(roleID types.Hash, account types.AccountRef, nonce types.Nonce) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nonces[nonceKey{Role: roleID, Account: account}] = nonce
}

// Nonce returns the stored nonce for (roleID, account), or ErrNoNonce.
func (s *Store) Nonce(roleID types.Hash, account types.AccountRef) (types.Nonce, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	nonce, ok := s.nonces[nonceKey{Role: roleID, Account: account}]
	if !ok {
		return types.Nonce{}, ErrNoNonce
	}
	return nonce, nil
}

// DeleteNonce removes the nonce for (roleID, account).
func (s *Store) DeleteNonce(roleID types.Hash, account types.AccountRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.nonces, nonceKey{Role: roleID, Account: account})
}

type storeFile struct {
	Version string
	Entries []nonceEntry
}

type nonceEntry struct {
	Role    types.Hash
	Kind    uint8
	Address types.Address
	Nonce   types.Nonce
}

func (e nonceEntry) less(other nonceEntry) bool {
	if e.Role != other.Role {
		return string(e.Role[:]) < string(other.Role[:])
	}
	if e.Kind != other.Kind {
		return e.Kind < other.Kind
	}
	return string(e.Address[:]) < string(other.Address[:])
}
