package witnesskit

import (
	"sync"

	"github.com/shieldkit/shieldkit/core/types"
	"github.com/shieldkit/shieldkit/crypto"
	"github.com/shieldkit/shieldkit/ledger"
	"github.com/shieldkit/shieldkit/tree"
)

// Provider reconstructs witness data (slot indices, membership paths) from
// public snapshots and the secrets in its Store. All methods are pure over
// (snapshot, secrets) and may be re-run arbitrarily often for speculative
// proof construction; a stale result simply fails the operation's live
// re-validation and the caller retries with a fresh snapshot.
type Provider struct {
	secrets *Store

	// cache maps (role, account) to the last index the scan found. A hit
	// is verified against the snapshot before use, so the cache only skips
	// work and never changes observable behavior.
	mu    sync.Mutex
	cache map[nonceKey]uint64
}

// NewProvider creates a Provider over the given secret store.
func NewProvider(secrets *Store) *Provider {
	return &Provider{
		secrets: secrets,
		cache:   make(map[nonceKey]uint64),
	}
}

// SecretNonce returns the stored nonce for (roleID, account).
func (p *Provider) SecretNonce(roleID types.Hash, account types.AccountRef) (types.Nonce, error) {
	return p.secrets.Nonce(roleID, account)
}

// RoleIndex scans the snapshot for the first index whose leaf matches a
// commitment derivable for (roleID, account). It returns the snapshot
// frontier as a sentinel when no leaf matches, meaning the pair is not
// present and the next grant would land at that index.
func (p *Provider) RoleIndex(snap *ledger.Snapshot, roleID types.Hash, account types.AccountRef) (uint64, error) {
	nonce, err := p.secrets.Nonce(roleID, account)
	if err != nil {
		return snap.Frontier, nil
	}
	id, err := crypto.DeriveID(account, nonce)
	if err != nil {
		return 0, err
	}

	key := nonceKey{Role: roleID, Account: account}
	if index, ok := p.cachedIndex(key, snap, roleID, id, nonce); ok {
		return index, nil
	}

	index, err := FindSlot(snap, roleID, id, nonce)
	if err != nil {
		return 0, err
	}
	if index < snap.Frontier {
		p.mu.Lock()
		p.cache[key] = index
		p.mu.Unlock()
	}
	return index, nil
}

// RoleCommitmentPath returns the membership path for the commitment at the
// given index of the snapshot tree.
func (p *Provider) RoleCommitmentPath(snap *ledger.Snapshot, index uint64, commitment types.Hash) (*tree.Path, error) {
	return FindPath(snap, index, commitment)
}

// cachedIndex validates a cached index against the snapshot before
// trusting it.
func (p *Provider) cachedIndex(key nonceKey, snap *ledger.Snapshot, roleID, id types.Hash, nonce types.Nonce) (uint64, bool) {
	p.mu.Lock()
	index, ok := p.cache[key]
	p.mu.Unlock()
	if !ok || index >= uint64(len(snap.Leaves)) {
		return 0, false
	}
	if snap.Leaves[index] != crypto.RoleCommitment(roleID, id, nonce, index) {
		return 0, false
	}
	return index, true
}

// FindSlot scans indices 0..frontier of the snapshot, recomputing the
// candidate commitment at each index and testing tree membership. It
// returns the first matching index, or the frontier when no index matches.
func FindSlot(snap *ledger.Snapshot, roleID, id types.Hash, nonce types.Nonce) (uint64, error) {
	t, err := snap.BuildTree()
	if err != nil {
		return 0, err
	}
	for i := uint64(0); i < snap.Frontier; i++ {
		candidate := crypto.RoleCommitment(roleID, id, nonce, i)
		if _, err := t.PathForLeaf(i, candidate); err == nil {
			return i, nil
		}
	}
	return snap.Frontier, nil
}

// FindPath rebuilds the snapshot tree and returns the membership path for
// the commitment at the given index.
func FindPath(snap *ledger.Snapshot, index uint64, commitment types.Hash) (*tree.Path, error) {
	t, err := snap.BuildTree()
	if err != nil {
		return nil, err
	}
	return t.PathForLeaf(index, commitment)
}
