package ledger

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/blang/semver/v4"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/fxamacker/cbor/v2"

	"github.com/shieldkit/shieldkit/core/types"
	"github.com/shieldkit/shieldkit/crypto"
	"github.com/shieldkit/shieldkit/tree"
)

// SnapshotVersion is the current snapshot format version. Imports accept
// any snapshot with the same major version.
const SnapshotVersion = "1.0.0"

// Snapshot errors.
var (
	ErrSnapshotVersion = errors.New("ledger: incompatible snapshot version")
	ErrSnapshotDigest  = errors.New("ledger: snapshot digest mismatch")
)

// AdminEntry is one explicitly configured (role, admin) pair.
type AdminEntry struct {
	Role  types.Hash
	Admin types.Hash
}

// CounterEntry is one named ledger counter.
type CounterEntry struct {
	Name  string
	Value uint64
}

// Snapshot is a deterministic export of the public ledger state. The
// witness provider reconstructs slot indices and membership paths from a
// snapshot, never from live state.
type Snapshot struct {
	Version    string
	Frontier   uint64
	Leaves     []types.Hash
	Nullifiers []types.Hash
	Admins     []AdminEntry
	Counters   []CounterEntry

	// Digest is Keccak-256 over the RLP encoding of every other field.
	Digest types.Hash
}

// Snapshot exports the current public state.
func (s *State) Snapshot() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &Snapshot{
		Version:  SnapshotVersion,
		Frontier: s.tree.Frontier(),
		Leaves:   s.tree.Leaves(),
	}

	var err error
	if snap.Nullifiers, err = s.nullifiers.All(); err != nil {
		return nil, err
	}

	admins, err := s.RoleAdmins()
	if err != nil {
		return nil, err
	}
	for _, a := range admins {
		snap.Admins = append(snap.Admins, AdminEntry{Role: a[0], Admin: a[1]})
	}

	counters, err := s.Counters()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(counters))
	for name := range counters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		snap.Counters = append(snap.Counters, CounterEntry{Name: name, Value: counters[name]})
	}

	snap.Digest, err = snap.ComputeDigest()
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// ComputeDigest returns Keccak-256 over the canonical RLP encoding of the
// snapshot body (every field except Digest itself).
func (snap *Snapshot) ComputeDigest() (types.Hash, error) {
	body := struct {
		Version    string
		Frontier   uint64
		Leaves     []types.Hash
		Nullifiers []types.Hash
		Admins     []AdminEntry
		Counters   []CounterEntry
	}{snap.Version, snap.Frontier, snap.Leaves, snap.Nullifiers, snap.Admins, snap.Counters}

	enc, err := rlp.EncodeToBytes(&body)
	if err != nil {
		return types.Hash{}, err
	}
	return crypto.Keccak256Hash(enc), nil
}

// HasNullifier reports whether the snapshot contains the given nullifier.
func (snap *Snapshot) HasNullifier(value types.Hash) bool {
	for _, n := range snap.Nullifiers {
		if n == value {
			return true
		}
	}
	return false
}

// RoleAdmin returns the admin role recorded in the snapshot for a role,
// defaulting to types.DefaultAdminRole.
func (snap *Snapshot) RoleAdmin(roleID types.Hash) types.Hash {
	for _, a := range snap.Admins {
		if a.Role == roleID {
			return a.Admin
		}
	}
	return types.DefaultAdminRole
}

// BuildTree reconstructs the indexed tree from the snapshot leaves using
// the default hasher.
func (snap *Snapshot) BuildTree() (*tree.IndexedTree, error) {
	return snap.BuildTreeWithHasher(tree.NewSHA256Hasher())
}

// BuildTreeWithHasher reconstructs the indexed tree with the given hasher.
func (snap *Snapshot) BuildTreeWithHasher(h tree.NodeHasher) (*tree.IndexedTree, error) {
	t := tree.NewWithHasher(h)
	for i, leaf := range snap.Leaves {
		if err := t.Insert(uint64(i), leaf); err != nil {
			return nil, err
		}
	}
	if t.Frontier() != snap.Frontier {
		return nil, fmt.Errorf("ledger: snapshot frontier %d does not match %d leaves",
			snap.Frontier, len(snap.Leaves))
	}
	return t, nil
}

// WriteSnapshot encodes a snapshot deterministically (CBOR core
// deterministic encoding) to w.
func WriteSnapshot(w io.Writer, snap *Snapshot) error {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return err
	}
	return em.NewEncoder(w).Encode(snap)
}

// ReadSnapshot decodes a snapshot from r, checks the format version for
// major compatibility, and verifies the integrity digest.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	var snap Snapshot
	if err := cbor.NewDecoder(r).Decode(&snap); err != nil {
		return nil, err
	}

	have, err := semver.Parse(snap.Version)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrSnapshotVersion, snap.Version)
	}
	want := semver.MustParse(SnapshotVersion)
	if have.Major != want.Major {
		return nil, fmt.Errorf("%w: have %s, want %d.x.x", ErrSnapshotVersion, have, want.Major)
	}

	digest, err := snap.ComputeDigest()
	if err != nil {
		return nil, err
	}
	if digest != snap.Digest {
		return nil, ErrSnapshotDigest
	}
	return &snap, nil
}
