// Package tree implements the indexed append-only Merkle tree that backs the
// multi-slot shielded role registry. The tree has a fixed depth of 32,
// supporting up to 2^32 commitment leaves.
//
// Leaves are only ever written at the current frontier index, which then
// advances by one; a written leaf is never overwritten or deleted. The tree
// maintains its root incrementally through a filled-subtree cache and
// generates O(depth) membership paths for any written leaf.
package tree

import (
	"errors"
	"sync"

	"github.com/shieldkit/shieldkit/core/types"
)

// Depth is the fixed depth of the indexed tree.
const Depth = 32

// Maximum number of leaves: 2^32.
const maxLeaves = 1 << Depth

// Tree errors.
var (
	ErrTreeFull     = errors.New("tree: tree is full")
	ErrInvalidIndex = errors.New("tree: index out of range")
	ErrSlotOccupied = errors.New("tree: slot already occupied")
	ErrLeafMismatch = errors.New("tree: leaf does not match slot")
)

// Path is a Merkle membership path for the leaf at Index.
type Path struct {
	Index    uint64
	Siblings [Depth][32]byte
}

// IndexedTree is an append-only Merkle tree accumulator mapping slot index
// to commitment leaf.
type IndexedTree struct {
	mu       sync.RWMutex
	hasher   NodeHasher
	empty    [Depth + 1][32]byte // hash of an empty subtree at each level
	leaves   []types.Hash        // raw commitments by index
	hashes   [][32]byte          // leaf hashes by index
	filledAt [Depth][32]byte     // cache of filled subtrees at each level
	frontier uint64
	root     [32]byte
}

// New creates an empty indexed tree using the default SHA-256 node hasher.
func New() *IndexedTree {
	return NewWithHasher(NewSHA256Hasher())
}

// NewWithHasher creates an empty indexed tree using the given node hasher.
func NewWithHasher(h NodeHasher) *IndexedTree {
	t := &IndexedTree{
		hasher: h,
		leaves: make([]types.Hash, 0, 1024),
		hashes: make([][32]byte, 0, 1024),
	}
	t.empty[0] = h.HashLeaf(nil)
	for i := 1; i <= Depth; i++ {
		t.empty[i] = h.HashNode(t.empty[i-1], t.empty[i-1])
	}
	t.root = t.empty[Depth]
	return t
}

// Root returns the current Merkle root.
func (t *IndexedTree) Root() types.Hash {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return types.Hash(t.root)
}

// Frontier returns the next unused index.
func (t *IndexedTree) Frontier() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.frontier
}

// Leaf returns the commitment stored at the given index.
func (t *IndexedTree) Leaf(index uint64) (types.Hash, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if index >= t.frontier {
		return types.Hash{}, ErrInvalidIndex
	}
	return t.leaves[index], nil
}

// Leaves returns a copy of all written leaves in index order.
func (t *IndexedTree) Leaves() []types.Hash {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]types.Hash, len(t.leaves))
	copy(out, t.leaves)
	return out
}

// Insert writes a leaf at the given index. Insertion only ever targets the
// current frontier, which then advances by one. Inserting below the frontier
// fails with ErrSlotOccupied when the stored leaf differs, and is a no-op
// when it matches (the write has already been applied). Inserting past the
// frontier fails with ErrInvalidIndex: a stale witness built against an old
// snapshot surfaces as one of these two failures and the caller retries
// against refreshed state.
func (t *IndexedTree) Insert(index uint64, leaf types.Hash) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if index < t.frontier {
		if t.leaves[index] == leaf {
			return nil
		}
		return ErrSlotOccupied
	}
	if index > t.frontier {
		return ErrInvalidIndex
	}
	if t.frontier >= uint64(maxLeaves) {
		return ErrTreeFull
	}

	leafHash := t.hasher.HashLeaf(leaf[:])
	t.leaves = append(t.leaves, leaf)
	t.hashes = append(t.hashes, leafHash)
	t.frontier++
	t.root = t.incrementalRoot(index, leafHash)
	return nil
}

// PathForLeaf returns the membership path for the given leaf at the given
// index. It fails with ErrInvalidIndex when the index has not been written
// and ErrLeafMismatch when the stored leaf differs from the candidate.
func (t *IndexedTree) PathForLeaf(index uint64, leaf types.Hash) (*Path, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if index >= t.frontier {
		return nil, ErrInvalidIndex
	}
	if t.leaves[index] != leaf {
		return nil, ErrLeafMismatch
	}

	p := &Path{Index: index}

	// Rebuild the layers to extract siblings.
	layer := make([][32]byte, t.frontier)
	copy(layer, t.hashes[:t.frontier])

	idx := index
	for level := 0; level < Depth; level++ {
		if len(layer)%2 != 0 {
			layer = append(layer, t.empty[level])
		}

		sibIdx := idx ^ 1
		if sibIdx < uint64(len(layer)) {
			p.Siblings[level] = layer[sibIdx]
		} else {
			p.Siblings[level] = t.empty[level]
		}

		next := make([][32]byte, len(layer)/2)
		for i := 0; i < len(layer); i += 2 {
			next[i/2] = t.hasher.HashNode(layer[i], layer[i+1])
		}
		layer = next
		idx /= 2
	}
	return p, nil
}

// Verify checks a membership path for a leaf against a root, using the
// given node hasher. The hasher must match the one the tree was built with.
func Verify(h NodeHasher, leaf types.Hash, p *Path, root types.Hash) bool {
	if p == nil {
		return false
	}

	current := h.HashLeaf(leaf[:])
	idx := p.Index
	for level := 0; level < Depth; level++ {
		sibling := p.Siblings[level]
		if idx%2 == 0 {
			current = h.HashNode(current, sibling)
		} else {
			current = h.HashNode(sibling, current)
		}
		idx /= 2
	}
	return types.Hash(current) == root
}

// VerifyPath checks a membership path using the default SHA-256 hasher.
func VerifyPath(leaf types.Hash, p *Path, root types.Hash) bool {
	return Verify(NewSHA256Hasher(), leaf, p, root)
}

// incrementalRoot updates the root after inserting a leaf at the given
// index, using the filledAt cache to avoid recomputing the whole tree.
func (t *IndexedTree) incrementalRoot(index uint64, leafHash [32]byte) [32]byte {
	current := leafHash
	for level := 0; level < Depth; level++ {
		if index%2 == 0 {
			// Left child; right sibling is still empty.
			t.filledAt[level] = current
			current = t.hasher.HashNode(current, t.empty[level])
		} else {
			// Right child; left sibling is the cached filled node.
			current = t.hasher.HashNode(t.filledAt[level], current)
		}
		index /= 2
	}
	return current
}
