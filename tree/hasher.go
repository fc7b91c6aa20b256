package tree

import "crypto/sha256"

// NodeHasher hashes tree leaves and internal nodes. Leaf and node hashing
// use distinct domain separators to prevent second-preimage attacks where
// an internal node is presented as a leaf.
type NodeHasher interface {
	HashLeaf(data []byte) [32]byte
	HashNode(left, right [32]byte) [32]byte
}

// Domain separators for tree hashing.
var (
	treeDomainLeaf = []byte{0x10}
	treeDomainNode = []byte{0x11}
)

// sha256Hasher is the default node hasher.
type sha256Hasher struct{}

// NewSHA256Hasher returns the default SHA-256 node hasher.
func NewSHA256Hasher() NodeHasher { return sha256Hasher{} }

func (sha256Hasher) HashLeaf(data []byte) [32]byte {
	h := sha256.New()
	h.Write(treeDomainLeaf)
	h.Write(data)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func (sha256Hasher) HashNode(left, right [32]byte) [32]byte {
	h := sha256.New()
	h.Write(treeDomainNode)
	h.Write(left[:])
	h.Write(right[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
