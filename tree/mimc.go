package tree

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
)

// mimcHasher hashes nodes with MiMC over the BN254 scalar field. Deployments
// whose membership paths must be provable inside a SNARK use this hasher in
// place of SHA-256; the circuit then re-hashes the same path natively.
type mimcHasher struct{}

// NewMiMCHasher returns a MiMC-over-BN254 node hasher.
func NewMiMCHasher() NodeHasher { return mimcHasher{} }

func (mimcHasher) HashLeaf(data []byte) [32]byte {
	return mimcSum(treeDomainLeaf, data)
}

func (mimcHasher) HashNode(left, right [32]byte) [32]byte {
	return mimcSum(treeDomainNode, left[:], right[:])
}

// mimcSum absorbs the domain tag and each input as a reduced BN254 scalar.
// Reducing through fr.Element first guarantees every absorbed block is a
// canonical field element, which the MiMC implementation requires.
func mimcSum(domain []byte, inputs ...[]byte) [32]byte {
	h := mimc.NewMiMC()
	var el fr.Element
	el.SetBytes(domain)
	b := el.Bytes()
	h.Write(b[:])
	for _, in := range inputs {
		el.SetBytes(in)
		b = el.Bytes()
		h.Write(b[:])
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
