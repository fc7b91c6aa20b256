// Package crypto implements the commitment/nullifier algebra shared by both
// shielded membership variants: Keccak-256 hashing with domain separation,
// identity derivation, commitment construction, and nullifier derivation.
//
// Every hash computed here is salted with a protocol-specific domain tag so
// that values computed for one purpose can never collide with values
// computed for another.
package crypto

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"

	"github.com/shieldkit/shieldkit/core/types"
)

// Domain tags. Each protocol value mixes exactly one of these into its hash.
var (
	DomainIdentity  = []byte("shieldkit/identity/v1")
	DomainRole      = []byte("shieldkit/role-commitment/v1")
	DomainOwner     = []byte("shieldkit/owner-commitment/v1")
	DomainNullifier = []byte("shieldkit/nullifier/v1")
)

// Keccak256 calculates the Keccak-256 hash of the given data.
func Keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}

// Keccak256Hash calculates Keccak-256 and returns it as a types.Hash.
func Keccak256Hash(data ...[]byte) types.Hash {
	return types.BytesToHash(Keccak256(data...))
}

// uint64Bytes encodes v as 8 big-endian bytes for hashing.
func uint64Bytes(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}
