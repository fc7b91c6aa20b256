package crypto

import "github.com/shieldkit/shieldkit/core/types"

// RoleCommitment computes the published commitment binding an identity to a
// role at a tree slot: H(roleID, id, nonce, index, DomainRole). The value is
// pre-image resistant; without the secret nonce it reveals nothing about
// the role or identity it binds.
func RoleCommitment(roleID, id types.Hash, nonce types.Nonce, index uint64) types.Hash {
	return Keccak256Hash(roleID[:], id[:], nonce[:], uint64Bytes(index), DomainRole)
}

// OwnershipCommitment computes the single-slot ownership commitment:
// H(id, instanceSalt, counter, DomainOwner). The instance salt is a
// per-deployment constant preventing cross-instance collisions; the counter
// disambiguates successive owners so an old commitment can never be
// replayed after a transfer.
func OwnershipCommitment(id, instanceSalt types.Hash, counter uint64) types.Hash {
	return Keccak256Hash(id[:], instanceSalt[:], uint64Bytes(counter), DomainOwner)
}

// NullifierFor derives the nullifier that permanently revokes a commitment:
// H(commitment, DomainNullifier). Publishing the nullifier retracts the
// commitment's validity without revealing which identity or role it bound.
func NullifierFor(commitment types.Hash) types.Hash {
	return Keccak256Hash(commitment[:], DomainNullifier)
}
