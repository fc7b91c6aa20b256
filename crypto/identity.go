package crypto

import "github.com/shieldkit/shieldkit/core/types"

// DeriveID derives the opaque, unlinkable identity for an account and a
// 32-byte secret nonce: H(accountBytes, nonce, DomainIdentity). Only the
// holder of the nonce can reproduce the identity. The function is pure; the
// same inputs always produce the same identity.
//
// Only plain accounts are supported. Deriving an identity for any other
// account kind fails with ErrUnsupportedAccountKind.
func DeriveID(account types.AccountRef, nonce types.Nonce) (types.Hash, error) {
	if !account.IsPlain() {
		return types.Hash{}, ErrUnsupportedAccountKind
	}
	return Keccak256Hash(account.Address[:], nonce[:], DomainIdentity), nil
}
