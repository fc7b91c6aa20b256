// Package types defines the core data structures shared by the shielded
// access-control protocol: fixed-width hashes, account references, role
// identifiers, and secret nonces.
package types

import (
	"encoding/hex"
	"fmt"
)

const (
	HashLength    = 32
	AddressLength = 20
	NonceLength   = 32
)

// Hash represents a 32-byte protocol value: identities, commitments,
// nullifiers, role identifiers, and tree roots all share this width.
type Hash [HashLength]byte

// Address represents the 20-byte address of a ledger account.
type Address [AddressLength]byte

// Nonce is a 32-byte secret nonce. It never appears on the public ledger;
// only hashes derived from it do.
type Nonce [NonceLength]byte

// AccountKind discriminates the kinds of account references the ledger
// knows about. Identity derivation only supports plain accounts.
type AccountKind uint8

const (
	// AccountKindPlain is an externally controlled account.
	AccountKindPlain AccountKind = iota

	// AccountKindContract is a deployed contract. Deriving a shielded
	// identity for a contract is not supported.
	AccountKindContract
)

// String implements fmt.Stringer.
func (k AccountKind) String() string {
	switch k {
	case AccountKindPlain:
		return "plain"
	case AccountKindContract:
		return "contract"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// AccountRef references a ledger account together with its kind.
type AccountRef struct {
	Kind    AccountKind
	Address Address
}

// PlainAccount builds a plain-kind account reference for the given address.
func PlainAccount(addr Address) AccountRef {
	return AccountRef{Kind: AccountKindPlain, Address: addr}
}

// ContractAccount builds a contract-kind account reference.
func ContractAccount(addr Address) AccountRef {
	return AccountRef{Kind: AccountKindContract, Address: addr}
}

// IsPlain reports whether the reference is a plain account.
func (a AccountRef) IsPlain() bool { return a.Kind == AccountKindPlain }

// String implements fmt.Stringer.
func (a AccountRef) String() string {
	return fmt.Sprintf("%s:%s", a.Kind, a.Address)
}

// BytesToHash converts bytes to Hash, left-padding if shorter than 32 bytes.
func BytesToHash(b []byte) Hash {
	var h Hash
	h.SetBytes(b)
	return h
}

// HexToHash converts a hex string to Hash.
func HexToHash(s string) Hash {
	return BytesToHash(fromHex(s))
}

// Bytes returns the byte representation of the hash.
func (h Hash) Bytes() []byte { return h[:] }

// Hex returns the hex string representation of the hash.
func (h Hash) Hex() string { return fmt.Sprintf("0x%x", h[:]) }

// SetBytes sets the hash from a byte slice, left-padding if necessary.
func (h *Hash) SetBytes(b []byte) {
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
}

// IsZero returns whether the hash is all zeros.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// String implements fmt.Stringer.
func (h Hash) String() string { return h.Hex() }

// BytesToAddress converts bytes to Address, left-padding if shorter than
// 20 bytes.
func BytesToAddress(b []byte) Address {
	var a Address
	a.SetBytes(b)
	return a
}

// HexToAddress converts a hex string to Address.
func HexToAddress(s string) Address {
	return BytesToAddress(fromHex(s))
}

// Bytes returns the byte representation of the address.
func (a Address) Bytes() []byte { return a[:] }

// Hex returns the hex string representation of the address.
func (a Address) Hex() string { return fmt.Sprintf("0x%x", a[:]) }

// SetBytes sets the address from a byte slice.
func (a *Address) SetBytes(b []byte) {
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
}

// IsZero returns whether the address is all zeros.
func (a Address) IsZero() bool {
	return a == Address{}
}

// String implements fmt.Stringer.
func (a Address) String() string { return a.Hex() }

// BytesToNonce converts bytes to Nonce, left-padding if necessary.
func BytesToNonce(b []byte) Nonce {
	var n Nonce
	if len(b) > NonceLength {
		b = b[len(b)-NonceLength:]
	}
	copy(n[NonceLength-len(b):], b)
	return n
}

// Bytes returns the byte representation of the nonce.
func (n Nonce) Bytes() []byte { return n[:] }

// IsZero returns whether the nonce is all zeros.
func (n Nonce) IsZero() bool {
	return n == Nonce{}
}

// DefaultAdminRole is the zero role identifier. Every role whose admin has
// not been explicitly configured is administered by this role.
var DefaultAdminRole = Hash{}

// fromHex decodes a hex string, stripping an optional "0x" prefix. Odd-length
// strings are left-padded with a zero nibble.
func fromHex(s string) []byte {
	if has0xPrefix(s) {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil
	}
	return b
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}
