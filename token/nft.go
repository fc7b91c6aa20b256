package token

import (
	"encoding/binary"
	"errors"

	"github.com/shieldkit/shieldkit/core/types"
	"github.com/shieldkit/shieldkit/crypto"
	"github.com/shieldkit/shieldkit/ledger"
	"github.com/shieldkit/shieldkit/registry"
)

// Non-fungible token errors.
var (
	ErrUnknownToken   = errors.New("token: unknown token id")
	ErrAlreadyMinted  = errors.New("token: id already minted")
	ErrNotOwnerOrAppr = errors.New("token: caller is neither owner nor approved")
)

// NFT is a ledger-backed non-fungible token: each 32-byte id has exactly
// one owner.
type NFT struct {
	owners   *ledger.Bucket
	approved *ledger.Bucket
	counts   *ledger.Bucket
	roles    *registry.AccessControl
}

// NewNFT creates a non-fungible token named name, with minting gated by
// roles' minter role.
func NewNFT(state *ledger.State, name string, roles *registry.AccessControl) *NFT {
	return &NFT{
		owners:   state.Bucket("nft/" + name + "/owner"),
		approved: state.Bucket("nft/" + name + "/approved"),
		counts:   state.Bucket("nft/" + name + "/count"),
		roles:    roles,
	}
}

// OwnerOf returns the owner of id, or ErrUnknownToken.
func (n *NFT) OwnerOf(id types.Hash) (types.Address, error) {
	v, err := n.owners.Get(id[:])
	if err == ledger.ErrNotFound {
		return types.Address{}, ErrUnknownToken
	}
	if err != nil {
		return types.Address{}, err
	}
	return types.BytesToAddress(v), nil
}

// BalanceOf returns the number of tokens account owns.
func (n *NFT) BalanceOf(account types.Address) (uint64, error) {
	v, err := n.counts.Get(account[:])
	if err == ledger.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(v), nil
}

// GetApproved returns the approved address for id, zero when none.
func (n *NFT) GetApproved(id types.Hash) (types.Address, error) {
	if _, err := n.OwnerOf(id); err != nil {
		return types.Address{}, err
	}
	v, err := n.approved.Get(id[:])
	if err == ledger.ErrNotFound {
		return types.Address{}, nil
	}
	if err != nil {
		return types.Address{}, err
	}
	return types.BytesToAddress(v), nil
}

// Mint creates id owned by to. Minter-gated; duplicate ids are rejected.
func (n *NFT) Mint(caller, to types.Address, id types.Hash) error {
	has, err := n.roles.HasRole(MinterRole, caller)
	if err != nil {
		return err
	}
	if !has {
		return crypto.ErrUnauthorizedAccount
	}
	if to.IsZero() {
		return ErrZeroAddress
	}
	if exists, err := n.owners.Has(id[:]); err != nil {
		return err
	} else if exists {
		return ErrAlreadyMinted
	}

	if err := n.owners.Put(id[:], to[:]); err != nil {
		return err
	}
	return n.adjustCount(to, 1)
}

// Burn destroys id. The caller must be the owner or approved.
func (n *NFT) Burn(caller types.Address, id types.Hash) error {
	owner, err := n.assertOwnerOrApproved(caller, id)
	if err != nil {
		return err
	}
	if err := n.owners.Delete(id[:]); err != nil {
		return err
	}
	if err := n.approved.Delete(id[:]); err != nil {
		return err
	}
	return n.adjustCount(owner, -1)
}

// Transfer moves id to to. The caller must be the owner or approved; any
// approval is cleared by the transfer.
func (n *NFT) Transfer(caller, to types.Address, id types.Hash) error {
	if to.IsZero() {
		return ErrZeroAddress
	}
	owner, err := n.assertOwnerOrApproved(caller, id)
	if err != nil {
		return err
	}

	if err := n.owners.Put(id[:], to[:]); err != nil {
		return err
	}
	if err := n.approved.Delete(id[:]); err != nil {
		return err
	}
	if err := n.adjustCount(owner, -1); err != nil {
		return err
	}
	return n.adjustCount(to, 1)
}

// Approve lets approved transfer id. The caller must be the owner; the
// zero address clears the approval.
func (n *NFT) Approve(caller, approved types.Address, id types.Hash) error {
	owner, err := n.OwnerOf(id)
	if err != nil {
		return err
	}
	if owner != caller {
		return ErrNotOwnerOrAppr
	}
	if approved.IsZero() {
		return n.approved.Delete(id[:])
	}
	return n.approved.Put(id[:], approved[:])
}

func (n *NFT) assertOwnerOrApproved(caller types.Address, id types.Hash) (types.Address, error) {
	owner, err := n.OwnerOf(id)
	if err != nil {
		return types.Address{}, err
	}
	if owner == caller {
		return owner, nil
	}
	approved, err := n.GetApproved(id)
	if err != nil {
		return types.Address{}, err
	}
	if approved != caller {
		return types.Address{}, ErrNotOwnerOrAppr
	}
	return owner, nil
}

func (n *NFT) adjustCount(account types.Address, delta int64) error {
	count, err := n.BalanceOf(account)
	if err != nil {
		return err
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(int64(count)+delta))
	return n.counts.Put(account[:], b[:])
}
