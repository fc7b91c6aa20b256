// Package token implements the plain ledger-backed token modules: fungible
// balances with allowances, non-fungible ownership, and (id, account)
// multi-token balances. Amounts are 256-bit; every guard failure leaves
// state untouched.
package token

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/shieldkit/shieldkit/core/types"
	"github.com/shieldkit/shieldkit/crypto"
	"github.com/shieldkit/shieldkit/ledger"
	"github.com/shieldkit/shieldkit/registry"
)

// Token errors.
var (
	ErrZeroAddress           = errors.New("token: zero address")
	ErrInsufficientBalance   = errors.New("token: insufficient balance")
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")
	ErrSupplyOverflow        = errors.New("token: total supply overflow")
	ErrLengthMismatch        = errors.New("token: batch length mismatch")
)

// MinterRole gates Mint and Burn on every token module.
var MinterRole = crypto.Keccak256Hash([]byte("shieldkit/token/minter"))

// Fungible is a ledger-backed fungible token.
type Fungible struct {
	balances   *ledger.Bucket
	allowances *ledger.Bucket
	supply     *ledger.Bucket
	roles      *registry.AccessControl
}

// NewFungible creates a fungible token named name, with mint/burn gated by
// roles' minter role.
func NewFungible(state *ledger.State, name string, roles *registry.AccessControl) *Fungible {
	return &Fungible{
		balances:   state.Bucket("token/" + name + "/balance"),
		allowances: state.Bucket("token/" + name + "/allowance"),
		supply:     state.Bucket("token/" + name + "/supply"),
		roles:      roles,
	}
}

// TotalSupply returns the total minted supply.
func (f *Fungible) TotalSupply() (*uint256.Int, error) {
	return readAmount(f.supply, []byte("total"))
}

// BalanceOf returns account's balance.
func (f *Fungible) BalanceOf(account types.Address) (*uint256.Int, error) {
	return readAmount(f.balances, account[:])
}

// Allowance returns how much spender may transfer from owner.
func (f *Fungible) Allowance(owner, spender types.Address) (*uint256.Int, error) {
	return readAmount(f.allowances, pairKey(owner, spender))
}

// Transfer moves amount from the caller to to.
func (f *Fungible) Transfer(caller, to types.Address, amount *uint256.Int) error {
	if to.IsZero() {
		return ErrZeroAddress
	}
	return f.move(caller, to, amount)
}

// Approve lets spender transfer up to amount from the caller.
func (f *Fungible) Approve(caller, spender types.Address, amount *uint256.Int) error {
	if spender.IsZero() {
		return ErrZeroAddress
	}
	return writeAmount(f.allowances, pairKey(caller, spender), amount)
}

// TransferFrom moves amount from from to to, consuming the caller's
// allowance.
func (f *Fungible) TransferFrom(caller, from, to types.Address, amount *uint256.Int) error {
	if to.IsZero() {
		return ErrZeroAddress
	}
	allowance, err := f.Allowance(from, caller)
	if err != nil {
		return err
	}
	if allowance.Lt(amount) {
		return ErrInsufficientAllowance
	}
	if err := f.move(from, to, amount); err != nil {
		return err
	}
	return writeAmount(f.allowances, pairKey(from, caller), new(uint256.Int).Sub(allowance, amount))
}

// Mint creates amount new tokens for to. Minter-gated; a total-supply
// overflow fails the whole operation.
func (f *Fungible) Mint(caller, to types.Address, amount *uint256.Int) error {
	if err := f.assertMinter(caller); err != nil {
		return err
	}
	if to.IsZero() {
		return ErrZeroAddress
	}

	total, err := f.TotalSupply()
	if err != nil {
		return err
	}
	newTotal, overflow := new(uint256.Int).AddOverflow(total, amount)
	if overflow {
		return ErrSupplyOverflow
	}
	balance, err := f.BalanceOf(to)
	if err != nil {
		return err
	}

	if err := writeAmount(f.supply, []byte("total"), newTotal); err != nil {
		return err
	}
	return writeAmount(f.balances, to[:], new(uint256.Int).Add(balance, amount))
}

// Burn destroys amount tokens held by from. Minter-gated.
func (f *Fungible) Burn(caller, from types.Address, amount *uint256.Int) error {
	if err := f.assertMinter(caller); err != nil {
		return err
	}
	balance, err := f.BalanceOf(from)
	if err != nil {
		return err
	}
	if balance.Lt(amount) {
		return ErrInsufficientBalance
	}
	total, err := f.TotalSupply()
	if err != nil {
		return err
	}

	if err := writeAmount(f.supply, []byte("total"), new(uint256.Int).Sub(total, amount)); err != nil {
		return err
	}
	return writeAmount(f.balances, from[:], new(uint256.Int).Sub(balance, amount))
}

func (f *Fungible) move(from, to types.Address, amount *uint256.Int) error {
	fromBal, err := f.BalanceOf(from)
	if err != nil {
		return err
	}
	if fromBal.Lt(amount) {
		return ErrInsufficientBalance
	}
	// Self-transfer: the two keys are the same, so the debit-then-credit
	// below would apply a stale read and inflate the balance.
	if from == to {
		return nil
	}
	toBal, err := f.BalanceOf(to)
	if err != nil {
		return err
	}

	if err := writeAmount(f.balances, from[:], new(uint256.Int).Sub(fromBal, amount)); err != nil {
		return err
	}
	return writeAmount(f.balances, to[:], new(uint256.Int).Add(toBal, amount))
}

func (f *Fungible) assertMinter(caller types.Address) error {
	has, err := f.roles.HasRole(MinterRole, caller)
	if err != nil {
		return err
	}
	if !has {
		return crypto.ErrUnauthorizedAccount
	}
	return nil
}

func readAmount(b *ledger.Bucket, key []byte) (*uint256.Int, error) {
	v, err := b.Get(key)
	if err == ledger.ErrNotFound {
		return uint256.NewInt(0), nil
	}
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes(v), nil
}

func writeAmount(b *ledger.Bucket, key []byte, amount *uint256.Int) error {
	v := amount.Bytes32()
	return b.Put(key, v[:])
}

func pairKey(a, b types.Address) []byte {
	key := make([]byte, 0, 2*types.AddressLength)
	key = append(key, a[:]...)
	return append(key, b[:]...)
}
