package token

import (
	"github.com/holiman/uint256"

	"github.com/shieldkit/shieldkit/core/types"
	"github.com/shieldkit/shieldkit/crypto"
	"github.com/shieldkit/shieldkit/ledger"
	"github.com/shieldkit/shieldkit/registry"
)

// Multi is a ledger-backed multi-token: balances are keyed by
// (token id, account).
type Multi struct {
	balances *ledger.Bucket
	roles    *registry.AccessControl
}

// NewMulti creates a multi-token named name, with mint/burn gated by
// roles' minter role.
func NewMulti(state *ledger.State, name string, roles *registry.AccessControl) *Multi {
	return &Multi{
		balances: state.Bucket("multi/" + name + "/balance"),
		roles:    roles,
	}
}

// BalanceOf returns account's balance of token id.
func (m *Multi) BalanceOf(account types.Address, id types.Hash) (*uint256.Int, error) {
	return readAmount(m.balances, idAccountKey(id, account))
}

// BalanceOfBatch returns the balances for each (account, id) pair. The two
// slices must have equal length.
func (m *Multi) BalanceOfBatch(accounts []types.Address, ids []types.Hash) ([]*uint256.Int, error) {
	if len(accounts) != len(ids) {
		return nil, ErrLengthMismatch
	}
	out := make([]*uint256.Int, len(accounts))
	for i := range accounts {
		bal, err := m.BalanceOf(accounts[i], ids[i])
		if err != nil {
			return nil, err
		}
		out[i] = bal
	}
	return out, nil
}

// Transfer moves amount of token id from the caller to to.
func (m *Multi) Transfer(caller, to types.Address, id types.Hash, amount *uint256.Int) error {
	if to.IsZero() {
		return ErrZeroAddress
	}
	return m.move(caller, to, id, amount)
}

// BatchTransfer moves several token amounts from the caller to to. All
// guards are checked before any balance changes, so a failing entry leaves
// every balance untouched.
func (m *Multi) BatchTransfer(caller, to types.Address, ids []types.Hash, amounts []*uint256.Int) error {
	if len(ids) != len(amounts) {
		return ErrLengthMismatch
	}
	if to.IsZero() {
		return ErrZeroAddress
	}
	// Ids may repeat within a batch, so validate the summed requirement per
	// id; checking entries against the pre-batch balance one by one would
	// let an overdrawing batch fail after its first moves landed.
	required := make(map[types.Hash]*uint256.Int, len(ids))
	for i := range ids {
		sum, ok := required[ids[i]]
		if !ok {
			sum = new(uint256.Int)
			required[ids[i]] = sum
		}
		if _, overflow := sum.AddOverflow(sum, amounts[i]); overflow {
			return ErrInsufficientBalance
		}
	}
	for id, sum := range required {
		bal, err := m.BalanceOf(caller, id)
		if err != nil {
			return err
		}
		if bal.Lt(sum) {
			return ErrInsufficientBalance
		}
	}
	for i := range ids {
		if err := m.move(caller, to, ids[i], amounts[i]); err != nil {
			return err
		}
	}
	return nil
}

// Mint creates amount of token id for to. Minter-gated.
func (m *Multi) Mint(caller, to types.Address, id types.Hash, amount *uint256.Int) error {
	if err := m.assertMinter(caller); err != nil {
		return err
	}
	if to.IsZero() {
		return ErrZeroAddress
	}
	bal, err := m.BalanceOf(to, id)
	if err != nil {
		return err
	}
	newBal, overflow := new(uint256.Int).AddOverflow(bal, amount)
	if overflow {
		return ErrSupplyOverflow
	}
	return writeAmount(m.balances, idAccountKey(id, to), newBal)
}

// Burn destroys amount of token id held by from. Minter-gated.
func (m *Multi) Burn(caller, from types.Address, id types.Hash, amount *uint256.Int) error {
	if err := m.assertMinter(caller); err != nil {
		return err
	}
	bal, err := m.BalanceOf(from, id)
	if err != nil {
		return err
	}
	if bal.Lt(amount) {
		return ErrInsufficientBalance
	}
	return writeAmount(m.balances, idAccountKey(id, from), new(uint256.Int).Sub(bal, amount))
}

func (m *Multi) move(from, to types.Address, id types.Hash, amount *uint256.Int) error {
	fromBal, err := m.BalanceOf(from, id)
	if err != nil {
		return err
	}
	if fromBal.Lt(amount) {
		return ErrInsufficientBalance
	}
	// Self-transfer: debit and credit would hit the same key with a stale
	// read and inflate the balance.
	if from == to {
		return nil
	}
	toBal, err := m.BalanceOf(to, id)
	if err != nil {
		return err
	}

	if err := writeAmount(m.balances, idAccountKey(id, from), new(uint256.Int).Sub(fromBal, amount)); err != nil {
		return err
	}
	return writeAmount(m.balances, idAccountKey(id, to), new(uint256.Int).Add(toBal, amount))
}

func (m *Multi) assertMinter(caller types.Address) error {
	has, err := m.roles.HasRole(MinterRole, caller)
	if err != nil {
		return err
	}
	if !has {
		return crypto.ErrUnauthorizedAccount
	}
	return nil
}

func idAccountKey(id types.Hash, account types.Address) []byte {
	key := make([]byte, 0, types.HashLength+types.AddressLength)
	key = append(key, id[:]...)
	return append(key, account[:]...)
}
