package ledger

import (
	"errors"

	"github.com/shieldkit/shieldkit/core/types"
)

// ErrNullifierPresent is returned when a nullifier is inserted twice.
// Insertion is not idempotent: the protocol layer must rule out a double
// revocation (via HasRole) before inserting, so a duplicate here is a logic
// error, not a benign race.
var ErrNullifierPresent = errors.New("ledger: nullifier already present")

// NullifierSet is the ledger-held set of revocation values. Once a
// nullifier is present the corresponding commitment is permanently spent;
// there is no removal operation.
type NullifierSet struct {
	store Store
}

// newNullifierSet wraps the nullifier keyspace of a store.
func newNullifierSet(store Store) *NullifierSet {
	return &NullifierSet{store: store}
}

// Member reports whether the value is in the set.
func (ns *NullifierSet) Member(value types.Hash) (bool, error) {
	return ns.store.Has(nullifierKey(value))
}

// Insert adds a value to the set. Inserting a present value fails with
// ErrNullifierPresent.
func (ns *NullifierSet) Insert(value types.Hash) error {
	present, err := ns.Member(value)
	if err != nil {
		return err
	}
	if present {
		return ErrNullifierPresent
	}
	return ns.store.Put(nullifierKey(value), []byte{1})
}

// All returns every nullifier in the set in ascending order.
func (ns *NullifierSet) All() ([]types.Hash, error) {
	var out []types.Hash
	err := ns.store.Iterate([]byte(prefixNullifier), func(key, _ []byte) error {
		out = append(out, types.BytesToHash(key[len(prefixNullifier):]))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of nullifiers in the set.
func (ns *NullifierSet) Count() (uint64, error) {
	var n uint64
	err := ns.store.Iterate([]byte(prefixNullifier), func(_, _ []byte) error {
		n++
		return nil
	})
	return n, err
}

func nullifierKey(value types.Hash) []byte {
	return append([]byte(prefixNullifier), value[:]...)
}
