package registry

import (
	"fmt"

	"github.com/shieldkit/shieldkit/core/types"
	"github.com/shieldkit/shieldkit/crypto"
	"github.com/shieldkit/shieldkit/ledger"
)

// Ownable is a plain single-owner cell. Unlike the shielded variant, the
// owner address is public ledger state.
type Ownable struct {
	bucket *ledger.Bucket
	name   string
}

// NewOwnable creates an ownable cell owned by owner. A zero owner is
// rejected.
func NewOwnable(state *ledger.State, name string, owner types.Address) (*Ownable, error) {
	if owner.IsZero() {
		return nil, fmt.Errorf("registry: initial owner must be non-zero")
	}
	o := &Ownable{bucket: state.Bucket("registry/owner"), name: name}
	if err := o.bucket.Put([]byte(name), owner[:]); err != nil {
		return nil, err
	}
	return o, nil
}

// Owner returns the current owner; the zero address after renouncement.
func (o *Ownable) Owner() (types.Address, error) {
	v, err := o.bucket.Get([]byte(o.name))
	if err == ledger.ErrNotFound {
		return types.Address{}, nil
	}
	if err != nil {
		return types.Address{}, err
	}
	return types.BytesToAddress(v), nil
}

// AssertOnlyOwner fails with ErrUnauthorizedAccount unless caller is the
// current owner.
func (o *Ownable) AssertOnlyOwner(caller types.Address) error {
	owner, err := o.Owner()
	if err != nil {
		return err
	}
	if owner.IsZero() || owner != caller {
		return fmt.Errorf("%w: not the owner of %q", crypto.ErrUnauthorizedAccount, o.name)
	}
	return nil
}

// TransferOwnership hands the cell to newOwner. A zero new owner is
// rejected; renouncing is explicit.
func (o *Ownable) TransferOwnership(caller, newOwner types.Address) error {
	if newOwner.IsZero() {
		return fmt.Errorf("registry: new owner must be non-zero")
	}
	if err := o.AssertOnlyOwner(caller); err != nil {
		return err
	}
	return o.bucket.Put([]byte(o.name), newOwner[:])
}

// RenounceOwnership sets the zero owner permanently; no future
// AssertOnlyOwner can succeed.
func (o *Ownable) RenounceOwnership(caller types.Address) error {
	if err := o.AssertOnlyOwner(caller); err != nil {
		return err
	}
	var zero types.Address
	return o.bucket.Put([]byte(o.name), zero[:])
}
