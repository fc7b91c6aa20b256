// Package registry implements the plain, non-shielded access-control
// modules: a role registry and an ownable cell, both ledger-backed maps
// with guard conditions. They share the shielded protocol's error taxonomy
// but none of its commitment machinery; membership here is public.
package registry

import (
	"fmt"

	"github.com/shieldkit/shieldkit/core/types"
	"github.com/shieldkit/shieldkit/crypto"
	"github.com/shieldkit/shieldkit/ledger"
	"github.com/shieldkit/shieldkit/log"
)

// AccessControl is a plain role registry: role membership is stored as
// public (role, account) entries.
type AccessControl struct {
	state  *ledger.State
	roles  *ledger.Bucket
	admins *ledger.Bucket
	log    log.Logger
}

// NewAccessControl creates a registry over the given state and grants the
// default admin role to initialAdmin.
func NewAccessControl(state *ledger.State, initialAdmin types.Address) (*AccessControl, error) {
	if initialAdmin.IsZero() {
		return nil, fmt.Errorf("registry: initial admin must be non-zero")
	}
	ac := &AccessControl{
		state:  state,
		roles:  state.Bucket("registry/roles"),
		admins: state.Bucket("registry/admins"),
		log:    log.Default().Module("registry"),
	}
	if err := ac.roles.Put(roleKey(types.DefaultAdminRole, initialAdmin), []byte{1}); err != nil {
		return nil, err
	}
	return ac, nil
}

// HasRole reports whether account holds role.
func (ac *AccessControl) HasRole(role types.Hash, account types.Address) (bool, error) {
	return ac.roles.Has(roleKey(role, account))
}

// GetRoleAdmin returns the admin role for role, defaulting to
// types.DefaultAdminRole.
func (ac *AccessControl) GetRoleAdmin(role types.Hash) (types.Hash, error) {
	v, err := ac.admins.Get(role[:])
	if err == ledger.ErrNotFound {
		return types.DefaultAdminRole, nil
	}
	if err != nil {
		return types.Hash{}, err
	}
	return types.BytesToHash(v), nil
}

// SetRoleAdmin changes the admin role for role. The caller must hold the
// role's current admin role.
func (ac *AccessControl) SetRoleAdmin(caller types.Address, role, adminRole types.Hash) error {
	if err := ac.assertAdmin(caller, role); err != nil {
		return err
	}
	return ac.admins.Put(role[:], adminRole[:])
}

// GrantRole grants role to account. The caller must hold the role's admin
// role. Returns false when account already held the role.
func (ac *AccessControl) GrantRole(caller types.Address, role types.Hash, account types.Address) (bool, error) {
	if err := ac.assertAdmin(caller, role); err != nil {
		return false, err
	}
	has, err := ac.HasRole(role, account)
	if err != nil || has {
		return false, err
	}
	if err := ac.roles.Put(roleKey(role, account), []byte{1}); err != nil {
		return false, err
	}
	ac.log.Debug().Str("role", role.Hex()).Str("account", account.Hex()).Msg("role granted")
	return true, nil
}

// RevokeRole removes role from account. The caller must hold the role's
// admin role. Returns false when account did not hold the role.
func (ac *AccessControl) RevokeRole(caller types.Address, role types.Hash, account types.Address) (bool, error) {
	if err := ac.assertAdmin(caller, role); err != nil {
		return false, err
	}
	return ac.remove(role, account)
}

// RenounceRole removes role from the caller itself. The confirmation
// address must match the caller, otherwise ErrBadConfirmation.
func (ac *AccessControl) RenounceRole(caller types.Address, role types.Hash, confirmation types.Address) (bool, error) {
	if confirmation != caller {
		return false, crypto.ErrBadConfirmation
	}
	return ac.remove(role, caller)
}

func (ac *AccessControl) remove(role types.Hash, account types.Address) (bool, error) {
	has, err := ac.HasRole(role, account)
	if err != nil || !has {
		return false, err
	}
	if err := ac.roles.Delete(roleKey(role, account)); err != nil {
		return false, err
	}
	return true, nil
}

func (ac *AccessControl) assertAdmin(caller types.Address, role types.Hash) error {
	adminRole, err := ac.GetRoleAdmin(role)
	if err != nil {
		return err
	}
	has, err := ac.HasRole(adminRole, caller)
	if err != nil {
		return err
	}
	if !has {
		return fmt.Errorf("%w: %s lacks admin role for %s",
			crypto.ErrUnauthorizedAccount, caller, role)
	}
	return nil
}

func roleKey(role types.Hash, account types.Address) []byte {
	key := make([]byte, 0, types.HashLength+types.AddressLength)
	key = append(key, role[:]...)
	return append(key, account[:]...)
}
