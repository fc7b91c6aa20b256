// Package access implements the multi-slot shielded role registry: role
// grants recorded as commitments in an indexed append tree, revocations
// published as nullifiers, and membership checks that reveal neither the
// holder's identity nor its role binding.
//
// Per (role, account) pair the observable states are Unknown (no matching
// commitment in the tree), Active (matching commitment, nullifier absent)
// and Revoked (matching commitment, nullifier present). The states are
// never stored; they are observed through ledger queries.
package access

import (
	"fmt"

	"github.com/shieldkit/shieldkit/core/types"
	"github.com/shieldkit/shieldkit/crypto"
	"github.com/shieldkit/shieldkit/ledger"
	"github.com/shieldkit/shieldkit/log"
	"github.com/shieldkit/shieldkit/tree"
)

// RoleStatus is the result of a membership query.
type RoleStatus struct {
	// IsApproved is true iff a commitment derivable for (roleID, account)
	// is present in the tree with a valid path and its nullifier is absent.
	IsApproved bool

	// Commitment is the matching commitment, or zero when none was found.
	Commitment types.Hash

	// Nullifier is the matching commitment's nullifier, or zero.
	Nullifier types.Hash
}

// Controller exposes the shielded role protocol operations over an explicit
// ledger state handle.
type Controller struct {
	state *ledger.State
	log   log.Logger
}

// New creates a Controller over the given state handle.
func New(state *ledger.State) *Controller {
	return NewWithLogger(state, log.Default())
}

// NewWithLogger creates a Controller with an explicit logger.
func NewWithLogger(state *ledger.State, logger log.Logger) *Controller {
	return &Controller{state: state, log: logger.Module("access")}
}

// HasRole queries the membership state for (roleID, account) using the
// given witness. The query is pure: it never mutates ledger state.
//
// A witness that holds no nonce for the pair yields an Unknown (not
// approved) status rather than an error.
func (c *Controller) HasRole(roleID types.Hash, account types.AccountRef, w Witness) (RoleStatus, error) {
	nonce, err := w.SecretNonce(roleID, account)
	if err != nil {
		return RoleStatus{}, nil
	}

	id, err := crypto.DeriveID(account, nonce)
	if err != nil {
		return RoleStatus{}, err
	}

	snap, err := c.state.Snapshot()
	if err != nil {
		return RoleStatus{}, err
	}

	index, err := w.RoleIndex(snap, roleID, account)
	if err != nil {
		return RoleStatus{}, err
	}
	if index >= snap.Frontier {
		// Sentinel: no matching commitment anywhere in the tree.
		return RoleStatus{}, nil
	}

	// Re-validate the witness-supplied index against live state: the
	// commitment must sit at that index with a path to the live root.
	commitment := crypto.RoleCommitment(roleID, id, nonce, index)
	nullifier := crypto.NullifierFor(commitment)
	status := RoleStatus{Commitment: commitment, Nullifier: nullifier}

	path, err := c.state.Tree().PathForLeaf(index, commitment)
	if err == tree.ErrInvalidIndex || err == tree.ErrLeafMismatch {
		return RoleStatus{}, nil
	}
	if err != nil {
		return RoleStatus{}, err
	}
	if !tree.VerifyPath(commitment, path, c.state.Tree().Root()) {
		return status, nil
	}

	nullified, err := c.state.Nullifiers().Member(nullifier)
	if err != nil {
		return RoleStatus{}, err
	}
	status.IsApproved = !nullified
	return status, nil
}

// AssertOnlyRole fails with ErrUnauthorizedAccount unless the caller holds
// an active grant for roleID.
func (c *Controller) AssertOnlyRole(caller Caller, roleID types.Hash) error {
	status, err := c.HasRole(roleID, caller.Account, caller.Witness)
	if err != nil {
		return err
	}
	if !status.IsApproved {
		return fmt.Errorf("%w: role %s", crypto.ErrUnauthorizedAccount, roleID)
	}
	return nil
}

// InitialAdmin seeds a freshly constructed registry with its first
// DEFAULT_ADMIN_ROLE grant. It is only permitted while the tree is empty;
// every later grant goes through GrantRole's admin check.
func (c *Controller) InitialAdmin(account types.AccountRef, nonce types.Nonce) error {
	if c.state.Tree().Frontier() != 0 {
		return fmt.Errorf("%w: registry already initialized", crypto.ErrUnauthorizedAccount)
	}
	id, err := crypto.DeriveID(account, nonce)
	if err != nil {
		return err
	}
	commitment := crypto.RoleCommitment(types.DefaultAdminRole, id, nonce, 0)
	if err := c.state.AppendLeaf(0, commitment); err != nil {
		return err
	}
	c.log.Info().
		Str("commitment", commitment.Hex()).
		Msg("initial admin granted")
	return nil
}

// GrantRole grants roleID to account under a granter-chosen secret nonce.
// The caller must hold the role's admin role. The nonce must be
// communicated to the grantee off-chain; this layer assumes a secure
// out-of-band channel.
//
// Returns false without mutation when an active commitment already exists
// for the derived identity and role; true after inserting a fresh
// commitment at the frontier.
func (c *Controller) GrantRole(caller Caller, roleID types.Hash, account types.AccountRef, nonce types.Nonce) (bool, error) {
	if err := c.assertAdmin(caller, roleID); err != nil {
		return false, err
	}

	id, err := crypto.DeriveID(account, nonce)
	if err != nil {
		return false, err
	}

	// All preconditions are checked before the single mutation below, so a
	// failed grant leaves no partial state behind.
	if _, _, ok, err := c.findActive(roleID, id, nonce); err != nil {
		return false, err
	} else if ok {
		return false, nil
	}

	index := c.state.Tree().Frontier()
	commitment := crypto.RoleCommitment(roleID, id, nonce, index)
	if err := c.state.AppendLeaf(index, commitment); err != nil {
		return false, err
	}

	c.log.Debug().
		Str("role", roleID.Hex()).
		Uint64("index", index).
		Str("commitment", commitment.Hex()).
		Msg("role granted")
	return true, nil
}

// RevokeRole revokes account's active grant for roleID by publishing its
// nullifier. The caller must hold the role's admin role and its witness
// must hold the grant's nonce.
//
// Fails with ErrRoleAccessAlreadyRevoked when the only matching commitments
// are already nullified; returns false when the pair is Unknown.
func (c *Controller) RevokeRole(caller Caller, roleID types.Hash, account types.AccountRef) (bool, error) {
	if err := c.assertAdmin(caller, roleID); err != nil {
		return false, err
	}
	return c.revoke(caller.Witness, roleID, account)
}

// RenounceRole revokes the caller's own grant for roleID. The confirmation
// account must match the caller, otherwise ErrBadConfirmation.
func (c *Controller) RenounceRole(caller Caller, roleID types.Hash, confirmation types.AccountRef) (bool, error) {
	if confirmation != caller.Account {
		return false, crypto.ErrBadConfirmation
	}
	return c.revoke(caller.Witness, roleID, caller.Account)
}

// GetRoleAdmin returns the admin role for roleID; unset roles default to
// types.DefaultAdminRole.
func (c *Controller) GetRoleAdmin(roleID types.Hash) (types.Hash, error) {
	return c.state.RoleAdmin(roleID)
}

// SetRoleAdmin changes the admin role for roleID. The caller must hold the
// role's current admin role.
func (c *Controller) SetRoleAdmin(caller Caller, roleID, adminRole types.Hash) error {
	if err := c.assertAdmin(caller, roleID); err != nil {
		return err
	}
	if err := c.state.SetRoleAdmin(roleID, adminRole); err != nil {
		return err
	}
	c.log.Debug().
		Str("role", roleID.Hex()).
		Str("admin", adminRole.Hex()).
		Msg("role admin changed")
	return nil
}

// revoke recomputes the active commitment for (roleID, account) and inserts
// its nullifier. All checks complete before the single mutation.
func (c *Controller) revoke(w Witness, roleID types.Hash, account types.AccountRef) (bool, error) {
	nonce, err := w.SecretNonce(roleID, account)
	if err != nil {
		return false, nil // Unknown pair: nothing to revoke
	}
	id, err := crypto.DeriveID(account, nonce)
	if err != nil {
		return false, err
	}

	index, commitment, ok, err := c.findActive(roleID, id, nonce)
	if err != nil {
		return false, err
	}
	if !ok {
		// Distinguish Revoked from Unknown: any nullified match means the
		// access was already revoked.
		revoked, err := c.anyNullified(roleID, id, nonce)
		if err != nil {
			return false, err
		}
		if revoked {
			return false, crypto.ErrRoleAccessAlreadyRevoked
		}
		return false, nil
	}

	nullifier := crypto.NullifierFor(commitment)
	if err := c.state.InsertNullifier(nullifier); err != nil {
		return false, err
	}

	c.log.Debug().
		Str("role", roleID.Hex()).
		Uint64("index", index).
		Str("nullifier", nullifier.Hex()).
		Msg("role revoked")
	return true, nil
}

// assertAdmin checks that the caller holds the admin role for roleID.
func (c *Controller) assertAdmin(caller Caller, roleID types.Hash) error {
	adminRole, err := c.state.RoleAdmin(roleID)
	if err != nil {
		return err
	}
	return c.AssertOnlyRole(caller, adminRole)
}

// findActive scans the live tree for a commitment derivable from
// (roleID, id, nonce) whose nullifier is absent. This is the operation
// layer's own re-validation; it never trusts a witness-supplied index.
func (c *Controller) findActive(roleID, id types.Hash, nonce types.Nonce) (uint64, types.Hash, bool, error) {
	t := c.state.Tree()
	frontier := t.Frontier()
	for i := uint64(0); i < frontier; i++ {
		commitment := crypto.RoleCommitment(roleID, id, nonce, i)
		leaf, err := t.Leaf(i)
		if err != nil {
			return 0, types.Hash{}, false, err
		}
		if leaf != commitment {
			continue
		}
		nullified, err := c.state.Nullifiers().Member(crypto.NullifierFor(commitment))
		if err != nil {
			return 0, types.Hash{}, false, err
		}
		if !nullified {
			return i, commitment, true, nil
		}
	}
	return frontier, types.Hash{}, false, nil
}

// anyNullified reports whether any matching commitment for the tuple has
// been nullified.
func (c *Controller) anyNullified(roleID, id types.Hash, nonce types.Nonce) (bool, error) {
	t := c.state.Tree()
	for i := uint64(0); i < t.Frontier(); i++ {
		commitment := crypto.RoleCommitment(roleID, id, nonce, i)
		leaf, err := t.Leaf(i)
		if err != nil {
			return false, err
		}
		if leaf != commitment {
			continue
		}
		nullified, err := c.state.Nullifiers().Member(crypto.NullifierFor(commitment))
		if err != nil {
			return false, err
		}
		if nullified {
			return true, nil
		}
	}
	return false, nil
}
