package registry

import (
	"errors"
	"testing"

	"github.com/shieldkit/shieldkit/core/types"
	"github.com/shieldkit/shieldkit/crypto"
	"github.com/shieldkit/shieldkit/ledger"
)

var testRole = crypto.Keccak256Hash([]byte("TEST_ROLE"))

func addr(b byte) types.Address {
	return types.BytesToAddress([]byte{b})
}

func newRegistry(t *testing.T) (*AccessControl, types.Address) {
	t.Helper()
	state, err := ledger.Open(ledger.NewMemoryStore())
	if err != nil {
		t.Fatalf("ledger.Open failed: %v", err)
	}
	admin := addr(0xA0)
	ac, err := NewAccessControl(state, admin)
	if err != nil {
		t.Fatalf("NewAccessControl failed: %v", err)
	}
	return ac, admin
}

func TestNewAccessControl_ZeroAdminRejected(t *testing.T) {
	state, _ := ledger.Open(ledger.NewMemoryStore())
	if _, err := NewAccessControl(state, types.Address{}); err == nil {
		t.Fatal("zero initial admin must be rejected")
	}
}

func TestAccessControl_GrantRevoke(t *testing.T) {
	ac, admin := newRegistry(t)
	b := addr(0xB0)

	ok, err := ac.GrantRole(admin, testRole, b)
	if err != nil || !ok {
		t.Fatalf("GrantRole returned %v, %v", ok, err)
	}
	has, _ := ac.HasRole(testRole, b)
	if !has {
		t.Fatal("granted role must be held")
	}

	// Granting again is a no-op.
	ok, err = ac.GrantRole(admin, testRole, b)
	if err != nil || ok {
		t.Fatalf("duplicate grant returned %v, %v", ok, err)
	}

	ok, err = ac.RevokeRole(admin, testRole, b)
	if err != nil || !ok {
		t.Fatalf("RevokeRole returned %v, %v", ok, err)
	}
	has, _ = ac.HasRole(testRole, b)
	if has {
		t.Fatal("revoked role must not be held")
	}

	// Revoking again is a no-op.
	ok, err = ac.RevokeRole(admin, testRole, b)
	if err != nil || ok {
		t.Fatalf("duplicate revoke returned %v, %v", ok, err)
	}
}

func TestAccessControl_Unauthorized(t *testing.T) {
	ac, _ := newRegistry(t)
	mallory := addr(0xE0)

	if _, err := ac.GrantRole(mallory, testRole, addr(0xB0)); !errors.Is(err, crypto.ErrUnauthorizedAccount) {
		t.Fatalf("expected ErrUnauthorizedAccount, got %v", err)
	}
	if _, err := ac.RevokeRole(mallory, testRole, addr(0xB0)); !errors.Is(err, crypto.ErrUnauthorizedAccount) {
		t.Fatalf("expected ErrUnauthorizedAccount, got %v", err)
	}
}

func TestAccessControl_Renounce(t *testing.T) {
	ac, admin := newRegistry(t)
	b := addr(0xB0)
	ac.GrantRole(admin, testRole, b)

	if _, err := ac.RenounceRole(b, testRole, addr(0xDD)); !errors.Is(err, crypto.ErrBadConfirmation) {
		t.Fatalf("expected ErrBadConfirmation, got %v", err)
	}
	ok, err := ac.RenounceRole(b, testRole, b)
	if err != nil || !ok {
		t.Fatalf("RenounceRole returned %v, %v", ok, err)
	}
	has, _ := ac.HasRole(testRole, b)
	if has {
		t.Fatal("renounced role must not be held")
	}
}

func TestAccessControl_RoleAdmin(t *testing.T) {
	ac, admin := newRegistry(t)
	adminRole := crypto.Keccak256Hash([]byte("SUB_ADMIN"))

	got, _ := ac.GetRoleAdmin(testRole)
	if got != types.DefaultAdminRole {
		t.Fatal("unset role must default to the zero admin role")
	}

	if err := ac.SetRoleAdmin(admin, testRole, adminRole); err != nil {
		t.Fatalf("SetRoleAdmin failed: %v", err)
	}

	// The default admin no longer administers testRole.
	if _, err := ac.GrantRole(admin, testRole, addr(0xB0)); !errors.Is(err, crypto.ErrUnauthorizedAccount) {
		t.Fatalf("expected ErrUnauthorizedAccount, got %v", err)
	}

	// An account holding the new admin role does.
	sub := addr(0xB1)
	if _, err := ac.GrantRole(admin, adminRole, sub); err != nil {
		t.Fatalf("granting the admin role failed: %v", err)
	}
	ok, err := ac.GrantRole(sub, testRole, addr(0xB0))
	if err != nil || !ok {
		t.Fatalf("sub-admin grant returned %v, %v", ok, err)
	}
}

func TestOwnable_Lifecycle(t *testing.T) {
	state, _ := ledger.Open(ledger.NewMemoryStore())
	owner := addr(0x01)

	if _, err := NewOwnable(state, "cell", types.Address{}); err == nil {
		t.Fatal("zero initial owner must be rejected")
	}

	o, err := NewOwnable(state, "cell", owner)
	if err != nil {
		t.Fatalf("NewOwnable failed: %v", err)
	}
	got, _ := o.Owner()
	if got != owner {
		t.Fatalf("expected owner %s, got %s", owner, got)
	}

	if err := o.TransferOwnership(owner, types.Address{}); err == nil {
		t.Fatal("zero new owner must be rejected")
	}
	if err := o.TransferOwnership(addr(0x02), addr(0x03)); !errors.Is(err, crypto.ErrUnauthorizedAccount) {
		t.Fatalf("expected ErrUnauthorizedAccount, got %v", err)
	}

	next := addr(0x02)
	if err := o.TransferOwnership(owner, next); err != nil {
		t.Fatalf("TransferOwnership failed: %v", err)
	}
	got, _ = o.Owner()
	if got != next {
		t.Fatalf("expected owner %s, got %s", next, got)
	}

	if err := o.RenounceOwnership(next); err != nil {
		t.Fatalf("RenounceOwnership failed: %v", err)
	}
	got, _ = o.Owner()
	if !got.IsZero() {
		t.Fatal("renounced cell must have the zero owner")
	}
	if err := o.AssertOnlyOwner(next); !errors.Is(err, crypto.ErrUnauthorizedAccount) {
		t.Fatalf("no owner may assert after renouncement, got %v", err)
	}
}
