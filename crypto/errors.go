package crypto

import "errors"

// Protocol error taxonomy. Each kind carries a fixed, stable message per
// failure class; callers match with errors.Is. Both the multi-slot role
// variant and the single-slot ownership variant surface these.
var (
	// ErrUnsupportedAccountKind is returned when an identity is derived for
	// an account reference that is not a plain account.
	ErrUnsupportedAccountKind = errors.New("shielded: unsupported account kind")

	// ErrInvalidIdentity is returned when a supplied identity or commitment
	// is the reserved all-zero sentinel.
	ErrInvalidIdentity = errors.New("shielded: invalid zero identity")

	// ErrUnauthorizedAccount is returned when a membership or ownership
	// check fails: wrong nonce, wrong index, stale path, or a present
	// nullifier.
	ErrUnauthorizedAccount = errors.New("shielded: unauthorized account")

	// ErrRoleAccessAlreadyRevoked is returned on an attempt to re-use or
	// re-revoke a nullified commitment.
	ErrRoleAccessAlreadyRevoked = errors.New("shielded: role access already revoked")

	// ErrBadConfirmation is returned when a self-service operation is
	// called with a confirmation argument that does not match the caller.
	ErrBadConfirmation = errors.New("shielded: confirmation does not match caller")
)
