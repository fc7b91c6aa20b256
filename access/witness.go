package access

import (
	"github.com/shieldkit/shieldkit/core/types"
	"github.com/shieldkit/shieldkit/ledger"
	"github.com/shieldkit/shieldkit/tree"
)

// Witness is the private-state collaborator consumed by the protocol
// operations. Implementations reconstruct slot indices and membership paths
// from a public snapshot plus secrets they hold off-ledger; they never see
// live state and never mutate anything.
type Witness interface {
	// RoleIndex returns the first tree index whose leaf matches a
	// commitment derivable for (roleID, account), or the snapshot frontier
	// as a sentinel meaning "not present; the next grant would land here".
	RoleIndex(snap *ledger.Snapshot, roleID types.Hash, account types.AccountRef) (uint64, error)

	// RoleCommitmentPath returns the membership path for the given
	// commitment at the given index.
	RoleCommitmentPath(snap *ledger.Snapshot, index uint64, commitment types.Hash) (*tree.Path, error)

	// SecretNonce returns the secret nonce held for (roleID, account).
	// An error means the holder has no nonce for the pair, in which case
	// the pair is Unknown to every query.
	SecretNonce(roleID types.Hash, account types.AccountRef) (types.Nonce, error)
}

// Caller bundles an account with the witness that holds its secrets. Every
// authorization-gated operation receives the caller explicitly; there is no
// ambient transaction context at this layer.
type Caller struct {
	Account types.AccountRef
	Witness Witness
}
