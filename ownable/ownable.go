// Package ownable implements the single-slot shielded ownership variant:
// one ownership commitment stored in a ledger cell, replaced on every
// transfer. There is no nullifier set here; supersession is the revocation
// mechanism. A strictly increasing counter is hashed into every commitment
// so a superseded owner's commitment can never be replayed.
package ownable

import (
	"fmt"

	"github.com/shieldkit/shieldkit/core/types"
	"github.com/shieldkit/shieldkit/crypto"
	"github.com/shieldkit/shieldkit/ledger"
	"github.com/shieldkit/shieldkit/log"
)

// Config configures one ownable instance. Several instances may share a
// ledger as long as their names differ.
type Config struct {
	// Name keys the instance's commitment cell and counter on the ledger.
	Name string

	// InstanceSalt is a per-deployment constant hashed into every
	// ownership commitment, preventing cross-instance collisions.
	InstanceSalt types.Hash
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("ownable: Name must be set")
	}
	if c.InstanceSalt.IsZero() {
		return fmt.Errorf("ownable: InstanceSalt must be non-zero")
	}
	return nil
}

// Ownable is a single-slot shielded ownership instance.
type Ownable struct {
	state *ledger.State
	cfg   Config
	log   log.Logger
}

// New initializes a fresh instance owned by the given identity. An all-zero
// initial identity fails with ErrInvalidIdentity: no real identity ever
// derives to zero, so a zero-owned instance could never be exercised.
func New(state *ledger.State, cfg Config, initialOwnerID types.Hash) (*Ownable, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if initialOwnerID.IsZero() {
		return nil, crypto.ErrInvalidIdentity
	}

	o := &Ownable{state: state, cfg: cfg, log: log.Default().Module("ownable").With("instance", cfg.Name)}

	if _, exists, err := state.Cell(o.cellName()); err != nil {
		return nil, err
	} else if exists {
		return nil, fmt.Errorf("ownable: instance %q already initialized", cfg.Name)
	}

	commitment := crypto.OwnershipCommitment(initialOwnerID, cfg.InstanceSalt, 0)
	if err := state.SetCell(o.cellName(), commitment); err != nil {
		return nil, err
	}
	return o, nil
}

// Open attaches to an already initialized instance.
func Open(state *ledger.State, cfg Config) (*Ownable, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := &Ownable{state: state, cfg: cfg, log: log.Default().Module("ownable").With("instance", cfg.Name)}
	if _, exists, err := state.Cell(o.cellName()); err != nil {
		return nil, err
	} else if !exists {
		return nil, fmt.Errorf("ownable: instance %q not initialized", cfg.Name)
	}
	return o, nil
}

// Commitment returns the currently stored ownership commitment.
func (o *Ownable) Commitment() (types.Hash, error) {
	c, _, err := o.state.Cell(o.cellName())
	return c, err
}

// Counter returns the current transfer counter.
func (o *Ownable) Counter() (uint64, error) {
	return o.state.Counter(o.counterName())
}

// AssertOnlyOwner recomputes the ownership commitment from the caller's
// identity and compares it with the stored slot. It fails with
// ErrUnauthorizedAccount on any mismatch, including after renouncement.
func (o *Ownable) AssertOnlyOwner(callerID types.Hash) error {
	stored, _, err := o.state.Cell(o.cellName())
	if err != nil {
		return err
	}
	counter, err := o.Counter()
	if err != nil {
		return err
	}
	if stored.IsZero() || crypto.OwnershipCommitment(callerID, o.cfg.InstanceSalt, counter) != stored {
		return fmt.Errorf("%w: not the owner of %q", crypto.ErrUnauthorizedAccount, o.cfg.Name)
	}
	return nil
}

// TransferOwnership replaces the stored commitment with one binding the new
// owner identity at the bumped counter. The caller must be the current
// owner; an all-zero new identity fails with ErrInvalidIdentity.
func (o *Ownable) TransferOwnership(callerID, newID types.Hash) error {
	if newID.IsZero() {
		return crypto.ErrInvalidIdentity
	}
	if err := o.AssertOnlyOwner(callerID); err != nil {
		return err
	}
	return o.replace(callerID, func(counter uint64) types.Hash {
		return crypto.OwnershipCommitment(newID, o.cfg.InstanceSalt, counter)
	})
}

// RenounceOwnership stores the all-zero commitment, permanently disabling
// every future AssertOnlyOwner.
func (o *Ownable) RenounceOwnership(callerID types.Hash) error {
	if err := o.AssertOnlyOwner(callerID); err != nil {
		return err
	}
	return o.replace(callerID, func(uint64) types.Hash {
		return types.Hash{}
	})
}

// replace bumps the counter and overwrites the commitment cell. Callers
// have already validated; only the two writes remain. The cell is written
// first and rolled back if the counter write fails, so the stored pair
// never verifies against a counter that was not persisted.
func (o *Ownable) replace(callerID types.Hash, next func(counter uint64) types.Hash) error {
	counter, err := o.Counter()
	if err != nil {
		return err
	}
	prev, _, err := o.state.Cell(o.cellName())
	if err != nil {
		return err
	}
	counter++
	commitment := next(counter)

	if err := o.state.SetCell(o.cellName(), commitment); err != nil {
		return err
	}
	if err := o.state.SetCounter(o.counterName(), counter); err != nil {
		if rbErr := o.state.SetCell(o.cellName(), prev); rbErr != nil {
			return rbErr
		}
		return err
	}

	o.log.Debug().
		Uint64("counter", counter).
		Str("commitment", commitment.Hex()).
		Msg("ownership replaced")
	return nil
}

func (o *Ownable) cellName() string    { return "ownable/" + o.cfg.Name }
func (o *Ownable) counterName() string { return "ownable/" + o.cfg.Name }
