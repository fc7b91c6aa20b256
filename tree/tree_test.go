package tree

import (
	"errors"
	"testing"

	"github.com/shieldkit/shieldkit/core/types"
)

func leaf(b byte) types.Hash {
	return types.BytesToHash([]byte{b})
}

func TestTree_NewEmpty(t *testing.T) {
	tr := New()
	if tr.Frontier() != 0 {
		t.Fatalf("expected frontier 0, got %d", tr.Frontier())
	}
	if tr.Root().IsZero() {
		t.Fatal("empty tree should have a non-zero default root")
	}
}

func TestTree_InsertAdvancesFrontier(t *testing.T) {
	tr := New()
	for i := uint64(0); i < 5; i++ {
		if err := tr.Insert(i, leaf(byte(i+1))); err != nil {
			t.Fatalf("Insert %d failed: %v", i, err)
		}
		if tr.Frontier() != i+1 {
			t.Fatalf("expected frontier %d, got %d", i+1, tr.Frontier())
		}
	}
}

func TestTree_InsertChangesRoot(t *testing.T) {
	tr := New()
	root0 := tr.Root()
	if err := tr.Insert(0, leaf(0xaa)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if tr.Root() == root0 {
		t.Fatal("root should change after insert")
	}
}

func TestTree_InsertPastFrontier(t *testing.T) {
	tr := New()
	if err := tr.Insert(3, leaf(0x01)); !errors.Is(err, ErrInvalidIndex) {
		t.Fatalf("expected ErrInvalidIndex, got %v", err)
	}
}

func TestTree_InsertOccupiedSlot(t *testing.T) {
	tr := New()
	if err := tr.Insert(0, leaf(0x01)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := tr.Insert(0, leaf(0x02)); !errors.Is(err, ErrSlotOccupied) {
		t.Fatalf("expected ErrSlotOccupied for mismatched leaf, got %v", err)
	}
	// Re-applying the identical write is a no-op, not a failure.
	if err := tr.Insert(0, leaf(0x01)); err != nil {
		t.Fatalf("matching re-insert should be a no-op, got %v", err)
	}
	if tr.Frontier() != 1 {
		t.Fatalf("no-op re-insert must not advance the frontier, got %d", tr.Frontier())
	}
}

func TestTree_LeafLookup(t *testing.T) {
	tr := New()
	want := leaf(0x55)
	if err := tr.Insert(0, want); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	got, err := tr.Leaf(0)
	if err != nil {
		t.Fatalf("Leaf failed: %v", err)
	}
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if _, err := tr.Leaf(1); !errors.Is(err, ErrInvalidIndex) {
		t.Fatalf("expected ErrInvalidIndex past frontier, got %v", err)
	}
}

func TestTree_PathForLeafVerifies(t *testing.T) {
	tr := New()
	leaves := []types.Hash{leaf(0x01), leaf(0x02), leaf(0x03), leaf(0x04), leaf(0x05)}
	for i, l := range leaves {
		if err := tr.Insert(uint64(i), l); err != nil {
			t.Fatalf("Insert %d failed: %v", i, err)
		}
	}

	root := tr.Root()
	for i, l := range leaves {
		path, err := tr.PathForLeaf(uint64(i), l)
		if err != nil {
			t.Fatalf("PathForLeaf %d failed: %v", i, err)
		}
		if !VerifyPath(l, path, root) {
			t.Fatalf("path %d does not verify", i)
		}
	}
}

func TestTree_PathForLeafErrors(t *testing.T) {
	tr := New()
	if err := tr.Insert(0, leaf(0x01)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if _, err := tr.PathForLeaf(1, leaf(0x01)); !errors.Is(err, ErrInvalidIndex) {
		t.Fatalf("expected ErrInvalidIndex at frontier, got %v", err)
	}
	if _, err := tr.PathForLeaf(0, leaf(0x02)); !errors.Is(err, ErrLeafMismatch) {
		t.Fatalf("expected ErrLeafMismatch, got %v", err)
	}
}

func TestTree_PathInvalidAgainstWrongRoot(t *testing.T) {
	tr := New()
	tr.Insert(0, leaf(0x01))
	path, err := tr.PathForLeaf(0, leaf(0x01))
	if err != nil {
		t.Fatalf("PathForLeaf failed: %v", err)
	}

	tr.Insert(1, leaf(0x02))
	// Old path against the old root is fine; a tampered leaf is not.
	if VerifyPath(leaf(0x03), path, tr.Root()) {
		t.Fatal("tampered leaf must not verify")
	}
}

func TestTree_PathStaysValidAsTreeGrows(t *testing.T) {
	tr := New()
	tr.Insert(0, leaf(0x01))
	tr.Insert(1, leaf(0x02))
	tr.Insert(2, leaf(0x03))

	path, err := tr.PathForLeaf(0, leaf(0x01))
	if err != nil {
		t.Fatalf("PathForLeaf failed: %v", err)
	}
	if !VerifyPath(leaf(0x01), path, tr.Root()) {
		t.Fatal("freshly generated path must verify against the current root")
	}
}

func TestTree_MiMCHasherDiffersFromSHA256(t *testing.T) {
	sha := New()
	mimc := NewWithHasher(NewMiMCHasher())
	sha.Insert(0, leaf(0x01))
	mimc.Insert(0, leaf(0x01))

	if sha.Root() == mimc.Root() {
		t.Fatal("different node hashers must produce different roots")
	}

	path, err := mimc.PathForLeaf(0, leaf(0x01))
	if err != nil {
		t.Fatalf("PathForLeaf failed: %v", err)
	}
	if !Verify(NewMiMCHasher(), leaf(0x01), path, mimc.Root()) {
		t.Fatal("mimc path must verify with the mimc hasher")
	}
	if Verify(NewSHA256Hasher(), leaf(0x01), path, mimc.Root()) {
		t.Fatal("mimc path must not verify with the sha256 hasher")
	}
}

func TestTree_LeavesCopy(t *testing.T) {
	tr := New()
	tr.Insert(0, leaf(0x01))
	leaves := tr.Leaves()
	leaves[0] = leaf(0xff)

	got, _ := tr.Leaf(0)
	if got != leaf(0x01) {
		t.Fatal("Leaves must return a copy")
	}
}
