package ledger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/shieldkit/shieldkit/core/types"
)

func populatedState(t *testing.T) *State {
	t.Helper()
	s, err := Open(NewMemoryStore())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	for i := uint64(0); i < 3; i++ {
		if err := s.AppendLeaf(i, hash(byte(i+1))); err != nil {
			t.Fatalf("AppendLeaf failed: %v", err)
		}
	}
	if err := s.InsertNullifier(hash(0xaa)); err != nil {
		t.Fatalf("InsertNullifier failed: %v", err)
	}
	if err := s.SetRoleAdmin(hash(0x10), hash(0x20)); err != nil {
		t.Fatalf("SetRoleAdmin failed: %v", err)
	}
	if err := s.SetCounter("owners", 7); err != nil {
		t.Fatalf("SetCounter failed: %v", err)
	}
	return s
}

func TestSnapshot_RoundTrip(t *testing.T) {
	s := populatedState(t)
	snap, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteSnapshot(&buf, snap); err != nil {
		t.Fatalf("WriteSnapshot failed: %v", err)
	}
	got, err := ReadSnapshot(&buf)
	if err != nil {
		t.Fatalf("ReadSnapshot failed: %v", err)
	}

	if got.Frontier != 3 || len(got.Leaves) != 3 {
		t.Fatalf("unexpected snapshot shape: frontier=%d leaves=%d", got.Frontier, len(got.Leaves))
	}
	if !got.HasNullifier(hash(0xaa)) {
		t.Fatal("nullifier lost in round trip")
	}
	if got.RoleAdmin(hash(0x10)) != hash(0x20) {
		t.Fatal("admin entry lost in round trip")
	}
	if got.RoleAdmin(hash(0x99)) != types.DefaultAdminRole {
		t.Fatal("unknown role must default to the zero admin role")
	}
	if len(got.Counters) != 1 || got.Counters[0].Name != "owners" || got.Counters[0].Value != 7 {
		t.Fatalf("counter lost in round trip: %+v", got.Counters)
	}
}

func TestSnapshot_DeterministicEncoding(t *testing.T) {
	s := populatedState(t)
	snap, _ := s.Snapshot()

	var a, b bytes.Buffer
	WriteSnapshot(&a, snap)
	WriteSnapshot(&b, snap)
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Fatal("snapshot encoding must be deterministic")
	}
}

func TestSnapshot_DigestTamperDetected(t *testing.T) {
	s := populatedState(t)
	snap, _ := s.Snapshot()
	snap.Leaves[0] = hash(0xff)

	var buf bytes.Buffer
	WriteSnapshot(&buf, snap)
	if _, err := ReadSnapshot(&buf); !errors.Is(err, ErrSnapshotDigest) {
		t.Fatalf("expected ErrSnapshotDigest, got %v", err)
	}
}

func TestSnapshot_VersionChecked(t *testing.T) {
	s := populatedState(t)
	snap, _ := s.Snapshot()
	snap.Version = "2.0.0"
	var err error
	if snap.Digest, err = snap.ComputeDigest(); err != nil {
		t.Fatalf("ComputeDigest failed: %v", err)
	}

	var buf bytes.Buffer
	WriteSnapshot(&buf, snap)
	if _, err := ReadSnapshot(&buf); !errors.Is(err, ErrSnapshotVersion) {
		t.Fatalf("expected ErrSnapshotVersion, got %v", err)
	}
}

func TestSnapshot_BuildTreeMatchesLive(t *testing.T) {
	s := populatedState(t)
	snap, _ := s.Snapshot()

	tr, err := snap.BuildTree()
	if err != nil {
		t.Fatalf("BuildTree failed: %v", err)
	}
	if tr.Root() != s.Tree().Root() {
		t.Fatal("rebuilt tree root must match the live root")
	}
}
