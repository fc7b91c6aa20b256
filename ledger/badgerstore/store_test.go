package badgerstore

import (
	"errors"
	"testing"

	"github.com/shieldkit/shieldkit/core/types"
	"github.com/shieldkit/shieldkit/ledger"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{InMemory: true})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestConfig_Validate(t *testing.T) {
	if err := (Config{}).Validate(); err == nil {
		t.Fatal("empty config must be invalid")
	}
	if err := (Config{InMemory: true}).Validate(); err != nil {
		t.Fatalf("in-memory config must be valid, got %v", err)
	}
	if err := (Config{Dir: t.TempDir()}).Validate(); err != nil {
		t.Fatalf("dir config must be valid, got %v", err)
	}
}

func TestStore_GetPutDelete(t *testing.T) {
	s := openInMemory(t)

	if _, err := s.Get([]byte("missing")); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ledger.ErrNotFound, got %v", err)
	}

	if err := s.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	v, err := s.Get([]byte("k"))
	if err != nil || string(v) != "v" {
		t.Fatalf("Get returned %q, %v", v, err)
	}

	ok, err := s.Has([]byte("k"))
	if err != nil || !ok {
		t.Fatalf("Has returned %v, %v", ok, err)
	}

	if err := s.Delete([]byte("k")); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	ok, _ = s.Has([]byte("k"))
	if ok {
		t.Fatal("key must be absent after delete")
	}
}

func TestStore_IteratePrefix(t *testing.T) {
	s := openInMemory(t)
	s.Put([]byte("p/b"), []byte("2"))
	s.Put([]byte("p/a"), []byte("1"))
	s.Put([]byte("q/z"), []byte("9"))

	var keys []string
	err := s.Iterate([]byte("p/"), func(key, value []byte) error {
		keys = append(keys, string(key))
		return nil
	})
	if err != nil {
		t.Fatalf("Iterate failed: %v", err)
	}
	if len(keys) != 2 || keys[0] != "p/a" || keys[1] != "p/b" {
		t.Fatalf("expected ordered prefix keys, got %v", keys)
	}
}

func TestStore_BacksLedgerState(t *testing.T) {
	s := openInMemory(t)
	state, err := ledger.Open(s)
	if err != nil {
		t.Fatalf("ledger.Open failed: %v", err)
	}

	leaf := types.BytesToHash([]byte{0x42})
	if err := state.AppendLeaf(0, leaf); err != nil {
		t.Fatalf("AppendLeaf failed: %v", err)
	}

	reopened, err := ledger.Open(s)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	got, err := reopened.Tree().Leaf(0)
	if err != nil || got != leaf {
		t.Fatalf("expected persisted leaf, got %s %v", got, err)
	}
}
