// Package badgerstore implements the ledger.Store interface on BadgerDB for
// deployments that persist public state between runs.
package badgerstore

import (
	badger "github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"

	"github.com/shieldkit/shieldkit/ledger"
)

// Config configures a Badger-backed store.
type Config struct {
	// Dir is the database directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps all data in memory; nothing is written to disk.
	InMemory bool

	// SyncWrites syncs every write to disk before acknowledging it.
	SyncWrites bool
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if !c.InMemory && c.Dir == "" {
		return errors.New("badgerstore: Dir must be set unless InMemory")
	}
	return nil
}

// Store is a BadgerDB-backed ledger.Store.
type Store struct {
	db *badger.DB
}

var _ ledger.Store = (*Store)(nil)

// Open opens (or creates) the database described by cfg.
func Open(cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dir := cfg.Dir
	if cfg.InMemory {
		dir = ""
	}
	opts := badger.DefaultOptions(dir).
		WithInMemory(cfg.InMemory).
		WithSyncWrites(cfg.SyncWrites).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "badgerstore: open")
	}
	return &Store{db: db}, nil
}

// Get implements ledger.Store.
func (s *Store) Get(key []byte) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "badgerstore: get")
	}
	return out, nil
}

// Put implements ledger.Store.
func (s *Store) Put(key, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
	return errors.Wrap(err, "badgerstore: put")
}

// Has implements ledger.Store.
func (s *Store) Has(key []byte) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "badgerstore: has")
	}
	return true, nil
}

// Delete implements ledger.Store.
func (s *Store) Delete(key []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
	return errors.Wrap(err, "badgerstore: delete")
}

// Iterate implements ledger.Store. Badger iterates in ascending key order.
func (s *Store) Iterate(prefix []byte, fn func(key, value []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return errors.Wrap(err, "badgerstore: iterate")
			}
			if err := fn(item.KeyCopy(nil), value); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close implements ledger.Store.
func (s *Store) Close() error {
	return errors.Wrap(s.db.Close(), "badgerstore: close")
}
