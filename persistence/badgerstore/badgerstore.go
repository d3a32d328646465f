// Package badgerstore provides a durable PersistenceAdapter backed by
// BadgerDB. Each adapter key maps to one Badger key; values are the opaque
// blobs the core packages serialize.
package badgerstore

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/hupe1980/contextmesh/core"
)

// Interface compliance (compile-time assertion)
var _ core.PersistenceAdapter = (*Store)(nil)

// Options configures the badger-backed adapter.
type Options struct {
	// InMemory runs badger without touching disk. Useful for tests.
	InMemory bool
}

// Store wraps a badger.DB behind the core.PersistenceAdapter contract.
// Writes happen inside individual update transactions, so a single Save is
// atomic; the cross-process last-write-wins caveat documented on the contract
// still applies to read-modify-write cycles above this layer.
type Store struct {
	db *badger.DB
}

// Open creates or opens a badger database rooted at dir.
func Open(dir string, optFns ...func(o *Options)) (*Store, error) {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	badgerOpts := badger.DefaultOptions(dir).
		WithLoggingLevel(badger.ERROR)
	if opts.InMemory {
		badgerOpts = badger.DefaultOptions("").
			WithInMemory(true).
			WithLoggingLevel(badger.ERROR)
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &Store{db: db}, nil
}

// Load implements core.PersistenceAdapter. An absent key is not an error.
func (s *Store) Load(key string) ([]byte, bool, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load %q: %w", key, err)
	}
	return data, true, nil
}

// Save implements core.PersistenceAdapter.
func (s *Store) Save(key string, data []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("save %q: %w", key, err)
	}
	return nil
}

// Delete removes a key. Deleting an absent key is a no-op.
func (s *Store) Delete(key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Close releases the underlying database.
func (s *Store) Close() error { return s.db.Close() }
