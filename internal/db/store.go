package db

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

var ErrKeyNotFound = errors.New("key not found")

type Store struct {
	db *badger.DB
}

// NewMemoryStore opens a badger database that lives only as long as the
// process. Nothing is written to disk.
func NewMemoryStore() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(namespace, key string) ([]byte, error) {
	fullKey := namespace + key
	var value []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(fullKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = append([]byte{}, val...)
			return nil
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	return value, err
}

func (s *Store) Set(namespace, key string, value []byte) error {
	return s.SetAll(namespace, map[string][]byte{key: value})
}

// SetAll writes every entry in a single transaction.
func (s *Store) SetAll(namespace string, entries map[string][]byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for key, value := range entries {
			if err := txn.Set([]byte(namespace+key), value); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) Delete(namespace string, keys ...string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Delete([]byte(namespace + key)); err != nil {
				return err
			}
		}
		return nil
	})
}

// List returns keys under namespace+prefix in byte order, with the namespace
// stripped.
func (s *Store) List(namespace, prefix string, limit int) ([]string, error) {
	var keys []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		fullPrefix := []byte(namespace + prefix)
		count := 0
		for it.Seek(fullPrefix); it.ValidForPrefix(fullPrefix) && (limit <= 0 || count < limit); it.Next() {
			key := string(it.Item().Key())
			keys = append(keys, key[len(namespace):])
			count++
		}

		return nil
	})

	return keys, err
}

// Scan calls fn for every key/value under namespace+prefix in byte order.
func (s *Store) Scan(namespace, prefix string, fn func(key string, value []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		fullPrefix := []byte(namespace + prefix)
		for it.Seek(fullPrefix); it.ValidForPrefix(fullPrefix); it.Next() {
			item := it.Item()
			key := string(item.Key())[len(namespace):]
			err := item.Value(func(val []byte) error {
				return fn(key, val)
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}
