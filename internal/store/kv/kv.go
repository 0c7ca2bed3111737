// Package kv is a small Badger-backed key/value store for short-lived records
// such as password reset tokens. Entries expire on their own.
package kv

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/fitchallenge/fitchallenge-server/internal/store"
)

// Store wraps a Badger database.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// Options configures Open.
type Options struct {
	// Path is the Badger directory. Ignored when InMemory is set.
	Path     string
	InMemory bool
	Logger   *slog.Logger
}

// Open opens (or creates) the Badger database.
func Open(opts Options) (*Store, error) {
	bopts := badger.DefaultOptions(opts.Path)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.Logger = nil
	bopts.SyncWrites = true

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}

	if opts.Logger != nil {
		opts.Logger.Info("KV store opened", "path", opts.Path, "in_memory", opts.InMemory)
	}
	return &Store{db: db, logger: opts.Logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores value as JSON under key. A positive ttl makes the entry expire.
func (s *Store) Put(key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), data)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
}

// Get decodes the value under key into dest.
// Returns store.ErrNotFound when the key is missing or expired.
func (s *Store) Get(key string, dest any) error {
	return s.db.View(func(txn *badger.Txn) error {
		return read(txn, key, dest)
	})
}

// Take reads and deletes key in one transaction, so a value can be consumed at most once.
// Concurrent takers of the same key get one success and one conflict or not-found error.
func (s *Store) Take(key string, dest any) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := read(txn, key, dest); err != nil {
			return err
		}
		return txn.Delete([]byte(key))
	})
	if errors.Is(err, badger.ErrConflict) {
		return store.ErrNotFound.WithCause(err)
	}
	return err
}

// Delete removes key. Missing keys are not an error.
func (s *Store) Delete(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// Ping checks that the database accepts reads.
func (s *Store) Ping() error {
	if s.db.IsClosed() {
		return errors.New("kv store closed")
	}
	return s.db.View(func(*badger.Txn) error { return nil })
}

func read(txn *badger.Txn, key string, dest any) error {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return store.ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dest)
	})
}
