// Vitrine - Home-Screen Shelf Curation Service
// Copyright 2026 Solstad Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/solstad/vitrine

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// BadgerStore implements Store using BadgerDB for durable storage.
// Suitable for production use; records survive restarts.
type BadgerStore struct {
	db     *badger.DB
	logger zerolog.Logger
}

// OpenBadger opens (or creates) a BadgerDB-backed store at path.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func OpenBadger(path string, logger zerolog.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	// Badger's own logger is chatty at INFO; shelf state is tiny and the
	// compaction chatter drowns real events.
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}

	return &BadgerStore{
		db:     db,
		logger: logger.With().Str("component", "store").Logger(),
	}, nil
}

// NewBadgerStore wraps an already-open BadgerDB handle.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBadgerStore(db *badger.DB, logger zerolog.Logger) *BadgerStore {
	return &BadgerStore{
		db:     db,
		logger: logger.With().Str("component", "store").Logger(),
	}
}

// Get returns the value for key.
func (s *BadgerStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	var value []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

// Set writes the value for key.
func (s *BadgerStore) Set(_ context.Context, key string, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// SetAll writes every entry in one transaction, so a ranking pass that
// touches several fingerprint records persists all of them or none.
func (s *BadgerStore) SetAll(_ context.Context, entries map[string][]byte) error {
	if len(entries) == 0 {
		return nil
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		for key, value := range entries {
			if err := txn.Set([]byte(key), value); err != nil {
				return fmt.Errorf("set %q: %w", key, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("batch write (%d entries): %w", len(entries), err)
	}
	return nil
}

// Remove deletes the value for key.
func (s *BadgerStore) Remove(_ context.Context, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	if err := s.db.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to close badger store")
		return err
	}
	return nil
}
