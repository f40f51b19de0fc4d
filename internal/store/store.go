// Vitrine - Home-Screen Shelf Curation Service
// Copyright 2026 Solstad Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/solstad/vitrine

// Package store provides the durable small key-value storage that the daily
// selection caches and the fingerprint tracker read and write through.
//
// Values are opaque bytes; callers own their serialization format. Each
// component owns a distinct key prefix and each shelf or tracked entity owns
// a distinct key, so the store is single-writer-per-key by construction.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// ErrDecodeFailure reports a stored record that could not be decoded.
// Callers treat it as a cache miss and regenerate cleanly; it is never
// allowed to crash the process.
var ErrDecodeFailure = errors.New("store: corrupt record")

// Store is durable small key-value storage.
type Store interface {
	// Get returns the value for key. The boolean reports presence; an
	// absent key is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set writes the value for key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// SetAll writes every entry in one atomic batch. Either all entries
	// become visible or none do; a crash mid-batch cannot leave partial
	// state behind.
	SetAll(ctx context.Context, entries map[string][]byte) error

	// Remove deletes the value for key. Removing an absent key is a no-op.
	Remove(ctx context.Context, key string) error

	// Close releases underlying resources.
	Close() error
}

// GetRecord reads and decodes the JSON record stored under key.
// A missing key returns ok=false with a zero value. A present but
// undecodable value returns ErrDecodeFailure so the caller can regenerate.
func GetRecord[T any](ctx context.Context, s Store, key string) (T, bool, error) {
	var record T

	data, ok, err := s.Get(ctx, key)
	if err != nil {
		return record, false, err
	}
	if !ok {
		return record, false, nil
	}

	if err := json.Unmarshal(data, &record); err != nil {
		return record, false, fmt.Errorf("%w: key %q: %v", ErrDecodeFailure, key, err)
	}
	return record, true, nil
}

// PutRecord encodes the record as JSON and stores it under key.
func PutRecord[T any](ctx context.Context, s Store, key string, record T) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record for key %q: %w", key, err)
	}
	return s.Set(ctx, key, data)
}

// EncodeRecord encodes a record for use with SetAll batches.
func EncodeRecord[T any](record T) ([]byte, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	return data, nil
}
