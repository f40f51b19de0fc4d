// Vitrine - Home-Screen Shelf Curation Service
// Copyright 2026 Solstad Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/solstad/vitrine

// Package selection implements the daily selection cache: pick N stable
// items from a pool, persist the choice, and reuse it until the calendar
// day changes.
//
// One generic Cache serves every shelf. The per-shelf state structures the
// original shelves grew independently are unified here so shelves that are
// meant to share semantics cannot drift apart. Each shelf owns one record
// slot keyed by its shelf key; records are superseded wholesale on
// regeneration and never mutated in place.
package selection

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/solstad/vitrine/internal/daykey"
	"github.com/solstad/vitrine/internal/metrics"
	"github.com/solstad/vitrine/internal/store"
)

// keyPrefix namespaces selection records within the shared store.
const keyPrefix = "shelf:"

// Record is one persisted daily selection.
type Record[T any] struct {
	// DayKey is the calendar day the selection was made for.
	DayKey daykey.Key `json:"day_key"`

	// SelectedIDs is the chosen item ids, in presentation order.
	SelectedIDs []string `json:"selected_ids"`

	// Aux carries shelf-specific auxiliary state (chosen genre name,
	// feature slot index, ...).
	Aux T `json:"aux,omitempty"`
}

// GenerateFunc produces a complete selection for today. It must return an
// error rather than a partial record; the cache persists whatever a
// successful call returns.
type GenerateFunc[T any] func(ctx context.Context) (Record[T], error)

// Cache answers "what do we show today" for one shelf with memoized
// stability. Concurrent calls for different shelves never interact (each
// cache owns a distinct store key); concurrent regeneration of the same
// shelf is the caller's responsibility to guard, or last-writer-wins.
type Cache[T any] struct {
	store    store.Store
	shelfKey string
	minIDs   int
	logger   zerolog.Logger

	// bypass forces one regeneration regardless of day key. Set by
	// Invalidate, consumed by the next GetOrRegenerate call only.
	bypass atomic.Bool
}

// NewCache creates a selection cache for one shelf. minIDs is the shelf's
// minimum-content rule: a stored record with fewer selected ids is treated
// as a miss and regenerated.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCache[T any](st store.Store, shelfKey string, minIDs int, logger zerolog.Logger) *Cache[T] {
	return &Cache[T]{
		store:    st,
		shelfKey: shelfKey,
		minIDs:   minIDs,
		logger: logger.With().
			Str("component", "selection").
			Str("shelf", shelfKey).
			Logger(),
	}
}

// ShelfKey returns the shelf key this cache serves.
func (c *Cache[T]) ShelfKey() string { return c.shelfKey }

// Invalidate bypasses the day-key check on the next GetOrRegenerate call
// only. Meant for explicit refresh and debugging.
func (c *Cache[T]) Invalidate() {
	c.bypass.Store(true)
	c.logger.Debug().Msg("shelf invalidated, next call regenerates")
}

// GetOrRegenerate returns today's selection, regenerating when no record
// exists for today, the stored record is for another day, the record fails
// the minimum-content rule, or the cache was invalidated.
//
// The returned boolean reports whether the record came from the store.
// Generation failures propagate unchanged and leave the stored record (and
// the store) untouched; a record is written only once a complete selection
// exists.
func (c *Cache[T]) GetOrRegenerate(ctx context.Context, today daykey.Key, generate GenerateFunc[T]) (Record[T], bool, error) {
	var zero Record[T]

	if !c.bypass.Swap(false) {
		record, ok := c.load(ctx, today)
		if ok {
			metrics.ShelfCacheHits.WithLabelValues(c.shelfKey).Inc()
			return record, true, nil
		}
	}
	metrics.ShelfCacheMisses.WithLabelValues(c.shelfKey).Inc()

	record, err := generate(ctx)
	if err != nil {
		return zero, false, err
	}
	if record.DayKey == "" {
		record.DayKey = today
	}

	if err := store.PutRecord(ctx, c.store, keyPrefix+c.shelfKey, record); err != nil {
		// The selection itself is complete and usable; losing the write
		// only means the next call regenerates.
		metrics.StoreErrors.WithLabelValues("set").Inc()
		c.logger.Warn().Err(err).Msg("failed to persist selection record")
	} else {
		c.logger.Debug().
			Str("day", today.String()).
			Int("selected", len(record.SelectedIDs)).
			Msg("selection regenerated")
	}

	return record, false, nil
}

// load reads the stored record and checks it against today and the
// minimum-content rule. A corrupt record counts as absent.
func (c *Cache[T]) load(ctx context.Context, today daykey.Key) (Record[T], bool) {
	record, ok, err := store.GetRecord[Record[T]](ctx, c.store, keyPrefix+c.shelfKey)
	if err != nil {
		if errors.Is(err, store.ErrDecodeFailure) {
			c.logger.Warn().Err(err).Msg("corrupt selection record, regenerating")
		} else {
			metrics.StoreErrors.WithLabelValues("get").Inc()
			c.logger.Warn().Err(err).Msg("selection record read failed, regenerating")
		}
		return Record[T]{}, false
	}
	if !ok || record.DayKey != today || len(record.SelectedIDs) < c.minIDs {
		return Record[T]{}, false
	}
	return record, true
}
