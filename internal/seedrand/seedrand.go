// Vitrine - Home-Screen Shelf Curation Service
// Copyright 2026 Solstad Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/solstad/vitrine

// Package seedrand provides deterministic pseudo-random streams seeded from
// a day key and a per-purpose salt.
//
// The same (day, salt) pair always reproduces the identical draw sequence,
// across runs and process restarts, which makes every daily selection
// replayable. Distinct salts on the same day yield independent-looking
// sequences, so the choice of genres, the choice of artists, and the
// position of the feature tile do not move in lockstep.
//
// Seeding hashes the day key and salt with xxhash and finishes the result
// through a splitmix64 avalanche step. The stream itself advances splitmix64
// state, which passes the usual statistical batteries and is cheap to
// reconstruct on demand; streams are never persisted.
package seedrand

import (
	"errors"

	"github.com/cespare/xxhash/v2"
)

// ErrInvalidBound reports a non-positive bound passed to NextInt.
// This is a programmer error, not a runtime condition.
var ErrInvalidBound = errors.New("seedrand: bound must be positive")

// saltSeparator keeps ("ab","c") and ("a","bc") from colliding when the two
// inputs are hashed together. 0x1f is a unit separator and cannot occur in
// a day key or salt.
const saltSeparator = "\x1f"

// Stream is a deterministic PRNG. It is not safe for concurrent use; build
// one per selection pass.
type Stream struct {
	state uint64
}

// New constructs a stream for the given day key and salt.
func New(day, salt string) *Stream {
	h := xxhash.New()
	_, _ = h.WriteString(day)
	_, _ = h.WriteString(saltSeparator)
	_, _ = h.WriteString(salt)
	return &Stream{state: mix64(h.Sum64())}
}

// next advances the stream one splitmix64 step.
func (s *Stream) next() uint64 {
	s.state += 0x9e3779b97f4a7c15
	return mix64(s.state)
}

// NextInt returns a uniformly distributed value in [0, bound).
// Returns ErrInvalidBound when bound <= 0.
func (s *Stream) NextInt(bound int) (int, error) {
	if bound <= 0 {
		return 0, ErrInvalidBound
	}

	// Rejection sampling avoids modulo bias for bounds that do not divide 2^64.
	limit := ^uint64(0) - ^uint64(0)%uint64(bound)
	for {
		v := s.next()
		if v < limit {
			return int(v % uint64(bound)), nil
		}
	}
}

// Shuffle permutes the n elements addressed by swap using the Fisher-Yates
// algorithm. The permutation is a pure function of the stream state.
func (s *Stream) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j, _ := s.NextInt(i + 1) // bound is always >= 1 here
		swap(i, j)
	}
}

// PickN returns n elements drawn without replacement from items, in draw
// order. When n >= len(items) it returns a shuffled copy of the whole pool.
// The input slice is not modified.
func PickN[T any](s *Stream, items []T, n int) []T {
	pool := make([]T, len(items))
	copy(pool, items)

	s.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	if n < len(pool) {
		pool = pool[:n]
	}
	return pool
}

// mix64 is the splitmix64 finalizer: a fixed avalanche step that spreads
// low-entropy input bits across the whole word.
func mix64(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
