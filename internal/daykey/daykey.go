// Vitrine - Home-Screen Shelf Curation Service
// Copyright 2026 Solstad Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/solstad/vitrine

// Package daykey maps wall-clock time to a calendar-day key.
//
// The day key is the unit of cache validity for every daily shelf: a stored
// selection is reused as long as the key it was written under equals the key
// for "now". The key format must therefore be byte-identical at every call
// site; any drift silently breaks every downstream equality check.
package daykey

import "time"

// Format is the canonical day-key layout. Do not change: persisted records
// compare keys as raw strings.
const Format = "2006-01-02"

// Key identifies one local calendar day, formatted as "YYYY-MM-DD".
// Identical local dates produce identical keys; keys are monotonically
// non-decreasing with wall-clock time within one timezone.
type Key string

// Today returns the day key for the given instant in the given location.
// Pure, no side effects, no error conditions. A nil location falls back to
// time.Local.
func Today(now time.Time, loc *time.Location) Key {
	if loc == nil {
		loc = time.Local
	}
	return Key(now.In(loc).Format(Format))
}

// String returns the key as a plain string.
func (k Key) String() string { return string(k) }
