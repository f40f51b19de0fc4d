// Vitrine - Home-Screen Shelf Curation Service
// Copyright 2026 Solstad Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/solstad/vitrine

// Package merge combines overlapping, independently-fetched lists of
// identity-keyed, timestamped entries into one de-duplicated list ranked by
// recency. The recently-played shelf uses it to fold collection-level
// history and track-level history (collapsed to parent collections) into a
// single row.
package merge

import (
	"sort"
	"time"
)

// Candidate is one identity-keyed observation. Candidates are ephemeral:
// they exist only within a single Merge call.
type Candidate[P any] struct {
	// Key is the identity key; entries with equal keys are duplicates.
	Key string

	// Payload is the caller's value for this observation.
	Payload P

	// ObservedAt is when this observation was made. Later observations
	// win duplicates regardless of which source list they came from.
	ObservedAt time.Time
}

// Merge flattens the lists, keeps only the freshest observation per key,
// sorts descending by observation time, and truncates to limit (limit <= 0
// means unlimited). Deduplication equality is key-only; payload conflicts
// resolve purely by recency. Ties on time sort by key ascending so the
// output is deterministic. Empty input yields empty output; there are no
// error conditions.
func Merge[P any](limit int, lists ...[]Candidate[P]) []Candidate[P] {
	freshest := make(map[string]Candidate[P])
	for _, list := range lists {
		for _, c := range list {
			best, seen := freshest[c.Key]
			if !seen || c.ObservedAt.After(best.ObservedAt) {
				freshest[c.Key] = c
			}
		}
	}

	out := make([]Candidate[P], 0, len(freshest))
	for _, c := range freshest {
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].ObservedAt.Equal(out[j].ObservedAt) {
			return out[i].ObservedAt.After(out[j].ObservedAt)
		}
		return out[i].Key < out[j].Key
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
