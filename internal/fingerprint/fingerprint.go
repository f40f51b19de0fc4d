// Vitrine - Home-Screen Shelf Curation Service
// Copyright 2026 Solstad Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/solstad/vitrine

// Package fingerprint detects whether a remote collection has truly changed
// since last observed, resistant to re-fetch noise, partial sampling, and
// missing ordering metadata.
//
// A signature is a canonical string of the collection's total member count,
// the newest timestamp among sampled members, and the sorted-and-truncated
// sampled member ids. Sorting before joining makes order-only changes
// invisible; truncation to the sample size means a change entirely outside
// the lexicographically-smallest sample can be missed. That is an accepted
// approximation: widening the sample to all members would change the cost
// characteristics of every ranking pass.
package fingerprint

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/solstad/vitrine/internal/catalog"
)

// Separator joins signature fields. It never occurs in member ids.
const Separator = "#"

// ErrNoCandidatesAvailable reports a ranking pass in which every candidate
// fetch failed. No records are touched in that case.
var ErrNoCandidatesAvailable = errors.New("fingerprint: no candidates available")

// Record is the persisted change-detection state for one tracked entity.
// It is created on first observation and mutated only when a freshly
// computed signature differs from the stored one. Records never self-expire;
// the population is bounded by the caller's lookahead window.
type Record struct {
	// EntityID is the tracked collection's identifier.
	EntityID string `json:"entity_id"`

	// Signature is the canonical membership digest, e.g.
	// "40#1700000000#id1,id2,id3".
	Signature string `json:"signature"`

	// LastChangedAt is when a change was last detected locally, or the
	// first-sighting seed for collections observed for the first time.
	LastChangedAt time.Time `json:"last_changed_at"`
}

// Observation is one sampled view of a remote collection.
type Observation struct {
	// TotalCount is the collection's full member count, including members
	// outside the sample.
	TotalCount int

	// SelfReportedAt is the collection's own last-modified claim. Used
	// only to seed first sightings, never to declare changes.
	SelfReportedAt time.Time

	// Members is the sampled member set.
	Members []catalog.Member
}

// BuildSignature computes the canonical signature for an observation,
// truncating to the sampleSize lexicographically-smallest member ids.
func BuildSignature(obs Observation, sampleSize int) string {
	ids := make([]string, len(obs.Members))
	var newest time.Time
	for i, m := range obs.Members {
		ids[i] = m.ID
		if ts := m.NewestTimestamp(); ts.After(newest) {
			newest = ts
		}
	}
	sort.Strings(ids)
	if sampleSize > 0 && len(ids) > sampleSize {
		ids = ids[:sampleSize]
	}

	var newestUnix int64
	if !newest.IsZero() {
		newestUnix = newest.Unix()
	}

	return fmt.Sprintf("%d%s%d%s%s", obs.TotalCount, Separator, newestUnix, Separator, strings.Join(ids, ","))
}

// newestMemberTime returns the most recent timestamp among sampled members.
func newestMemberTime(members []catalog.Member) time.Time {
	var newest time.Time
	for _, m := range members {
		if ts := m.NewestTimestamp(); ts.After(newest) {
			newest = ts
		}
	}
	return newest
}

// firstSightingSeed picks the initial LastChangedAt for a collection never
// seen before: the later of the remote's self-reported timestamp and the
// newest sampled member. An already-old, unchanged collection must not rank
// as just-changed merely because tracking started today.
func firstSightingSeed(obs Observation) time.Time {
	seed := obs.SelfReportedAt
	if newest := newestMemberTime(obs.Members); newest.After(seed) {
		seed = newest
	}
	return seed
}
