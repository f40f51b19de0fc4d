// Vitrine - Home-Screen Shelf Curation Service
// Copyright 2026 Solstad Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/solstad/vitrine

package fingerprint

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/solstad/vitrine/internal/catalog"
	"github.com/solstad/vitrine/internal/store"
)

// fakeCollections implements catalog.Client for tracker tests. Only the
// collection methods matter here.
type fakeCollections struct {
	mu      sync.Mutex
	members map[string][]catalog.Member
	meta    map[string]catalog.CollectionMeta
	fail    map[string]bool
}

func newFakeCollections() *fakeCollections {
	return &fakeCollections{
		members: make(map[string][]catalog.Member),
		meta:    make(map[string]catalog.CollectionMeta),
		fail:    make(map[string]bool),
	}
}

func (f *fakeCollections) set(id string, meta catalog.CollectionMeta, members []catalog.Member) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meta[id] = meta
	f.members[id] = members
}

func (f *fakeCollections) FetchCandidates(context.Context, string, map[string]string, int) ([]catalog.Item, error) {
	return nil, nil
}

func (f *fakeCollections) FetchByID(context.Context, []string) ([]catalog.Item, error) {
	return nil, nil
}

func (f *fakeCollections) FetchCollectionMembers(_ context.Context, id string, sampleLimit int) ([]catalog.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[id] {
		return nil, catalog.Unavailable(errors.New("fetch failed"))
	}
	members := f.members[id]
	if sampleLimit > 0 && len(members) > sampleLimit {
		members = members[:sampleLimit]
	}
	return append([]catalog.Member(nil), members...), nil
}

func (f *fakeCollections) FetchCollectionMeta(_ context.Context, id string) (catalog.CollectionMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[id] {
		return catalog.CollectionMeta{}, catalog.Unavailable(errors.New("fetch failed"))
	}
	return f.meta[id], nil
}

// manualClock is a settable clock for deterministic change timestamps.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func memberSet(ids ...string) []catalog.Member {
	base := time.Unix(1700000000, 0).UTC()
	out := make([]catalog.Member, len(ids))
	for i, id := range ids {
		out[i] = catalog.Member{ID: id, AddedAt: base}
	}
	return out
}

func newTestTracker(t *testing.T) (*Tracker, *fakeCollections, *store.MemoryStore, *manualClock) {
	t.Helper()
	fake := newFakeCollections()
	st := store.NewMemoryStore()
	clock := &manualClock{now: time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)}
	tracker := New(st, fake, Config{SampleSize: 25, Clock: clock.Now}, zerolog.New(io.Discard))
	return tracker, fake, st, clock
}

func TestObserveLifecycle(t *testing.T) {
	ctx := context.Background()
	tracker, fake, _, clock := newTestTracker(t)

	selfReported := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	fake.set("P", catalog.CollectionMeta{ID: "P", MemberCount: 40, UpdatedAt: selfReported}, memberSet("id1", "id2", "id3"))

	// Observation 1: first sighting seeds from the collection's own
	// recency, not the wall clock.
	rec1, changed, err := tracker.Observe(ctx, "P")
	if err != nil {
		t.Fatalf("observe 1: %v", err)
	}
	if !changed {
		t.Error("first sighting should persist a new record")
	}
	if rec1.Signature != "40#1700000000#id1,id2,id3" {
		t.Errorf("signature = %q, want 40#1700000000#id1,id2,id3", rec1.Signature)
	}
	if rec1.LastChangedAt.Equal(clock.Now()) {
		t.Error("first sighting used wall clock instead of collection recency")
	}

	// Observation 2: same members re-fetched, nothing moves.
	clock.Advance(time.Hour)
	rec2, changed, err := tracker.Observe(ctx, "P")
	if err != nil {
		t.Fatalf("observe 2: %v", err)
	}
	if changed {
		t.Error("unchanged membership reported as changed")
	}
	if !rec2.LastChangedAt.Equal(rec1.LastChangedAt) {
		t.Errorf("LastChangedAt moved on unchanged signature: %v -> %v", rec1.LastChangedAt, rec2.LastChangedAt)
	}

	// Observation 3: one member replaced; change declared at detection
	// time, not at the remote's self-reported time.
	clock.Advance(time.Hour)
	fake.set("P", catalog.CollectionMeta{ID: "P", MemberCount: 40, UpdatedAt: selfReported}, memberSet("id1", "id2", "id9"))

	rec3, changed, err := tracker.Observe(ctx, "P")
	if err != nil {
		t.Fatalf("observe 3: %v", err)
	}
	if !changed {
		t.Error("membership change not detected")
	}
	if rec3.Signature == rec2.Signature {
		t.Error("signature unchanged after member replacement")
	}
	if !rec3.LastChangedAt.Equal(clock.Now()) {
		t.Errorf("LastChangedAt = %v, want detection time %v", rec3.LastChangedAt, clock.Now())
	}
}

func TestRankMostRecent(t *testing.T) {
	ctx := context.Background()
	tracker, fake, _, clock := newTestTracker(t)

	old := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	fake.set("A", catalog.CollectionMeta{ID: "A", MemberCount: 3, UpdatedAt: old}, memberSet("a1", "a2", "a3"))
	fake.set("B", catalog.CollectionMeta{ID: "B", MemberCount: 3, UpdatedAt: old}, memberSet("b1", "b2", "b3"))

	// Seed both records.
	if _, err := tracker.RankMostRecent(ctx, []string{"A", "B"}); err != nil {
		t.Fatalf("seed pass: %v", err)
	}

	// B changes; the next pass must rank it first.
	clock.Advance(time.Hour)
	fake.set("B", catalog.CollectionMeta{ID: "B", MemberCount: 4, UpdatedAt: old}, memberSet("b1", "b2", "b3", "b4"))

	winner, err := tracker.RankMostRecent(ctx, []string{"A", "B"})
	if err != nil {
		t.Fatalf("ranking pass: %v", err)
	}
	if winner.EntityID != "B" {
		t.Errorf("winner = %q, want B", winner.EntityID)
	}
	if !winner.LastChangedAt.Equal(clock.Now()) {
		t.Errorf("winner LastChangedAt = %v, want %v", winner.LastChangedAt, clock.Now())
	}
}

func TestRankMostRecentExcludesFailures(t *testing.T) {
	ctx := context.Background()
	tracker, fake, st, _ := newTestTracker(t)

	old := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	fake.set("A", catalog.CollectionMeta{ID: "A", MemberCount: 1, UpdatedAt: old}, memberSet("a1"))
	fake.set("B", catalog.CollectionMeta{ID: "B", MemberCount: 1, UpdatedAt: old.Add(time.Hour)}, memberSet("b1"))
	fake.fail["B"] = true

	winner, err := tracker.RankMostRecent(ctx, []string{"A", "B"})
	if err != nil {
		t.Fatalf("ranking with one failure: %v", err)
	}
	if winner.EntityID != "A" {
		t.Errorf("winner = %q, want A (B excluded by failure)", winner.EntityID)
	}

	// B's record must not exist: it never succeeded.
	if _, ok, _ := st.Get(ctx, "fingerprint:B"); ok {
		t.Error("failed candidate left a persisted record")
	}
}

func TestRankMostRecentAllFail(t *testing.T) {
	ctx := context.Background()
	tracker, fake, st, _ := newTestTracker(t)

	fake.fail["A"] = true
	fake.fail["B"] = true

	_, err := tracker.RankMostRecent(ctx, []string{"A", "B"})
	if !errors.Is(err, ErrNoCandidatesAvailable) {
		t.Errorf("error = %v, want ErrNoCandidatesAvailable", err)
	}
	if st.Len() != 0 {
		t.Errorf("store has %d entries after all-fail pass, want 0", st.Len())
	}

	if _, err := tracker.RankMostRecent(ctx, nil); !errors.Is(err, ErrNoCandidatesAvailable) {
		t.Errorf("empty window error = %v, want ErrNoCandidatesAvailable", err)
	}
}

func TestRankAllByRecencyOrdering(t *testing.T) {
	ctx := context.Background()
	tracker, fake, _, clock := newTestTracker(t)

	old := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	fake.set("A", catalog.CollectionMeta{ID: "A", MemberCount: 1, UpdatedAt: old}, memberSet("a1"))
	fake.set("B", catalog.CollectionMeta{ID: "B", MemberCount: 1, UpdatedAt: old}, memberSet("b1"))
	fake.set("C", catalog.CollectionMeta{ID: "C", MemberCount: 1, UpdatedAt: old}, memberSet("c1"))

	if _, err := tracker.RankAllByRecency(ctx, []string{"A", "B", "C"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	clock.Advance(time.Hour)
	fake.set("C", catalog.CollectionMeta{ID: "C", MemberCount: 2, UpdatedAt: old}, memberSet("c1", "c2"))

	records, err := tracker.RankAllByRecency(ctx, []string{"A", "B", "C"})
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	if records[0].EntityID != "C" {
		t.Errorf("freshest = %q, want C", records[0].EntityID)
	}
	// Unchanged candidates tie on their seed time and order by id.
	if records[1].EntityID != "A" || records[2].EntityID != "B" {
		t.Errorf("tie order = %q,%q, want A,B", records[1].EntityID, records[2].EntityID)
	}
}

func TestRankPassDoesNotPersistWhenCancelled(t *testing.T) {
	tracker, fake, st, _ := newTestTracker(t)

	old := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	fake.set("A", catalog.CollectionMeta{ID: "A", MemberCount: 1, UpdatedAt: old}, memberSet("a1"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The fake ignores ctx, so evaluation succeeds; the pass must still
	// refuse to persist for an abandoned caller.
	if _, err := tracker.RankMostRecent(ctx, []string{"A"}); err == nil {
		t.Error("cancelled pass returned success")
	}
	if st.Len() != 0 {
		t.Errorf("cancelled pass persisted %d records, want 0", st.Len())
	}
}
