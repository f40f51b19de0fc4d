// Vitrine - Home-Screen Shelf Curation Service
// Copyright 2026 Solstad Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/solstad/vitrine

package merge

import (
	"testing"
	"time"
)

func at(offset int) time.Time {
	return time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC).Add(time.Duration(offset) * time.Minute)
}

func keys[P any](cands []Candidate[P]) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.Key
	}
	return out
}

func TestMergeLaterObservationWins(t *testing.T) {
	listA := []Candidate[string]{
		{Key: "A", Payload: "stale", ObservedAt: at(1)},
		{Key: "B", Payload: "only", ObservedAt: at(2)},
	}
	listB := []Candidate[string]{
		{Key: "A", Payload: "fresh", ObservedAt: at(3)},
	}

	got := Merge(0, listA, listB)
	if len(got) != 2 {
		t.Fatalf("merged %d entries, want 2", len(got))
	}
	if got[0].Key != "A" || got[0].Payload != "fresh" {
		t.Errorf("got[0] = %+v, want freshest A", got[0])
	}
	if got[1].Key != "B" {
		t.Errorf("got[1] = %+v, want B", got[1])
	}

	// Input list order must not matter.
	swapped := Merge(0, listB, listA)
	if swapped[0].Payload != "fresh" {
		t.Errorf("source order changed the winner: %+v", swapped[0])
	}
}

func TestMergeSortsDescending(t *testing.T) {
	got := Merge(0, []Candidate[int]{
		{Key: "old", ObservedAt: at(0)},
		{Key: "new", ObservedAt: at(10)},
		{Key: "mid", ObservedAt: at(5)},
	})

	want := []string{"new", "mid", "old"}
	for i, k := range keys(got) {
		if k != want[i] {
			t.Fatalf("order = %v, want %v", keys(got), want)
		}
	}
}

func TestMergeEmptyListIsIdentity(t *testing.T) {
	list := []Candidate[string]{
		{Key: "A", ObservedAt: at(2)},
		{Key: "B", ObservedAt: at(1)},
	}

	got := Merge(0, list, nil)
	if len(got) != 2 || got[0].Key != "A" || got[1].Key != "B" {
		t.Errorf("merge with empty list = %v, want identity", keys(got))
	}

	if out := Merge[string](0); len(out) != 0 {
		t.Errorf("Merge() = %v, want empty", keys(out))
	}
}

func TestMergeTruncatesToLimit(t *testing.T) {
	list := []Candidate[string]{
		{Key: "a", ObservedAt: at(1)},
		{Key: "b", ObservedAt: at(2)},
		{Key: "c", ObservedAt: at(3)},
		{Key: "d", ObservedAt: at(4)},
	}

	got := Merge(2, list)
	if len(got) != 2 || got[0].Key != "d" || got[1].Key != "c" {
		t.Errorf("Merge(2) = %v, want [d c]", keys(got))
	}
}

func TestMergeTiesAreDeterministic(t *testing.T) {
	list := []Candidate[string]{
		{Key: "zeta", ObservedAt: at(1)},
		{Key: "alpha", ObservedAt: at(1)},
		{Key: "mid", ObservedAt: at(1)},
	}

	first := keys(Merge(0, list))
	for i := 0; i < 10; i++ {
		again := keys(Merge(0, list))
		for j := range first {
			if first[j] != again[j] {
				t.Fatalf("tie order unstable: %v vs %v", first, again)
			}
		}
	}
	if first[0] != "alpha" {
		t.Errorf("ties should sort by key ascending, got %v", first)
	}
}
