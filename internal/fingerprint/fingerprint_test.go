// Vitrine - Home-Screen Shelf Curation Service
// Copyright 2026 Solstad Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/solstad/vitrine

package fingerprint

import (
	"testing"
	"time"

	"github.com/solstad/vitrine/internal/catalog"
)

func TestBuildSignatureCanonicalForm(t *testing.T) {
	newest := time.Unix(1700000000, 0).UTC()
	obs := Observation{
		TotalCount: 40,
		Members: []catalog.Member{
			{ID: "id2", AddedAt: newest.Add(-time.Hour)},
			{ID: "id3", AddedAt: newest},
			{ID: "id1", AddedAt: newest.Add(-2 * time.Hour)},
		},
	}

	got := BuildSignature(obs, 25)
	want := "40#1700000000#id1,id2,id3"
	if got != want {
		t.Errorf("BuildSignature = %q, want %q", got, want)
	}
}

func TestBuildSignatureOrderInsensitive(t *testing.T) {
	newest := time.Unix(1700000000, 0).UTC()
	members := []catalog.Member{
		{ID: "id1", AddedAt: newest},
		{ID: "id2", AddedAt: newest},
		{ID: "id3", AddedAt: newest},
	}
	reversed := []catalog.Member{members[2], members[1], members[0]}

	a := BuildSignature(Observation{TotalCount: 3, Members: members}, 25)
	b := BuildSignature(Observation{TotalCount: 3, Members: reversed}, 25)
	if a != b {
		t.Errorf("order-only change altered signature: %q vs %q", a, b)
	}
}

func TestBuildSignatureMembershipSensitive(t *testing.T) {
	newest := time.Unix(1700000000, 0).UTC()
	base := Observation{
		TotalCount: 3,
		Members: []catalog.Member{
			{ID: "id1", AddedAt: newest},
			{ID: "id2", AddedAt: newest},
			{ID: "id3", AddedAt: newest},
		},
	}
	swapped := Observation{
		TotalCount: 3,
		Members: []catalog.Member{
			{ID: "id1", AddedAt: newest},
			{ID: "id2", AddedAt: newest},
			{ID: "id9", AddedAt: newest},
		},
	}

	if BuildSignature(base, 25) == BuildSignature(swapped, 25) {
		t.Error("replacing a sampled member id did not change the signature")
	}
}

func TestBuildSignatureTruncatesToSample(t *testing.T) {
	newest := time.Unix(1700000000, 0).UTC()
	members := []catalog.Member{
		{ID: "d", AddedAt: newest},
		{ID: "b", AddedAt: newest},
		{ID: "a", AddedAt: newest},
		{ID: "c", AddedAt: newest},
	}

	got := BuildSignature(Observation{TotalCount: 4, Members: members}, 2)
	want := "4#1700000000#a,b"
	if got != want {
		t.Errorf("BuildSignature = %q, want truncated %q", got, want)
	}
}

func TestBuildSignatureEmptyObservation(t *testing.T) {
	got := BuildSignature(Observation{}, 25)
	if got != "0#0#" {
		t.Errorf("empty observation signature = %q, want 0#0#", got)
	}
}

func TestFirstSightingSeed(t *testing.T) {
	self := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	memberTime := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		obs  Observation
		want time.Time
	}{
		{
			name: "member newer than self-report",
			obs: Observation{
				SelfReportedAt: self,
				Members:        []catalog.Member{{ID: "m", AddedAt: memberTime}},
			},
			want: memberTime,
		},
		{
			name: "self-report newer than members",
			obs: Observation{
				SelfReportedAt: memberTime,
				Members:        []catalog.Member{{ID: "m", AddedAt: self}},
			},
			want: memberTime,
		},
		{
			name: "no members",
			obs:  Observation{SelfReportedAt: self},
			want: self,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := firstSightingSeed(tt.obs); !got.Equal(tt.want) {
				t.Errorf("firstSightingSeed = %v, want %v", got, tt.want)
			}
		})
	}
}
