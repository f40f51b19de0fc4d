// Vitrine - Home-Screen Shelf Curation Service
// Copyright 2026 Solstad Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/solstad/vitrine

package catalog

import "time"

// Kind classifies catalog items.
const (
	KindAlbum    = "album"
	KindArtist   = "artist"
	KindGenre    = "genre"
	KindPlaylist = "playlist"
)

// Item is one catalog entry: an album, artist, genre bucket, or playlist.
type Item struct {
	// ID is the opaque catalog identifier.
	ID string `json:"id"`

	// Kind is one of the Kind constants.
	Kind string `json:"kind"`

	// Title is the display title (album name, artist name, genre name).
	Title string `json:"title"`

	// Artist is the primary artist, when the kind has one.
	Artist string `json:"artist,omitempty"`

	// Genres is the genre names attached to the item.
	Genres []string `json:"genres,omitempty"`

	// TrackCount is the number of tracks, for albums and playlists.
	TrackCount int `json:"track_count,omitempty"`

	// ReleasedAt is the original release time, when known.
	ReleasedAt time.Time `json:"released_at,omitempty"`

	// AddedAt is when the item entered the library.
	AddedAt time.Time `json:"added_at,omitempty"`

	// PlayedAt is the last observed playback time, for history queries.
	PlayedAt time.Time `json:"played_at,omitempty"`
}

// Member is one sampled member of a remote collection, carrying just enough
// recency metadata for fingerprinting.
type Member struct {
	// ID is the member's opaque identifier.
	ID string `json:"id"`

	// AddedAt is when the member joined the collection.
	AddedAt time.Time `json:"added_at,omitempty"`

	// UpdatedAt is the member's own last-modified time, when reported.
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// NewestTimestamp returns the member's most recent known timestamp.
func (m Member) NewestTimestamp() time.Time {
	if m.UpdatedAt.After(m.AddedAt) {
		return m.UpdatedAt
	}
	return m.AddedAt
}

// CollectionMeta is collection-level metadata as the remote reports it.
// Self-reported timestamps are seed data only; change detection trusts the
// locally computed fingerprint, not the remote's opinion of freshness.
type CollectionMeta struct {
	// ID is the collection identifier.
	ID string `json:"id"`

	// Title is the collection display title.
	Title string `json:"title"`

	// UpdatedAt is the collection's self-reported last-modified time.
	UpdatedAt time.Time `json:"updated_at,omitempty"`

	// MemberCount is the total member count, including members outside
	// any sampling window.
	MemberCount int `json:"member_count"`

	// Tags is the remote's free-form labels.
	Tags []string `json:"tags,omitempty"`
}
