// Vitrine - Home-Screen Shelf Curation Service
// Copyright 2026 Solstad Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/solstad/vitrine

package catalog

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-json"
)

// librarySnapshot is the on-disk layout of a FileCatalog export.
type librarySnapshot struct {
	Items       []Item                      `json:"items"`
	Collections map[string]SnapshotCollection `json:"collections"`
	Similar     map[string][]string         `json:"similar"`
}

// SnapshotCollection pairs a collection's metadata with its full member list.
type SnapshotCollection struct {
	Meta    CollectionMeta `json:"meta"`
	Members []Member       `json:"members"`
}

// FileCatalog implements Client against a local library snapshot file.
// Standalone mode: it lets the daemon run without any remote backend, and
// tests run against fixtures. Reads are lock-free after load.
type FileCatalog struct {
	mu       sync.RWMutex
	items    map[string]Item
	byKind   map[string][]Item
	catalog  map[string]SnapshotCollection
	similar  map[string][]string
	snapshot string
}

// LoadFileCatalog reads a library snapshot from path.
func LoadFileCatalog(path string) (*FileCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read library snapshot: %w", err)
	}

	var snap librarySnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode library snapshot %s: %w", path, err)
	}

	fc := NewFileCatalogFromSnapshot(snap.Items, snap.Collections, snap.Similar)
	fc.snapshot = path
	return fc, nil
}

// NewFileCatalogFromSnapshot builds a FileCatalog from already-decoded data.
func NewFileCatalogFromSnapshot(items []Item, collections map[string]SnapshotCollection, similar map[string][]string) *FileCatalog {
	fc := &FileCatalog{
		items:   make(map[string]Item, len(items)),
		byKind:  make(map[string][]Item),
		catalog: collections,
		similar: similar,
	}
	if fc.catalog == nil {
		fc.catalog = make(map[string]SnapshotCollection)
	}
	if fc.similar == nil {
		fc.similar = make(map[string][]string)
	}

	for _, item := range items {
		fc.items[item.ID] = item
		fc.byKind[item.Kind] = append(fc.byKind[item.Kind], item)
	}
	return fc
}

// FetchCandidates implements Client.
func (fc *FileCatalog) FetchCandidates(ctx context.Context, kind string, filters map[string]string, limit int) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, Unavailable(err)
	}

	// Similar-to queries return the snapshot's ranked order, not the kind pool.
	if anchor := filters["similar_to"]; anchor != "" {
		return fc.similarItems(anchor, limit), nil
	}

	fc.mu.RLock()
	pool := fc.byKind[kind]
	fc.mu.RUnlock()

	out := make([]Item, 0, len(pool))
	for _, item := range pool {
		if genre := filters["genre"]; genre != "" && !hasGenre(item, genre) {
			continue
		}
		out = append(out, item)
	}

	switch filters["sort"] {
	case "newest":
		sort.SliceStable(out, func(i, j int) bool { return out[i].AddedAt.After(out[j].AddedAt) })
	case "recent":
		sort.SliceStable(out, func(i, j int) bool { return out[i].PlayedAt.After(out[j].PlayedAt) })
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// FetchByID implements Client. Result order follows internal map iteration
// and is deliberately not the request order; callers re-order locally.
func (fc *FileCatalog) FetchByID(ctx context.Context, ids []string) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, Unavailable(err)
	}

	fc.mu.RLock()
	defer fc.mu.RUnlock()

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	out := make([]Item, 0, len(ids))
	for id, item := range fc.items {
		if want[id] {
			out = append(out, item)
		}
	}
	return out, nil
}

// FetchCollectionMembers implements Client.
func (fc *FileCatalog) FetchCollectionMembers(ctx context.Context, collectionID string, sampleLimit int) ([]Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, Unavailable(err)
	}

	fc.mu.RLock()
	coll, ok := fc.catalog[collectionID]
	fc.mu.RUnlock()
	if !ok {
		return nil, Unavailable(fmt.Errorf("collection %q not in snapshot", collectionID))
	}

	members := coll.Members
	if sampleLimit > 0 && len(members) > sampleLimit {
		members = members[:sampleLimit]
	}
	out := make([]Member, len(members))
	copy(out, members)
	return out, nil
}

// FetchCollectionMeta implements Client.
func (fc *FileCatalog) FetchCollectionMeta(ctx context.Context, collectionID string) (CollectionMeta, error) {
	if err := ctx.Err(); err != nil {
		return CollectionMeta{}, Unavailable(err)
	}

	fc.mu.RLock()
	coll, ok := fc.catalog[collectionID]
	fc.mu.RUnlock()
	if !ok {
		return CollectionMeta{}, Unavailable(fmt.Errorf("collection %q not in snapshot", collectionID))
	}

	meta := coll.Meta
	if meta.MemberCount == 0 {
		meta.MemberCount = len(coll.Members)
	}
	return meta, nil
}

// similarItems resolves the snapshot's ranked similar-item ids for anchor.
// The snapshot carries the ranking a real backend would compute.
func (fc *FileCatalog) similarItems(anchorID string, limit int) []Item {
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	ids := fc.similar[anchorID]
	out := make([]Item, 0, len(ids))
	for _, id := range ids {
		if item, ok := fc.items[id]; ok {
			out = append(out, item)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// hasGenre reports whether the item carries the genre, case-insensitively.
func hasGenre(item Item, genre string) bool {
	for _, g := range item.Genres {
		if strings.EqualFold(g, genre) {
			return true
		}
	}
	return false
}
