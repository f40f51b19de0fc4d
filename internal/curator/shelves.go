// Vitrine - Home-Screen Shelf Curation Service
// Copyright 2026 Solstad Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/solstad/vitrine

package curator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/solstad/vitrine/internal/catalog"
	"github.com/solstad/vitrine/internal/merge"
	"github.com/solstad/vitrine/internal/metrics"
	"github.com/solstad/vitrine/internal/seedrand"
	"github.com/solstad/vitrine/internal/selection"
)

// TopPicks returns today's stable draw from the newest albums.
func (c *Curator) TopPicks(ctx context.Context) ShelfResult {
	return runShelf(ctx, c, ShelfTopPicks, c.guards[ShelfTopPicks], c.topPicks, c.generateTopPicks, nil)
}

func (c *Curator) generateTopPicks(ctx context.Context) (selection.Record[struct{}], error) {
	var zero selection.Record[struct{}]
	today := c.today()

	pool, err := c.client.FetchCandidates(ctx, catalog.KindAlbum, map[string]string{"sort": "newest"}, c.cfg.CandidatePoolSize)
	if err != nil {
		return zero, err
	}
	if len(pool) == 0 {
		return zero, ErrNoQualifyingCandidate
	}

	stream := seedrand.New(today.String(), saltTopPicks)
	picked := seedrand.PickN(stream, pool, c.cfg.TopPicksSize)

	return selection.Record[struct{}]{DayKey: today, SelectedIDs: itemIDs(picked)}, nil
}

// DailyGenre returns the primary genre spotlight shelf.
func (c *Curator) DailyGenre(ctx context.Context) ShelfResult {
	generate := func(ctx context.Context) (selection.Record[genreAux], error) {
		return c.generateGenre(ctx, saltGenrePrimary, "")
	}
	return runShelf(ctx, c, ShelfPrimaryGenre, c.guards[ShelfPrimaryGenre], c.primaryGenre, generate,
		func(record selection.Record[genreAux], result *ShelfResult) {
			result.Genre = record.Aux.Genre
		})
}

// AlternateGenre returns the secondary genre spotlight shelf. Its pick is
// always case-insensitively distinct from the same day's primary genre.
func (c *Curator) AlternateGenre(ctx context.Context) ShelfResult {
	generate := func(ctx context.Context) (selection.Record[genreAux], error) {
		exclude, err := c.primaryGenreName(ctx)
		if err != nil && !errors.Is(err, ErrNoQualifyingCandidate) {
			// A transient primary failure means the exclusion is
			// unknown. Persisting an unexcluded pick now could
			// collide with the primary once it regenerates later
			// today, so the alternate fails alongside it.
			return selection.Record[genreAux]{}, err
		}
		return c.generateGenre(ctx, saltGenreAlternate, exclude)
	}
	return runShelf(ctx, c, ShelfAlternateGenre, c.guards[ShelfAlternateGenre], c.alternateGenre, generate,
		func(record selection.Record[genreAux], result *ShelfResult) {
			result.Genre = record.Aux.Genre
		})
}

// primaryGenreName resolves today's primary genre pick from its record,
// regenerating it if needed. Unlike DailyGenre it reports errors instead of
// folding them into an empty result: the alternate shelf must be able to
// tell "no genre qualifies" apart from "the pick is unknown right now".
func (c *Curator) primaryGenreName(ctx context.Context) (string, error) {
	generate := func(ctx context.Context) (selection.Record[genreAux], error) {
		return c.generateGenre(ctx, saltGenrePrimary, "")
	}
	guard := c.guards[ShelfPrimaryGenre]
	guard.Lock()
	record, _, err := c.primaryGenre.GetOrRegenerate(ctx, c.today(), generate)
	guard.Unlock()
	if err != nil {
		return "", err
	}
	return record.Aux.Genre, nil
}

// generateGenre probes the genre catalog in a day-stable shuffled order and
// selects the first genre with enough qualifying albums, skipping exclude
// case-insensitively. The probe fans out over at most GenreProbeLimit
// genres; when none qualifies, ErrNoQualifyingCandidate keeps the shelf
// empty for the day without caching an empty record.
func (c *Curator) generateGenre(ctx context.Context, salt, exclude string) (selection.Record[genreAux], error) {
	var zero selection.Record[genreAux]
	today := c.today()

	genres, err := c.client.FetchCandidates(ctx, catalog.KindGenre, nil, c.cfg.GenreProbeLimit)
	if err != nil {
		return zero, err
	}

	names := make([]string, 0, len(genres))
	for _, genre := range genres {
		if exclude != "" && strings.EqualFold(genre.Title, exclude) {
			continue
		}
		names = append(names, genre.Title)
	}
	if len(names) == 0 {
		return zero, ErrNoQualifyingCandidate
	}

	stream := seedrand.New(today.String(), salt)
	stream.Shuffle(len(names), func(i, j int) {
		names[i], names[j] = names[j], names[i]
	})

	// Qualify all probed genres concurrently, then walk the shuffled
	// order so the day's pick stays deterministic.
	fetchLimit := c.cfg.GenreShelfSize * 3
	if fetchLimit < c.cfg.MinGenreItems {
		fetchLimit = c.cfg.MinGenreItems
	}
	albums := make([][]catalog.Item, len(names))
	errs := make([]error, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(idx int, genreName string) {
			defer wg.Done()
			albums[idx], errs[idx] = c.client.FetchCandidates(ctx, catalog.KindAlbum,
				map[string]string{"genre": genreName, "sort": "newest"}, fetchLimit)
		}(i, name)
	}
	wg.Wait()

	var firstErr error
	anyProbed := false
	for i, name := range names {
		if errs[i] != nil {
			if firstErr == nil {
				firstErr = errs[i]
			}
			continue
		}
		anyProbed = true
		if len(albums[i]) < c.cfg.MinGenreItems {
			continue
		}

		picked := seedrand.PickN(stream, albums[i], c.cfg.GenreShelfSize)
		return selection.Record[genreAux]{
			DayKey:      today,
			SelectedIDs: itemIDs(picked),
			Aux:         genreAux{Genre: name},
		}, nil
	}

	if !anyProbed && firstErr != nil {
		return zero, firstErr
	}
	return zero, ErrNoQualifyingCandidate
}

// AlbumOfTheDay returns the single stable random album for today.
func (c *Curator) AlbumOfTheDay(ctx context.Context) ShelfResult {
	generate := func(ctx context.Context) (selection.Record[struct{}], error) {
		var zero selection.Record[struct{}]
		today := c.today()

		pool, err := c.client.FetchCandidates(ctx, catalog.KindAlbum, map[string]string{"sort": "newest"}, c.cfg.CandidatePoolSize)
		if err != nil {
			return zero, err
		}
		if len(pool) == 0 {
			return zero, ErrNoQualifyingCandidate
		}

		stream := seedrand.New(today.String(), saltAlbumOfTheDay)
		idx, err := stream.NextInt(len(pool))
		if err != nil {
			return zero, err
		}
		return selection.Record[struct{}]{DayKey: today, SelectedIDs: []string{pool[idx].ID}}, nil
	}
	return runShelf(ctx, c, ShelfAlbumOfTheDay, c.guards[ShelfAlbumOfTheDay], c.albumOfTheDay, generate, nil)
}

// SimilarAlbums returns the "more like this" shelf for one anchor album.
// The remote ranked order is fetched once per day, persisted exactly, and
// replayed from the stored ids on later calls even if the remote ranking is
// itself non-deterministic across calls.
func (c *Curator) SimilarAlbums(ctx context.Context, anchorID string) ShelfResult {
	shelf := c.similarFor(anchorID)
	generate := func(ctx context.Context) (selection.Record[struct{}], error) {
		var zero selection.Record[struct{}]

		ranked, err := c.client.FetchCandidates(ctx, catalog.KindAlbum,
			map[string]string{"similar_to": anchorID}, c.cfg.SimilarShelfSize)
		if err != nil {
			return zero, err
		}
		if len(ranked) == 0 {
			return zero, ErrNoQualifyingCandidate
		}
		return selection.Record[struct{}]{DayKey: c.today(), SelectedIDs: itemIDs(ranked)}, nil
	}
	return runShelf(ctx, c, "similar:"+anchorID, &shelf.guard, shelf.cache, generate, nil)
}

// ShowcaseTiles returns the pre-search exploration grid: a stable daily
// draw of genre and artist tiles plus the index of the feature slot. The
// slot index comes from its own stream, so where the feature sits is stable
// but uncorrelated with which tiles were chosen.
func (c *Curator) ShowcaseTiles(ctx context.Context) ShelfResult {
	generate := func(ctx context.Context) (selection.Record[showcaseAux], error) {
		var zero selection.Record[showcaseAux]
		today := c.today()

		// Both sources must answer before anything is persisted: a grid
		// built from half the pool would be cached for the whole day.
		genres, err := c.client.FetchCandidates(ctx, catalog.KindGenre, nil, c.cfg.CandidatePoolSize)
		if err != nil {
			return zero, err
		}
		artists, err := c.client.FetchCandidates(ctx, catalog.KindArtist, nil, c.cfg.CandidatePoolSize)
		if err != nil {
			return zero, err
		}

		pool := make([]catalog.Item, 0, len(genres)+len(artists))
		pool = append(pool, genres...)
		pool = append(pool, artists...)
		if len(pool) == 0 {
			return zero, ErrNoQualifyingCandidate
		}

		tiles := seedrand.New(today.String(), saltShowcaseTiles)
		picked := seedrand.PickN(tiles, pool, c.cfg.ShowcaseTileCount)

		feature := seedrand.New(today.String(), saltShowcaseFeature)
		slot, err := feature.NextInt(len(picked))
		if err != nil {
			return zero, err
		}

		return selection.Record[showcaseAux]{
			DayKey:      today,
			SelectedIDs: itemIDs(picked),
			Aux:         showcaseAux{FeatureSlot: slot},
		}, nil
	}
	return runShelf(ctx, c, ShelfShowcase, c.guards[ShelfShowcase], c.showcase, generate,
		func(record selection.Record[showcaseAux], result *ShelfResult) {
			result.FeatureSlot = record.Aux.FeatureSlot
		})
}

// FreshestPlaylists returns the tracked playlists ordered by most recent
// genuine change. This shelf tracks live remote state rather than a daily
// draw, so it carries no day key and is never served from a daily record.
func (c *Curator) FreshestPlaylists(ctx context.Context) ShelfResult {
	start := time.Now()

	records, err := c.tracker.RankAllByRecency(ctx, c.cfg.PlaylistWindow)
	metrics.ObserveRegeneration(ShelfFreshestPlaylist, outcomeFor(err), time.Since(start))
	if err != nil {
		return c.emptyShelf(ShelfFreshestPlaylist, err)
	}

	ids := make([]string, len(records))
	for i, record := range records {
		ids[i] = record.EntityID
	}
	items, err := c.resolveOrdered(ctx, ids)
	if err != nil {
		return c.emptyShelf(ShelfFreshestPlaylist, err)
	}
	return ShelfResult{Shelf: ShelfFreshestPlaylist, Items: items, FeatureSlot: -1}
}

// RecentlyPlayed merges album-level and playlist-level play history into
// one de-duplicated, recency-ranked list. The two sources overlap and are
// fetched independently; the later observation wins per id.
func (c *Curator) RecentlyPlayed(ctx context.Context) ShelfResult {
	start := time.Now()

	var albums, playlists []catalog.Item
	var albumErr, playlistErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		albums, albumErr = c.client.FetchCandidates(ctx, catalog.KindAlbum,
			map[string]string{"sort": "recent"}, c.cfg.RecentlyPlayedLimit)
	}()
	go func() {
		defer wg.Done()
		playlists, playlistErr = c.client.FetchCandidates(ctx, catalog.KindPlaylist,
			map[string]string{"sort": "recent"}, c.cfg.RecentlyPlayedLimit)
	}()
	wg.Wait()

	if albumErr != nil && playlistErr != nil {
		metrics.ObserveRegeneration(ShelfRecentlyPlayed, outcomeFor(albumErr), time.Since(start))
		return c.emptyShelf(ShelfRecentlyPlayed, albumErr)
	}
	if albumErr != nil {
		c.logger.Warn().Err(albumErr).Msg("album play history unavailable, merging playlists only")
	}
	if playlistErr != nil {
		c.logger.Warn().Err(playlistErr).Msg("playlist play history unavailable, merging albums only")
	}

	merged := merge.Merge(c.cfg.RecentlyPlayedLimit, playCandidates(albums), playCandidates(playlists))
	metrics.MergeOutputSize.Observe(float64(len(merged)))
	metrics.ObserveRegeneration(ShelfRecentlyPlayed, "ok", time.Since(start))

	items := make([]catalog.Item, len(merged))
	for i, candidate := range merged {
		items[i] = candidate.Payload
	}
	return ShelfResult{Shelf: ShelfRecentlyPlayed, Items: items, FeatureSlot: -1}
}

// playCandidates converts played items to merge candidates, skipping items
// with no recorded play.
func playCandidates(items []catalog.Item) []merge.Candidate[catalog.Item] {
	out := make([]merge.Candidate[catalog.Item], 0, len(items))
	for _, item := range items {
		if item.PlayedAt.IsZero() {
			continue
		}
		out = append(out, merge.Candidate[catalog.Item]{
			Key:        item.ID,
			Payload:    item,
			ObservedAt: item.PlayedAt,
		})
	}
	return out
}

func itemIDs(items []catalog.Item) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}
