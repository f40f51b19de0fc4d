// Vitrine - Home-Screen Shelf Curation Service
// Copyright 2026 Solstad Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/solstad/vitrine

// Package curator composes the selection cache, the seeded random streams,
// the fingerprint tracker, and the cross-source merger into the concrete
// home-screen shelves. Every accessor returns a ShelfResult: failures
// surface as an empty shelf with a reason string and never cross the shelf
// boundary as errors.
package curator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/solstad/vitrine/internal/catalog"
	"github.com/solstad/vitrine/internal/daykey"
	"github.com/solstad/vitrine/internal/fingerprint"
	"github.com/solstad/vitrine/internal/metrics"
	"github.com/solstad/vitrine/internal/selection"
	"github.com/solstad/vitrine/internal/store"
)

// ErrNoQualifyingCandidate is returned by shelf generation when no
// candidate satisfies the shelf's qualification rules. The shelf stays
// empty for the day; nothing is cached, so the next launch retries.
var ErrNoQualifyingCandidate = errors.New("curator: no qualifying candidate")

// Shelf names. These double as store shelf keys and API path segments.
const (
	ShelfTopPicks         = "top-picks"
	ShelfPrimaryGenre     = "genre-primary"
	ShelfAlternateGenre   = "genre-alternate"
	ShelfAlbumOfTheDay    = "album-of-the-day"
	ShelfShowcase         = "showcase"
	ShelfFreshestPlaylist = "freshest-playlists"
	ShelfRecentlyPlayed   = "recently-played"
)

// Per-purpose stream salts. Distinct salts keep shelves uncorrelated on the
// same day; the feature slot draws from its own stream so its position does
// not move in lockstep with tile content.
const (
	saltTopPicks        = "top-picks"
	saltGenrePrimary    = "genre/primary"
	saltGenreAlternate  = "genre/alternate"
	saltAlbumOfTheDay   = "album-of-the-day"
	saltShowcaseTiles   = "showcase/tiles"
	saltShowcaseFeature = "showcase/feature-slot"
)

// Config holds shelf sizing and probe bounds.
type Config struct {
	// TopPicksSize is how many albums the top-picks shelf shows.
	TopPicksSize int

	// GenreShelfSize is how many albums each genre shelf shows.
	GenreShelfSize int

	// MinGenreItems is the qualification threshold: a genre needs at
	// least this many albums before it can be picked.
	MinGenreItems int

	// GenreProbeLimit bounds how many genres one regeneration probes.
	GenreProbeLimit int

	// SimilarShelfSize is how many items a similar-albums shelf shows.
	SimilarShelfSize int

	// ShowcaseTileCount is how many tiles the showcase grid shows.
	ShowcaseTileCount int

	// RecentlyPlayedLimit caps the merged recently-played list.
	RecentlyPlayedLimit int

	// CandidatePoolSize bounds the candidate fetch that selection draws
	// from. Larger pools vary more day to day.
	CandidatePoolSize int

	// PlaylistWindow is the lookahead window of playlist collection ids
	// ranked by the fingerprint tracker.
	PlaylistWindow []string

	// Location resolves "today". Nil means the process-local zone.
	Location *time.Location

	// Clock supplies "now". Defaults to time.Now.
	Clock func() time.Time
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		TopPicksSize:        10,
		GenreShelfSize:      10,
		MinGenreItems:       5,
		GenreProbeLimit:     50,
		SimilarShelfSize:    12,
		ShowcaseTileCount:   8,
		RecentlyPlayedLimit: 20,
		CandidatePoolSize:   200,
	}
}

// ShelfResult is what a shelf accessor hands the presentation layer.
type ShelfResult struct {
	// Shelf is the shelf name the result belongs to.
	Shelf string `json:"shelf"`

	// DayKey is the calendar day the selection is stable for. Empty for
	// shelves that track live state instead of a daily draw.
	DayKey daykey.Key `json:"day_key,omitempty"`

	// Items is the resolved shelf content, in presentation order. Empty
	// when the shelf could not be filled; Reason says why.
	Items []catalog.Item `json:"items"`

	// Genre is the chosen genre name on genre shelves.
	Genre string `json:"genre,omitempty"`

	// FeatureSlot is the index of the feature tile on the showcase
	// shelf. -1 everywhere else.
	FeatureSlot int `json:"feature_slot"`

	// Reason explains an empty shelf. Empty on success.
	Reason string `json:"reason,omitempty"`

	// FromCache reports whether today's stored selection was reused.
	FromCache bool `json:"from_cache"`
}

// genreAux is the persisted auxiliary state of a genre shelf.
type genreAux struct {
	Genre string `json:"genre"`
}

// showcaseAux is the persisted auxiliary state of the showcase shelf.
type showcaseAux struct {
	FeatureSlot int `json:"feature_slot"`
}

// similarShelf is the lazily created per-anchor cache plus its guard.
type similarShelf struct {
	cache *selection.Cache[struct{}]
	guard sync.Mutex
}

// Curator owns one cache per shelf and serializes regeneration per shelf.
type Curator struct {
	store   store.Store
	client  catalog.Client
	tracker *fingerprint.Tracker
	cfg     Config
	logger  zerolog.Logger

	topPicks       *selection.Cache[struct{}]
	primaryGenre   *selection.Cache[genreAux]
	alternateGenre *selection.Cache[genreAux]
	albumOfTheDay  *selection.Cache[struct{}]
	showcase       *selection.Cache[showcaseAux]

	// guards serialize regeneration per shelf so overlapping launches do
	// not race the same record slot.
	guards map[string]*sync.Mutex

	similarMu sync.Mutex
	similar   map[string]*similarShelf
}

// New wires a Curator over the shared store, the catalog client, and the
// fingerprint tracker.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(st store.Store, client catalog.Client, tracker *fingerprint.Tracker, cfg Config, logger zerolog.Logger) *Curator {
	def := DefaultConfig()
	if cfg.TopPicksSize <= 0 {
		cfg.TopPicksSize = def.TopPicksSize
	}
	if cfg.GenreShelfSize <= 0 {
		cfg.GenreShelfSize = def.GenreShelfSize
	}
	if cfg.MinGenreItems <= 0 {
		cfg.MinGenreItems = def.MinGenreItems
	}
	if cfg.GenreProbeLimit <= 0 {
		cfg.GenreProbeLimit = def.GenreProbeLimit
	}
	if cfg.SimilarShelfSize <= 0 {
		cfg.SimilarShelfSize = def.SimilarShelfSize
	}
	if cfg.ShowcaseTileCount <= 0 {
		cfg.ShowcaseTileCount = def.ShowcaseTileCount
	}
	if cfg.RecentlyPlayedLimit <= 0 {
		cfg.RecentlyPlayedLimit = def.RecentlyPlayedLimit
	}
	if cfg.CandidatePoolSize <= 0 {
		cfg.CandidatePoolSize = def.CandidatePoolSize
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	logger = logger.With().Str("component", "curator").Logger()

	c := &Curator{
		store:          st,
		client:         client,
		tracker:        tracker,
		cfg:            cfg,
		logger:         logger,
		topPicks:       selection.NewCache[struct{}](st, ShelfTopPicks, 1, logger),
		primaryGenre:   selection.NewCache[genreAux](st, ShelfPrimaryGenre, cfg.MinGenreItems, logger),
		alternateGenre: selection.NewCache[genreAux](st, ShelfAlternateGenre, cfg.MinGenreItems, logger),
		albumOfTheDay:  selection.NewCache[struct{}](st, ShelfAlbumOfTheDay, 1, logger),
		showcase:       selection.NewCache[showcaseAux](st, ShelfShowcase, 1, logger),
		similar:        make(map[string]*similarShelf),
	}
	c.guards = map[string]*sync.Mutex{
		ShelfTopPicks:       {},
		ShelfPrimaryGenre:   {},
		ShelfAlternateGenre: {},
		ShelfAlbumOfTheDay:  {},
		ShelfShowcase:       {},
	}
	return c
}

// today returns the curator's current day key.
func (c *Curator) today() daykey.Key {
	return daykey.Today(c.cfg.Clock(), c.cfg.Location)
}

// Shelves lists the named shelves this curator serves, in presentation
// order. Similar-albums shelves are per-anchor and not listed.
func (c *Curator) Shelves() []string {
	return []string{
		ShelfTopPicks,
		ShelfPrimaryGenre,
		ShelfAlternateGenre,
		ShelfAlbumOfTheDay,
		ShelfShowcase,
		ShelfFreshestPlaylist,
		ShelfRecentlyPlayed,
	}
}

// Invalidate forces the named shelf to regenerate on its next access.
// Returns false for an unknown shelf name.
func (c *Curator) Invalidate(shelf string) bool {
	switch shelf {
	case ShelfTopPicks:
		c.topPicks.Invalidate()
	case ShelfPrimaryGenre:
		c.primaryGenre.Invalidate()
	case ShelfAlternateGenre:
		c.alternateGenre.Invalidate()
	case ShelfAlbumOfTheDay:
		c.albumOfTheDay.Invalidate()
	case ShelfShowcase:
		c.showcase.Invalidate()
	case ShelfFreshestPlaylist, ShelfRecentlyPlayed:
		// Live shelves carry no daily record; nothing to drop.
	default:
		return false
	}
	return true
}

// InvalidateSimilar forces the similar-albums shelf for one anchor to
// regenerate on its next access.
func (c *Curator) InvalidateSimilar(anchorID string) {
	c.similarMu.Lock()
	shelf, ok := c.similar[anchorID]
	c.similarMu.Unlock()
	if ok {
		shelf.cache.Invalidate()
	}
}

// similarFor returns the per-anchor similar shelf, creating it on first use.
func (c *Curator) similarFor(anchorID string) *similarShelf {
	c.similarMu.Lock()
	defer c.similarMu.Unlock()
	shelf, ok := c.similar[anchorID]
	if !ok {
		shelf = &similarShelf{
			cache: selection.NewCache[struct{}](c.store, "similar:"+anchorID, 1, c.logger),
		}
		c.similar[anchorID] = shelf
	}
	return shelf
}

// resolveOrdered resolves ids to full items, preserving the stored order.
// FetchByID makes no ordering promise, so the result is re-ordered here; ids
// that no longer resolve are dropped.
func (c *Curator) resolveOrdered(ctx context.Context, ids []string) ([]catalog.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	fetched, err := c.client.FetchByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]catalog.Item, len(fetched))
	for _, item := range fetched {
		byID[item.ID] = item
	}
	items := make([]catalog.Item, 0, len(ids))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			items = append(items, item)
		}
	}
	return items, nil
}

// emptyShelf builds the empty-with-reason result for a failed shelf.
func (c *Curator) emptyShelf(shelf string, err error) ShelfResult {
	reason := "shelf generation failed"
	switch {
	case errors.Is(err, ErrNoQualifyingCandidate):
		reason = "no qualifying candidate"
	case errors.Is(err, fingerprint.ErrNoCandidatesAvailable):
		reason = "no candidates available"
	case errors.Is(err, catalog.ErrUnavailable):
		reason = "catalog unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		reason = "request abandoned"
	}
	c.logger.Warn().Err(err).Str("shelf", shelf).Msg("shelf left empty")
	return ShelfResult{Shelf: shelf, Items: []catalog.Item{}, FeatureSlot: -1, Reason: reason}
}

// outcomeFor maps a generation error to a metrics outcome label.
func outcomeFor(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNoQualifyingCandidate), errors.Is(err, fingerprint.ErrNoCandidatesAvailable):
		return "no_candidate"
	case errors.Is(err, catalog.ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

// runShelf is the shared accessor skeleton for the daily-stable shelves:
// take the shelf guard, load or regenerate today's record, resolve the
// stored ids, and fold any failure into an empty result. decorate copies
// shelf-specific auxiliary state onto the result.
func runShelf[T any](
	ctx context.Context,
	c *Curator,
	shelf string,
	guard *sync.Mutex,
	cache *selection.Cache[T],
	generate selection.GenerateFunc[T],
	decorate func(selection.Record[T], *ShelfResult),
) ShelfResult {
	start := time.Now()
	today := c.today()

	guard.Lock()
	record, fromCache, err := cache.GetOrRegenerate(ctx, today, generate)
	guard.Unlock()

	if !fromCache {
		metrics.ObserveRegeneration(shelf, outcomeFor(err), time.Since(start))
	}
	if err != nil {
		return c.emptyShelf(shelf, err)
	}

	items, err := c.resolveOrdered(ctx, record.SelectedIDs)
	if err != nil {
		return c.emptyShelf(shelf, err)
	}

	result := ShelfResult{
		Shelf:       shelf,
		DayKey:      record.DayKey,
		Items:       items,
		FeatureSlot: -1,
		FromCache:   fromCache,
	}
	if decorate != nil {
		decorate(record, &result)
	}
	return result
}
