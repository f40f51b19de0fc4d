// Vitrine - Home-Screen Shelf Curation Service
// Copyright 2026 Solstad Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/solstad/vitrine

package supervisor

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/solstad/vitrine/internal/curator"
	"github.com/solstad/vitrine/internal/daykey"
)

// RefreshService keeps the shelves warm off the request path. It pre-warms
// every shelf on startup and again whenever the calendar day rolls over, so
// the first launch of the day never pays regeneration latency.
type RefreshService struct {
	curator  *curator.Curator
	interval time.Duration
	location *time.Location
	clock    func() time.Time
	logger   zerolog.Logger
}

// NewRefreshService builds the refresh loop. interval is how often the
// rollover check runs; location resolves the calendar day.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRefreshService(c *curator.Curator, interval time.Duration, location *time.Location, logger zerolog.Logger) *RefreshService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &RefreshService{
		curator:  c,
		interval: interval,
		location: location,
		clock:    time.Now,
		logger:   logger.With().Str("component", "refresh").Logger(),
	}
}

// Serve implements suture.Service. The loop compares day keys on a ticker:
// a tick on the same day is a no-op, a tick on a new day re-warms.
func (s *RefreshService) Serve(ctx context.Context) error {
	current := daykey.Today(s.clock(), s.location)
	s.warm(ctx, current)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			today := daykey.Today(s.clock(), s.location)
			if today == current {
				continue
			}
			s.logger.Info().
				Str("previous", current.String()).
				Str("today", today.String()).
				Msg("day rolled over, re-warming shelves")
			current = today
			s.warm(ctx, today)
		}
	}
}

// warm touches every named shelf so its record is generated and persisted.
func (s *RefreshService) warm(ctx context.Context, day daykey.Key) {
	start := time.Now()
	results := []curator.ShelfResult{
		s.curator.TopPicks(ctx),
		s.curator.DailyGenre(ctx),
		s.curator.AlternateGenre(ctx),
		s.curator.AlbumOfTheDay(ctx),
		s.curator.ShowcaseTiles(ctx),
		s.curator.FreshestPlaylists(ctx),
	}

	warmed, empty := 0, 0
	for _, result := range results {
		if result.Reason == "" {
			warmed++
		} else {
			empty++
		}
	}
	s.logger.Info().
		Str("day", day.String()).
		Int("warmed", warmed).
		Int("empty", empty).
		Dur("took", time.Since(start)).
		Msg("shelf pre-warm complete")
}

func (s *RefreshService) String() string { return "refresh-service" }
