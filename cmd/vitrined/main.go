// Vitrine - Home-Screen Shelf Curation Service
// Copyright 2026 Solstad Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/solstad/vitrine

// vitrined decides what the home screen shows: daily-stable shelf
// selections, change detection over remote collections, and merged play
// history, served over a small HTTP API.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/solstad/vitrine/internal/api"
	"github.com/solstad/vitrine/internal/catalog"
	"github.com/solstad/vitrine/internal/config"
	"github.com/solstad/vitrine/internal/curator"
	"github.com/solstad/vitrine/internal/fingerprint"
	"github.com/solstad/vitrine/internal/logging"
	"github.com/solstad/vitrine/internal/store"
	"github.com/solstad/vitrine/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Config is not available yet; the default logger reports this.
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logger := logging.Logger()

	logging.Info().
		Str("store_backend", cfg.Store.Backend).
		Str("snapshot", cfg.Catalog.SnapshotPath).
		Int("playlist_window", len(cfg.Shelves.PlaylistWindow)).
		Msg("configuration loaded")

	location, err := cfg.Shelves.Location()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to resolve timezone")
	}

	var st store.Store
	switch cfg.Store.Backend {
	case "memory":
		st = store.NewMemoryStore()
	default:
		badgerStore, err := store.OpenBadger(cfg.Store.Path, logger)
		if err != nil {
			logging.Fatal().Err(err).Str("path", cfg.Store.Path).Msg("failed to open store")
		}
		st = badgerStore
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing store")
		}
	}()

	fileCatalog, err := catalog.LoadFileCatalog(cfg.Catalog.SnapshotPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load library snapshot")
	}
	resilientCfg := catalog.DefaultResilientConfig()
	resilientCfg.RatePerSecond = cfg.Catalog.RatePerSecond
	resilientCfg.RateBurst = cfg.Catalog.RateBurst
	resilientCfg.FailureThreshold = cfg.Catalog.BreakerFailureThreshold
	resilientCfg.Interval = cfg.Catalog.BreakerInterval
	resilientCfg.Timeout = cfg.Catalog.BreakerTimeout
	client := catalog.NewResilientClient(fileCatalog, resilientCfg, logger)

	tracker := fingerprint.New(st, client, fingerprint.Config{
		SampleSize: cfg.Fingerprint.SampleSize,
	}, logger)

	cur := curator.New(st, client, tracker, curator.Config{
		TopPicksSize:        cfg.Shelves.TopPicksSize,
		GenreShelfSize:      cfg.Shelves.GenreShelfSize,
		MinGenreItems:       cfg.Shelves.MinGenreItems,
		GenreProbeLimit:     cfg.Shelves.GenreProbeLimit,
		SimilarShelfSize:    cfg.Shelves.SimilarShelfSize,
		ShowcaseTileCount:   cfg.Shelves.ShowcaseTileCount,
		RecentlyPlayedLimit: cfg.Shelves.RecentlyPlayedLimit,
		CandidatePoolSize:   cfg.Shelves.CandidatePoolSize,
		PlaylistWindow:      cfg.Shelves.PlaylistWindow,
		Location:            location,
	}, logger)

	ready := func(ctx context.Context) error {
		_, _, err := st.Get(ctx, "shelf:"+curator.ShelfTopPicks)
		return err
	}
	router := api.NewRouter(cur, cfg.Server, ready, logger)

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.Add(supervisor.NewHTTPService(cfg.Server, router.Handler(), logger))
	tree.Add(supervisor.NewRefreshService(cur, cfg.Shelves.RefreshInterval, location, logger))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Int("port", cfg.Server.Port).Msg("starting vitrined")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("supervisor tree exited")
		_ = st.Close()
		os.Exit(1)
	}
	logging.Info().Msg("vitrined stopped")
}
