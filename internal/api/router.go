// Vitrine - Home-Screen Shelf Curation Service
// Copyright 2026 Solstad Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/solstad/vitrine

// Package api exposes the curated shelves over HTTP. The presentation
// layer owns rendering; this surface only hands it shelf results.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/solstad/vitrine/internal/config"
	"github.com/solstad/vitrine/internal/curator"
)

// Router serves the shelf API.
type Router struct {
	curator *curator.Curator
	cfg     config.ServerConfig
	logger  zerolog.Logger

	// ready reports whether dependencies are usable. Nil means always
	// ready.
	ready func(ctx context.Context) error
}

// NewRouter wires the API over a curator.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRouter(c *curator.Curator, cfg config.ServerConfig, ready func(ctx context.Context) error, logger zerolog.Logger) *Router {
	return &Router{
		curator: c,
		cfg:     cfg,
		logger:  logger.With().Str("component", "api").Logger(),
		ready:   ready,
	}
}

// Handler builds the chi handler tree.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(rt.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz/live", rt.handleLive)
	r.Get("/healthz/ready", rt.handleReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if rt.cfg.RateLimitPerMinute > 0 {
			r.Use(httprate.LimitByIP(rt.cfg.RateLimitPerMinute, time.Minute))
		}
		r.Use(httpMetrics)

		r.Get("/shelves", rt.handleListShelves)
		r.Get("/shelves/similar/{anchorID}", rt.handleSimilar)
		r.Post("/shelves/similar/{anchorID}/invalidate", rt.handleInvalidateSimilar)
		r.Get("/shelves/{shelf}", rt.handleShelf)
		r.Post("/shelves/{shelf}/invalidate", rt.handleInvalidate)
	})

	return r
}
