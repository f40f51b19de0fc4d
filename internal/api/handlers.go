// Vitrine - Home-Screen Shelf Curation Service
// Copyright 2026 Solstad Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/solstad/vitrine

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/solstad/vitrine/internal/curator"
)

// apiResponse is the envelope every endpoint returns.
type apiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (rt *Router) respondJSON(w http.ResponseWriter, status int, response apiResponse) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(response)
	if err != nil {
		rt.logger.Error().Err(err).Msg("failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		rt.logger.Error().Err(err).Msg("failed to write response")
	}
}

func (rt *Router) respondError(w http.ResponseWriter, status int, message string) {
	rt.respondJSON(w, status, apiResponse{Success: false, Error: message})
}

func (rt *Router) handleLive(w http.ResponseWriter, _ *http.Request) {
	rt.respondJSON(w, http.StatusOK, apiResponse{Success: true, Data: "live"})
}

func (rt *Router) handleReady(w http.ResponseWriter, r *http.Request) {
	if rt.ready != nil {
		if err := rt.ready(r.Context()); err != nil {
			rt.respondError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
	}
	rt.respondJSON(w, http.StatusOK, apiResponse{Success: true, Data: "ready"})
}

func (rt *Router) handleListShelves(w http.ResponseWriter, _ *http.Request) {
	rt.respondJSON(w, http.StatusOK, apiResponse{Success: true, Data: rt.curator.Shelves()})
}

// handleShelf serves GET /api/v1/shelves/{shelf}. A shelf that could not be
// filled is still a 200: the empty result carries its reason, and the
// presentation layer decides whether to hide the row.
func (rt *Router) handleShelf(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var result curator.ShelfResult

	switch chi.URLParam(r, "shelf") {
	case curator.ShelfTopPicks:
		result = rt.curator.TopPicks(ctx)
	case curator.ShelfPrimaryGenre:
		result = rt.curator.DailyGenre(ctx)
	case curator.ShelfAlternateGenre:
		result = rt.curator.AlternateGenre(ctx)
	case curator.ShelfAlbumOfTheDay:
		result = rt.curator.AlbumOfTheDay(ctx)
	case curator.ShelfShowcase:
		result = rt.curator.ShowcaseTiles(ctx)
	case curator.ShelfFreshestPlaylist:
		result = rt.curator.FreshestPlaylists(ctx)
	case curator.ShelfRecentlyPlayed:
		result = rt.curator.RecentlyPlayed(ctx)
	default:
		rt.respondError(w, http.StatusNotFound, "unknown shelf")
		return
	}

	rt.respondJSON(w, http.StatusOK, apiResponse{Success: true, Data: result})
}

func (rt *Router) handleSimilar(w http.ResponseWriter, r *http.Request) {
	anchorID := chi.URLParam(r, "anchorID")
	if anchorID == "" {
		rt.respondError(w, http.StatusBadRequest, "missing anchor id")
		return
	}
	result := rt.curator.SimilarAlbums(r.Context(), anchorID)
	rt.respondJSON(w, http.StatusOK, apiResponse{Success: true, Data: result})
}

func (rt *Router) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	shelf := chi.URLParam(r, "shelf")
	if !rt.curator.Invalidate(shelf) {
		rt.respondError(w, http.StatusNotFound, "unknown shelf")
		return
	}
	rt.logger.Info().Str("shelf", shelf).Msg("shelf invalidated via API")
	rt.respondJSON(w, http.StatusOK, apiResponse{Success: true, Data: "invalidated"})
}

func (rt *Router) handleInvalidateSimilar(w http.ResponseWriter, r *http.Request) {
	anchorID := chi.URLParam(r, "anchorID")
	if anchorID == "" {
		rt.respondError(w, http.StatusBadRequest, "missing anchor id")
		return
	}
	rt.curator.InvalidateSimilar(anchorID)
	rt.respondJSON(w, http.StatusOK, apiResponse{Success: true, Data: "invalidated"})
}
