// Vitrine - Home-Screen Shelf Curation Service
// Copyright 2026 Solstad Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/solstad/vitrine

package fingerprint

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/solstad/vitrine/internal/catalog"
	"github.com/solstad/vitrine/internal/metrics"
	"github.com/solstad/vitrine/internal/store"
)

// keyPrefix namespaces fingerprint records within the shared store.
const keyPrefix = "fingerprint:"

// Config holds tracker tuning.
type Config struct {
	// SampleSize bounds both the member fetch and the id subset that
	// enters the signature.
	SampleSize int

	// Clock supplies "now" for change timestamps. Defaults to time.Now.
	Clock func() time.Time
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{SampleSize: 25}
}

// Tracker computes and persists collection fingerprints and ranks tracked
// collections by most recent genuine change. Safe for concurrent use; each
// tracked entity owns a distinct store key.
type Tracker struct {
	store  store.Store
	client catalog.Client
	cfg    Config
	logger zerolog.Logger
}

// New creates a Tracker.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(st store.Store, client catalog.Client, cfg Config, logger zerolog.Logger) *Tracker {
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = DefaultConfig().SampleSize
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Tracker{
		store:  st,
		client: client,
		cfg:    cfg,
		logger: logger.With().Str("component", "fingerprint").Logger(),
	}
}

// evaluation is the outcome of observing one candidate.
type evaluation struct {
	record  Record
	changed bool // record must be persisted (created or updated)
}

// evaluate fetches a fresh sample of the entity, computes its signature,
// and applies the recency decision against the stored record. It does not
// persist; ranking passes batch their writes.
func (t *Tracker) evaluate(ctx context.Context, entityID string) (evaluation, error) {
	members, err := t.client.FetchCollectionMembers(ctx, entityID, t.cfg.SampleSize)
	if err != nil {
		return evaluation{}, err
	}
	meta, err := t.client.FetchCollectionMeta(ctx, entityID)
	if err != nil {
		return evaluation{}, err
	}

	obs := Observation{
		TotalCount:     meta.MemberCount,
		SelfReportedAt: meta.UpdatedAt,
		Members:        members,
	}
	signature := BuildSignature(obs, t.cfg.SampleSize)

	prior, ok, err := store.GetRecord[Record](ctx, t.store, keyPrefix+entityID)
	if err != nil {
		// Corrupt or unreadable state degrades to a first sighting.
		t.logger.Warn().Err(err).Str("entity", entityID).Msg("fingerprint record unreadable, reseeding")
		ok = false
	}

	switch {
	case !ok:
		// First sighting: seed from the collection's own recency so an
		// old, unchanged collection is not ranked as just-changed.
		return evaluation{
			record: Record{
				EntityID:      entityID,
				Signature:     signature,
				LastChangedAt: firstSightingSeed(obs),
			},
			changed: true,
		}, nil

	case prior.Signature != signature:
		// Change declared now, at detection time, not at whatever time
		// the remote claims.
		metrics.FingerprintChanges.Inc()
		t.logger.Debug().
			Str("entity", entityID).
			Str("old", prior.Signature).
			Str("new", signature).
			Msg("collection change detected")
		return evaluation{
			record: Record{
				EntityID:      entityID,
				Signature:     signature,
				LastChangedAt: t.cfg.Clock(),
			},
			changed: true,
		}, nil

	default:
		// Unchanged: LastChangedAt stays put.
		return evaluation{record: prior}, nil
	}
}

// Observe performs a single observation of one entity and persists the
// outcome immediately. Returns the up-to-date record and whether a change
// was detected (first sightings count as changes).
func (t *Tracker) Observe(ctx context.Context, entityID string) (Record, bool, error) {
	eval, err := t.evaluate(ctx, entityID)
	if err != nil {
		return Record{}, false, err
	}

	if eval.changed {
		if err := store.PutRecord(ctx, t.store, keyPrefix+entityID, eval.record); err != nil {
			return Record{}, false, err
		}
	}
	return eval.record, eval.changed, nil
}

// RankMostRecent observes every candidate in the lookahead window
// concurrently and returns the one whose LastChangedAt is maximal. Ties
// resolve to the lexicographically-smallest entity id, which is one valid
// choice among the maximal elements.
//
// A candidate whose fetch fails is excluded from this pass only. When every
// candidate fails, ErrNoCandidatesAvailable is returned and no record is
// touched. All records created or updated during the pass are persisted in
// one atomic batch at pass end, so a crash mid-pass cannot leave partial
// advancement behind.
func (t *Tracker) RankMostRecent(ctx context.Context, entityIDs []string) (Record, error) {
	records, err := t.rankPass(ctx, entityIDs)
	if err != nil {
		return Record{}, err
	}
	return records[0], nil
}

// RankAllByRecency runs the same pass as RankMostRecent but returns every
// surviving candidate ordered by descending LastChangedAt. The freshest
// playlist shelf uses the full ordering to fill its row.
func (t *Tracker) RankAllByRecency(ctx context.Context, entityIDs []string) ([]Record, error) {
	return t.rankPass(ctx, entityIDs)
}

// rankPass evaluates the window, batch-persists touched records, and
// returns the survivors ordered by descending LastChangedAt.
func (t *Tracker) rankPass(ctx context.Context, entityIDs []string) ([]Record, error) {
	start := time.Now()
	defer func() {
		metrics.FingerprintRankingDuration.Observe(time.Since(start).Seconds())
	}()

	if len(entityIDs) == 0 {
		return nil, ErrNoCandidatesAvailable
	}

	// Fixed fan-out over the window, joined before any decision.
	evals := make([]evaluation, len(entityIDs))
	errs := make([]error, len(entityIDs))
	var wg sync.WaitGroup
	for i, id := range entityIDs {
		wg.Add(1)
		go func(idx int, entityID string) {
			defer wg.Done()
			evals[idx], errs[idx] = t.evaluate(ctx, entityID)
		}(i, id)
	}
	wg.Wait()

	survivors := make([]evaluation, 0, len(entityIDs))
	for i := range evals {
		if errs[i] != nil {
			metrics.FingerprintCandidateFailures.Inc()
			t.logger.Warn().
				Err(errs[i]).
				Str("entity", entityIDs[i]).
				Msg("candidate excluded from ranking pass")
			continue
		}
		survivors = append(survivors, evals[i])
	}
	if len(survivors) == 0 {
		return nil, ErrNoCandidatesAvailable
	}

	// An abandoned pass must not persist: check before the batch write.
	if err := ctx.Err(); err != nil {
		return nil, catalog.Unavailable(err)
	}

	batch := make(map[string][]byte)
	for _, eval := range survivors {
		if !eval.changed {
			continue
		}
		data, err := store.EncodeRecord(eval.record)
		if err != nil {
			return nil, err
		}
		batch[keyPrefix+eval.record.EntityID] = data
	}
	if err := t.store.SetAll(ctx, batch); err != nil {
		metrics.StoreErrors.WithLabelValues("set_all").Inc()
		return nil, err
	}

	records := make([]Record, len(survivors))
	for i, eval := range survivors {
		records[i] = eval.record
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].LastChangedAt.Equal(records[j].LastChangedAt) {
			return records[i].LastChangedAt.After(records[j].LastChangedAt)
		}
		return records[i].EntityID < records[j].EntityID
	})

	t.logger.Debug().
		Str("entity", records[0].EntityID).
		Time("last_changed_at", records[0].LastChangedAt).
		Int("window", len(entityIDs)).
		Int("survivors", len(records)).
		Msg("ranking pass complete")
	return records, nil
}
