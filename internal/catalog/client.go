// Vitrine - Home-Screen Shelf Curation Service
// Copyright 2026 Solstad Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/solstad/vitrine

// Package catalog defines the remote catalog client consumed by the curation
// layer, plus a resilience decorator and a file-backed standalone provider.
//
// Query construction against real backends lives outside this repository;
// integrations implement Client and hand it to the curator. Every fetch
// failure is transient by contract: callers skip, retry next launch, or fall
// back to an empty shelf, but never treat the catalog as fatally broken.
package catalog

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable reports a remote query that failed or timed out. Transient:
// it is never persisted, and the next call retries naturally.
var ErrUnavailable = errors.New("catalog: unavailable")

// Unavailable wraps err so that errors.Is(err, ErrUnavailable) holds while
// the original failure text is preserved.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %s", ErrUnavailable, err)
}

// Client issues catalog and feed queries. All methods are safe for
// concurrent use and honor context cancellation.
type Client interface {
	// FetchCandidates returns up to limit items of the given kind matching
	// the filters. Filter keys are provider-defined; the curator uses
	// "genre" (exact genre name), "sort" ("newest", "recent"), and
	// "similar_to" (anchor item id; the provider returns its ranked
	// similar-items order, which may differ between calls).
	FetchCandidates(ctx context.Context, kind string, filters map[string]string, limit int) ([]Item, error)

	// FetchByID resolves ids to full items. Order of the result is NOT
	// guaranteed; callers re-order locally when order matters. Unknown ids
	// are silently absent from the result.
	FetchByID(ctx context.Context, ids []string) ([]Item, error)

	// FetchCollectionMembers samples up to sampleLimit members of a
	// collection, with recency metadata.
	FetchCollectionMembers(ctx context.Context, collectionID string, sampleLimit int) ([]Member, error)

	// FetchCollectionMeta returns collection-level metadata.
	FetchCollectionMeta(ctx context.Context, collectionID string) (CollectionMeta, error)
}
