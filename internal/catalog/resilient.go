// Vitrine - Home-Screen Shelf Curation Service
// Copyright 2026 Solstad Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/solstad/vitrine

package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// ResilientConfig configures the resilience decorator.
type ResilientConfig struct {
	// BreakerName identifies the circuit breaker instance in logs.
	BreakerName string

	// MaxRequests is the number of probe requests allowed in half-open state.
	MaxRequests uint32

	// Interval is the cyclic reset period for failure counts.
	Interval time.Duration

	// Timeout is the duration in open state before transitioning to half-open.
	Timeout time.Duration

	// FailureThreshold is the number of consecutive failures before opening.
	FailureThreshold uint32

	// RatePerSecond caps outgoing catalog queries. Zero disables limiting.
	RatePerSecond float64

	// RateBurst is the limiter burst size.
	RateBurst int
}

// DefaultResilientConfig returns production defaults.
func DefaultResilientConfig() ResilientConfig {
	return ResilientConfig{
		BreakerName:      "catalog",
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
		RatePerSecond:    25,
		RateBurst:        50,
	}
}

// ResilientClient decorates a Client with a circuit breaker and a rate
// limiter. A tripped breaker converts calls into immediate ErrUnavailable
// results instead of piling load onto a struggling backend; the shelf layer
// already treats ErrUnavailable as "empty with a reason", so an open breaker
// degrades to empty shelves and nothing worse.
type ResilientClient struct {
	inner   Client
	breaker *gobreaker.CircuitBreaker[any]
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewResilientClient wraps inner with breaker and limiter policies.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewResilientClient(inner Client, cfg ResilientConfig, logger zerolog.Logger) *ResilientClient {
	log := logger.With().Str("component", "catalog").Logger()

	settings := gobreaker.Settings{
		Name:        cfg.BreakerName,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		// An abandoned caller says nothing about backend health; a burst
		// of cancellations must not trip the breaker for live callers.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("catalog circuit breaker state change")
		},
	}

	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}

	return &ResilientClient{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[any](settings),
		limiter: limiter,
		logger:  log,
	}
}

// execute runs fn behind the limiter and breaker, folding every failure
// into ErrUnavailable.
func (c *ResilientClient) execute(ctx context.Context, fn func() (any, error)) (any, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, Unavailable(err)
		}
	}

	result, err := c.breaker.Execute(func() (any, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return fn()
	})
	if err != nil {
		return nil, Unavailable(err)
	}
	return result, nil
}

// FetchCandidates implements Client.
func (c *ResilientClient) FetchCandidates(ctx context.Context, kind string, filters map[string]string, limit int) ([]Item, error) {
	result, err := c.execute(ctx, func() (any, error) {
		return c.inner.FetchCandidates(ctx, kind, filters, limit)
	})
	if err != nil {
		return nil, err
	}
	return result.([]Item), nil
}

// FetchByID implements Client.
func (c *ResilientClient) FetchByID(ctx context.Context, ids []string) ([]Item, error) {
	result, err := c.execute(ctx, func() (any, error) {
		return c.inner.FetchByID(ctx, ids)
	})
	if err != nil {
		return nil, err
	}
	return result.([]Item), nil
}

// FetchCollectionMembers implements Client.
func (c *ResilientClient) FetchCollectionMembers(ctx context.Context, collectionID string, sampleLimit int) ([]Member, error) {
	result, err := c.execute(ctx, func() (any, error) {
		return c.inner.FetchCollectionMembers(ctx, collectionID, sampleLimit)
	})
	if err != nil {
		return nil, err
	}
	return result.([]Member), nil
}

// FetchCollectionMeta implements Client.
func (c *ResilientClient) FetchCollectionMeta(ctx context.Context, collectionID string) (CollectionMeta, error) {
	result, err := c.execute(ctx, func() (any, error) {
		return c.inner.FetchCollectionMeta(ctx, collectionID)
	})
	if err != nil {
		return CollectionMeta{}, err
	}
	return result.(CollectionMeta), nil
}
