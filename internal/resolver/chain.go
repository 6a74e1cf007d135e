package resolver

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/octave-labs/catalog-cli/internal/model"
)

// Result is the outcome of resolving one lookup key.
type Result[T any] struct {
	// Value is non-nil iff Found.
	Value *T
	// Source names the cache layer or live adapter that produced the value.
	Source string
	// FromCache is true when the hit came from a cache layer.
	FromCache bool
	// Found is false for a miss, whether short-circuited by the ledger or
	// after exhausting every live source.
	Found bool
	// Attempted lists the live sources called this run, in order.
	Attempted []string
}

// Chain resolves lookup keys through cache layers and live adapters in a
// fixed priority order. Order encodes authority trust, not recency.
type Chain[T any] struct {
	domain model.KeyDomain
	caches []Cache[T]
	lives  []Adapter[T]
	ledger Ledger
	ttl    time.Duration
	now    func() time.Time
}

// NewChain builds a chain. Cache layers and live adapters are tried in the
// order given; ttl is the failure-ledger retry-after window.
func NewChain[T any](domain model.KeyDomain, caches []Cache[T], lives []Adapter[T], ledger Ledger, ttl time.Duration) *Chain[T] {
	return &Chain[T]{
		domain: domain,
		caches: caches,
		lives:  lives,
		ledger: ledger,
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithNow sets a fixed clock for testing ledger expiry.
func (c *Chain[T]) WithNow(now func() time.Time) *Chain[T] {
	c.now = now
	return c
}

// Resolve walks the chain for one key. A store or ledger failure aborts with
// an error; live-source failures only advance the chain. Every outcome is
// logged so a missing value can be reconstructed from the audit trail alone.
func (c *Chain[T]) Resolve(ctx context.Context, key string) (Result[T], error) {
	log := zap.L().With(
		zap.String("domain", string(c.domain)),
		zap.String("key", key),
	)

	// Cache layers, most authoritative first.
	for _, cache := range c.caches {
		val, err := cache.Get(ctx, key)
		if err != nil {
			return Result[T]{}, eris.Wrapf(err, "resolver: cache %s", cache.Name())
		}
		if val != nil {
			log.Debug("resolver: cache hit", zap.String("source", cache.Name()))
			return Result[T]{Value: val, Source: cache.Name(), FromCache: true, Found: true}, nil
		}
	}

	// A fresh failure record means every live source already came up empty:
	// skip the network entirely until the window lapses.
	rec, err := c.ledger.Get(ctx, key)
	if err != nil {
		return Result[T]{}, eris.Wrap(err, "resolver: failure ledger")
	}
	if rec != nil && !rec.Expired(c.now(), c.ttl) {
		log.Info("resolver: suppressed by failure ledger",
			zap.Strings("attempted_sources", rec.AttemptedSources),
			zap.Time("last_attempted_at", rec.LastAttemptedAt),
		)
		return Result[T]{}, nil
	}

	// Live sources in priority order; first positive result wins and is
	// written through to that source's cache layer.
	var attempted []string
	for _, live := range c.lives {
		attempted = append(attempted, live.Name())

		val, err := live.Lookup(ctx, key)
		if err != nil {
			log.Warn("resolver: live source error",
				zap.String("source", live.Name()),
				zap.Error(err),
			)
			continue
		}
		if val == nil {
			log.Info("resolver: live source no match", zap.String("source", live.Name()))
			continue
		}

		if cache := c.cacheFor(live.Name()); cache != nil {
			if err := cache.Put(ctx, *val); err != nil {
				return Result[T]{Attempted: attempted}, eris.Wrapf(err, "resolver: write-through %s", live.Name())
			}
		}
		log.Info("resolver: live hit", zap.String("source", live.Name()))
		return Result[T]{Value: val, Source: live.Name(), Found: true, Attempted: attempted}, nil
	}

	// Exhausted. Memoize so the next call within the TTL is free.
	if err := c.ledger.Upsert(ctx, model.FailureRecord{
		Key:              key,
		Domain:           c.domain,
		AttemptedSources: attempted,
		Reason:           "all sources exhausted",
		LastAttemptedAt:  c.now().UTC(),
	}); err != nil {
		return Result[T]{Attempted: attempted}, eris.Wrap(err, "resolver: record exhaustion")
	}
	log.Info("resolver: exhausted", zap.Strings("attempted_sources", attempted))
	return Result[T]{Attempted: attempted}, nil
}

func (c *Chain[T]) cacheFor(source string) Cache[T] {
	for _, cache := range c.caches {
		if cache.Name() == source {
			return cache
		}
	}
	return nil
}
