// Package resolver implements the multi-source fallback chain: per-authority
// cache layers consulted in trust order, a failure ledger that memoizes
// exhausted lookups, then live adapters in the same trust order with
// write-through on success.
package resolver

import (
	"context"

	"github.com/octave-labs/catalog-cli/internal/model"
	"github.com/octave-labs/catalog-cli/internal/store"
)

// Adapter is a live authority client. Lookup returns (nil, nil) for an
// authoritative "no match"; a non-nil error means the source itself failed
// (transport, auth) and the chain moves on to the next source.
type Adapter[T any] interface {
	Name() string
	Lookup(ctx context.Context, key string) (*T, error)
}

// Cache is one authority's cache layer. Get returns (nil, nil) on miss.
type Cache[T any] interface {
	Name() string
	Get(ctx context.Context, key string) (*T, error)
	Put(ctx context.Context, value T) error
}

// Ledger records exhausted lookups for one key domain.
type Ledger interface {
	Get(ctx context.Context, key string) (*model.FailureRecord, error)
	Upsert(ctx context.Context, rec model.FailureRecord) error
}

// RecordingCache adapts the store's per-authority recording tables to Cache.
type RecordingCache struct {
	Source string
	Store  store.Store
}

func (c *RecordingCache) Name() string { return c.Source }

func (c *RecordingCache) Get(ctx context.Context, isrc string) (*model.RecordingMeta, error) {
	return c.Store.GetCachedRecording(ctx, c.Source, isrc)
}

func (c *RecordingCache) Put(ctx context.Context, meta model.RecordingMeta) error {
	return c.Store.PutCachedRecording(ctx, c.Source, meta)
}

// ArtistCache adapts the store's per-authority artist tables to Cache.
type ArtistCache struct {
	Source string
	Store  store.Store
}

func (c *ArtistCache) Name() string { return c.Source }

func (c *ArtistCache) Get(ctx context.Context, isni string) (*model.ArtistMeta, error) {
	return c.Store.GetCachedArtist(ctx, c.Source, isni)
}

func (c *ArtistCache) Put(ctx context.Context, meta model.ArtistMeta) error {
	return c.Store.PutCachedArtist(ctx, c.Source, meta)
}

// StoreLedger binds the store's failure_records table to one key domain.
type StoreLedger struct {
	Domain model.KeyDomain
	Store  store.Store
}

func (l *StoreLedger) Get(ctx context.Context, key string) (*model.FailureRecord, error) {
	return l.Store.GetFailureRecord(ctx, l.Domain, key)
}

func (l *StoreLedger) Upsert(ctx context.Context, rec model.FailureRecord) error {
	rec.Domain = l.Domain
	return l.Store.UpsertFailureRecord(ctx, rec)
}
