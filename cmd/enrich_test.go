package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octave-labs/catalog-cli/internal/model"
	"github.com/octave-labs/catalog-cli/internal/resolver"
	"github.com/octave-labs/catalog-cli/internal/store"
)

type stubRecordingAdapter struct {
	name string
	meta *model.RecordingMeta
	err  error
}

func (a *stubRecordingAdapter) Name() string { return a.name }

func (a *stubRecordingAdapter) Lookup(context.Context, string) (*model.RecordingMeta, error) {
	return a.meta, a.err
}

func newEnrichEnv(t *testing.T) (*appEnv, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return &appEnv{Store: st}, st
}

func stubChain(st store.Store, adapter *stubRecordingAdapter) *resolver.Chain[model.RecordingMeta] {
	caches := []resolver.Cache[model.RecordingMeta]{
		&resolver.RecordingCache{Source: adapter.name, Store: st},
	}
	ledger := &resolver.StoreLedger{Domain: model.DomainRecording, Store: st}
	return resolver.NewChain(model.DomainRecording, caches,
		[]resolver.Adapter[model.RecordingMeta]{adapter}, ledger, time.Hour)
}

func TestISWCLookupFunc_WritesBackISWC(t *testing.T) {
	env, st := newEnrichEnv(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertArtist(ctx, model.Artist{ID: "a1", Name: "A"}))
	require.NoError(t, st.UpsertTrack(ctx, model.Track{
		ID: "t1", ArtistID: "a1", Title: "T", ISRC: "US-RC1-17-07839",
	}))

	chain := stubChain(st, &stubRecordingAdapter{name: "quansic", meta: &model.RecordingMeta{
		ISRC: "USRC11707839", ISWC: "T-034.524.680-1",
	}})

	outcome, err := iswcLookupFunc(env, chain)(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, outcome.SkipReason)
	assert.Contains(t, string(outcome.Result), "T0345246801")
	assert.Contains(t, string(outcome.Result), `"source":"quansic"`)

	track, err := st.GetTrack(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "T0345246801", track.ISWC, "compact form written back")
}

func TestISWCLookupFunc_SkipReasons(t *testing.T) {
	env, st := newEnrichEnv(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertArtist(ctx, model.Artist{ID: "a1", Name: "A"}))
	require.NoError(t, st.UpsertTrack(ctx, model.Track{ID: "bad-isrc", ArtistID: "a1", Title: "T", ISRC: "nope"}))
	require.NoError(t, st.UpsertTrack(ctx, model.Track{ID: "no-match", ArtistID: "a1", Title: "T", ISRC: "USRC11707839"}))
	require.NoError(t, st.UpsertTrack(ctx, model.Track{ID: "no-work", ArtistID: "a1", Title: "T", ISRC: "USRC11707840"}))

	miss := stubChain(st, &stubRecordingAdapter{name: "quansic"})
	noWork := stubChain(st, &stubRecordingAdapter{name: "musicbrainz", meta: &model.RecordingMeta{
		ISRC: "USRC11707840", Title: "Song",
	}})

	outcome, err := iswcLookupFunc(env, miss)(ctx, "missing-track")
	require.NoError(t, err)
	assert.NotEmpty(t, outcome.SkipReason)

	outcome, err = iswcLookupFunc(env, miss)(ctx, "bad-isrc")
	require.NoError(t, err)
	assert.Contains(t, outcome.SkipReason, "unusable isrc")

	outcome, err = iswcLookupFunc(env, miss)(ctx, "no-match")
	require.NoError(t, err)
	assert.Contains(t, outcome.SkipReason, "no source")

	outcome, err = iswcLookupFunc(env, noWork)(ctx, "no-work")
	require.NoError(t, err)
	assert.Contains(t, outcome.SkipReason, "no linked work")
}

func TestRecordingEnrichFunc_ReturnsMeta(t *testing.T) {
	env, st := newEnrichEnv(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertArtist(ctx, model.Artist{ID: "a1", Name: "A"}))
	require.NoError(t, st.UpsertTrack(ctx, model.Track{
		ID: "t1", ArtistID: "a1", Title: "T", ISRC: "USRC11707839",
	}))

	chain := stubChain(st, &stubRecordingAdapter{name: "quansic", meta: &model.RecordingMeta{
		ISRC: "USRC11707839", Title: "Song", DurationMS: 215000,
	}})

	outcome, err := recordingEnrichFunc(env, chain)(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, outcome.SkipReason)
	assert.Contains(t, string(outcome.Result), `"duration_ms":215000`)

	// The hit was written through to the source cache.
	cached, err := st.GetCachedRecording(ctx, "quansic", "USRC11707839")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "Song", cached.Title)
}
