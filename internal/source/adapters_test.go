package source

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octave-labs/catalog-cli/pkg/musicbrainz"
	"github.com/octave-labs/catalog-cli/pkg/quansic"
	"github.com/octave-labs/catalog-cli/pkg/spotify"
)

type fakeQuansic struct {
	recording *quansic.Recording
	artist    *quansic.Artist
	err       error
}

func (f *fakeQuansic) EnrichRecording(context.Context, string) (*quansic.Recording, error) {
	return f.recording, f.err
}

func (f *fakeQuansic) EnrichArtist(context.Context, string) (*quansic.Artist, error) {
	return f.artist, f.err
}

type fakeMusicBrainz struct {
	recording *musicbrainz.Recording
	artist    *musicbrainz.Artist
}

func (f *fakeMusicBrainz) RecordingByISRC(context.Context, string) (*musicbrainz.Recording, error) {
	return f.recording, nil
}

func (f *fakeMusicBrainz) ArtistByISNI(context.Context, string) (*musicbrainz.Artist, error) {
	return f.artist, nil
}

type fakeSpotify struct {
	artist *spotify.Artist
}

func (f *fakeSpotify) SearchArtistByISNI(context.Context, string) (*spotify.Artist, error) {
	return f.artist, nil
}

func TestQuansicRecording_Lookup(t *testing.T) {
	a := &QuansicRecording{Client: &fakeQuansic{recording: &quansic.Recording{
		ISRC:      "USRC11707839",
		ISWC:      "T0345246801",
		Title:     "Song",
		Composers: []quansic.Contributor{{Name: "Writer", Role: "composer", IPI: "123"}},
	}}}

	assert.Equal(t, "quansic", a.Name())

	meta, err := a.Lookup(context.Background(), "USRC11707839")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "T0345246801", meta.ISWC)
	require.Len(t, meta.Composers, 1)
	assert.Equal(t, "Writer", meta.Composers[0].Name)
	assert.NotEmpty(t, meta.Raw, "original payload preserved")
}

func TestQuansicRecording_NoMatchAndError(t *testing.T) {
	a := &QuansicRecording{Client: &fakeQuansic{}}
	meta, err := a.Lookup(context.Background(), "X")
	require.NoError(t, err)
	assert.Nil(t, meta, "nil client result passes through as no-match")

	a = &QuansicRecording{Client: &fakeQuansic{err: errors.New("down")}}
	_, err = a.Lookup(context.Background(), "X")
	assert.Error(t, err)
}

func TestMusicBrainzRecording_Lookup(t *testing.T) {
	a := &MusicBrainzRecording{Client: &fakeMusicBrainz{recording: &musicbrainz.Recording{
		MBID: "mbid-1", Title: "Song", ISWC: "T0345246801", WorkTitle: "Work",
	}}}

	assert.Equal(t, "musicbrainz", a.Name())

	meta, err := a.Lookup(context.Background(), "USRC11707839")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "USRC11707839", meta.ISRC, "keyed by the lookup isrc, not the payload")
	assert.Equal(t, "Work", meta.WorkTitle)
}

func TestArtistAdapters_Mapping(t *testing.T) {
	adapters := ArtistAdapters(
		&fakeQuansic{artist: &quansic.Artist{Name: "Q", SpotifyArtistID: "spot-q"}},
		&fakeMusicBrainz{artist: &musicbrainz.Artist{MBID: "mbid-1", Name: "MB"}},
		&fakeSpotify{artist: &spotify.Artist{ID: "spot-1", Name: "SP"}},
	)
	require.Len(t, adapters, 3)

	meta, err := adapters["quansic"].Lookup(context.Background(), "ISNI1")
	require.NoError(t, err)
	assert.Equal(t, "spot-q", meta.SpotifyArtistID)

	meta, err = adapters["musicbrainz"].Lookup(context.Background(), "ISNI1")
	require.NoError(t, err)
	assert.Equal(t, "mbid-1", meta.MusicBrainzMBID)

	meta, err = adapters["spotify"].Lookup(context.Background(), "ISNI1")
	require.NoError(t, err)
	assert.Equal(t, "spot-1", meta.SpotifyArtistID)
	assert.Equal(t, "ISNI1", meta.ISNI)
}

func TestRecordingAdapters_Names(t *testing.T) {
	adapters := RecordingAdapters(&fakeQuansic{}, &fakeMusicBrainz{})
	require.Len(t, adapters, 2)
	for name, a := range adapters {
		assert.Equal(t, name, a.Name())
	}
}
