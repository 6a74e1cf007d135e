// Package source binds the external authority clients to the resolver's
// adapter interface, normalizing each client's payload into the shared cache
// shape. New authorities are added by implementing another adapter here and
// naming it in the chains config.
package source

import (
	"context"
	"encoding/json"

	"github.com/octave-labs/catalog-cli/internal/model"
	"github.com/octave-labs/catalog-cli/internal/resolver"
	"github.com/octave-labs/catalog-cli/pkg/musicbrainz"
	"github.com/octave-labs/catalog-cli/pkg/quansic"
	"github.com/octave-labs/catalog-cli/pkg/spotify"
)

// QuansicRecording resolves ISRC → recording metadata through Quansic.
type QuansicRecording struct {
	Client quansic.Client
}

func (a *QuansicRecording) Name() string { return "quansic" }

func (a *QuansicRecording) Lookup(ctx context.Context, isrc string) (*model.RecordingMeta, error) {
	rec, err := a.Client.EnrichRecording(ctx, isrc)
	if err != nil || rec == nil {
		return nil, err
	}
	meta := &model.RecordingMeta{
		ISRC:       isrc,
		ISWC:       rec.ISWC,
		Title:      rec.Title,
		WorkTitle:  rec.WorkTitle,
		DurationMS: rec.DurationMS,
	}
	for _, c := range rec.Composers {
		meta.Composers = append(meta.Composers, model.Contributor{Name: c.Name, Role: c.Role, IPI: c.IPI})
	}
	meta.Raw, _ = json.Marshal(rec)
	return meta, nil
}

// MusicBrainzRecording resolves ISRC → recording metadata through MusicBrainz.
type MusicBrainzRecording struct {
	Client musicbrainz.Client
}

func (a *MusicBrainzRecording) Name() string { return "musicbrainz" }

func (a *MusicBrainzRecording) Lookup(ctx context.Context, isrc string) (*model.RecordingMeta, error) {
	rec, err := a.Client.RecordingByISRC(ctx, isrc)
	if err != nil || rec == nil {
		return nil, err
	}
	meta := &model.RecordingMeta{
		ISRC:       isrc,
		ISWC:       rec.ISWC,
		Title:      rec.Title,
		WorkTitle:  rec.WorkTitle,
		DurationMS: rec.DurationMS,
	}
	meta.Raw, _ = json.Marshal(rec)
	return meta, nil
}

// QuansicArtist resolves ISNI → artist identifiers through Quansic.
type QuansicArtist struct {
	Client quansic.Client
}

func (a *QuansicArtist) Name() string { return "quansic" }

func (a *QuansicArtist) Lookup(ctx context.Context, isni string) (*model.ArtistMeta, error) {
	artist, err := a.Client.EnrichArtist(ctx, isni)
	if err != nil || artist == nil {
		return nil, err
	}
	meta := &model.ArtistMeta{
		ISNI:            isni,
		Name:            artist.Name,
		MusicBrainzMBID: artist.MusicBrainzMBID,
		IPN:             artist.IPN,
		SpotifyArtistID: artist.SpotifyArtistID,
		AppleMusicID:    artist.AppleMusicID,
	}
	meta.Raw, _ = json.Marshal(artist)
	return meta, nil
}

// MusicBrainzArtist resolves ISNI → artist identifiers through MusicBrainz.
type MusicBrainzArtist struct {
	Client musicbrainz.Client
}

func (a *MusicBrainzArtist) Name() string { return "musicbrainz" }

func (a *MusicBrainzArtist) Lookup(ctx context.Context, isni string) (*model.ArtistMeta, error) {
	artist, err := a.Client.ArtistByISNI(ctx, isni)
	if err != nil || artist == nil {
		return nil, err
	}
	meta := &model.ArtistMeta{
		ISNI:            isni,
		Name:            artist.Name,
		MusicBrainzMBID: artist.MBID,
	}
	meta.Raw, _ = json.Marshal(artist)
	return meta, nil
}

// SpotifyArtist resolves ISNI → platform ids through Spotify search. Least
// trusted source: search matching is fuzzy, so it sits last in the chain.
type SpotifyArtist struct {
	Client spotify.Client
}

func (a *SpotifyArtist) Name() string { return "spotify" }

func (a *SpotifyArtist) Lookup(ctx context.Context, isni string) (*model.ArtistMeta, error) {
	artist, err := a.Client.SearchArtistByISNI(ctx, isni)
	if err != nil || artist == nil {
		return nil, err
	}
	meta := &model.ArtistMeta{
		ISNI:            isni,
		Name:            artist.Name,
		SpotifyArtistID: artist.ID,
	}
	meta.Raw, _ = json.Marshal(artist)
	return meta, nil
}

// RecordingAdapters builds the named adapter set for the recording chain.
func RecordingAdapters(q quansic.Client, mb musicbrainz.Client) map[string]resolver.Adapter[model.RecordingMeta] {
	return map[string]resolver.Adapter[model.RecordingMeta]{
		"quansic":     &QuansicRecording{Client: q},
		"musicbrainz": &MusicBrainzRecording{Client: mb},
	}
}

// ArtistAdapters builds the named adapter set for the artist chain.
func ArtistAdapters(q quansic.Client, mb musicbrainz.Client, sp spotify.Client) map[string]resolver.Adapter[model.ArtistMeta] {
	return map[string]resolver.Adapter[model.ArtistMeta]{
		"quansic":     &QuansicArtist{Client: q},
		"musicbrainz": &MusicBrainzArtist{Client: mb},
		"spotify":     &SpotifyArtist{Client: sp},
	}
}
