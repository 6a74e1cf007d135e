package model

import "encoding/json"

// RecordingMeta is the normalized payload stored in the per-authority
// recording caches. Raw carries the authority's original response so a
// re-parse never needs a re-fetch.
type RecordingMeta struct {
	ISRC       string          `json:"isrc"`
	ISWC       string          `json:"iswc,omitempty"`
	Title      string          `json:"title,omitempty"`
	WorkTitle  string          `json:"work_title,omitempty"`
	DurationMS int             `json:"duration_ms,omitempty"`
	Composers  []Contributor   `json:"composers,omitempty"`
	Raw        json.RawMessage `json:"raw,omitempty"`
}

// ArtistMeta is the normalized payload stored in the per-authority artist
// caches: the cross-platform identifiers an authority knows for an ISNI.
type ArtistMeta struct {
	ISNI            string          `json:"isni"`
	Name            string          `json:"name,omitempty"`
	MusicBrainzMBID string          `json:"musicbrainz_mbid,omitempty"`
	IPN             string          `json:"ipn,omitempty"`
	SpotifyArtistID string          `json:"spotify_artist_id,omitempty"`
	AppleMusicID    string          `json:"apple_music_id,omitempty"`
	Raw             json.RawMessage `json:"raw,omitempty"`
}

// Contributor is a credited writer or performer on a work.
type Contributor struct {
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
	IPI  string `json:"ipi,omitempty"`
}
