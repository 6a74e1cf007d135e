package model

import "time"

// Track is a recording in the catalog. Ingestion owns these rows; the
// orchestration core only reads them to decide task eligibility and to find
// the lookup key for enrichment.
type Track struct {
	ID        string    `json:"id"`
	ArtistID  string    `json:"artist_id"`
	Title     string    `json:"title"`
	ISRC      string    `json:"isrc,omitempty"`
	ISWC      string    `json:"iswc,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Artist is a catalog artist.
type Artist struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ISNI      string    `json:"isni,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
