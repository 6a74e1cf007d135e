package model

import "time"

// KeyDomain distinguishes the failure-ledger tables: recording lookups are
// keyed by ISRC, artist lookups by ISNI. Multiple entities may share a key,
// so failure records hang off the key, not the entity.
type KeyDomain string

const (
	DomainRecording KeyDomain = "recording"
	DomainArtist    KeyDomain = "artist"
)

// FailureRecord memoizes an exhausted fallback chain for a lookup key.
// The resolver consults it before any live call and treats it as expired
// once the configured TTL has elapsed.
type FailureRecord struct {
	Key              string    `json:"key"`
	Domain           KeyDomain `json:"domain"`
	AttemptedSources []string  `json:"attempted_sources"`
	Reason           string    `json:"reason"`
	LastAttemptedAt  time.Time `json:"last_attempted_at"`
}

// Expired reports whether the record no longer suppresses live lookups.
func (r *FailureRecord) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(r.LastAttemptedAt) >= ttl
}
