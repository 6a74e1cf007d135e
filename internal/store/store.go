package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/octave-labs/catalog-cli/internal/model"
)

// Sentinel errors shared by both backends.
var (
	// ErrTaskNotFound is returned by transitions on a row that was never created.
	ErrTaskNotFound = errors.New("task not found")
	// ErrAlreadyClaimed is returned by StartTask when the conditional claim
	// matched no row: another worker holds it, or it is terminal/exhausted.
	ErrAlreadyClaimed = errors.New("task already claimed")
	// ErrTaskTerminal is returned by CompleteTask/FailTask/SkipTask when the
	// row is already completed or skipped. Terminal rows only move again
	// through RequeueTask.
	ErrTaskTerminal = errors.New("task already terminal")
)

// RecordingCacheSources and ArtistCacheSources are the authorities with a
// dedicated cache table. Source names arriving from config are validated
// against these before being spliced into a table name.
var (
	RecordingCacheSources = []string{"quansic", "musicbrainz"}
	ArtistCacheSources    = []string{"quansic", "musicbrainz", "spotify"}
)

// Store is the single durable home for entities, task progress, the
// per-authority caches, and the failure ledger.
type Store interface {
	// Entities. Ingestion proper is out of scope for the orchestration core,
	// but the import command and tests need a way to load a catalog.
	UpsertTrack(ctx context.Context, track model.Track) error
	UpsertArtist(ctx context.Context, artist model.Artist) error
	GetTrack(ctx context.Context, id string) (*model.Track, error)
	GetArtist(ctx context.Context, id string) (*model.Artist, error)
	SetTrackISWC(ctx context.Context, trackID, iswc string) error

	// Task lifecycle.
	CreateTask(ctx context.Context, entityID string, tt model.TaskType, maxRetries int) (*model.Task, error)
	StartTask(ctx context.Context, entityID string, tt model.TaskType) error
	CompleteTask(ctx context.Context, entityID string, tt model.TaskType, result json.RawMessage) error
	FailTask(ctx context.Context, entityID string, tt model.TaskType, errMsg string) error
	SkipTask(ctx context.Context, entityID string, tt model.TaskType, reason string) error
	RequeueTask(ctx context.Context, entityID string, tt model.TaskType) error

	// Task selection and introspection.
	FindEntitiesForTask(ctx context.Context, tt model.TaskType, limit int) ([]string, error)
	EntitiesReady(ctx context.Context, tt, prereq model.TaskType, limit int) ([]string, error)
	GetTask(ctx context.Context, entityID string, tt model.TaskType) (*model.Task, error)
	TasksForEntity(ctx context.Context, entityID string) ([]model.Task, error)
	CountByStatus(ctx context.Context, tt model.TaskType) ([]model.StatusCount, error)
	RecentFailures(ctx context.Context, tt model.TaskType, limit int) ([]model.Task, error)

	// Per-authority caches. A nil result with nil error is a miss.
	GetCachedRecording(ctx context.Context, source, isrc string) (*model.RecordingMeta, error)
	PutCachedRecording(ctx context.Context, source string, meta model.RecordingMeta) error
	GetCachedArtist(ctx context.Context, source, isni string) (*model.ArtistMeta, error)
	PutCachedArtist(ctx context.Context, source string, meta model.ArtistMeta) error

	// Failure ledger. A nil record with nil error means the key was never
	// exhausted; expiry is the caller's decision.
	GetFailureRecord(ctx context.Context, domain model.KeyDomain, key string) (*model.FailureRecord, error)
	UpsertFailureRecord(ctx context.Context, rec model.FailureRecord) error

	// Lifecycle.
	Migrate(ctx context.Context) error
	Close() error
}

func validSource(source string, allowed []string) bool {
	for _, s := range allowed {
		if s == source {
			return true
		}
	}
	return false
}
