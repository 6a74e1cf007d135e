package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/octave-labs/catalog-cli/internal/db"
	"github.com/octave-labs/catalog-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS artists (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	isni       TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS tracks (
	id         TEXT PRIMARY KEY,
	artist_id  TEXT NOT NULL REFERENCES artists(id),
	title      TEXT NOT NULL,
	isrc       TEXT NOT NULL DEFAULT '',
	iswc       TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS tasks (
	id            TEXT PRIMARY KEY,
	entity_id     TEXT NOT NULL,
	task_type     TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'pending',
	retry_count   INTEGER NOT NULL DEFAULT 0,
	max_retries   INTEGER NOT NULL DEFAULT 3,
	result_data   JSONB,
	error_message TEXT,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL,
	completed_at  TIMESTAMPTZ,
	UNIQUE(entity_id, task_type)
);

CREATE TABLE IF NOT EXISTS failure_records (
	key               TEXT NOT NULL,
	domain            TEXT NOT NULL,
	attempted_sources JSONB NOT NULL,
	reason            TEXT NOT NULL,
	last_attempted_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (domain, key)
);

CREATE TABLE IF NOT EXISTS quansic_recording_cache (
	isrc        TEXT PRIMARY KEY,
	meta        JSONB NOT NULL,
	enriched_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS musicbrainz_recording_cache (
	isrc        TEXT PRIMARY KEY,
	meta        JSONB NOT NULL,
	enriched_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS quansic_artist_cache (
	isni        TEXT PRIMARY KEY,
	meta        JSONB NOT NULL,
	enriched_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS musicbrainz_artist_cache (
	isni        TEXT PRIMARY KEY,
	meta        JSONB NOT NULL,
	enriched_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS spotify_artist_cache (
	isni        TEXT PRIMARY KEY,
	meta        JSONB NOT NULL,
	enriched_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_type_status ON tasks(task_type, status);
CREATE INDEX IF NOT EXISTS idx_tasks_entity ON tasks(entity_id);
CREATE INDEX IF NOT EXISTS idx_tracks_artist ON tracks(artist_id);
CREATE INDEX IF NOT EXISTS idx_tracks_isrc ON tracks(isrc);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// --- entities ---

func (s *PostgresStore) UpsertArtist(ctx context.Context, a model.Artist) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO artists (id, name, isni, created_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, isni = EXCLUDED.isni`,
		a.ID, a.Name, a.ISNI, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: upsert artist %s", a.ID)
}

func (s *PostgresStore) UpsertTrack(ctx context.Context, t model.Track) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tracks (id, artist_id, title, isrc, iswc, created_at) VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET artist_id = EXCLUDED.artist_id, title = EXCLUDED.title,
			isrc = EXCLUDED.isrc, iswc = EXCLUDED.iswc`,
		t.ID, t.ArtistID, t.Title, t.ISRC, t.ISWC, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: upsert track %s", t.ID)
}

func (s *PostgresStore) GetArtist(ctx context.Context, id string) (*model.Artist, error) {
	var a model.Artist
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, isni, created_at FROM artists WHERE id = $1`, id,
	).Scan(&a.ID, &a.Name, &a.ISNI, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get artist %s", id)
	}
	return &a, nil
}

func (s *PostgresStore) GetTrack(ctx context.Context, id string) (*model.Track, error) {
	var t model.Track
	err := s.pool.QueryRow(ctx,
		`SELECT id, artist_id, title, isrc, iswc, created_at FROM tracks WHERE id = $1`, id,
	).Scan(&t.ID, &t.ArtistID, &t.Title, &t.ISRC, &t.ISWC, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get track %s", id)
	}
	return &t, nil
}

func (s *PostgresStore) SetTrackISWC(ctx context.Context, trackID, iswc string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tracks SET iswc = $1 WHERE id = $2`, iswc, trackID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set track iswc %s", trackID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("track not found: %s", trackID)
	}
	return nil
}

// --- task lifecycle ---

func (s *PostgresStore) CreateTask(ctx context.Context, entityID string, tt model.TaskType, maxRetries int) (*model.Task, error) {
	if maxRetries <= 0 {
		maxRetries = model.DefaultMaxRetries
	}
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tasks (id, entity_id, task_type, status, retry_count, max_retries, created_at, updated_at)
		 VALUES ($1, $2, $3, 'pending', 0, $4, $5, $6)
		 ON CONFLICT (entity_id, task_type) DO UPDATE SET
			status = 'pending', retry_count = 0, max_retries = EXCLUDED.max_retries,
			result_data = NULL, error_message = NULL, completed_at = NULL,
			updated_at = EXCLUDED.updated_at`,
		uuid.New().String(), entityID, string(tt), maxRetries, now, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: create task %s/%s", entityID, tt)
	}
	return s.GetTask(ctx, entityID, tt)
}

func (s *PostgresStore) StartTask(ctx context.Context, entityID string, tt model.TaskType) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tasks SET status = 'in_progress', updated_at = $1
		 WHERE entity_id = $2 AND task_type = $3
		   AND (status = 'pending' OR (status = 'failed' AND retry_count < max_retries))`,
		time.Now().UTC(), entityID, string(tt),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: start task %s/%s", entityID, tt)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	existing, err := s.GetTask(ctx, entityID, tt)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrTaskNotFound
	}
	return ErrAlreadyClaimed
}

func (s *PostgresStore) CompleteTask(ctx context.Context, entityID string, tt model.TaskType, result json.RawMessage) error {
	now := time.Now().UTC()
	var resultArg any
	if len(result) > 0 {
		resultArg = string(result)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE tasks SET status = 'completed', result_data = $1, completed_at = $2, updated_at = $3
		 WHERE entity_id = $4 AND task_type = $5 AND status NOT IN ('completed', 'skipped')`,
		resultArg, now, now, entityID, string(tt),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete task %s/%s", entityID, tt)
	}
	if tag.RowsAffected() == 0 {
		return s.checkTransition(ctx, entityID, tt)
	}
	return nil
}

func (s *PostgresStore) FailTask(ctx context.Context, entityID string, tt model.TaskType, errMsg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tasks SET status = 'failed', error_message = $1, retry_count = retry_count + 1, updated_at = $2
		 WHERE entity_id = $3 AND task_type = $4 AND status NOT IN ('completed', 'skipped')`,
		errMsg, time.Now().UTC(), entityID, string(tt),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail task %s/%s", entityID, tt)
	}
	if tag.RowsAffected() == 0 {
		return s.checkTransition(ctx, entityID, tt)
	}
	return nil
}

func (s *PostgresStore) SkipTask(ctx context.Context, entityID string, tt model.TaskType, reason string) error {
	now := time.Now().UTC()
	result, err := json.Marshal(map[string]string{"reason": reason})
	if err != nil {
		return eris.Wrap(err, "postgres: marshal skip reason")
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE tasks SET status = 'skipped', result_data = $1, completed_at = $2, updated_at = $3
		 WHERE entity_id = $4 AND task_type = $5 AND status NOT IN ('completed', 'skipped')`,
		string(result), now, now, entityID, string(tt),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: skip task %s/%s", entityID, tt)
	}
	if tag.RowsAffected() == 0 {
		return s.checkTransition(ctx, entityID, tt)
	}
	return nil
}

// checkTransition classifies a transition UPDATE that matched no row: the row
// either never existed or is already terminal.
func (s *PostgresStore) checkTransition(ctx context.Context, entityID string, tt model.TaskType) error {
	existing, err := s.GetTask(ctx, entityID, tt)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrTaskNotFound
	}
	return ErrTaskTerminal
}

func (s *PostgresStore) RequeueTask(ctx context.Context, entityID string, tt model.TaskType) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tasks SET status = 'pending', retry_count = 0, result_data = NULL,
			error_message = NULL, completed_at = NULL, updated_at = $1
		 WHERE entity_id = $2 AND task_type = $3`,
		time.Now().UTC(), entityID, string(tt),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: requeue task %s/%s", entityID, tt)
	}
	if tag.RowsAffected() == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// --- task selection ---

func (s *PostgresStore) FindEntitiesForTask(ctx context.Context, tt model.TaskType, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(
		`SELECT e.id %s
		   AND NOT EXISTS (
			SELECT 1 FROM tasks k WHERE k.entity_id = e.id AND k.task_type = $1
			  AND k.status != 'pending'
			  AND NOT (k.status = 'failed' AND k.retry_count < k.max_retries)
		 )
		 ORDER BY e.id LIMIT $2`, entityScope(tt))
	rows, err := s.pool.Query(ctx, query, string(tt), limit)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: find entities for %s", tt)
	}
	defer rows.Close()
	return scanPgIDs(rows)
}

func (s *PostgresStore) EntitiesReady(ctx context.Context, tt, prereq model.TaskType, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	scope := entityScope(tt)
	var (
		query string
		args  []any
	)
	if prereq == "" {
		query = fmt.Sprintf(
			`SELECT e.id %s
			   AND NOT EXISTS (
				SELECT 1 FROM tasks x WHERE x.entity_id = e.id AND x.task_type = $1
				  AND (x.status IN ('completed', 'in_progress', 'skipped')
				       OR (x.status = 'failed' AND x.retry_count >= x.max_retries))
			 )
			 ORDER BY e.id LIMIT $2`, scope)
		args = []any{string(tt), limit}
	} else {
		query = fmt.Sprintf(
			`SELECT e.id %s
			   AND EXISTS (
				SELECT 1 FROM tasks p WHERE p.entity_id = e.id AND p.task_type = $1
				  AND p.status = 'completed'
			 )
			   AND NOT EXISTS (
				SELECT 1 FROM tasks x WHERE x.entity_id = e.id AND x.task_type = $2
				  AND (x.status IN ('completed', 'in_progress', 'skipped')
				       OR (x.status = 'failed' AND x.retry_count >= x.max_retries))
			 )
			 ORDER BY e.id LIMIT $3`, scope)
		args = []any{string(prereq), string(tt), limit}
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: entities ready for %s", tt)
	}
	defer rows.Close()
	return scanPgIDs(rows)
}

func (s *PostgresStore) GetTask(ctx context.Context, entityID string, tt model.TaskType) (*model.Task, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE entity_id = $1 AND task_type = $2`,
		entityID, string(tt),
	)
	t, err := scanPgTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get task %s/%s", entityID, tt)
	}
	return t, nil
}

func (s *PostgresStore) TasksForEntity(ctx context.Context, entityID string) ([]model.Task, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE entity_id = $1 ORDER BY task_type`,
		entityID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: tasks for entity %s", entityID)
	}
	defer rows.Close()
	return scanPgTasks(rows)
}

func (s *PostgresStore) CountByStatus(ctx context.Context, tt model.TaskType) ([]model.StatusCount, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM tasks WHERE task_type = $1 GROUP BY status ORDER BY status`,
		string(tt),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: count by status %s", tt)
	}
	defer rows.Close()

	var counts []model.StatusCount
	for rows.Next() {
		var c model.StatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, eris.Wrap(err, "postgres: scan status count")
		}
		counts = append(counts, c)
	}
	return counts, eris.Wrap(rows.Err(), "postgres: count by status iterate")
}

func (s *PostgresStore) RecentFailures(ctx context.Context, tt model.TaskType, limit int) ([]model.Task, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE task_type = $1 AND status = 'failed'
		 ORDER BY updated_at DESC LIMIT $2`,
		string(tt), limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: recent failures %s", tt)
	}
	defer rows.Close()
	return scanPgTasks(rows)
}

// --- per-authority caches ---

func (s *PostgresStore) GetCachedRecording(ctx context.Context, source, isrc string) (*model.RecordingMeta, error) {
	if !validSource(source, RecordingCacheSources) {
		return nil, eris.Errorf("postgres: unknown recording cache source %q", source)
	}
	var metaJSON []byte
	err := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT meta FROM %s_recording_cache WHERE isrc = $1`, source), isrc,
	).Scan(&metaJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get cached recording %s/%s", source, isrc)
	}
	var meta model.RecordingMeta
	if err := json.Unmarshal(metaJSON, &meta); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal cached recording")
	}
	return &meta, nil
}

func (s *PostgresStore) PutCachedRecording(ctx context.Context, source string, meta model.RecordingMeta) error {
	if !validSource(source, RecordingCacheSources) {
		return eris.Errorf("postgres: unknown recording cache source %q", source)
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal recording meta")
	}
	_, err = s.pool.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s_recording_cache (isrc, meta, enriched_at) VALUES ($1, $2, $3)
			 ON CONFLICT (isrc) DO UPDATE SET meta = EXCLUDED.meta, enriched_at = EXCLUDED.enriched_at`, source),
		meta.ISRC, metaJSON, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: put cached recording %s/%s", source, meta.ISRC)
}

func (s *PostgresStore) GetCachedArtist(ctx context.Context, source, isni string) (*model.ArtistMeta, error) {
	if !validSource(source, ArtistCacheSources) {
		return nil, eris.Errorf("postgres: unknown artist cache source %q", source)
	}
	var metaJSON []byte
	err := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT meta FROM %s_artist_cache WHERE isni = $1`, source), isni,
	).Scan(&metaJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get cached artist %s/%s", source, isni)
	}
	var meta model.ArtistMeta
	if err := json.Unmarshal(metaJSON, &meta); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal cached artist")
	}
	return &meta, nil
}

func (s *PostgresStore) PutCachedArtist(ctx context.Context, source string, meta model.ArtistMeta) error {
	if !validSource(source, ArtistCacheSources) {
		return eris.Errorf("postgres: unknown artist cache source %q", source)
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal artist meta")
	}
	_, err = s.pool.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s_artist_cache (isni, meta, enriched_at) VALUES ($1, $2, $3)
			 ON CONFLICT (isni) DO UPDATE SET meta = EXCLUDED.meta, enriched_at = EXCLUDED.enriched_at`, source),
		meta.ISNI, metaJSON, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: put cached artist %s/%s", source, meta.ISNI)
}

// --- failure ledger ---

func (s *PostgresStore) GetFailureRecord(ctx context.Context, domain model.KeyDomain, key string) (*model.FailureRecord, error) {
	var rec model.FailureRecord
	var sourcesJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT key, domain, attempted_sources, reason, last_attempted_at
		 FROM failure_records WHERE domain = $1 AND key = $2`,
		string(domain), key,
	).Scan(&rec.Key, &rec.Domain, &sourcesJSON, &rec.Reason, &rec.LastAttemptedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get failure record %s/%s", domain, key)
	}
	if err := json.Unmarshal(sourcesJSON, &rec.AttemptedSources); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal attempted sources")
	}
	return &rec, nil
}

func (s *PostgresStore) UpsertFailureRecord(ctx context.Context, rec model.FailureRecord) error {
	sourcesJSON, err := json.Marshal(rec.AttemptedSources)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal attempted sources")
	}
	if rec.LastAttemptedAt.IsZero() {
		rec.LastAttemptedAt = time.Now().UTC()
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO failure_records (key, domain, attempted_sources, reason, last_attempted_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (domain, key) DO UPDATE SET
			attempted_sources = EXCLUDED.attempted_sources, reason = EXCLUDED.reason,
			last_attempted_at = EXCLUDED.last_attempted_at`,
		rec.Key, string(rec.Domain), sourcesJSON, rec.Reason, rec.LastAttemptedAt,
	)
	return eris.Wrapf(err, "postgres: upsert failure record %s/%s", rec.Domain, rec.Key)
}

// --- helpers ---

func scanPgTask(row pgx.Row) (*model.Task, error) {
	var t model.Task
	var resultJSON []byte
	var errMsg *string
	var completedAt *time.Time

	err := row.Scan(&t.ID, &t.EntityID, &t.Type, &t.Status, &t.RetryCount, &t.MaxRetries,
		&resultJSON, &errMsg, &t.CreatedAt, &t.UpdatedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	if len(resultJSON) > 0 {
		t.ResultData = json.RawMessage(resultJSON)
	}
	if errMsg != nil {
		t.ErrorMessage = *errMsg
	}
	t.CompletedAt = completedAt
	return &t, nil
}

func scanPgTasks(rows pgx.Rows) ([]model.Task, error) {
	var tasks []model.Task
	for rows.Next() {
		t, err := scanPgTask(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan task")
		}
		tasks = append(tasks, *t)
	}
	return tasks, eris.Wrap(rows.Err(), "postgres: iterate tasks")
}

func scanPgIDs(rows pgx.Rows) ([]string, error) {
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "postgres: scan id")
		}
		ids = append(ids, id)
	}
	return ids, eris.Wrap(rows.Err(), "postgres: iterate ids")
}
