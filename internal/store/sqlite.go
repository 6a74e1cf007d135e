package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/octave-labs/catalog-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS artists (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	isni       TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS tracks (
	id         TEXT PRIMARY KEY,
	artist_id  TEXT NOT NULL REFERENCES artists(id),
	title      TEXT NOT NULL,
	isrc       TEXT NOT NULL DEFAULT '',
	iswc       TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS tasks (
	id            TEXT PRIMARY KEY,
	entity_id     TEXT NOT NULL,
	task_type     TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'pending',
	retry_count   INTEGER NOT NULL DEFAULT 0,
	max_retries   INTEGER NOT NULL DEFAULT 3,
	result_data   TEXT,
	error_message TEXT,
	created_at    DATETIME NOT NULL,
	updated_at    DATETIME NOT NULL,
	completed_at  DATETIME,
	UNIQUE(entity_id, task_type)
);

CREATE TABLE IF NOT EXISTS failure_records (
	key               TEXT NOT NULL,
	domain            TEXT NOT NULL,
	attempted_sources TEXT NOT NULL,
	reason            TEXT NOT NULL,
	last_attempted_at DATETIME NOT NULL,
	PRIMARY KEY (domain, key)
);

CREATE TABLE IF NOT EXISTS quansic_recording_cache (
	isrc        TEXT PRIMARY KEY,
	meta        TEXT NOT NULL,
	enriched_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS musicbrainz_recording_cache (
	isrc        TEXT PRIMARY KEY,
	meta        TEXT NOT NULL,
	enriched_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS quansic_artist_cache (
	isni        TEXT PRIMARY KEY,
	meta        TEXT NOT NULL,
	enriched_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS musicbrainz_artist_cache (
	isni        TEXT PRIMARY KEY,
	meta        TEXT NOT NULL,
	enriched_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS spotify_artist_cache (
	isni        TEXT PRIMARY KEY,
	meta        TEXT NOT NULL,
	enriched_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_type_status ON tasks(task_type, status);
CREATE INDEX IF NOT EXISTS idx_tasks_entity ON tasks(entity_id);
CREATE INDEX IF NOT EXISTS idx_tracks_artist ON tracks(artist_id);
CREATE INDEX IF NOT EXISTS idx_tracks_isrc ON tracks(isrc);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- entities ---

func (s *SQLiteStore) UpsertArtist(ctx context.Context, a model.Artist) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO artists (id, name, isni, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, isni = excluded.isni`,
		a.ID, a.Name, a.ISNI, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: upsert artist %s", a.ID)
}

func (s *SQLiteStore) UpsertTrack(ctx context.Context, t model.Track) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tracks (id, artist_id, title, isrc, iswc, created_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET artist_id = excluded.artist_id, title = excluded.title,
			isrc = excluded.isrc, iswc = excluded.iswc`,
		t.ID, t.ArtistID, t.Title, t.ISRC, t.ISWC, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: upsert track %s", t.ID)
}

func (s *SQLiteStore) GetArtist(ctx context.Context, id string) (*model.Artist, error) {
	var a model.Artist
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, isni, created_at FROM artists WHERE id = ?`, id,
	).Scan(&a.ID, &a.Name, &a.ISNI, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get artist %s", id)
	}
	return &a, nil
}

func (s *SQLiteStore) GetTrack(ctx context.Context, id string) (*model.Track, error) {
	var t model.Track
	err := s.db.QueryRowContext(ctx,
		`SELECT id, artist_id, title, isrc, iswc, created_at FROM tracks WHERE id = ?`, id,
	).Scan(&t.ID, &t.ArtistID, &t.Title, &t.ISRC, &t.ISWC, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get track %s", id)
	}
	return &t, nil
}

func (s *SQLiteStore) SetTrackISWC(ctx context.Context, trackID, iswc string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tracks SET iswc = ? WHERE id = ?`, iswc, trackID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set track iswc %s", trackID)
	}
	return checkRowsAffected(res, "track", trackID)
}

// --- task lifecycle ---

func (s *SQLiteStore) CreateTask(ctx context.Context, entityID string, tt model.TaskType, maxRetries int) (*model.Task, error) {
	if maxRetries <= 0 {
		maxRetries = model.DefaultMaxRetries
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, entity_id, task_type, status, retry_count, max_retries, created_at, updated_at)
		 VALUES (?, ?, ?, 'pending', 0, ?, ?, ?)
		 ON CONFLICT(entity_id, task_type) DO UPDATE SET
			status = 'pending', retry_count = 0, max_retries = excluded.max_retries,
			result_data = NULL, error_message = NULL, completed_at = NULL,
			updated_at = excluded.updated_at`,
		uuid.New().String(), entityID, string(tt), maxRetries, now, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: create task %s/%s", entityID, tt)
	}
	return s.GetTask(ctx, entityID, tt)
}

// StartTask claims the row with a conditional update so two workers cannot
// both move it to in_progress.
func (s *SQLiteStore) StartTask(ctx context.Context, entityID string, tt model.TaskType) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = 'in_progress', updated_at = ?
		 WHERE entity_id = ? AND task_type = ?
		   AND (status = 'pending' OR (status = 'failed' AND retry_count < max_retries))`,
		time.Now().UTC(), entityID, string(tt),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: start task %s/%s", entityID, tt)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n > 0 {
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

func (s *SQLiteStore) CompleteTask(ctx context.Context, entityID string, tt model.TaskType, result json.RawMessage) error {
	now := time.Now().UTC()
	var resultStr any
	if len(result) > 0 {
		resultStr = string(result)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = 'completed', result_data = ?, completed_at = ?, updated_at = ?
		 WHERE entity_id = ? AND task_type = ? AND status NOT IN ('completed', 'skipped')`,
		resultStr, now, now, entityID, string(tt),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete task %s/%s", entityID, tt)
	}
	return s.checkTransition(ctx, res, entityID, tt)
}

func (s *SQLiteStore) FailTask(ctx context.Context, entityID string, tt model.TaskType, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = 'failed', error_message = ?, retry_count = retry_count + 1, updated_at = ?
		 WHERE entity_id = ? AND task_type = ? AND status NOT IN ('completed', 'skipped')`,
		errMsg, time.Now().UTC(), entityID, string(tt),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail task %s/%s", entityID, tt)
	}
	return s.checkTransition(ctx, res, entityID, tt)
}

func (s *SQLiteStore) SkipTask(ctx context.Context, entityID string, tt model.TaskType, reason string) error {
	now := time.Now().UTC()
	result, err := json.Marshal(map[string]string{"reason": reason})
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal skip reason")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = 'skipped', result_data = ?, completed_at = ?, updated_at = ?
		 WHERE entity_id = ? AND task_type = ? AND status NOT IN ('completed', 'skipped')`,
		string(result), now, now, entityID, string(tt),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: skip task %s/%s", entityID, tt)
	}
	return s.checkTransition(ctx, res, entityID, tt)
}

// checkTransition classifies a transition UPDATE that matched no row: the row
// either never existed or is already terminal.
func (s *SQLiteStore) checkTransition(ctx context.Context, res sql.Result, entityID string, tt model.TaskType) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n > 0 {
		return nil
	}
	existing, err := s.GetTask(ctx, entityID, tt)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrTaskNotFound
	}
	return ErrTaskTerminal
}

// RequeueTask resets an existing row to pending. Unlike CreateTask it refuses
// to create the row, so a typo'd entity id surfaces as an error.
func (s *SQLiteStore) RequeueTask(ctx context.Context, entityID string, tt model.TaskType) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = 'pending', retry_count = 0, result_data = NULL,
			error_message = NULL, completed_at = NULL, updated_at = ?
		 WHERE entity_id = ? AND task_type = ?`,
		time.Now().UTC(), entityID, string(tt),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: requeue task %s/%s", entityID, tt)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// --- task selection ---

// entityScope returns the FROM clause and precondition for a task type's
// entity category: track tasks need an ISRC, artist enrichment needs an
// ISNI, provisioning needs at least one catalog track.
func entityScope(tt model.TaskType) string {
	switch tt {
	case model.TaskISWCLookup, model.TaskRecordingEnrich:
		return `FROM tracks e WHERE e.isrc != ''`
	case model.TaskArtistEnrich:
		return `FROM artists e WHERE e.isni != ''`
	default:
		return `FROM artists e WHERE EXISTS (SELECT 1 FROM tracks tr WHERE tr.artist_id = e.id)`
	}
}

func (s *SQLiteStore) FindEntitiesForTask(ctx context.Context, tt model.TaskType, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(
		`SELECT e.id %s
		   AND NOT EXISTS (
			SELECT 1 FROM tasks k WHERE k.entity_id = e.id AND k.task_type = ?
			  AND k.status != 'pending'
			  AND NOT (k.status = 'failed' AND k.retry_count < k.max_retries)
		 )
		 ORDER BY e.id LIMIT ?`, entityScope(tt))
	rows, err := s.db.QueryContext(ctx, query, string(tt), limit)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: find entities for %s", tt)
	}
	defer rows.Close()
	return scanIDs(rows)
}

func (s *SQLiteStore) EntitiesReady(ctx context.Context, tt, prereq model.TaskType, limit int) ([]string, error) {
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
				SELECT 1 FROM tasks x WHERE x.entity_id = e.id AND x.task_type = ?
				  AND (x.status IN ('completed', 'in_progress', 'skipped')
				       OR (x.status = 'failed' AND x.retry_count >= x.max_retries))
			 )
			 ORDER BY e.id LIMIT ?`, scope)
		args = []any{string(tt), limit}
	} else {
		query = fmt.Sprintf(
			`SELECT e.id %s
			   AND EXISTS (
				SELECT 1 FROM tasks p WHERE p.entity_id = e.id AND p.task_type = ?
				  AND p.status = 'completed'
			 )
			   AND NOT EXISTS (
				SELECT 1 FROM tasks x WHERE x.entity_id = e.id AND x.task_type = ?
				  AND (x.status IN ('completed', 'in_progress', 'skipped')
				       OR (x.status = 'failed' AND x.retry_count >= x.max_retries))
			 )
			 ORDER BY e.id LIMIT ?`, scope)
		args = []any{string(prereq), string(tt), limit}
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: entities ready for %s", tt)
	}
	defer rows.Close()
	return scanIDs(rows)
}

const taskColumns = `id, entity_id, task_type, status, retry_count, max_retries, result_data, error_message, created_at, updated_at, completed_at`

func (s *SQLiteStore) GetTask(ctx context.Context, entityID string, tt model.TaskType) (*model.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE entity_id = ? AND task_type = ?`,
		entityID, string(tt),
	)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get task %s/%s", entityID, tt)
	}
	return t, nil
}

func (s *SQLiteStore) TasksForEntity(ctx context.Context, entityID string) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE entity_id = ? ORDER BY task_type`,
		entityID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: tasks for entity %s", entityID)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (s *SQLiteStore) CountByStatus(ctx context.Context, tt model.TaskType) ([]model.StatusCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM tasks WHERE task_type = ? GROUP BY status ORDER BY status`,
		string(tt),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: count by status %s", tt)
	}
	defer rows.Close()

	var counts []model.StatusCount
	for rows.Next() {
		var c model.StatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan status count")
		}
		counts = append(counts, c)
	}
	return counts, eris.Wrap(rows.Err(), "sqlite: count by status iterate")
}

func (s *SQLiteStore) RecentFailures(ctx context.Context, tt model.TaskType, limit int) ([]model.Task, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE task_type = ? AND status = 'failed'
		 ORDER BY updated_at DESC LIMIT ?`,
		string(tt), limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: recent failures %s", tt)
	}
	defer rows.Close()
	return scanTasks(rows)
}

// --- per-authority caches ---

func (s *SQLiteStore) GetCachedRecording(ctx context.Context, source, isrc string) (*model.RecordingMeta, error) {
	if !validSource(source, RecordingCacheSources) {
		return nil, eris.Errorf("sqlite: unknown recording cache source %q", source)
	}
	var metaJSON string
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT meta FROM %s_recording_cache WHERE isrc = ?`, source), isrc,
	).Scan(&metaJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get cached recording %s/%s", source, isrc)
	}
	var meta model.RecordingMeta
	if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal cached recording")
	}
	return &meta, nil
}

func (s *SQLiteStore) PutCachedRecording(ctx context.Context, source string, meta model.RecordingMeta) error {
	if !validSource(source, RecordingCacheSources) {
		return eris.Errorf("sqlite: unknown recording cache source %q", source)
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal recording meta")
	}
	_, err = s.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s_recording_cache (isrc, meta, enriched_at) VALUES (?, ?, ?)
			 ON CONFLICT(isrc) DO UPDATE SET meta = excluded.meta, enriched_at = excluded.enriched_at`, source),
		meta.ISRC, string(metaJSON), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: put cached recording %s/%s", source, meta.ISRC)
}

func (s *SQLiteStore) GetCachedArtist(ctx context.Context, source, isni string) (*model.ArtistMeta, error) {
	if !validSource(source, ArtistCacheSources) {
		return nil, eris.Errorf("sqlite: unknown artist cache source %q", source)
	}
	var metaJSON string
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT meta FROM %s_artist_cache WHERE isni = ?`, source), isni,
	).Scan(&metaJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get cached artist %s/%s", source, isni)
	}
	var meta model.ArtistMeta
	if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal cached artist")
	}
	return &meta, nil
}

func (s *SQLiteStore) PutCachedArtist(ctx context.Context, source string, meta model.ArtistMeta) error {
	if !validSource(source, ArtistCacheSources) {
		return eris.Errorf("sqlite: unknown artist cache source %q", source)
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal artist meta")
	}
	_, err = s.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s_artist_cache (isni, meta, enriched_at) VALUES (?, ?, ?)
			 ON CONFLICT(isni) DO UPDATE SET meta = excluded.meta, enriched_at = excluded.enriched_at`, source),
		meta.ISNI, string(metaJSON), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: put cached artist %s/%s", source, meta.ISNI)
}

// --- failure ledger ---

func (s *SQLiteStore) GetFailureRecord(ctx context.Context, domain model.KeyDomain, key string) (*model.FailureRecord, error) {
	var rec model.FailureRecord
	var sourcesJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT key, domain, attempted_sources, reason, last_attempted_at
		 FROM failure_records WHERE domain = ? AND key = ?`,
		string(domain), key,
	).Scan(&rec.Key, &rec.Domain, &sourcesJSON, &rec.Reason, &rec.LastAttemptedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get failure record %s/%s", domain, key)
	}
	if err := json.Unmarshal([]byte(sourcesJSON), &rec.AttemptedSources); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal attempted sources")
	}
	return &rec, nil
}

func (s *SQLiteStore) UpsertFailureRecord(ctx context.Context, rec model.FailureRecord) error {
	sourcesJSON, err := json.Marshal(rec.AttemptedSources)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal attempted sources")
	}
	if rec.LastAttemptedAt.IsZero() {
		rec.LastAttemptedAt = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO failure_records (key, domain, attempted_sources, reason, last_attempted_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(domain, key) DO UPDATE SET
			attempted_sources = excluded.attempted_sources, reason = excluded.reason,
			last_attempted_at = excluded.last_attempted_at`,
		rec.Key, string(rec.Domain), string(sourcesJSON), rec.Reason, rec.LastAttemptedAt,
	)
	return eris.Wrapf(err, "sqlite: upsert failure record %s/%s", rec.Domain, rec.Key)
}

// --- helpers ---

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanTask(row scannable) (*model.Task, error) {
	var t model.Task
	var resultJSON, errMsg sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(&t.ID, &t.EntityID, &t.Type, &t.Status, &t.RetryCount, &t.MaxRetries,
		&resultJSON, &errMsg, &t.CreatedAt, &t.UpdatedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	if resultJSON.Valid {
		t.ResultData = json.RawMessage(resultJSON.String)
	}
	if errMsg.Valid {
		t.ErrorMessage = errMsg.String
	}
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	return &t, nil
}

func scanTasks(rows *sql.Rows) ([]model.Task, error) {
	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan task")
		}
		tasks = append(tasks, *t)
	}
	return tasks, eris.Wrap(rows.Err(), "sqlite: iterate tasks")
}

func scanIDs(rows *sql.Rows) ([]string, error) {
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan id")
		}
		ids = append(ids, id)
	}
	return ids, eris.Wrap(rows.Err(), "sqlite: iterate ids")
}
