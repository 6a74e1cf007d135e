package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octave-labs/catalog-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_GetTrack_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, artist_id, title, isrc, iswc, created_at FROM tracks WHERE id = \$1`).
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)

	track, err := s.GetTrack(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, track)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetTask(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .+ FROM tasks WHERE entity_id = \$1 AND task_type = \$2`).
		WithArgs("t1", "iswc_lookup").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "entity_id", "task_type", "status", "retry_count", "max_retries",
			"result_data", "error_message", "created_at", "updated_at", "completed_at",
		}).AddRow("task-id", "t1", "iswc_lookup", "failed", 1, 3,
			[]byte(nil), strPtr("quansic 503"), now, now, (*time.Time)(nil)))

	task, err := s.GetTask(context.Background(), "t1", model.TaskISWCLookup)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, model.TaskFailed, task.Status)
	assert.Equal(t, 1, task.RetryCount)
	assert.Equal(t, "quansic 503", task.ErrorMessage)
	assert.True(t, task.Retryable())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_StartTask_Claims(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE tasks SET status = 'in_progress'`).
		WithArgs(pgxmock.AnyArg(), "t1", "iswc_lookup").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.StartTask(context.Background(), "t1", model.TaskISWCLookup)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_StartTask_LostClaim(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectExec(`UPDATE tasks SET status = 'in_progress'`).
		WithArgs(pgxmock.AnyArg(), "t1", "iswc_lookup").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	// The follow-up read distinguishes a contended row from a missing one.
	mock.ExpectQuery(`SELECT .+ FROM tasks WHERE entity_id = \$1 AND task_type = \$2`).
		WithArgs("t1", "iswc_lookup").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "entity_id", "task_type", "status", "retry_count", "max_retries",
			"result_data", "error_message", "created_at", "updated_at", "completed_at",
		}).AddRow("task-id", "t1", "iswc_lookup", "in_progress", 0, 3,
			[]byte(nil), (*string)(nil), now, now, (*time.Time)(nil)))

	err := s.StartTask(context.Background(), "t1", model.TaskISWCLookup)
	assert.ErrorIs(t, err, ErrAlreadyClaimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_StartTask_MissingRow(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE tasks SET status = 'in_progress'`).
		WithArgs(pgxmock.AnyArg(), "ghost", "iswc_lookup").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(`SELECT .+ FROM tasks WHERE entity_id = \$1 AND task_type = \$2`).
		WithArgs("ghost", "iswc_lookup").
		WillReturnError(pgx.ErrNoRows)

	err := s.StartTask(context.Background(), "ghost", model.TaskISWCLookup)
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FailTask(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE tasks SET status = 'failed', error_message = \$1, retry_count = retry_count \+ 1`).
		WithArgs("boom", pgxmock.AnyArg(), "t1", "iswc_lookup").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.FailTask(context.Background(), "t1", model.TaskISWCLookup, "boom")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CompleteTask_AlreadyTerminal(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectExec(`UPDATE tasks SET status = 'completed'`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), "t1", "iswc_lookup").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	// The follow-up read distinguishes a terminal row from a missing one.
	mock.ExpectQuery(`SELECT .+ FROM tasks WHERE entity_id = \$1 AND task_type = \$2`).
		WithArgs("t1", "iswc_lookup").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "entity_id", "task_type", "status", "retry_count", "max_retries",
			"result_data", "error_message", "created_at", "updated_at", "completed_at",
		}).AddRow("task-id", "t1", "iswc_lookup", "skipped", 0, 3,
			[]byte(`{"reason":"no source knows the recording"}`), (*string)(nil), now, now, &now))

	err := s.CompleteTask(context.Background(), "t1", model.TaskISWCLookup, nil)
	assert.ErrorIs(t, err, ErrTaskTerminal)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RequeueTask_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE tasks SET status = 'pending', retry_count = 0`).
		WithArgs(pgxmock.AnyArg(), "ghost", "identity_mint").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.RequeueTask(context.Background(), "ghost", model.TaskIdentityMint)
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindEntitiesForTask(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT e.id FROM tracks e WHERE e.isrc != ''`).
		WithArgs("iswc_lookup", 10).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("t1").AddRow("t2"))

	ids, err := s.FindEntitiesForTask(context.Background(), model.TaskISWCLookup, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_EntitiesReady_WithPrereq(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT e.id FROM artists e WHERE EXISTS \(SELECT 1 FROM tracks tr`).
		WithArgs("identity_mint", "social_account", 5).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("a1"))

	ids, err := s.EntitiesReady(context.Background(), model.TaskSocialAccount, model.TaskIdentityMint, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCachedRecording_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT meta FROM quansic_recording_cache`).
		WithArgs("USRC11234567").
		WillReturnError(pgx.ErrNoRows)

	meta, err := s.GetCachedRecording(context.Background(), "quansic", "USRC11234567")
	require.NoError(t, err)
	assert.Nil(t, meta)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCachedRecording_UnknownSource(t *testing.T) {
	s, _ := newMockPostgresStore(t)

	_, err := s.GetCachedRecording(context.Background(), "deezer", "USRC11234567")
	assert.Error(t, err)
}

func TestPostgresStore_PutCachedArtist_Upsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO spotify_artist_cache`).
		WithArgs("0000000121212121", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.PutCachedArtist(context.Background(), "spotify", model.ArtistMeta{
		ISNI: "0000000121212121", Name: "Artist",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FailureRecord_Upsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO failure_records`).
		WithArgs("USRC11234567", "recording", pgxmock.AnyArg(), "all sources exhausted", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.UpsertFailureRecord(context.Background(), model.FailureRecord{
		Key:              "USRC11234567",
		Domain:           model.DomainRecording,
		AttemptedSources: []string{"quansic", "musicbrainz"},
		Reason:           "all sources exhausted",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetFailureRecord_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT key, domain, attempted_sources, reason, last_attempted_at`).
		WithArgs("artist", "unknown-isni").
		WillReturnError(pgx.ErrNoRows)

	rec, err := s.GetFailureRecord(context.Background(), model.DomainArtist, "unknown-isni")
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func strPtr(s string) *string { return &s }
