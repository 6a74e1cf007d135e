package processor

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octave-labs/catalog-cli/internal/model"
	"github.com/octave-labs/catalog-cli/internal/scheduler"
	"github.com/octave-labs/catalog-cli/internal/store"
)

func newTestProcessor(t *testing.T, opts Options) (*Processor, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	sched, err := scheduler.New(st)
	require.NoError(t, err)
	return New(st, sched, opts), st
}

func seedTracks(t *testing.T, st store.Store, ids ...string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.UpsertArtist(ctx, model.Artist{ID: "a1", Name: "A"}))
	for _, id := range ids {
		require.NoError(t, st.UpsertTrack(ctx, model.Track{
			ID: id, ArtistID: "a1", Title: "T", ISRC: "USRC11234567",
		}))
	}
}

func TestRun_CompletesBatch(t *testing.T) {
	p, st := newTestProcessor(t, Options{})
	ctx := context.Background()
	seedTracks(t, st, "t1", "t2")

	var mu sync.Mutex
	var seen []string
	summary, err := p.Run(ctx, model.TaskISWCLookup, 10, func(_ context.Context, id string) (Outcome, error) {
		mu.Lock()
		seen = append(seen, id)
		mu.Unlock()
		return Outcome{Result: json.RawMessage(`{"ok":true}`)}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Selected)
	assert.EqualValues(t, 2, summary.Completed)
	assert.ElementsMatch(t, []string{"t1", "t2"}, seen)

	task, err := st.GetTask(ctx, "t1", model.TaskISWCLookup)
	require.NoError(t, err)
	assert.Equal(t, model.TaskCompleted, task.Status)
	assert.JSONEq(t, `{"ok":true}`, string(task.ResultData))
}

func TestRun_FailureIsolation(t *testing.T) {
	p, st := newTestProcessor(t, Options{})
	ctx := context.Background()
	seedTracks(t, st, "t1", "t2", "t3")

	summary, err := p.Run(ctx, model.TaskISWCLookup, 10, func(_ context.Context, id string) (Outcome, error) {
		if id == "t2" {
			return Outcome{}, errors.New("quansic exploded")
		}
		return Outcome{}, nil
	})
	require.NoError(t, err, "one entity's failure never aborts the batch")
	assert.EqualValues(t, 2, summary.Completed)
	assert.EqualValues(t, 1, summary.Failed)

	task, err := st.GetTask(ctx, "t2", model.TaskISWCLookup)
	require.NoError(t, err)
	assert.Equal(t, model.TaskFailed, task.Status)
	assert.Equal(t, 1, task.RetryCount)
	assert.Equal(t, "quansic exploded", task.ErrorMessage)

	for _, id := range []string{"t1", "t3"} {
		task, err := st.GetTask(ctx, id, model.TaskISWCLookup)
		require.NoError(t, err)
		assert.Equal(t, model.TaskCompleted, task.Status)
	}
}

func TestRun_RetryPreservesCount(t *testing.T) {
	p, st := newTestProcessor(t, Options{MaxRetries: 3})
	ctx := context.Background()
	seedTracks(t, st, "t1")

	fail := func(context.Context, string) (Outcome, error) {
		return Outcome{}, errors.New("boom")
	}
	// Each run reselects the retryable failed row without resetting its count.
	for want := 1; want <= 3; want++ {
		summary, err := p.Run(ctx, model.TaskISWCLookup, 10, fail)
		require.NoError(t, err)
		assert.EqualValues(t, 1, summary.Failed)

		task, err := st.GetTask(ctx, "t1", model.TaskISWCLookup)
		require.NoError(t, err)
		assert.Equal(t, want, task.RetryCount)
	}

	// Retries exhausted: the entity drops out of selection.
	summary, err := p.Run(ctx, model.TaskISWCLookup, 10, fail)
	require.NoError(t, err)
	assert.Zero(t, summary.Selected)
}

func TestRun_SkipPath(t *testing.T) {
	p, st := newTestProcessor(t, Options{})
	ctx := context.Background()
	seedTracks(t, st, "t1")

	summary, err := p.Run(ctx, model.TaskISWCLookup, 10, func(context.Context, string) (Outcome, error) {
		return Outcome{SkipReason: "no source knows the recording"}, nil
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, summary.Skipped)

	task, err := st.GetTask(ctx, "t1", model.TaskISWCLookup)
	require.NoError(t, err)
	assert.Equal(t, model.TaskSkipped, task.Status)

	// Skipped is terminal: nothing selected on the next run.
	summary, err = p.Run(ctx, model.TaskISWCLookup, 10, func(context.Context, string) (Outcome, error) {
		t.Fatal("adapter must not run for a skipped task")
		return Outcome{}, nil
	})
	require.NoError(t, err)
	assert.Zero(t, summary.Selected)
}

func TestRun_ContendedClaim(t *testing.T) {
	p, st := newTestProcessor(t, Options{})
	ctx := context.Background()
	seedTracks(t, st, "t1")

	// Another worker holds the claim.
	_, err := st.CreateTask(ctx, "t1", model.TaskISWCLookup, 3)
	require.NoError(t, err)
	require.NoError(t, st.StartTask(ctx, "t1", model.TaskISWCLookup))

	got := p.processOne(ctx, model.TaskISWCLookup, "t1", func(context.Context, string) (Outcome, error) {
		t.Fatal("adapter must not run without the claim")
		return Outcome{}, nil
	})
	assert.Equal(t, outcomeContended, got)

	// The other worker's claim is untouched.
	task, err := st.GetTask(ctx, "t1", model.TaskISWCLookup)
	require.NoError(t, err)
	assert.Equal(t, model.TaskInProgress, task.Status)
	assert.Equal(t, 0, task.RetryCount)
}

func TestRun_ProvisioningUsesDependencyGate(t *testing.T) {
	p, st := newTestProcessor(t, Options{})
	ctx := context.Background()
	seedTracks(t, st, "t1")

	// social_account with no completed identity_mint: nothing to do.
	summary, err := p.Run(ctx, model.TaskSocialAccount, 10, func(context.Context, string) (Outcome, error) {
		t.Fatal("gated adapter must not run")
		return Outcome{}, nil
	})
	require.NoError(t, err)
	assert.Zero(t, summary.Selected)

	_, err = st.CreateTask(ctx, "a1", model.TaskIdentityMint, 3)
	require.NoError(t, err)
	require.NoError(t, st.StartTask(ctx, "a1", model.TaskIdentityMint))
	require.NoError(t, st.CompleteTask(ctx, "a1", model.TaskIdentityMint, nil))

	summary, err = p.Run(ctx, model.TaskSocialAccount, 10, func(context.Context, string) (Outcome, error) {
		return Outcome{Result: json.RawMessage(`{"handle":"@a1"}`)}, nil
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, summary.Completed)
}

func TestRun_EmptySelection(t *testing.T) {
	p, _ := newTestProcessor(t, Options{})

	summary, err := p.Run(context.Background(), model.TaskISWCLookup, 10, func(context.Context, string) (Outcome, error) {
		t.Fatal("no entities, no calls")
		return Outcome{}, nil
	})
	require.NoError(t, err)
	assert.Zero(t, summary.Selected)
}

func TestRun_ConcurrentBatch(t *testing.T) {
	p, st := newTestProcessor(t, Options{Concurrency: 4})
	ctx := context.Background()
	seedTracks(t, st, "t1", "t2", "t3", "t4", "t5", "t6", "t7", "t8")

	summary, err := p.Run(ctx, model.TaskISWCLookup, 10, func(context.Context, string) (Outcome, error) {
		return Outcome{}, nil
	})
	require.NoError(t, err)
	assert.EqualValues(t, 8, summary.Completed)
}

func TestRun_TruncatesLongErrorMessages(t *testing.T) {
	p, st := newTestProcessor(t, Options{})
	ctx := context.Background()
	seedTracks(t, st, "t1")

	long := make([]byte, 2000)
	for i := range long {
		long[i] = 'x'
	}
	_, err := p.Run(ctx, model.TaskISWCLookup, 10, func(context.Context, string) (Outcome, error) {
		return Outcome{}, errors.New(string(long))
	})
	require.NoError(t, err)

	task, err := st.GetTask(ctx, "t1", model.TaskISWCLookup)
	require.NoError(t, err)
	assert.Len(t, task.ErrorMessage, 500)
}
