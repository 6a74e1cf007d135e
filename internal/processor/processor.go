// Package processor drives a bounded batch of one task type: select eligible
// entities, claim each row, invoke the bound adapter, and record exactly one
// terminal outcome per entity. One entity's failure never aborts the batch.
package processor

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/octave-labs/catalog-cli/internal/model"
	"github.com/octave-labs/catalog-cli/internal/scheduler"
	"github.com/octave-labs/catalog-cli/internal/store"
)

// Outcome is what an adapter produced for one entity. A non-empty SkipReason
// marks the task not applicable (authoritative no-match); otherwise Result is
// stored on completion.
type Outcome struct {
	Result     json.RawMessage
	SkipReason string
}

// EntityFunc is the adapter bound to a task type: a resolver lookup or a
// provisioning collaborator call. Returned errors are retryable failures.
type EntityFunc func(ctx context.Context, entityID string) (Outcome, error)

// Options tunes one processor.
type Options struct {
	// Concurrency is the worker fan-out per batch. 1 processes sequentially.
	Concurrency int
	// CallDelay paces consecutive adapter calls to respect authority quotas.
	CallDelay time.Duration
	// AdapterTimeout bounds each adapter call; a timeout is a retryable failure.
	AdapterTimeout time.Duration
	// MaxRetries is applied when the processor creates a missing task row.
	MaxRetries int
}

// Processor runs batches against the task store.
type Processor struct {
	store   store.Store
	sched   *scheduler.Scheduler
	limiter *rate.Limiter
	opts    Options
}

// Summary is the per-run operator report.
type Summary struct {
	TaskType  model.TaskType `json:"task_type"`
	Selected  int            `json:"selected"`
	Completed int64          `json:"completed"`
	Failed    int64          `json:"failed"`
	Skipped   int64          `json:"skipped"`
	// Contended counts entities whose claim was lost to another worker.
	Contended int64 `json:"contended"`
}

// New builds a processor. Scheduler may not be nil; provisioning task types
// select through it.
func New(st store.Store, sched *scheduler.Scheduler, opts Options) *Processor {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.AdapterTimeout <= 0 {
		opts.AdapterTimeout = 60 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = model.DefaultMaxRetries
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.CallDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.CallDelay), 1)
	}
	return &Processor{store: st, sched: sched, limiter: limiter, opts: opts}
}

// Run processes up to limit entities for tt using fn and returns the summary.
// Selection is dependency-gated for provisioning types, fresh/retry work
// otherwise. Only store/selection failures return an error.
func (p *Processor) Run(ctx context.Context, tt model.TaskType, limit int, fn EntityFunc) (*Summary, error) {
	var (
		ids []string
		err error
	)
	if tt.Provisioning() {
		ids, err = p.sched.EntitiesReady(ctx, tt, limit)
	} else {
		ids, err = p.store.FindEntitiesForTask(ctx, tt, limit)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "processor: select entities for %s", tt)
	}

	summary := &Summary{TaskType: tt, Selected: len(ids)}
	if len(ids) == 0 {
		zap.L().Info("no eligible entities", zap.String("task_type", string(tt)))
		return summary, nil
	}

	zap.L().Info("processing batch",
		zap.String("task_type", string(tt)),
		zap.Int("entities", len(ids)),
		zap.Int("concurrency", p.opts.Concurrency),
	)

	var completed, failed, skipped, contended atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)
	for _, id := range ids {
		g.Go(func() error {
			switch p.processOne(gctx, tt, id, fn) {
			case outcomeCompleted:
				completed.Add(1)
			case outcomeFailed:
				failed.Add(1)
			case outcomeSkipped:
				skipped.Add(1)
			case outcomeContended:
				contended.Add(1)
			}
			return nil // individual outcomes never abort the batch
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "processor: batch")
	}

	summary.Completed = completed.Load()
	summary.Failed = failed.Load()
	summary.Skipped = skipped.Load()
	summary.Contended = contended.Load()

	zap.L().Info("batch complete",
		zap.String("task_type", string(tt)),
		zap.Int("selected", summary.Selected),
		zap.Int64("completed", summary.Completed),
		zap.Int64("failed", summary.Failed),
		zap.Int64("skipped", summary.Skipped),
		zap.Int64("contended", summary.Contended),
	)
	return summary, nil
}

type entityOutcome int

const (
	outcomeCompleted entityOutcome = iota
	outcomeFailed
	outcomeSkipped
	outcomeContended
)

func (p *Processor) processOne(ctx context.Context, tt model.TaskType, entityID string, fn EntityFunc) entityOutcome {
	log := zap.L().With(
		zap.String("task_type", string(tt)),
		zap.String("entity_id", entityID),
	)

	// CreateTask only when no row exists: the upsert resets retry_count, so
	// running it against an existing failed row would defeat the retry bound.
	task, err := p.store.GetTask(ctx, entityID, tt)
	if err != nil {
		log.Error("get task", zap.Error(err))
		return outcomeFailed
	}
	if task == nil {
		if _, err := p.store.CreateTask(ctx, entityID, tt, p.opts.MaxRetries); err != nil {
			log.Error("create task", zap.Error(err))
			return outcomeFailed
		}
	}

	if err := p.store.StartTask(ctx, entityID, tt); err != nil {
		if errors.Is(err, store.ErrAlreadyClaimed) {
			log.Debug("claim lost, skipping entity")
			return outcomeContended
		}
		log.Error("start task", zap.Error(err))
		return outcomeFailed
	}

	if err := p.limiter.Wait(ctx); err != nil {
		p.recordFailure(ctx, tt, entityID, err, log)
		return outcomeFailed
	}

	callCtx, cancel := context.WithTimeout(ctx, p.opts.AdapterTimeout)
	outcome, err := fn(callCtx, entityID)
	cancel()

	switch {
	case err != nil:
		p.recordFailure(ctx, tt, entityID, err, log)
		return outcomeFailed
	case outcome.SkipReason != "":
		if err := p.store.SkipTask(ctx, entityID, tt, outcome.SkipReason); err != nil {
			log.Error("skip task", zap.Error(err))
			return outcomeFailed
		}
		log.Info("task skipped", zap.String("reason", outcome.SkipReason))
		return outcomeSkipped
	default:
		if err := p.store.CompleteTask(ctx, entityID, tt, outcome.Result); err != nil {
			log.Error("complete task", zap.Error(err))
			return outcomeFailed
		}
		log.Info("task completed")
		return outcomeCompleted
	}
}

func (p *Processor) recordFailure(ctx context.Context, tt model.TaskType, entityID string, cause error, log *zap.Logger) {
	log.Warn("task failed", zap.Error(cause))
	msg := cause.Error()
	if len(msg) > 500 {
		msg = msg[:500]
	}
	if err := p.store.FailTask(ctx, entityID, tt, msg); err != nil {
		log.Error("record failure", zap.Error(err))
	}
}
