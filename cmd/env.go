package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/octave-labs/catalog-cli/internal/processor"
	"github.com/octave-labs/catalog-cli/internal/resolver"
	"github.com/octave-labs/catalog-cli/internal/scheduler"
	"github.com/octave-labs/catalog-cli/internal/store"
)

// appEnv bundles the shared wiring every command needs: the task store, the
// dependency scheduler, and a batch processor tuned from config.
type appEnv struct {
	Store     store.Store
	Scheduler *scheduler.Scheduler
	Processor *processor.Processor
}

// initEnv opens the configured store and builds the core components.
// Configuration problems here are fatal: nothing has touched the task store
// yet, so failing the whole run is safe.
func initEnv(ctx context.Context) (*appEnv, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite", "":
		st, err = store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	sched, err := scheduler.New(st)
	if err != nil {
		st.Close()
		return nil, err
	}

	proc := processor.New(st, sched, processor.Options{
		Concurrency:    cfg.Batch.Concurrency,
		CallDelay:      time.Duration(cfg.Batch.CallDelayMillis) * time.Millisecond,
		AdapterTimeout: time.Duration(cfg.Batch.AdapterTimeoutSecs) * time.Second,
		MaxRetries:     cfg.Batch.MaxRetries,
	})

	return &appEnv{Store: st, Scheduler: sched, Processor: proc}, nil
}

func (e *appEnv) Close() {
	_ = e.Store.Close()
}

// resolverConfig loads the chains file when configured, otherwise defaults,
// and lets the flat config override the failure TTL.
func resolverConfig() (*resolver.Config, error) {
	rc := resolver.DefaultConfig()
	if cfg.Resolver.ChainsFile != "" {
		loaded, err := resolver.LoadConfig(cfg.Resolver.ChainsFile)
		if err != nil {
			return nil, err
		}
		rc = loaded
	}
	if cfg.Resolver.FailureTTLHours > 0 {
		rc.FailureTTLHours = cfg.Resolver.FailureTTLHours
	}
	return rc, nil
}
