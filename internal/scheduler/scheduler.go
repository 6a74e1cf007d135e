// Package scheduler answers "which entities are ready for task X" from the
// static prerequisite mapping. The mapping is a linear chain per entity
// category today; if a task type ever grows a second prerequisite this
// package is where a topological sort would land.
package scheduler

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/octave-labs/catalog-cli/internal/model"
	"github.com/octave-labs/catalog-cli/internal/store"
)

// Scheduler computes dependency-gated eligibility against the task store.
type Scheduler struct {
	store store.Store
	deps  map[model.TaskType]model.TaskType
}

// New builds a scheduler over the build-time prerequisite map.
func New(st store.Store) (*Scheduler, error) {
	if err := validate(model.Prerequisites); err != nil {
		return nil, err
	}
	return &Scheduler{store: st, deps: model.Prerequisites}, nil
}

// Prerequisite returns the task type that must complete before tt, if any.
func (s *Scheduler) Prerequisite(tt model.TaskType) (model.TaskType, bool) {
	p, ok := s.deps[tt]
	return p, ok
}

// EntitiesReady returns entity ids whose prerequisite for tt is completed
// (or that have no prerequisite) and that have no completed or in-flight row
// for tt. Retries of failed rows go through FindEntitiesForTask instead.
func (s *Scheduler) EntitiesReady(ctx context.Context, tt model.TaskType, limit int) ([]string, error) {
	prereq := s.deps[tt]
	ids, err := s.store.EntitiesReady(ctx, tt, prereq, limit)
	return ids, eris.Wrapf(err, "scheduler: entities ready for %s", tt)
}

// validate rejects cycles in the prerequisite map. With a linear chain this
// can only fire on a bad edit, but it is cheap to keep honest.
func validate(deps map[model.TaskType]model.TaskType) error {
	for start := range deps {
		seen := map[model.TaskType]bool{start: true}
		cur := start
		for {
			next, ok := deps[cur]
			if !ok {
				break
			}
			if seen[next] {
				return eris.Errorf("scheduler: prerequisite cycle through %s", next)
			}
			seen[next] = true
			cur = next
		}
	}
	return nil
}
