package workflow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"recipeforge/internal/logging"
	"recipeforge/internal/services"
)

// Run executes every pending stage for the recipe in order and stops at the
// first failure. Without resume the pipeline restarts from extraction.
func (m *Manager) Run(ctx context.Context, id string) (Result, error) {
	result := Result{RecipeID: id}
	start := m.now()

	unlock, err := m.acquire(id)
	if err != nil {
		return result, err
	}
	defer unlock()

	ctx = services.WithRequestID(services.WithRecipeID(ctx, id), uuid.NewString())
	logger := logging.WithContext(ctx, m.logger)

	record, err := m.repo.LoadInfo(ctx, id)
	if err != nil {
		return result, err
	}

	first := 0
	if m.resume {
		first = resumeIndex(m.stages, record)
	}
	for _, st := range m.stages[:first] {
		result.Skipped = append(result.Skipped, st.name)
	}
	logger.Info("pipeline started",
		logging.String(logging.FieldEventType, "pipeline_start"),
		logging.String("status", string(record.CurrentStatus())),
		logging.Bool("resume", m.resume),
		logging.Int("skipped_stages", first),
	)

	for _, st := range m.stages[first:] {
		if err := ctx.Err(); err != nil {
			result.Duration = m.now().Sub(start)
			return result, err
		}
		if err := m.executeStage(ctx, st, id); err != nil {
			result.Duration = m.now().Sub(start)
			return result, err
		}
		result.Completed = append(result.Completed, st.name)
	}

	result.Duration = m.now().Sub(start)
	logger.Info("pipeline completed",
		logging.String(logging.FieldEventType, "pipeline_complete"),
		logging.Int("completed_stages", len(result.Completed)),
		logging.Duration("pipeline_duration", result.Duration),
	)
	m.notifyCompleted(ctx, id)
	return result, nil
}

// RunStage executes one named stage with the same persistence as Run.
func (m *Manager) RunStage(ctx context.Context, id, name string) (Result, error) {
	result := Result{RecipeID: id}
	st, ok := m.stageByName(name)
	if !ok {
		return result, services.Wrap(services.ErrValidation, name, "run stage",
			fmt.Sprintf("unknown stage %q", name), nil)
	}

	start := m.now()
	unlock, err := m.acquire(id)
	if err != nil {
		return result, err
	}
	defer unlock()

	ctx = services.WithRequestID(services.WithRecipeID(ctx, id), uuid.NewString())
	err = m.executeStage(ctx, st, id)
	result.Duration = m.now().Sub(start)
	if err != nil {
		return result, err
	}
	result.Completed = []string{st.name}
	if st.name == m.stages[len(m.stages)-1].name {
		m.notifyCompleted(ctx, id)
	}
	return result, nil
}

func (m *Manager) stageByName(name string) (pipelineStage, bool) {
	for _, st := range m.stages {
		if st.name == name {
			return st, true
		}
	}
	return pipelineStage{}, false
}

// acquire takes the per-recipe file lock when a lock directory is configured.
func (m *Manager) acquire(id string) (func(), error) {
	if m.lockDir == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(m.lockDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrStorage, "workflow", "create lock dir", m.lockDir, err)
	}
	path := filepath.Join(m.lockDir, filepath.Base(id)+".lock")
	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "workflow", "acquire lock", path, err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrConflict, "workflow", "acquire lock",
			fmt.Sprintf("recipe %s is already being processed", id), nil)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			m.logger.Warn("failed to release recipe lock", logging.String("lock_path", path), logging.Error(err))
		}
	}, nil
}
