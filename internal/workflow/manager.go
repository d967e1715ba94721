package workflow

import (
	"log/slog"
	"strings"
	"time"

	"recipeforge/internal/config"
	"recipeforge/internal/logging"
	"recipeforge/internal/notifications"
	"recipeforge/internal/recipes"
)

// Manager coordinates pipeline runs for individual recipes.
type Manager struct {
	repo     *recipes.Repository
	stages   []pipelineStage
	logger   *slog.Logger
	notifier notifications.Service
	lockDir  string
	resume   bool
	now      func() time.Time
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithNotifier overrides the notifier built from config.
func WithNotifier(notifier notifications.Service) ManagerOption {
	return func(m *Manager) {
		if notifier != nil {
			m.notifier = notifier
		}
	}
}

// WithLockDir enables per-recipe file locks under dir.
func WithLockDir(dir string) ManagerOption {
	return func(m *Manager) {
		m.lockDir = strings.TrimSpace(dir)
	}
}

// WithResume toggles skipping stages whose completion is already recorded.
func WithResume(enabled bool) ManagerOption {
	return func(m *Manager) {
		m.resume = enabled
	}
}

// WithClock overrides the time source used for durations.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager constructs a workflow manager. Resume and notification settings
// default to the values in cfg.
func NewManager(cfg *config.Config, repo *recipes.Repository, stages StageSet, logger *slog.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		repo:   repo,
		stages: stages.pipeline(),
		logger: logging.NewComponentLogger(logger, "workflow-manager"),
		now:    time.Now,
	}
	if cfg != nil {
		m.resume = cfg.Pipeline.Resume
		m.notifier = notifications.NewService(cfg)
	}
	if m.notifier == nil {
		m.notifier = notifications.NewNoop()
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}
