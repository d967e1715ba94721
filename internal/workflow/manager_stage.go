package workflow

import (
	"context"
	"errors"
	"fmt"

	"recipeforge/internal/logging"
	"recipeforge/internal/services"
)

func (m *Manager) executeStage(ctx context.Context, st pipelineStage, id string) error {
	ctx = services.WithStage(ctx, st.name)
	stageLogger := logging.WithContext(ctx, m.logger)

	handler := st.handler
	if handler == nil {
		err := services.Wrap(services.ErrConfiguration, st.name, "execute", "stage handler unavailable", nil)
		m.handleStageFailure(ctx, st.name, id, err)
		return err
	}
	if aware, ok := handler.(loggerAware); ok {
		aware.SetLogger(stageLogger)
	}

	record, err := m.repo.LoadInfo(ctx, id)
	if err != nil {
		return err
	}

	stageStart := m.now()
	stageLogger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("status", string(record.CurrentStatus())),
		logging.Int("original_count", len(record.OriginalImages)),
	)

	if err := handler.Prepare(ctx, record); err != nil {
		m.handleStageFailure(ctx, st.name, id, err)
		return err
	}
	if err := handler.Execute(ctx, record); err != nil {
		if errors.Is(err, context.Canceled) {
			stageLogger.Debug("stage interrupted by cancellation")
			return err
		}
		m.handleStageFailure(ctx, st.name, id, err)
		return err
	}

	if err := m.repo.SetStatus(ctx, id, st.doneStatus, nil); err != nil {
		wrapped := fmt.Errorf("persist stage result: %w", err)
		stageLogger.Error("failed to persist stage result", logging.Error(wrapped))
		return wrapped
	}
	stageLogger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_status", string(st.doneStatus)),
		logging.Duration("stage_duration", m.now().Sub(stageStart)),
	)
	return nil
}

func (m *Manager) notifyCompleted(ctx context.Context, id string) {
	name := ""
	if recipe, err := m.repo.GetRecipe(ctx, id); err == nil {
		name = recipe.Name
	}
	if err := m.notifier.NotifyPipelineCompleted(ctx, id, name); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, m.logger), "completion notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications settings"),
		)
	}
}
