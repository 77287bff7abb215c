package tasks

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"clubsphere/internal/logger"
	"clubsphere/internal/models"
)

const (
	historySuccess         = "success"
	historyFailure         = "failure"
	historyHandlerNotFound = "handler_not_found"
)

// Runner executes the scheduled tasks that are due
type Runner struct {
	db       *gorm.DB
	registry *Registry
	log      *zap.SugaredLogger
	now      func() time.Time
}

func NewRunner(db *gorm.DB, registry *Registry) *Runner {
	return &Runner{
		db:       db,
		registry: registry,
		log:      logger.Named("worker"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run processes due tasks now and then on every tick of interval until ctx is done
func (r *Runner) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.tick(ctx)
	for {
		select {
		case <-ticker.C:
			r.tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (r *Runner) tick(ctx context.Context) {
	if _, err := r.RunDue(ctx); err != nil && !errors.Is(err, context.Canceled) {
		r.log.Errorw("failed to process scheduled tasks", "error", err)
	}
}

// RunDue executes every active task whose due date has passed and returns how many ran
func (r *Runner) RunDue(ctx context.Context) (int, error) {
	var due []models.ScheduledTask
	err := r.db.WithContext(ctx).
		Where("status = ? AND due <= ?", models.ScheduledTaskStatusActive, r.now()).
		Order("due asc").
		Find(&due).Error
	if err != nil {
		return 0, err
	}
	if len(due) == 0 {
		r.log.Debug("no pending tasks")
		return 0, nil
	}
	r.log.Infow("found pending tasks", "count", len(due))

	ran := 0
	for _, task := range due {
		if ctx.Err() != nil {
			return ran, ctx.Err()
		}
		if err := r.execute(ctx, task); err != nil {
			r.log.Errorw("failed to store task outcome", "taskId", task.ID, "task", task.TaskName, "error", err)
		}
		ran++
	}
	return ran, nil
}

// execute runs one task, records a history row and moves the task to its next state.
// A failed task stays active until it has used MaxAttempt attempts; ErrPermanent fails it at once.
func (r *Runner) execute(ctx context.Context, task models.ScheduledTask) error {
	log := r.log.With("taskId", task.ID, "task", task.TaskName)
	startTime := r.now()
	attempt := task.Attempts + 1

	handler, found := r.registry.Get(task.TaskName)
	if !found {
		log.Warn("task handler not found, marking as failure")
		return r.finish(ctx, task, models.ScheduledTaskHistory{
			RunAt:         startTime,
			Status:        historyHandlerNotFound,
			AttemptNumber: attempt,
			Result:        map[string]interface{}{"error": "Handler not found"},
		}, map[string]interface{}{
			"status":   models.ScheduledTaskStatusFailure,
			"attempts": attempt,
			"last_run": startTime,
		})
	}

	result, err := handler(ctx, task)
	history := models.ScheduledTaskHistory{
		RunAt:         startTime,
		RuntimeMs:     time.Since(startTime).Milliseconds(),
		Status:        historySuccess,
		AttemptNumber: attempt,
		Result:        result,
	}
	updates := map[string]interface{}{"last_run": startTime}

	if err != nil {
		log.Warnw("task failed", "attempt", attempt, "error", err)
		history.Status = historyFailure
		if history.Result == nil {
			history.Result = map[string]interface{}{}
		}
		history.Result["error"] = err.Error()

		updates["attempts"] = attempt
		if errors.Is(err, ErrPermanent) || attempt >= task.MaxAttempt {
			updates["status"] = models.ScheduledTaskStatusFailure
		}
		return r.finish(ctx, task, history, updates)
	}

	log.Infow("task completed", "runtimeMs", history.RuntimeMs)
	updates["attempts"] = 0
	switch task.TaskType {
	case models.ScheduledTaskTypeRecurring:
		// a rule without further occurrences ends the task
		next := task.NextDue(startTime)
		if next.After(startTime) {
			updates["due"] = next
		} else {
			updates["status"] = models.ScheduledTaskStatusDone
		}
	default:
		updates["status"] = models.ScheduledTaskStatusDone
	}
	return r.finish(ctx, task, history, updates)
}

func (r *Runner) finish(ctx context.Context, task models.ScheduledTask, history models.ScheduledTaskHistory, updates map[string]interface{}) error {
	history.ScheduledTaskID = task.ID
	history.TaskName = task.TaskName
	history.Arguments = task.Arguments

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&history).Error; err != nil {
			return err
		}
		return tx.Model(&models.ScheduledTask{}).Where("id = ?", task.ID).Updates(updates).Error
	})
}
