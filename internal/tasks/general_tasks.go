package tasks

import (
	"context"

	"clubsphere/internal/logger"
	"clubsphere/internal/models"
)

// LogInfoTaskDef writes its "message" argument to the worker log. Useful to check a worker is alive.
type LogInfoTaskDef struct{}

func (t *LogInfoTaskDef) TaskID() string {
	return "log_info"
}

func (t *LogInfoTaskDef) HandleExecution(ctx context.Context, task models.ScheduledTask) (map[string]interface{}, error) {
	message, ok := task.Arguments["message"].(string)
	if !ok {
		message = "No message provided"
	}
	logger.Named("worker").Infow("log_info", "taskId", task.ID, "message", message)

	return map[string]interface{}{
		"status":  "success",
		"message": message,
	}, nil
}

var LogInfoTask = &LogInfoTaskDef{}
