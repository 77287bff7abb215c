package tasks

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"clubsphere/internal/logger"
	"clubsphere/internal/models"
)

const (
	FulfillPaymentsTaskName = "fulfill_payments"

	// every ten minutes
	fulfillPaymentsRule = "FREQ=MINUTELY;INTERVAL=10"
)

// FulfillPaymentsTaskDef reconciles recorded payments whose membership or registration was never created
type FulfillPaymentsTaskDef struct {
	payments PaymentFulfiller
}

func NewFulfillPaymentsTask(payments PaymentFulfiller) *FulfillPaymentsTaskDef {
	return &FulfillPaymentsTaskDef{payments: payments}
}

func (t *FulfillPaymentsTaskDef) TaskID() string {
	return FulfillPaymentsTaskName
}

func (t *FulfillPaymentsTaskDef) HandleExecution(ctx context.Context, task models.ScheduledTask) (map[string]interface{}, error) {
	report, err := t.payments.FulfillPending(ctx)
	if err != nil {
		return nil, err
	}

	if report.Failed > 0 {
		logger.Named("worker").Warnw("some payments are still unfulfilled", "failed", report.Failed, "errors", report.Errors)
	}
	result := map[string]interface{}{
		"pending":   report.Pending,
		"fulfilled": report.Fulfilled,
		"failed":    report.Failed,
	}
	if len(report.Errors) > 0 {
		result["errors"] = report.Errors
	}
	return result, nil
}

// EnsureFulfillPaymentsTask creates the recurring fulfill_payments task unless an active one exists
func EnsureFulfillPaymentsTask(ctx context.Context, db *gorm.DB) (*models.ScheduledTask, error) {
	var existing models.ScheduledTask
	err := db.WithContext(ctx).
		Where("task_name = ? AND status = ?", FulfillPaymentsTaskName, models.ScheduledTaskStatusActive).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	rule := fulfillPaymentsRule
	task, err := models.BuildScheduledTask(FulfillPaymentsTaskName, map[string]interface{}{}, time.Now().UTC(), &rule, models.ScheduledTaskTypeRecurring, 3)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Create(task).Error; err != nil {
		return nil, err
	}
	return task, nil
}
