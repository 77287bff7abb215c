package tasks

import (
	"context"

	"gorm.io/gorm"

	"clubsphere/internal/services"
)

// PaymentFulfiller retries payments that were recorded without their membership or registration
type PaymentFulfiller interface {
	FulfillPending(ctx context.Context) (*services.FulfillReport, error)
}

// Dependencies are the collaborators task handlers run against
type Dependencies struct {
	DB       *gorm.DB
	Mailer   services.Mailer
	Payments PaymentFulfiller
}

// DefineTasks registers all available tasks on r
func DefineTasks(r *Registry, deps Dependencies) {
	r.Register(LogInfoTask.TaskID(), LogInfoTask.HandleExecution)

	notifications := NewSendNotificationTask(deps.DB, deps.Mailer)
	r.Register(notifications.TaskID(), notifications.HandleExecution)

	if deps.Payments != nil {
		fulfill := NewFulfillPaymentsTask(deps.Payments)
		r.Register(fulfill.TaskID(), fulfill.HandleExecution)
	}
}
