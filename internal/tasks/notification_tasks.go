package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"clubsphere/internal/logger"
	"clubsphere/internal/models"
	"clubsphere/internal/services"
)

const notificationRetryDelay = 5 * time.Minute

// SendNotificationTaskDef e-mails a rendered template to every recipient of the task.
// Recipients that fail are moved to a new task due after notificationRetryDelay,
// until the attempt count reaches the task's MaxAttempt.
type SendNotificationTaskDef struct {
	db     *gorm.DB
	mailer services.Mailer
	now    func() time.Time
}

func NewSendNotificationTask(db *gorm.DB, mailer services.Mailer) *SendNotificationTaskDef {
	return &SendNotificationTaskDef{db: db, mailer: mailer, now: func() time.Time { return time.Now().UTC() }}
}

func (t *SendNotificationTaskDef) TaskID() string {
	return services.SendNotificationTaskName
}

func (t *SendNotificationTaskDef) HandleExecution(ctx context.Context, task models.ScheduledTask) (map[string]interface{}, error) {
	var args services.NotificationArgs
	if err := task.DecodeArguments(&args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPermanent, err)
	}
	if args.Template == "" {
		return nil, fmt.Errorf("%w: template is missing", ErrPermanent)
	}
	if t.mailer == nil {
		return nil, fmt.Errorf("%w: no mailer configured", ErrPermanent)
	}

	log := logger.Named("notifications")
	subject := args.Subject
	if subject == "" {
		subject = "ClubSphere notification"
	}

	var (
		sent     int
		failures []string
		failed   []services.NotificationRecipient
	)
	for _, recipient := range args.Recipients {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if recipient.Email == "" {
			continue
		}

		body := renderTemplate(args.Template, recipient, args)
		if err := t.mailer.SendEmail([]string{recipient.Email}, subject, body); err != nil {
			log.Warnw("failed to send notification", "email", recipient.Email, "subject", subject, "error", err)
			failures = append(failures, fmt.Sprintf("%s: %v", recipient.Email, err))
			failed = append(failed, recipient)
			continue
		}
		sent++
	}

	result := map[string]interface{}{
		"total":   len(args.Recipients),
		"success": sent,
		"failure": len(failed),
	}
	if len(failed) == 0 {
		return result, nil
	}
	result["errors"] = failures

	if args.AttemptCount+1 >= task.MaxAttempt {
		return result, fmt.Errorf("%w: max attempts reached, failed to deliver to %d recipients", ErrPermanent, len(failed))
	}

	retry := args
	retry.Recipients = failed
	retry.AttemptCount = args.AttemptCount + 1
	next, err := models.BuildScheduledTask(t.TaskID(), retry, t.now().Add(notificationRetryDelay), nil, models.ScheduledTaskTypeOneTime, task.MaxAttempt)
	if err != nil {
		return result, err
	}
	if err := t.db.WithContext(ctx).Create(next).Error; err != nil {
		return result, fmt.Errorf("failed to create retry task: %w", err)
	}
	log.Infow("rescheduled failed recipients", "count", len(failed), "attempt", retry.AttemptCount, "retryTaskId", next.ID)
	result["retryTaskId"] = next.ID
	return result, nil
}

// renderTemplate substitutes $name, $email, $club_name, $event_title and $status
func renderTemplate(template string, recipient services.NotificationRecipient, args services.NotificationArgs) string {
	name := recipient.Name
	if name == "" {
		name = recipient.Email
	}
	return strings.NewReplacer(
		"$name", name,
		"$email", recipient.Email,
		"$club_name", args.ClubName,
		"$event_title", args.EventTitle,
		"$status", args.Status,
	).Replace(template)
}
