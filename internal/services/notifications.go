package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"clubsphere/internal/logger"
	"clubsphere/internal/models"
)

// SendNotificationTaskName is the scheduled task that delivers NotificationArgs
const SendNotificationTaskName = "send_notification"

const notificationMaxAttempt = 3

// NotificationRecipient is one addressee of a notification
type NotificationRecipient struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// NotificationArgs are the arguments of a send_notification task.
// Template may use $name, $email, $club_name, $event_title and $status.
type NotificationArgs struct {
	Recipients   []NotificationRecipient `json:"recipients"`
	Subject      string                  `json:"subject"`
	Template     string                  `json:"template"`
	ClubName     string                  `json:"club_name"`
	EventTitle   string                  `json:"event_title"`
	Status       string                  `json:"status"`
	AttemptCount int                     `json:"attempt_count"`
}

// Notifier queues e-mail notifications as scheduled tasks for the worker.
// A nil *Notifier queues nothing.
type Notifier struct {
	db *gorm.DB
}

func NewNotifier(db *gorm.DB) *Notifier {
	return &Notifier{db: db}
}

// Enqueue stores a send_notification task due now
func (n *Notifier) Enqueue(ctx context.Context, args NotificationArgs) error {
	if n == nil || len(args.Recipients) == 0 {
		return nil
	}
	task, err := models.BuildScheduledTask(SendNotificationTaskName, args, time.Now().UTC(), nil, models.ScheduledTaskTypeOneTime, notificationMaxAttempt)
	if err != nil {
		return err
	}
	return n.db.WithContext(ctx).Create(task).Error
}

// notify resolves the recipient's display name and enqueues; failures are logged only
func (n *Notifier) notify(ctx context.Context, email string, args NotificationArgs) {
	if n == nil {
		return
	}

	name := email
	var user models.User
	if err := n.db.WithContext(ctx).Select("name").Where("email = ?", email).Take(&user).Error; err == nil && user.Name != "" {
		name = user.Name
	}
	args.Recipients = []NotificationRecipient{{Email: email, Name: name}}

	if err := n.Enqueue(ctx, args); err != nil {
		logger.Named("notifications").Warnw("failed to enqueue notification", "email", email, "subject", args.Subject, "error", err)
	}
}

func (n *Notifier) clubStatusChanged(ctx context.Context, club *models.Club) {
	n.notify(ctx, club.ManagerEmail, NotificationArgs{
		Subject:  "Your club has been reviewed",
		Template: "Hi $name, your club \"$club_name\" has been $status.",
		ClubName: club.ClubName,
		Status:   string(club.Status),
	})
}

func (n *Notifier) membershipJoined(ctx context.Context, email string, club *models.Club) {
	n.notify(ctx, email, NotificationArgs{
		Subject:  "Welcome to " + club.ClubName,
		Template: "Hi $name, you are now a member of $club_name.",
		ClubName: club.ClubName,
		Status:   string(models.MembershipStatusActive),
	})
}

func (n *Notifier) registrationCreated(ctx context.Context, email string, event *models.Event, clubName string) {
	n.notify(ctx, email, NotificationArgs{
		Subject:    "Registration confirmed: " + event.Title,
		Template:   "Hi $name, you are registered for $event_title ($club_name) on " + event.EventDate.Format("Jan 2, 2006 15:04 MST") + ".",
		ClubName:   clubName,
		EventTitle: event.Title,
		Status:     string(models.RegistrationStatusRegistered),
	})
}
