package services

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"clubsphere/internal/errorz"
	"clubsphere/internal/models"
	"clubsphere/internal/policy"
)

// RegistrationService manages event registrations
type RegistrationService struct {
	db       *gorm.DB
	notifier *Notifier
	events   *Publisher
}

func NewRegistrationService(db *gorm.DB, notifier *Notifier, events *Publisher) *RegistrationService {
	return &RegistrationService{db: db, notifier: notifier, events: events}
}

// ListMine returns the registrations of email with their events and clubs
func (s *RegistrationService) ListMine(ctx context.Context, email string) ([]models.EventRegistration, error) {
	var registrations []models.EventRegistration
	err := s.db.WithContext(ctx).
		Preload("Event").
		Preload("Club").
		Where("user_email = ?", email).
		Order("registered_at desc").
		Find(&registrations).Error
	if err != nil {
		return nil, err
	}
	return registrations, nil
}

// ListForEvent returns the registrations of an event whose club is owned by actor
func (s *RegistrationService) ListForEvent(ctx context.Context, actor policy.Actor, eventID string) ([]models.EventRegistration, error) {
	event, err := findEvent(s.db.WithContext(ctx), eventID)
	if err != nil {
		return nil, err
	}
	club, err := findClub(s.db.WithContext(ctx), event.ClubID)
	if err != nil {
		return nil, err
	}
	if err := policy.Evaluate(actor, policy.EventViewRegistrations, policy.Resource{OwnerEmail: club.ManagerEmail}); err != nil {
		return nil, err
	}

	var registrations []models.EventRegistration
	err = s.db.WithContext(ctx).
		Preload("User").
		Where("event_id = ?", event.ID).
		Order("registered_at asc").
		Find(&registrations).Error
	if err != nil {
		return nil, err
	}
	return registrations, nil
}

// Register signs email up for an event.
// The capacity count and the insert run in one transaction holding a row lock
// on the event, so concurrent registrations cannot exceed MaxAttendees.
// created is false when a registration carrying the same paymentID already exists.
func (s *RegistrationService) Register(ctx context.Context, email, eventID, paymentID string) (*models.EventRegistration, bool, error) {
	if eventID == "" {
		return nil, false, errorz.New(errorz.Validation, "Event ID is required")
	}

	var (
		registration *models.EventRegistration
		event        models.Event
		created      bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", eventID).First(&event).Error
		if err != nil {
			return notFoundOr(err, "Event not found")
		}

		var existing models.EventRegistration
		err = tx.Where("user_email = ? AND event_id = ?", email, event.ID).Limit(1).Find(&existing).Error
		if err != nil {
			return err
		}
		if existing.ID != "" {
			if paymentID != "" && derefString(existing.PaymentID) == paymentID {
				registration = &existing
				return nil
			}
			return errorz.New(errorz.Conflict, "You are already registered for this event")
		}

		if event.MaxAttendees != nil && *event.MaxAttendees > 0 {
			var count int64
			err := tx.Model(&models.EventRegistration{}).
				Where("event_id = ? AND status = ?", event.ID, models.RegistrationStatusRegistered).
				Count(&count).Error
			if err != nil {
				return err
			}
			if count >= int64(*event.MaxAttendees) {
				return errorz.New(errorz.CapacityExceeded, "Event is full")
			}
		}

		registration = &models.EventRegistration{
			EventID:      event.ID,
			UserEmail:    email,
			ClubID:       event.ClubID,
			Status:       models.RegistrationStatusRegistered,
			PaymentID:    stringPtr(paymentID),
			RegisteredAt: time.Now().UTC(),
		}
		if err := tx.Create(registration).Error; err != nil {
			if isDuplicate(err) {
				return errorz.New(errorz.Conflict, "You are already registered for this event")
			}
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		s.events.publish(ctx, EventRegistrationCreated, registration)
		clubName := ""
		if club, err := findClub(s.db.WithContext(ctx), event.ClubID); err == nil {
			clubName = club.ClubName
		}
		s.notifier.registrationCreated(ctx, email, &event, clubName)
	}
	return registration, created, nil
}

// Cancel moves a registration to cancelled. Cancelling twice is a no-op.
func (s *RegistrationService) Cancel(ctx context.Context, actor policy.Actor, id string) (*models.EventRegistration, error) {
	var registration models.EventRegistration
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&registration).Error; err != nil {
		return nil, notFoundOr(err, "Registration not found")
	}
	if err := policy.Evaluate(actor, policy.RegistrationCancel, policy.Resource{SubjectEmail: registration.UserEmail}); err != nil {
		return nil, err
	}
	if registration.Status == models.RegistrationStatusCancelled {
		return &registration, nil
	}

	err := s.db.WithContext(ctx).Model(&registration).Update("status", models.RegistrationStatusCancelled).Error
	if err != nil {
		return nil, err
	}
	registration.Status = models.RegistrationStatusCancelled

	s.events.publish(ctx, EventRegistrationCancelled, &registration)
	return &registration, nil
}
