package services

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"clubsphere/internal/errorz"
	"clubsphere/internal/models"
	"clubsphere/internal/policy"
)

// EventService manages club events
type EventService struct {
	db    *gorm.DB
	audit *AuditLogger
	now   func() time.Time
}

func NewEventService(db *gorm.DB, audit *AuditLogger) *EventService {
	return &EventService{db: db, audit: audit, now: func() time.Time { return time.Now().UTC() }}
}

// EventFilter narrows the upcoming event listing
type EventFilter struct {
	Search string
	ClubID string
	Sort   string // earliest (default), latest, newest
}

type CreateEventInput struct {
	ClubID       string  `json:"clubId" validate:"required"`
	Title        string  `json:"title" validate:"required"`
	Description  string  `json:"description" validate:"required"`
	EventDate    string  `json:"eventDate" validate:"required"`
	Location     string  `json:"location" validate:"required"`
	IsPaid       bool    `json:"isPaid"`
	EventFee     float64 `json:"eventFee"`
	MaxAttendees *int    `json:"maxAttendees"`
}

// UpdateEventInput holds the fields to overwrite; nil fields are left unchanged.
// MaxAttendees 0 removes the cap.
type UpdateEventInput struct {
	Title        *string  `json:"title"`
	Description  *string  `json:"description"`
	EventDate    *string  `json:"eventDate"`
	Location     *string  `json:"location"`
	IsPaid       *bool    `json:"isPaid"`
	EventFee     *float64 `json:"eventFee"`
	MaxAttendees *int     `json:"maxAttendees"`
}

var eventDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseEventDate accepts RFC 3339 as well as the datetime-local and date forms sent by browsers.
// Values without a zone are read as UTC.
func ParseEventDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errorz.New(errorz.Validation, "Invalid event date")
}

// ListUpcoming returns events that have not started yet
func (s *EventService) ListUpcoming(ctx context.Context, filter EventFilter) ([]models.Event, error) {
	query := s.db.WithContext(ctx).Where("event_date >= ?", s.now())

	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where(`LOWER(title) LIKE ? ESCAPE '\'`, likePattern(search))
	}
	if filter.ClubID != "" {
		query = query.Where("club_id = ?", filter.ClubID)
	}

	switch filter.Sort {
	case "latest":
		query = query.Order("event_date desc")
	case "newest":
		query = query.Order("created_at desc")
	default:
		query = query.Order("event_date asc")
	}

	var events []models.Event
	if err := query.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// ListByClub returns every event of a club by date
func (s *EventService) ListByClub(ctx context.Context, clubID string) ([]models.Event, error) {
	var events []models.Event
	err := s.db.WithContext(ctx).
		Where("club_id = ?", clubID).
		Order("event_date asc").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// ListByManager returns the events of every club managed by email
func (s *EventService) ListByManager(ctx context.Context, email string) ([]models.Event, error) {
	var events []models.Event
	err := s.db.WithContext(ctx).
		Where("club_id IN (?)", s.db.Model(&models.Club{}).Select("id").Where("manager_email = ?", email)).
		Order("event_date asc").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// Get returns an event by id
func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	return findEvent(s.db.WithContext(ctx), id)
}

// Create adds an event to a club owned by actor
func (s *EventService) Create(ctx context.Context, actor policy.Actor, input CreateEventInput) (*models.Event, error) {
	if err := validateInput(input, "All required fields must be provided"); err != nil {
		return nil, err
	}

	club, err := s.ownedClub(ctx, actor, input.ClubID, policy.EventCreate)
	if err != nil {
		return nil, err
	}

	eventDate, err := ParseEventDate(input.EventDate)
	if err != nil {
		return nil, err
	}

	event := &models.Event{
		ClubID:      club.ID,
		Title:       input.Title,
		Description: input.Description,
		EventDate:   eventDate,
		Location:    input.Location,
		IsPaid:      input.IsPaid,
	}
	if event.IsPaid {
		event.EventFee = input.EventFee
	}
	if input.MaxAttendees != nil && *input.MaxAttendees != 0 {
		event.MaxAttendees = input.MaxAttendees
	}
	if err := checkEventNumbers(event); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return nil, err
	}
	return event, nil
}

// Update overwrites the supplied fields of an event whose club is owned by actor
func (s *EventService) Update(ctx context.Context, actor policy.Actor, id string, input UpdateEventInput) (*models.Event, error) {
	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedClub(ctx, actor, event.ClubID, policy.EventUpdate); err != nil {
		return nil, err
	}

	if input.Title != nil && *input.Title != "" {
		event.Title = *input.Title
	}
	if input.Description != nil && *input.Description != "" {
		event.Description = *input.Description
	}
	if input.Location != nil && *input.Location != "" {
		event.Location = *input.Location
	}
	if input.EventDate != nil && *input.EventDate != "" {
		if event.EventDate, err = ParseEventDate(*input.EventDate); err != nil {
			return nil, err
		}
	}
	if input.IsPaid != nil {
		event.IsPaid = *input.IsPaid
	}
	if input.EventFee != nil {
		event.EventFee = *input.EventFee
	}
	if !event.IsPaid {
		event.EventFee = 0
	}
	if input.MaxAttendees != nil {
		event.MaxAttendees = input.MaxAttendees
		if *input.MaxAttendees == 0 {
			event.MaxAttendees = nil
		}
	}
	if err := checkEventNumbers(event); err != nil {
		return nil, err
	}
	event.UpdatedAt = s.now()

	err = s.db.WithContext(ctx).Model(event).Select(
		"title", "description", "location", "event_date", "is_paid", "event_fee", "max_attendees", "updated_at",
	).Updates(event).Error
	if err != nil {
		return nil, err
	}
	return event, nil
}

// Delete removes an event whose club is owned by actor
func (s *EventService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	event, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.ownedClub(ctx, actor, event.ClubID, policy.EventDelete); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(event).Error; err != nil {
		return err
	}
	s.audit.record(ctx, "event", event.ID, "deleted", actor.Email, map[string]string{"title": event.Title, "clubId": event.ClubID})
	return nil
}

// ownedClub loads the club and checks that actor may perform action on it
func (s *EventService) ownedClub(ctx context.Context, actor policy.Actor, clubID string, action policy.Action) (*models.Club, error) {
	club, err := findClub(s.db.WithContext(ctx), clubID)
	if err != nil {
		return nil, err
	}
	if err := policy.Evaluate(actor, action, policy.Resource{OwnerEmail: club.ManagerEmail}); err != nil {
		return nil, err
	}
	return club, nil
}

func checkEventNumbers(event *models.Event) error {
	if event.EventFee < 0 {
		return errorz.New(errorz.Validation, "Event fee cannot be negative")
	}
	if event.MaxAttendees != nil && *event.MaxAttendees < 0 {
		return errorz.New(errorz.Validation, "Max attendees cannot be negative")
	}
	return nil
}

func findEvent(db *gorm.DB, id string) (*models.Event, error) {
	var event models.Event
	if err := db.Where("id = ?", id).First(&event).Error; err != nil {
		return nil, notFoundOr(err, "Event not found")
	}
	return &event, nil
}
