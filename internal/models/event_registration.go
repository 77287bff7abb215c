package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RegistrationStatus represents the state of an event registration.
// registered -> cancelled is the only transition.
type RegistrationStatus string

const (
	RegistrationStatusRegistered RegistrationStatus = "registered"
	RegistrationStatusCancelled  RegistrationStatus = "cancelled"
)

// EventRegistration is unique per (user, event) whatever its status
type EventRegistration struct {
	ID           string             `gorm:"type:varchar(36);primaryKey" json:"_id"`
	EventID      string             `gorm:"type:varchar(36);not null;uniqueIndex:idx_event_registrations_user_event,priority:2;index" json:"eventId"`
	UserEmail    string             `gorm:"type:varchar(255);not null;uniqueIndex:idx_event_registrations_user_event,priority:1" json:"userEmail"`
	ClubID       string             `gorm:"type:varchar(36);not null;index" json:"clubId"`
	Status       RegistrationStatus `gorm:"type:varchar(20);not null" json:"status"`
	PaymentID    *string            `gorm:"type:varchar(255)" json:"paymentId"`
	RegisteredAt time.Time          `json:"registeredAt"`

	// Relationships
	Event *Event `gorm:"foreignKey:EventID" json:"event,omitempty"`
	Club  *Club  `gorm:"foreignKey:ClubID" json:"club,omitempty"`
	User  *User  `gorm:"foreignKey:UserEmail;references:Email" json:"user,omitempty"`
}

func (r *EventRegistration) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
