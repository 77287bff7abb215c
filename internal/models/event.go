package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event belongs to a club. MaxAttendees nil means unlimited.
type Event struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"_id"`
	ClubID       string    `gorm:"type:varchar(36);not null;index" json:"clubId"`
	Title        string    `gorm:"type:varchar(255);not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	EventDate    time.Time `gorm:"not null;index" json:"eventDate"`
	Location     string    `gorm:"type:varchar(255)" json:"location"`
	IsPaid       bool      `gorm:"not null;default:false" json:"isPaid"`
	EventFee     float64   `gorm:"not null;default:0" json:"eventFee"`
	MaxAttendees *int      `json:"maxAttendees"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// RequiresPayment reports whether registration goes through a payment intent
func (e *Event) RequiresPayment() bool {
	return e.IsPaid && e.EventFee > 0
}
