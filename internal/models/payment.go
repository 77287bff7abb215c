package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentType tells which record a payment pays for
type PaymentType string

const (
	PaymentTypeMembership PaymentType = "membership"
	PaymentTypeEvent      PaymentType = "event"
)

// Valid reports whether t is a known payment type
func (t PaymentType) Valid() bool {
	return t == PaymentTypeMembership || t == PaymentTypeEvent
}

const PaymentStatusCompleted = "completed"

// Payment records a succeeded Stripe payment intent. StripePaymentIntentID is
// the idempotency key; FulfilledAt is set once the membership or registration
// paid for exists.
type Payment struct {
	ID                    string      `gorm:"type:varchar(36);primaryKey" json:"_id"`
	UserEmail             string      `gorm:"type:varchar(255);not null;index" json:"userEmail"`
	Amount                float64     `gorm:"not null" json:"amount"`
	Type                  PaymentType `gorm:"type:varchar(20);not null" json:"type"`
	ClubID                *string     `gorm:"type:varchar(36);index" json:"clubId"`
	EventID               *string     `gorm:"type:varchar(36);index" json:"eventId"`
	StripePaymentIntentID string      `gorm:"type:varchar(255);not null;uniqueIndex" json:"stripePaymentIntentId"`
	Status                string      `gorm:"type:varchar(20);not null" json:"status"`
	FulfilledAt           *time.Time  `gorm:"index" json:"fulfilledAt"`
	CreatedAt             time.Time   `json:"createdAt"`

	// Relationships
	Club  *Club  `gorm:"foreignKey:ClubID" json:"club,omitempty"`
	Event *Event `gorm:"foreignKey:EventID" json:"event,omitempty"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
