package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MembershipStatus represents the status of a club membership
type MembershipStatus string

const (
	MembershipStatusActive  MembershipStatus = "active"
	MembershipStatusExpired MembershipStatus = "expired"
)

// Membership links a user to a club. One row per (user, club).
type Membership struct {
	ID        string           `gorm:"type:varchar(36);primaryKey" json:"_id"`
	UserEmail string           `gorm:"type:varchar(255);not null;uniqueIndex:idx_memberships_user_club,priority:1" json:"userEmail"`
	ClubID    string           `gorm:"type:varchar(36);not null;uniqueIndex:idx_memberships_user_club,priority:2;index" json:"clubId"`
	Status    MembershipStatus `gorm:"type:varchar(20);not null" json:"status"`
	PaymentID *string          `gorm:"type:varchar(255)" json:"paymentId"`
	JoinedAt  time.Time        `json:"joinedAt"`
	ExpiresAt *time.Time       `json:"expiresAt"`

	// Relationships
	Club *Club `gorm:"foreignKey:ClubID" json:"club,omitempty"`
	User *User `gorm:"foreignKey:UserEmail;references:Email" json:"user,omitempty"`
}

func (m *Membership) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
