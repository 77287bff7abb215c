package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClubStatus represents the review state of a club
type ClubStatus string

const (
	ClubStatusPending  ClubStatus = "pending"
	ClubStatusApproved ClubStatus = "approved"
	ClubStatusRejected ClubStatus = "rejected"
)

// Club is a student club owned by the manager identified by ManagerEmail
type Club struct {
	ID            string     `gorm:"type:varchar(36);primaryKey" json:"_id"`
	ClubName      string     `gorm:"type:varchar(255);not null" json:"clubName"`
	Description   string     `gorm:"type:text" json:"description"`
	Category      string     `gorm:"type:varchar(100);index" json:"category"`
	Location      string     `gorm:"type:varchar(255)" json:"location"`
	BannerImage   string     `gorm:"type:text" json:"bannerImage"`
	MembershipFee float64    `gorm:"not null;default:0" json:"membershipFee"`
	Status        ClubStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	ManagerEmail  string     `gorm:"type:varchar(255);not null;index" json:"managerEmail"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (c *Club) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// IsPaid reports whether joining requires a payment
func (c *Club) IsPaid() bool {
	return c.MembershipFee > 0
}
