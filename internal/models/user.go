package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the authorization role stored on a user
type Role string

const (
	RoleMember      Role = "member"
	RoleClubManager Role = "clubManager"
	RoleAdmin       Role = "admin"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleClubManager, RoleAdmin:
		return true
	}
	return false
}

// User is keyed by email; Firebase owns the credentials
type User struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"_id"`
	Email     string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Name      string    `gorm:"type:varchar(255)" json:"name"`
	PhotoURL  string    `gorm:"type:text" json:"photoURL"`
	Role      Role      `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleMember
	}
	return nil
}
