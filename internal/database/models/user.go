package models

import "time"

type User struct {
	Base
	Name         string `gorm:"not null" json:"name"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Role         Role   `gorm:"type:varchar(20);not null;default:'Lector'" json:"role"`
	IsActive     bool   `gorm:"default:true" json:"is_active"`

	// Set by an admin or by the reset flow; forces a password change
	// before the user may browse anything else.
	MustChangePassword bool `gorm:"default:false" json:"-"`

	// At most one live reset token per user; expiry is checked at
	// consumption time, expired tokens are never proactively deleted.
	ResetToken        string     `gorm:"index" json:"-"`
	ResetTokenExpires *time.Time `json:"-"`

	// Explicit grants. Group and dashboard access are independent axes:
	// a group grant does not imply access to the dashboards inside it.
	Groups     []Group     `gorm:"many2many:user_groups" json:"-"`
	Dashboards []Dashboard `gorm:"many2many:user_dashboards" json:"-"`
}

func (User) TableName() string {
	return "users"
}
