package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLog is append-only: rows are never updated or deleted. UserName
// is denormalized so the entry survives the actor's removal.
type AuditLog struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	Timestamp time.Time  `gorm:"not null;index" json:"timestamp"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	UserName  string     `json:"user_name"`
	Action    string     `gorm:"not null" json:"action"`
	Details   string     `gorm:"type:text" json:"details"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

func (l *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.Timestamp.IsZero() {
		l.Timestamp = time.Now()
	}
	return nil
}
