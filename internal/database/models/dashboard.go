package models

import "github.com/google/uuid"

type Dashboard struct {
	Base
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	EmbedURL    string `gorm:"type:text;not null" json:"embed_url"`

	// PreviewImage is the generated storage key; PreviewImageName keeps
	// the filename the admin uploaded so listings can show it.
	PreviewImage     string `json:"preview_image"`
	PreviewImageName string `json:"preview_image_name"`

	IsActive bool `gorm:"default:true" json:"is_active"`
	Orden    int  `gorm:"default:0" json:"orden"`

	// A dashboard belongs to at most one group.
	GroupID *uuid.UUID `gorm:"type:uuid;index" json:"group_id"`
	Group   *Group     `gorm:"foreignKey:GroupID" json:"group,omitempty"`
}

func (Dashboard) TableName() string {
	return "dashboards"
}
