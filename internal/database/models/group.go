package models

type Group struct {
	Base
	Name     string `gorm:"not null" json:"name"`
	Image    string `json:"image"` // upload storage key for the card image
	Orden    int    `gorm:"default:0" json:"orden"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	Dashboards []Dashboard `gorm:"foreignKey:GroupID" json:"-"`
}

func (Group) TableName() string {
	return "groups"
}
