package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type RoomModel struct {
	ID        string    `gorm:"primaryKey"`
	Name      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

type SavedItemModel struct {
	ID         string         `gorm:"primaryKey"`
	RoomID     string         `gorm:"not null;index"`
	Label      string         `gorm:"not null"`
	Confidence float64        `gorm:"not null"`
	Detection  datatypes.JSON `gorm:"not null"`
	Product    datatypes.JSON `gorm:"not null"`
	ImageURL   string
	SavedAt    time.Time `gorm:"not null;index"`
}
