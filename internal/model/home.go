package model

import "time"

// Home represents a monitored household.
type Home struct {
	ID        int64     `gorm:"primaryKey" json:"id"` // Upstream ID from the reading feed
	Name      string    `gorm:"size:128" json:"name"`
	Location  string    `gorm:"size:128" json:"location"`
	CreatedAt time.Time `gorm:"not null" json:"-"`
	UpdatedAt time.Time `gorm:"not null" json:"-"`

	// Associations
	Readings []Reading `gorm:"foreignKey:HomeID" json:"-"`
}
