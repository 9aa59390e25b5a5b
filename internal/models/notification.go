package models

import "time"

// Notification: in-app notification row. Delivery is best effort; a failed
// write never blocks or reverses the financial decision that produced it.
type Notification struct {
	ID        uint  `gorm:"primaryKey"`
	UserID    uint  `gorm:"index;not null"`
	ProjectID *uint `gorm:"index"`

	Title   string `gorm:"size:150;not null"`
	Message string `gorm:"size:500"`
	Read    bool   `gorm:"not null;default:false"`

	CreatedAt time.Time
}
