package models

import "time"

type Floor struct {
	ID        uint `gorm:"primaryKey"`
	ProjectID uint `gorm:"index;not null"`
	Project   Project
	Number    int    `gorm:"not null;default:0"`
	Name      string `gorm:"size:100"`

	ActualSpending ActualSpending `gorm:"embedded;embeddedPrefix:actual_"`
	CommittedCost  float64        `gorm:"not null;default:0"`

	DeletedAt *time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
