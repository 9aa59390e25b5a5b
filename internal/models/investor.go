package models

import "time"

type Investor struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:150;not null"`
	Email     string `gorm:"size:100"`
	Phone     string `gorm:"size:50"`
	DeletedAt *time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Allocations []InvestorAllocation
}

// InvestorAllocation: capital an investor has committed to one project.
// A project's capitalBalance is the sum of its active allocations.
type InvestorAllocation struct {
	ID         uint `gorm:"primaryKey"`
	InvestorID uint `gorm:"index;not null"`
	ProjectID  uint `gorm:"index;not null"`

	Amount float64   `gorm:"not null"`
	Date   time.Time `gorm:"not null"`

	DeletedAt *time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
