package models

import "time"

type Subcontractor struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:150;not null"`
	Trade     string `gorm:"size:100"`
	Phone     string `gorm:"size:50"`
	DeletedAt *time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type SubcontractorPaymentStatus string

const (
	SubPaymentStatusPending  SubcontractorPaymentStatus = "pending"
	SubPaymentStatusApproved SubcontractorPaymentStatus = "approved"
	SubPaymentStatusPaid     SubcontractorPaymentStatus = "paid"
)

type SubcontractorPayment struct {
	ID              uint  `gorm:"primaryKey"`
	ProjectID       uint  `gorm:"index;not null"`
	PhaseID         *uint `gorm:"index"`
	FloorID         *uint `gorm:"index"`
	SubcontractorID uint  `gorm:"index;not null"`
	Subcontractor   Subcontractor

	Amount      float64   `gorm:"not null"`
	Date        time.Time `gorm:"index;not null"`
	Description string    `gorm:"size:255"`

	Status SubcontractorPaymentStatus `gorm:"size:20;not null;default:'pending';index"`

	RecordedBy uint `gorm:"not null"`

	DeletedAt *time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
