package models

import "time"

type LabourBatchStatus string

const (
	LabourStatusPending  LabourBatchStatus = "pending"
	LabourStatusApproved LabourBatchStatus = "approved"
	LabourStatusPaid     LabourBatchStatus = "paid"
)

// LabourBatch: a period of labour cost (e.g. weekly wages) recorded as one
// leaf record.
type LabourBatch struct {
	ID        uint  `gorm:"primaryKey"`
	ProjectID uint  `gorm:"index;not null"`
	PhaseID   *uint `gorm:"index"`
	FloorID   *uint `gorm:"index"`

	PeriodStart time.Time `gorm:"not null"`
	PeriodEnd   time.Time `gorm:"not null"`
	WorkerCount int       `gorm:"not null;default:0"`
	TotalCost   float64   `gorm:"not null"`
	Description string    `gorm:"size:255"`

	Status LabourBatchStatus `gorm:"size:20;not null;default:'pending';index"`

	RecordedBy uint `gorm:"not null"`

	DeletedAt *time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
