package models

import "time"

type ContingencyDrawType string

const (
	DrawTypeDesign        ContingencyDrawType = "design"
	DrawTypeConstruction  ContingencyDrawType = "construction"
	DrawTypeOwnersReserve ContingencyDrawType = "owners_reserve"
)

type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

type ContingencyDraw struct {
	ID        uint `gorm:"primaryKey"`
	ProjectID uint `gorm:"index;not null"`
	Project   Project

	DrawType ContingencyDrawType `gorm:"size:20;not null"`
	Amount   float64             `gorm:"not null"`
	Reason   string              `gorm:"size:255"`

	Status ApprovalStatus `gorm:"size:20;not null;default:'pending';index"`

	RequestedBy uint `gorm:"not null"`
	ApprovedBy  *uint
	DecidedAt   *time.Time

	DeletedAt *time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
