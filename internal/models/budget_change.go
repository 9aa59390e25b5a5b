package models

import "time"

// BudgetCategory names one of the four enhanced budget categories.
type BudgetCategory string

const (
	CategoryDirectConstruction BudgetCategory = "direct_construction_costs"
	CategoryPreConstruction    BudgetCategory = "pre_construction_costs"
	CategoryIndirect           BudgetCategory = "indirect_costs"
	CategoryContingency        BudgetCategory = "contingency_reserve"
)

// BudgetTransfer moves ceiling amount between categories. Contingency can be
// drawn through the draw workflow but is never a transfer destination.
type BudgetTransfer struct {
	ID        uint `gorm:"primaryKey"`
	ProjectID uint `gorm:"index;not null"`

	FromCategory BudgetCategory `gorm:"size:40;not null"`
	ToCategory   BudgetCategory `gorm:"size:40;not null"`
	Amount       float64        `gorm:"not null"`
	Reason       string         `gorm:"size:255"`

	Status ApprovalStatus `gorm:"size:20;not null;default:'pending';index"`

	RequestedBy uint `gorm:"not null"`
	ApprovedBy  *uint
	DecidedAt   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

type AdjustmentType string

const (
	AdjustmentIncrease AdjustmentType = "increase"
	AdjustmentDecrease AdjustmentType = "decrease"
)

// BudgetAdjustment raises or lowers a single category's ceiling.
type BudgetAdjustment struct {
	ID        uint `gorm:"primaryKey"`
	ProjectID uint `gorm:"index;not null"`

	Category       BudgetCategory `gorm:"size:40;not null"`
	AdjustmentType AdjustmentType `gorm:"size:20;not null"`
	Amount         float64        `gorm:"not null"`
	Reason         string         `gorm:"size:255"`

	Status ApprovalStatus `gorm:"size:20;not null;default:'pending';index"`

	RequestedBy uint `gorm:"not null"`
	ApprovedBy  *uint
	DecidedAt   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
