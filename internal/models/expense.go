package models

import "time"

type ExpenseStatus string

const (
	ExpenseStatusPending  ExpenseStatus = "pending"
	ExpenseStatusApproved ExpenseStatus = "approved"
	ExpenseStatusRejected ExpenseStatus = "rejected"
	ExpenseStatusArchived ExpenseStatus = "archived"
)

type ExpenseCategory string

const (
	ExpenseCategoryEquipment ExpenseCategory = "equipment"
	ExpenseCategoryGeneral   ExpenseCategory = "general"
)

type Expense struct {
	ID        uint  `gorm:"primaryKey"`
	ProjectID uint  `gorm:"index;not null"`
	PhaseID   *uint `gorm:"index"`
	FloorID   *uint `gorm:"index"`

	Category    ExpenseCategory `gorm:"size:30;not null;default:'general'"`
	Date        time.Time       `gorm:"index;not null"`
	Amount      float64         `gorm:"not null"`
	Description string          `gorm:"size:255"`

	Status ExpenseStatus `gorm:"size:20;not null;default:'pending';index"`
	// Status held before archiving, restored verbatim on project restore.
	PreviousStatus ExpenseStatus `gorm:"size:20"`

	RecordedBy uint `gorm:"not null"`

	DeletedAt *time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
