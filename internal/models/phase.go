package models

import "time"

// BudgetAllocation: the slice of the project's DCC budget given to a phase.
// Contingency is always 0 here; the reserve stays at project level.
type BudgetAllocation struct {
	Total          float64 `gorm:"not null;default:0" json:"total"`
	Materials      float64 `gorm:"not null;default:0" json:"materials"`
	Labour         float64 `gorm:"not null;default:0" json:"labour"`
	Equipment      float64 `gorm:"not null;default:0" json:"equipment"`
	Subcontractors float64 `gorm:"not null;default:0" json:"subcontractors"`
	Contingency    float64 `gorm:"not null;default:0" json:"contingency"`
}

type ActualSpending struct {
	Total          float64 `gorm:"not null;default:0" json:"total"`
	Materials      float64 `gorm:"not null;default:0" json:"materials"`
	Labour         float64 `gorm:"not null;default:0" json:"labour"`
	Equipment      float64 `gorm:"not null;default:0" json:"equipment"`
	Expenses       float64 `gorm:"not null;default:0" json:"expenses"`
	Subcontractors float64 `gorm:"not null;default:0" json:"subcontractors"`
}

type FinancialStates struct {
	Committed float64 `gorm:"not null;default:0" json:"committed"`
	Remaining float64 `gorm:"not null;default:0" json:"remaining"`
}

type Phase struct {
	ID        uint `gorm:"primaryKey"`
	ProjectID uint `gorm:"index;not null"`
	Project   Project
	Name      string `gorm:"size:150;not null"`
	Sequence  int    `gorm:"not null;default:0"`

	BudgetAllocation BudgetAllocation `gorm:"embedded;embeddedPrefix:alloc_"`
	ActualSpending   ActualSpending   `gorm:"embedded;embeddedPrefix:actual_"`
	FinancialStates  FinancialStates  `gorm:"embedded;embeddedPrefix:fin_"`

	ExpectedStart *time.Time
	ExpectedEnd   *time.Time
	CanStartAfter *time.Time

	DeletedAt *time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PhaseDependency: directed edge "phase depends on predecessor". The graph
// must stay acyclic; every write runs cycle detection.
type PhaseDependency struct {
	ID            uint `gorm:"primaryKey"`
	PhaseID       uint `gorm:"index:idx_phase_dep,unique;not null"`
	PredecessorID uint `gorm:"index:idx_phase_dep,unique;not null"`
	CreatedAt     time.Time
}
