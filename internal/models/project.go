package models

import "time"

type ProjectStatus string

const (
	ProjectStatusActive   ProjectStatus = "active"
	ProjectStatusArchived ProjectStatus = "archived"
)

// Budget: canonical enhanced budget. Legacy payloads are converted to this
// shape at the API boundary; nothing below the handlers sees a legacy budget.
type Budget struct {
	DirectConstructionCosts float64 `gorm:"not null;default:0" json:"direct_construction_costs"`
	PreConstructionCosts    float64 `gorm:"not null;default:0" json:"pre_construction_costs"`
	IndirectCosts           float64 `gorm:"not null;default:0" json:"indirect_costs"`
	ContingencyReserve      float64 `gorm:"not null;default:0" json:"contingency_reserve"`
	Total                   float64 `gorm:"not null;default:0" json:"total"`
}

type Project struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:150;not null"`
	Description string `gorm:"size:500"`

	Budget Budget `gorm:"embedded;embeddedPrefix:budget_"`

	// Approved contingency draws accumulate here; never delegated to phases.
	ContingencyUsed float64 `gorm:"not null;default:0"`

	Status    ProjectStatus `gorm:"size:20;not null;default:'active';index"`
	DeletedAt *time.Time    `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Phases []Phase
	Floors []Floor
}

// ProjectFinances: derived financial snapshot. Fields are never incremented
// in place; recalculation recomputes everything from leaf records and
// replaces the row.
type ProjectFinances struct {
	ID        uint `gorm:"primaryKey"`
	ProjectID uint `gorm:"uniqueIndex;not null"`
	Project   Project

	CapitalBalance   float64 `gorm:"not null;default:0"`
	TotalUsed        float64 `gorm:"not null;default:0"`
	CommittedCost    float64 `gorm:"not null;default:0"`
	AvailableCapital float64 `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
