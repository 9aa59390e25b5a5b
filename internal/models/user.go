package models

import "time"

type UserRole string

const (
	RoleOwner          UserRole = "owner"
	RoleProjectManager UserRole = "project_manager"
	RoleFinance        UserRole = "finance"
	RoleInvestorViewer UserRole = "investor_viewer"
)

type User struct {
	ID           uint     `gorm:"primaryKey"`
	Name         string   `gorm:"size:100;not null"`
	Email        string   `gorm:"size:100;uniqueIndex;not null"`
	PasswordHash string   `gorm:"size:255;not null"`
	Role         UserRole `gorm:"size:30;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
