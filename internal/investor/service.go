package investor

import (
	"fmt"
	"strings"
	"time"

	"github.com/Victorkib/kisheka-construction-sub014/internal/apperr"
	"github.com/Victorkib/kisheka-construction-sub014/internal/audit"
	"github.com/Victorkib/kisheka-construction-sub014/internal/database"
	"github.com/Victorkib/kisheka-construction-sub014/internal/finance"
	"github.com/Victorkib/kisheka-construction-sub014/internal/models"

	"gorm.io/gorm"
)

type CreateInput struct {
	Name      string
	Email     string
	Phone     string
	ActorID   uint
	ActorName string
}

func Create(in CreateInput) (*models.Investor, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, apperr.Validation("name is required")
	}

	investor := models.Investor{Name: in.Name, Email: in.Email, Phone: in.Phone}
	if err := database.DB.Create(&investor).Error; err != nil {
		return nil, fmt.Errorf("investor insert failed: %w", err)
	}

	_ = audit.WriteLog(audit.LogOptions{
		UserID:      in.ActorID,
		UserName:    in.ActorName,
		EntityType:  "investor",
		EntityID:    investor.ID,
		Action:      models.AuditActionCreate,
		Description: fmt.Sprintf("Investor created: %s", investor.Name),
		After:       investor,
	})
	return &investor, nil
}

func List() ([]models.Investor, error) {
	var investors []models.Investor
	if err := database.DB.Where("deleted_at IS NULL").Order("name asc").
		Find(&investors).Error; err != nil {
		return nil, fmt.Errorf("investor list failed: %w", err)
	}
	return investors, nil
}

type AllocateInput struct {
	InvestorID uint
	ProjectID  uint
	Amount     float64
	Date       time.Time
	ActorID    uint
	ActorName  string
}

// Allocate records capital committed to a project and refreshes the
// project's capital balance.
func Allocate(in AllocateInput) (*models.InvestorAllocation, error) {
	db := database.DB

	if in.Amount <= 0 {
		return nil, apperr.Validation("amount must be greater than 0")
	}

	var investor models.Investor
	if err := db.First(&investor, "id = ? AND deleted_at IS NULL", in.InvestorID).Error; err != nil {
		return nil, apperr.NotFound("investor %d not found", in.InvestorID)
	}

	var project models.Project
	if err := db.First(&project, "id = ? AND deleted_at IS NULL", in.ProjectID).Error; err != nil {
		return nil, apperr.NotFound("project %d not found", in.ProjectID)
	}
	if project.Status != models.ProjectStatusActive {
		return nil, apperr.Conflict("project %s is archived", project.Name)
	}

	if in.Date.IsZero() {
		in.Date = time.Now()
	}

	alloc := models.InvestorAllocation{
		InvestorID: in.InvestorID,
		ProjectID:  in.ProjectID,
		Amount:     in.Amount,
		Date:       in.Date,
	}
	if err := db.Create(&alloc).Error; err != nil {
		return nil, fmt.Errorf("allocation insert failed: %w", err)
	}

	_ = audit.WriteLog(audit.LogOptions{
		ProjectID:   &in.ProjectID,
		UserID:      in.ActorID,
		UserName:    in.ActorName,
		EntityType:  "investor_allocation",
		EntityID:    alloc.ID,
		Action:      models.AuditActionCreate,
		Description: fmt.Sprintf("Capital allocated: %.2f KES from %s to %s", in.Amount, investor.Name, project.Name),
		After:       alloc,
	})

	finance.EnqueueRecalc(in.ProjectID)
	return &alloc, nil
}

func ListAllocations(projectID uint) ([]models.InvestorAllocation, error) {
	var allocs []models.InvestorAllocation
	if err := database.DB.
		Where("project_id = ? AND deleted_at IS NULL", projectID).
		Order("date asc, id asc").Find(&allocs).Error; err != nil {
		return nil, fmt.Errorf("allocation list failed: %w", err)
	}
	return allocs, nil
}

// Archive soft-deletes an investor and their allocations, then queues a
// recalculation for every project whose capital balance just changed.
func Archive(investorID uint, actorID uint, actorName string) error {
	db := database.DB

	var investor models.Investor
	if err := db.First(&investor, "id = ? AND deleted_at IS NULL", investorID).Error; err != nil {
		return apperr.NotFound("investor %d not found", investorID)
	}

	var projectIDs []uint
	if err := db.Model(&models.InvestorAllocation{}).
		Where("investor_id = ? AND deleted_at IS NULL", investorID).
		Distinct("project_id").Pluck("project_id", &projectIDs).Error; err != nil {
		return fmt.Errorf("allocation scan failed: %w", err)
	}

	tx := db.Begin()
	if tx.Error != nil {
		return apperr.Transaction("could not start transaction", tx.Error)
	}

	now := gorm.Expr("CURRENT_TIMESTAMP")
	if err := tx.Model(&models.Investor{}).Where("id = ?", investorID).
		Update("deleted_at", now).Error; err != nil {
		tx.Rollback()
		return apperr.Transaction("investor archive failed", err)
	}
	if err := tx.Model(&models.InvestorAllocation{}).
		Where("investor_id = ? AND deleted_at IS NULL", investorID).
		Update("deleted_at", now).Error; err != nil {
		tx.Rollback()
		return apperr.Transaction("allocation archive failed", err)
	}

	if err := audit.WriteLogTx(tx, audit.LogOptions{
		UserID:      actorID,
		UserName:    actorName,
		EntityType:  "investor",
		EntityID:    investor.ID,
		Action:      models.AuditActionArchive,
		Description: fmt.Sprintf("Investor archived: %s (%d projects affected)", investor.Name, len(projectIDs)),
		Before:      investor,
	}); err != nil {
		tx.Rollback()
		return apperr.Transaction("audit write failed", err)
	}

	if err := tx.Commit().Error; err != nil {
		return apperr.Transaction("archive could not be committed", err)
	}

	for _, pid := range projectIDs {
		finance.EnqueueRecalc(pid)
	}
	return nil
}
