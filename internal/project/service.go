package project

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Victorkib/kisheka-construction-sub014/internal/apperr"
	"github.com/Victorkib/kisheka-construction-sub014/internal/audit"
	"github.com/Victorkib/kisheka-construction-sub014/internal/budget"
	"github.com/Victorkib/kisheka-construction-sub014/internal/database"
	"github.com/Victorkib/kisheka-construction-sub014/internal/finance"
	"github.com/Victorkib/kisheka-construction-sub014/internal/models"

	"gorm.io/gorm"
)

type CreateInput struct {
	Name        string
	Description string
	Budget      budget.Input
	ActorID     uint
	ActorName   string
}

// Create resolves the budget payload (enhanced or legacy) at the boundary
// and stores the canonical enhanced shape. Validation warnings are returned
// to the caller, never persisted.
func Create(in CreateInput) (*models.Project, []string, error) {
	db := database.DB

	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, nil, apperr.Validation("name is required")
	}

	resolved, warnings, err := budget.Resolve(in.Budget)
	if err != nil {
		return nil, nil, err
	}

	project := models.Project{
		Name:        in.Name,
		Description: in.Description,
		Budget:      resolved,
		Status:      models.ProjectStatusActive,
	}
	if err := db.Create(&project).Error; err != nil {
		return nil, nil, fmt.Errorf("project insert failed: %w", err)
	}

	_ = audit.WriteLog(audit.LogOptions{
		ProjectID:   &project.ID,
		UserID:      in.ActorID,
		UserName:    in.ActorName,
		EntityType:  "project",
		EntityID:    project.ID,
		Action:      models.AuditActionCreate,
		Description: fmt.Sprintf("Project created: %s (budget %.2f KES)", project.Name, project.Budget.Total),
		After:       project,
	})

	// Materialize the finances snapshot so capital checks have a row to read.
	finance.EnqueueRecalc(project.ID)

	return &project, warnings, nil
}

type UpdateInput struct {
	Name        *string
	Description *string
	ActorID     uint
	ActorName   string
}

// Update changes descriptive fields only. Budget ceilings move exclusively
// through the transfer and adjustment workflows.
func Update(projectID uint, in UpdateInput) (*models.Project, error) {
	db := database.DB

	var project models.Project
	if err := db.First(&project, "id = ? AND deleted_at IS NULL", projectID).Error; err != nil {
		return nil, apperr.NotFound("project %d not found", projectID)
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Validation("name cannot be empty")
		}
		updates["name"] = name
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if len(updates) == 0 {
		return &project, nil
	}

	before := project
	if err := db.Model(&project).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("project update failed: %w", err)
	}

	_ = audit.WriteLog(audit.LogOptions{
		ProjectID:   &project.ID,
		UserID:      in.ActorID,
		UserName:    in.ActorName,
		EntityType:  "project",
		EntityID:    project.ID,
		Action:      models.AuditActionUpdate,
		Description: fmt.Sprintf("Project updated: %s", project.Name),
		Before:      before,
		After:       project,
	})
	return &project, nil
}

func Get(projectID uint) (*models.Project, error) {
	var project models.Project
	if err := database.DB.First(&project, "id = ? AND deleted_at IS NULL", projectID).Error; err != nil {
		return nil, apperr.NotFound("project %d not found", projectID)
	}
	return &project, nil
}

func List(status string) ([]models.Project, error) {
	q := database.DB.Where("deleted_at IS NULL")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var projects []models.Project
	if err := q.Order("id desc").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("project list failed: %w", err)
	}
	return projects, nil
}

// Finances returns the persisted snapshot, computing it first if the project
// has never been recalculated.
func Finances(projectID uint) (*models.ProjectFinances, error) {
	db := database.DB

	if _, err := Get(projectID); err != nil {
		return nil, err
	}

	var finances models.ProjectFinances
	err := db.First(&finances, "project_id = ?", projectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := finance.RecalculateProjectFinances(projectID); err != nil {
			return nil, err
		}
		err = db.First(&finances, "project_id = ?", projectID).Error
	}
	if err != nil {
		return nil, fmt.Errorf("finances read failed: %w", err)
	}
	return &finances, nil
}

// Archive parks the project. Leaf records that carry spending state remember
// their status so a later restore brings the finances back to the same
// numbers.
func Archive(projectID uint, actorID uint, actorName string) (*models.Project, error) {
	db := database.DB

	var project models.Project
	if err := db.First(&project, "id = ? AND deleted_at IS NULL", projectID).Error; err != nil {
		return nil, apperr.NotFound("project %d not found", projectID)
	}
	if project.Status == models.ProjectStatusArchived {
		return nil, apperr.Conflict("project %s is already archived", project.Name)
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperr.Transaction("could not start transaction", tx.Error)
	}

	if err := tx.Model(&models.Project{}).Where("id = ?", project.ID).
		Update("status", models.ProjectStatusArchived).Error; err != nil {
		tx.Rollback()
		return nil, apperr.Transaction("project archive failed", err)
	}

	// SET reads the pre-update row, so previous_status captures the status
	// being replaced.
	if err := tx.Model(&models.MaterialRequest{}).
		Where("project_id = ? AND status <> ? AND deleted_at IS NULL", project.ID, models.MaterialStatusArchived).
		Updates(map[string]interface{}{
			"previous_status": gorm.Expr("status"),
			"status":          models.MaterialStatusArchived,
		}).Error; err != nil {
		tx.Rollback()
		return nil, apperr.Transaction("material archive failed", err)
	}

	if err := tx.Model(&models.Expense{}).
		Where("project_id = ? AND status <> ? AND deleted_at IS NULL", project.ID, models.ExpenseStatusArchived).
		Updates(map[string]interface{}{
			"previous_status": gorm.Expr("status"),
			"status":          models.ExpenseStatusArchived,
		}).Error; err != nil {
		tx.Rollback()
		return nil, apperr.Transaction("expense archive failed", err)
	}

	if err := audit.WriteLogTx(tx, audit.LogOptions{
		ProjectID:   &project.ID,
		UserID:      actorID,
		UserName:    actorName,
		EntityType:  "project",
		EntityID:    project.ID,
		Action:      models.AuditActionArchive,
		Description: fmt.Sprintf("Project archived: %s", project.Name),
	}); err != nil {
		tx.Rollback()
		return nil, apperr.Transaction("audit write failed", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperr.Transaction("archive could not be committed", err)
	}

	finance.EnqueueRecalc(project.ID)

	if err := db.First(&project, "id = ?", project.ID).Error; err != nil {
		return nil, fmt.Errorf("project reload failed: %w", err)
	}
	return &project, nil
}

// Restore reverses Archive: every leaf record goes back to the exact status
// it held before, and recalculation reproduces the pre-archive finances.
func Restore(projectID uint, actorID uint, actorName string) (*models.Project, error) {
	db := database.DB

	var project models.Project
	if err := db.First(&project, "id = ? AND deleted_at IS NULL", projectID).Error; err != nil {
		return nil, apperr.NotFound("project %d not found", projectID)
	}
	if project.Status != models.ProjectStatusArchived {
		return nil, apperr.Conflict("project %s is not archived", project.Name)
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperr.Transaction("could not start transaction", tx.Error)
	}

	if err := tx.Model(&models.Project{}).Where("id = ?", project.ID).
		Update("status", models.ProjectStatusActive).Error; err != nil {
		tx.Rollback()
		return nil, apperr.Transaction("project restore failed", err)
	}

	if err := tx.Model(&models.MaterialRequest{}).
		Where("project_id = ? AND status = ? AND previous_status <> '' AND deleted_at IS NULL",
			project.ID, models.MaterialStatusArchived).
		Updates(map[string]interface{}{
			"status":          gorm.Expr("previous_status"),
			"previous_status": "",
		}).Error; err != nil {
		tx.Rollback()
		return nil, apperr.Transaction("material restore failed", err)
	}

	if err := tx.Model(&models.Expense{}).
		Where("project_id = ? AND status = ? AND previous_status <> '' AND deleted_at IS NULL",
			project.ID, models.ExpenseStatusArchived).
		Updates(map[string]interface{}{
			"status":          gorm.Expr("previous_status"),
			"previous_status": "",
		}).Error; err != nil {
		tx.Rollback()
		return nil, apperr.Transaction("expense restore failed", err)
	}

	if err := audit.WriteLogTx(tx, audit.LogOptions{
		ProjectID:   &project.ID,
		UserID:      actorID,
		UserName:    actorName,
		EntityType:  "project",
		EntityID:    project.ID,
		Action:      models.AuditActionRestore,
		Description: fmt.Sprintf("Project restored: %s", project.Name),
	}); err != nil {
		tx.Rollback()
		return nil, apperr.Transaction("audit write failed", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperr.Transaction("restore could not be committed", err)
	}

	finance.EnqueueRecalc(project.ID)

	if err := db.First(&project, "id = ?", project.ID).Error; err != nil {
		return nil, fmt.Errorf("project reload failed: %w", err)
	}
	return &project, nil
}

// dependentCounts lists the record types that block deletion while present.
func dependentCounts(db *gorm.DB, projectID uint) (map[string]int64, error) {
	counts := map[string]int64{}
	queries := map[string]*gorm.DB{
		"phases":                 db.Model(&models.Phase{}).Where("project_id = ? AND deleted_at IS NULL", projectID),
		"floors":                 db.Model(&models.Floor{}).Where("project_id = ? AND deleted_at IS NULL", projectID),
		"material requests":      db.Model(&models.MaterialRequest{}).Where("project_id = ? AND deleted_at IS NULL", projectID),
		"expenses":               db.Model(&models.Expense{}).Where("project_id = ? AND deleted_at IS NULL", projectID),
		"labour batches":         db.Model(&models.LabourBatch{}).Where("project_id = ? AND deleted_at IS NULL", projectID),
		"subcontractor payments": db.Model(&models.SubcontractorPayment{}).Where("project_id = ? AND deleted_at IS NULL", projectID),
		"purchase orders":        db.Model(&models.PurchaseOrder{}).Where("project_id = ? AND deleted_at IS NULL", projectID),
		"contingency draws":      db.Model(&models.ContingencyDraw{}).Where("project_id = ? AND deleted_at IS NULL", projectID),
		"investor allocations":   db.Model(&models.InvestorAllocation{}).Where("project_id = ? AND deleted_at IS NULL", projectID),
	}
	for name, q := range queries {
		var n int64
		if err := q.Count(&n).Error; err != nil {
			return nil, fmt.Errorf("%s count failed: %w", name, err)
		}
		if n > 0 {
			counts[name] = n
		}
	}
	return counts, nil
}

// Delete soft-deletes an empty project. Anything still hanging off it makes
// the call a conflict; archive is the way to park a project with history.
func Delete(projectID uint, actorID uint, actorName string) error {
	db := database.DB

	var project models.Project
	if err := db.First(&project, "id = ? AND deleted_at IS NULL", projectID).Error; err != nil {
		return apperr.NotFound("project %d not found", projectID)
	}

	counts, err := dependentCounts(db, projectID)
	if err != nil {
		return err
	}
	if len(counts) > 0 {
		parts := make([]string, 0, len(counts))
		for name, n := range counts {
			parts = append(parts, fmt.Sprintf("%d %s", n, name))
		}
		return apperr.Conflict("project %s still has dependent records (%s); archive it instead",
			project.Name, strings.Join(parts, ", "))
	}

	if err := db.Model(&project).Update("deleted_at", gorm.Expr("CURRENT_TIMESTAMP")).Error; err != nil {
		return fmt.Errorf("project delete failed: %w", err)
	}

	_ = audit.WriteLog(audit.LogOptions{
		UserID:      actorID,
		UserName:    actorName,
		EntityType:  "project",
		EntityID:    project.ID,
		Action:      models.AuditActionUpdate,
		Description: fmt.Sprintf("Project deleted: %s", project.Name),
		Before:      project,
	})
	return nil
}
