package transfer

import (
	"fmt"
	"time"

	"github.com/Victorkib/kisheka-construction-sub014/internal/apperr"
	"github.com/Victorkib/kisheka-construction-sub014/internal/audit"
	"github.com/Victorkib/kisheka-construction-sub014/internal/database"
	"github.com/Victorkib/kisheka-construction-sub014/internal/models"
	"github.com/Victorkib/kisheka-construction-sub014/internal/notify"

	"gorm.io/gorm"
)

func validCategory(c models.BudgetCategory) bool {
	switch c {
	case models.CategoryDirectConstruction, models.CategoryPreConstruction,
		models.CategoryIndirect, models.CategoryContingency:
		return true
	}
	return false
}

func categoryValue(b *models.Budget, c models.BudgetCategory) float64 {
	switch c {
	case models.CategoryDirectConstruction:
		return b.DirectConstructionCosts
	case models.CategoryPreConstruction:
		return b.PreConstructionCosts
	case models.CategoryIndirect:
		return b.IndirectCosts
	case models.CategoryContingency:
		return b.ContingencyReserve
	}
	return 0
}

func categoryColumn(c models.BudgetCategory) string {
	switch c {
	case models.CategoryDirectConstruction:
		return "budget_direct_construction_costs"
	case models.CategoryPreConstruction:
		return "budget_pre_construction_costs"
	case models.CategoryIndirect:
		return "budget_indirect_costs"
	case models.CategoryContingency:
		return "budget_contingency_reserve"
	}
	return ""
}

// categoryFloor is the amount a category's ceiling cannot drop below.
// Direct construction is pinned by the budget already allocated to phases,
// contingency by the draws already approved. The other two categories have
// no sub-ledger of their own.
func categoryFloor(db *gorm.DB, project *models.Project, c models.BudgetCategory) (float64, error) {
	switch c {
	case models.CategoryDirectConstruction:
		var allocated float64
		err := db.Model(&models.Phase{}).
			Where("project_id = ? AND deleted_at IS NULL", project.ID).
			Select("COALESCE(SUM(alloc_total), 0)").Scan(&allocated).Error
		return allocated, err
	case models.CategoryContingency:
		return project.ContingencyUsed, nil
	}
	return 0, nil
}

type TransferRequest struct {
	ProjectID       uint
	FromCategory    models.BudgetCategory
	ToCategory      models.BudgetCategory
	Amount          float64
	Reason          string
	RequestedBy     uint
	RequestedByName string
}

// validateTransfer checks the rules that hold at both request and approval
// time against the project's current budget.
func validateTransfer(db *gorm.DB, project *models.Project, from, to models.BudgetCategory, amount float64) error {
	if amount <= 0 {
		return apperr.Validation("amount must be greater than 0")
	}
	if !validCategory(from) || !validCategory(to) {
		return apperr.Validation("from_category and to_category must be budget categories")
	}
	if from == to {
		return apperr.Validation("from_category and to_category must differ")
	}
	if to == models.CategoryContingency {
		return apperr.Validation("the contingency reserve cannot receive transfers; adjust it explicitly instead")
	}

	floor, err := categoryFloor(db, project, from)
	if err != nil {
		return fmt.Errorf("category floor query failed: %w", err)
	}
	available := categoryValue(&project.Budget, from) - floor
	if amount > available {
		return apperr.Validation(
			"transfer of %.2f exceeds what %s can release (ceiling: %.2f, pinned: %.2f, available: %.2f)",
			amount, from, categoryValue(&project.Budget, from), floor, available)
	}
	return nil
}

// RequestTransfer records a pending category-to-category transfer. The
// budget itself does not move until an owner approves.
func RequestTransfer(in TransferRequest) (*models.BudgetTransfer, error) {
	db := database.DB

	var project models.Project
	if err := db.First(&project, "id = ? AND deleted_at IS NULL", in.ProjectID).Error; err != nil {
		return nil, apperr.NotFound("project %d not found", in.ProjectID)
	}
	if project.Status != models.ProjectStatusActive {
		return nil, apperr.Conflict("project %s is archived", project.Name)
	}

	if err := validateTransfer(db, &project, in.FromCategory, in.ToCategory, in.Amount); err != nil {
		return nil, err
	}

	transfer := models.BudgetTransfer{
		ProjectID:    in.ProjectID,
		FromCategory: in.FromCategory,
		ToCategory:   in.ToCategory,
		Amount:       in.Amount,
		Reason:       in.Reason,
		Status:       models.ApprovalStatusPending,
		RequestedBy:  in.RequestedBy,
	}
	if err := db.Create(&transfer).Error; err != nil {
		return nil, fmt.Errorf("budget transfer insert failed: %w", err)
	}

	_ = audit.WriteLog(audit.LogOptions{
		ProjectID:   &in.ProjectID,
		UserID:      in.RequestedBy,
		UserName:    in.RequestedByName,
		EntityType:  "budget_transfer",
		EntityID:    transfer.ID,
		Action:      models.AuditActionCreate,
		Description: fmt.Sprintf("Budget transfer requested: %.2f KES from %s to %s", in.Amount, in.FromCategory, in.ToCategory),
		After:       transfer,
	})
	notify.SendToRole(models.RoleOwner, &in.ProjectID,
		"Budget transfer pending",
		fmt.Sprintf("%s requested moving %.2f KES from %s to %s on %s",
			in.RequestedByName, in.Amount, in.FromCategory, in.ToCategory, project.Name))

	return &transfer, nil
}

// ApproveTransfer re-validates and then moves the amount between the two
// category ceilings in one transaction. The budget total is unchanged.
func ApproveTransfer(transferID uint, approverID uint, approverName string) (*models.BudgetTransfer, error) {
	db := database.DB

	var transfer models.BudgetTransfer
	if err := db.First(&transfer, "id = ?", transferID).Error; err != nil {
		return nil, apperr.NotFound("budget transfer %d not found", transferID)
	}
	if transfer.Status != models.ApprovalStatusPending {
		return nil, apperr.Conflict("budget transfer %d is already %s", transfer.ID, transfer.Status)
	}

	var project models.Project
	if err := db.First(&project, "id = ? AND deleted_at IS NULL", transfer.ProjectID).Error; err != nil {
		return nil, apperr.NotFound("project %d not found", transfer.ProjectID)
	}

	if err := validateTransfer(db, &project, transfer.FromCategory, transfer.ToCategory, transfer.Amount); err != nil {
		return nil, err
	}

	now := time.Now()

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperr.Transaction("could not start transaction", tx.Error)
	}

	decide := tx.Model(&models.BudgetTransfer{}).
		Where("id = ? AND status = ?", transfer.ID, models.ApprovalStatusPending).
		Updates(map[string]interface{}{
			"status":      models.ApprovalStatusApproved,
			"approved_by": approverID,
			"decided_at":  now,
		})
	if decide.Error != nil {
		tx.Rollback()
		return nil, apperr.Transaction("transfer update failed", decide.Error)
	}
	if decide.RowsAffected == 0 {
		tx.Rollback()
		return nil, apperr.Conflict("budget transfer %d was decided concurrently", transfer.ID)
	}

	fromCol := categoryColumn(transfer.FromCategory)
	toCol := categoryColumn(transfer.ToCategory)
	if err := tx.Model(&models.Project{}).Where("id = ?", project.ID).
		Updates(map[string]interface{}{
			fromCol: categoryValue(&project.Budget, transfer.FromCategory) - transfer.Amount,
			toCol:   categoryValue(&project.Budget, transfer.ToCategory) + transfer.Amount,
		}).Error; err != nil {
		tx.Rollback()
		return nil, apperr.Transaction("budget move failed", err)
	}

	if err := audit.WriteLogTx(tx, audit.LogOptions{
		ProjectID:   &transfer.ProjectID,
		UserID:      approverID,
		UserName:    approverName,
		EntityType:  "budget_transfer",
		EntityID:    transfer.ID,
		Action:      models.AuditActionApprove,
		Description: fmt.Sprintf("Budget transfer approved: %.2f KES from %s to %s", transfer.Amount, transfer.FromCategory, transfer.ToCategory),
		Before:      project.Budget,
	}); err != nil {
		tx.Rollback()
		return nil, apperr.Transaction("audit write failed", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperr.Transaction("transfer could not be committed", err)
	}

	if err := db.First(&transfer, "id = ?", transfer.ID).Error; err != nil {
		return nil, fmt.Errorf("transfer reload failed: %w", err)
	}
	notify.Send(transfer.RequestedBy, &transfer.ProjectID,
		"Budget transfer approved",
		fmt.Sprintf("Your %.2f KES transfer on %s was approved", transfer.Amount, project.Name))
	return &transfer, nil
}

// RejectTransfer is a pure status transition.
func RejectTransfer(transferID uint, approverID uint, approverName string) (*models.BudgetTransfer, error) {
	db := database.DB

	var transfer models.BudgetTransfer
	if err := db.First(&transfer, "id = ?", transferID).Error; err != nil {
		return nil, apperr.NotFound("budget transfer %d not found", transferID)
	}
	if transfer.Status != models.ApprovalStatusPending {
		return nil, apperr.Conflict("budget transfer %d is already %s", transfer.ID, transfer.Status)
	}

	now := time.Now()
	if err := db.Model(&transfer).Updates(map[string]interface{}{
		"status":      models.ApprovalStatusRejected,
		"approved_by": approverID,
		"decided_at":  now,
	}).Error; err != nil {
		return nil, fmt.Errorf("transfer update failed: %w", err)
	}

	_ = audit.WriteLog(audit.LogOptions{
		ProjectID:   &transfer.ProjectID,
		UserID:      approverID,
		UserName:    approverName,
		EntityType:  "budget_transfer",
		EntityID:    transfer.ID,
		Action:      models.AuditActionReject,
		Description: fmt.Sprintf("Budget transfer rejected: %.2f KES from %s to %s", transfer.Amount, transfer.FromCategory, transfer.ToCategory),
	})
	notify.Send(transfer.RequestedBy, &transfer.ProjectID,
		"Budget transfer rejected",
		fmt.Sprintf("Your %.2f KES transfer was rejected", transfer.Amount))
	return &transfer, nil
}

type AdjustmentRequest struct {
	ProjectID       uint
	Category        models.BudgetCategory
	AdjustmentType  models.AdjustmentType
	Amount          float64
	Reason          string
	RequestedBy     uint
	RequestedByName string
}

func validateAdjustment(db *gorm.DB, project *models.Project, in AdjustmentRequest) error {
	if in.Amount <= 0 {
		return apperr.Validation("amount must be greater than 0")
	}
	if !validCategory(in.Category) {
		return apperr.Validation("category must be a budget category")
	}
	if in.AdjustmentType != models.AdjustmentIncrease && in.AdjustmentType != models.AdjustmentDecrease {
		return apperr.Validation("adjustment_type must be increase or decrease")
	}

	if in.AdjustmentType == models.AdjustmentDecrease {
		floor, err := categoryFloor(db, project, in.Category)
		if err != nil {
			return fmt.Errorf("category floor query failed: %w", err)
		}
		ceiling := categoryValue(&project.Budget, in.Category)
		if ceiling-in.Amount < floor {
			return apperr.Validation(
				"decrease of %.2f would take %s below its committed level (ceiling: %.2f, pinned: %.2f)",
				in.Amount, in.Category, ceiling, floor)
		}
	}
	return nil
}

// RequestAdjustment records a pending ceiling change for one category.
func RequestAdjustment(in AdjustmentRequest) (*models.BudgetAdjustment, error) {
	db := database.DB

	var project models.Project
	if err := db.First(&project, "id = ? AND deleted_at IS NULL", in.ProjectID).Error; err != nil {
		return nil, apperr.NotFound("project %d not found", in.ProjectID)
	}
	if project.Status != models.ProjectStatusActive {
		return nil, apperr.Conflict("project %s is archived", project.Name)
	}

	if err := validateAdjustment(db, &project, in); err != nil {
		return nil, err
	}

	adjustment := models.BudgetAdjustment{
		ProjectID:      in.ProjectID,
		Category:       in.Category,
		AdjustmentType: in.AdjustmentType,
		Amount:         in.Amount,
		Reason:         in.Reason,
		Status:         models.ApprovalStatusPending,
		RequestedBy:    in.RequestedBy,
	}
	if err := db.Create(&adjustment).Error; err != nil {
		return nil, fmt.Errorf("budget adjustment insert failed: %w", err)
	}

	_ = audit.WriteLog(audit.LogOptions{
		ProjectID:   &in.ProjectID,
		UserID:      in.RequestedBy,
		UserName:    in.RequestedByName,
		EntityType:  "budget_adjustment",
		EntityID:    adjustment.ID,
		Action:      models.AuditActionCreate,
		Description: fmt.Sprintf("Budget adjustment requested: %s %s by %.2f KES", in.AdjustmentType, in.Category, in.Amount),
		After:       adjustment,
	})
	notify.SendToRole(models.RoleOwner, &in.ProjectID,
		"Budget adjustment pending",
		fmt.Sprintf("%s requested to %s %s by %.2f KES on %s",
			in.RequestedByName, in.AdjustmentType, in.Category, in.Amount, project.Name))

	return &adjustment, nil
}

// ApproveAdjustment re-validates and applies the ceiling change. Unlike a
// transfer, the budget total moves with the category.
func ApproveAdjustment(adjustmentID uint, approverID uint, approverName string) (*models.BudgetAdjustment, error) {
	db := database.DB

	var adjustment models.BudgetAdjustment
	if err := db.First(&adjustment, "id = ?", adjustmentID).Error; err != nil {
		return nil, apperr.NotFound("budget adjustment %d not found", adjustmentID)
	}
	if adjustment.Status != models.ApprovalStatusPending {
		return nil, apperr.Conflict("budget adjustment %d is already %s", adjustment.ID, adjustment.Status)
	}

	var project models.Project
	if err := db.First(&project, "id = ? AND deleted_at IS NULL", adjustment.ProjectID).Error; err != nil {
		return nil, apperr.NotFound("project %d not found", adjustment.ProjectID)
	}

	if err := validateAdjustment(db, &project, AdjustmentRequest{
		ProjectID:      adjustment.ProjectID,
		Category:       adjustment.Category,
		AdjustmentType: adjustment.AdjustmentType,
		Amount:         adjustment.Amount,
	}); err != nil {
		return nil, err
	}

	delta := adjustment.Amount
	if adjustment.AdjustmentType == models.AdjustmentDecrease {
		delta = -delta
	}

	now := time.Now()

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperr.Transaction("could not start transaction", tx.Error)
	}

	decide := tx.Model(&models.BudgetAdjustment{}).
		Where("id = ? AND status = ?", adjustment.ID, models.ApprovalStatusPending).
		Updates(map[string]interface{}{
			"status":      models.ApprovalStatusApproved,
			"approved_by": approverID,
			"decided_at":  now,
		})
	if decide.Error != nil {
		tx.Rollback()
		return nil, apperr.Transaction("adjustment update failed", decide.Error)
	}
	if decide.RowsAffected == 0 {
		tx.Rollback()
		return nil, apperr.Conflict("budget adjustment %d was decided concurrently", adjustment.ID)
	}

	col := categoryColumn(adjustment.Category)
	if err := tx.Model(&models.Project{}).Where("id = ?", project.ID).
		Updates(map[string]interface{}{
			col:            categoryValue(&project.Budget, adjustment.Category) + delta,
			"budget_total": project.Budget.Total + delta,
		}).Error; err != nil {
		tx.Rollback()
		return nil, apperr.Transaction("budget change failed", err)
	}

	if err := audit.WriteLogTx(tx, audit.LogOptions{
		ProjectID:   &adjustment.ProjectID,
		UserID:      approverID,
		UserName:    approverName,
		EntityType:  "budget_adjustment",
		EntityID:    adjustment.ID,
		Action:      models.AuditActionApprove,
		Description: fmt.Sprintf("Budget adjustment approved: %s %s by %.2f KES", adjustment.AdjustmentType, adjustment.Category, adjustment.Amount),
		Before:      project.Budget,
	}); err != nil {
		tx.Rollback()
		return nil, apperr.Transaction("audit write failed", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperr.Transaction("adjustment could not be committed", err)
	}

	if err := db.First(&adjustment, "id = ?", adjustment.ID).Error; err != nil {
		return nil, fmt.Errorf("adjustment reload failed: %w", err)
	}
	notify.Send(adjustment.RequestedBy, &adjustment.ProjectID,
		"Budget adjustment approved",
		fmt.Sprintf("Your %s of %s by %.2f KES on %s was approved",
			adjustment.AdjustmentType, adjustment.Category, adjustment.Amount, project.Name))
	return &adjustment, nil
}

// RejectAdjustment is a pure status transition.
func RejectAdjustment(adjustmentID uint, approverID uint, approverName string) (*models.BudgetAdjustment, error) {
	db := database.DB

	var adjustment models.BudgetAdjustment
	if err := db.First(&adjustment, "id = ?", adjustmentID).Error; err != nil {
		return nil, apperr.NotFound("budget adjustment %d not found", adjustmentID)
	}
	if adjustment.Status != models.ApprovalStatusPending {
		return nil, apperr.Conflict("budget adjustment %d is already %s", adjustment.ID, adjustment.Status)
	}

	now := time.Now()
	if err := db.Model(&adjustment).Updates(map[string]interface{}{
		"status":      models.ApprovalStatusRejected,
		"approved_by": approverID,
		"decided_at":  now,
	}).Error; err != nil {
		return nil, fmt.Errorf("adjustment update failed: %w", err)
	}

	_ = audit.WriteLog(audit.LogOptions{
		ProjectID:   &adjustment.ProjectID,
		UserID:      approverID,
		UserName:    approverName,
		EntityType:  "budget_adjustment",
		EntityID:    adjustment.ID,
		Action:      models.AuditActionReject,
		Description: fmt.Sprintf("Budget adjustment rejected: %s %s by %.2f KES", adjustment.AdjustmentType, adjustment.Category, adjustment.Amount),
	})
	notify.Send(adjustment.RequestedBy, &adjustment.ProjectID,
		"Budget adjustment rejected",
		fmt.Sprintf("Your %s of %s by %.2f KES was rejected", adjustment.AdjustmentType, adjustment.Category, adjustment.Amount))
	return &adjustment, nil
}
