package finance

import (
	"fmt"
	"math"
	"time"

	"github.com/Victorkib/kisheka-construction-sub014/internal/database"
	"github.com/Victorkib/kisheka-construction-sub014/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// The recalculation engine never increments an aggregate in place. Every
// call rescans the leaf collections scoped to the target id and replaces the
// derived fields wholesale, which makes repeated and concurrent triggers for
// the same target converge to the same result.

// Material statuses that count as actual spending. A converted_to_order
// material is deliberately absent: its money is the linked purchase order's
// committed cost until the order is realized.
var materialActualStatuses = []models.MaterialStatus{
	models.MaterialStatusApproved,
	models.MaterialStatusReceived,
}

var expenseActualStatuses = []models.ExpenseStatus{models.ExpenseStatusApproved}

var labourActualStatuses = []models.LabourBatchStatus{
	models.LabourStatusApproved,
	models.LabourStatusPaid,
}

var subPaymentActualStatuses = []models.SubcontractorPaymentStatus{
	models.SubPaymentStatusApproved,
	models.SubPaymentStatusPaid,
}

// RecalculateProjectFinances recomputes the project's derived snapshot from
// leaf state and replaces the project_finances row.
func RecalculateProjectFinances(projectID uint) error {
	db := database.DB

	var exists int64
	if err := db.Model(&models.Project{}).Where("id = ?", projectID).Count(&exists).Error; err != nil {
		return fmt.Errorf("project lookup failed: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("project %d not found", projectID)
	}

	capitalBalance, err := sumAmount(db.Model(&models.InvestorAllocation{}).
		Where("project_id = ? AND deleted_at IS NULL", projectID), "amount")
	if err != nil {
		return err
	}

	totalUsed, err := sumActualSpend(db, "project_id = ?", projectID)
	if err != nil {
		return err
	}

	committedCost, err := sumAmount(db.Model(&models.PurchaseOrder{}).
		Where("project_id = ? AND financial_status = ? AND deleted_at IS NULL",
			projectID, models.POFinanceCommitted), "total_cost")
	if err != nil {
		return err
	}

	finances := models.ProjectFinances{
		ProjectID:        projectID,
		CapitalBalance:   capitalBalance,
		TotalUsed:        totalUsed,
		CommittedCost:    committedCost,
		AvailableCapital: capitalBalance - totalUsed - committedCost,
		UpdatedAt:        time.Now(),
	}

	// Single-row replace keyed on project_id.
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "project_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"capital_balance", "total_used", "committed_cost", "available_capital", "updated_at",
		}),
	}).Create(&finances).Error
}

// RecalculatePhaseSpending rescans the phase's leaf records and rewrites its
// actual spending, committed cost and remaining budget.
func RecalculatePhaseSpending(phaseID uint) error {
	db := database.DB

	var phase models.Phase
	if err := db.First(&phase, "id = ?", phaseID).Error; err != nil {
		return fmt.Errorf("phase %d not found: %w", phaseID, err)
	}

	actual, err := rescanActual(db, "phase_id = ?", phaseID)
	if err != nil {
		return err
	}

	committed, err := sumAmount(db.Model(&models.PurchaseOrder{}).
		Where("phase_id = ? AND financial_status = ? AND deleted_at IS NULL",
			phaseID, models.POFinanceCommitted), "total_cost")
	if err != nil {
		return err
	}

	remaining := math.Max(0, phase.BudgetAllocation.Total-actual.Total-committed)

	return db.Model(&models.Phase{}).Where("id = ?", phaseID).Updates(map[string]interface{}{
		"actual_total":          actual.Total,
		"actual_materials":      actual.Materials,
		"actual_labour":         actual.Labour,
		"actual_equipment":      actual.Equipment,
		"actual_expenses":       actual.Expenses,
		"actual_subcontractors": actual.Subcontractors,
		"fin_committed":         committed,
		"fin_remaining":         remaining,
		"updated_at":            time.Now(),
	}).Error
}

// RecalculateFloorSpending rescans the floor's leaf records the same way.
func RecalculateFloorSpending(floorID uint) error {
	db := database.DB

	var exists int64
	if err := db.Model(&models.Floor{}).Where("id = ?", floorID).Count(&exists).Error; err != nil {
		return fmt.Errorf("floor lookup failed: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("floor %d not found", floorID)
	}

	actual, err := rescanActual(db, "floor_id = ?", floorID)
	if err != nil {
		return err
	}

	committed, err := sumAmount(db.Model(&models.PurchaseOrder{}).
		Where("floor_id = ? AND financial_status = ? AND deleted_at IS NULL",
			floorID, models.POFinanceCommitted), "total_cost")
	if err != nil {
		return err
	}

	return db.Model(&models.Floor{}).Where("id = ?", floorID).Updates(map[string]interface{}{
		"actual_total":          actual.Total,
		"actual_materials":      actual.Materials,
		"actual_labour":         actual.Labour,
		"actual_equipment":      actual.Equipment,
		"actual_expenses":       actual.Expenses,
		"actual_subcontractors": actual.Subcontractors,
		"committed_cost":        committed,
		"updated_at":            time.Now(),
	}).Error
}

// rescanActual sums the leaf collections scoped by cond into per-category
// actual spending.
func rescanActual(db *gorm.DB, cond string, arg any) (models.ActualSpending, error) {
	var out models.ActualSpending

	materials, err := sumAmount(db.Model(&models.MaterialRequest{}).
		Where(cond, arg).Where("status IN ? AND deleted_at IS NULL", materialActualStatuses), "total_cost")
	if err != nil {
		return out, err
	}

	equipment, err := sumAmount(db.Model(&models.Expense{}).
		Where(cond, arg).Where("status IN ? AND category = ? AND deleted_at IS NULL",
		expenseActualStatuses, models.ExpenseCategoryEquipment), "amount")
	if err != nil {
		return out, err
	}

	expenses, err := sumAmount(db.Model(&models.Expense{}).
		Where(cond, arg).Where("status IN ? AND category <> ? AND deleted_at IS NULL",
		expenseActualStatuses, models.ExpenseCategoryEquipment), "amount")
	if err != nil {
		return out, err
	}

	labour, err := sumAmount(db.Model(&models.LabourBatch{}).
		Where(cond, arg).Where("status IN ? AND deleted_at IS NULL", labourActualStatuses), "total_cost")
	if err != nil {
		return out, err
	}

	subs, err := sumAmount(db.Model(&models.SubcontractorPayment{}).
		Where(cond, arg).Where("status IN ? AND deleted_at IS NULL", subPaymentActualStatuses), "amount")
	if err != nil {
		return out, err
	}

	out = models.ActualSpending{
		Materials:      materials,
		Labour:         labour,
		Equipment:      equipment,
		Expenses:       expenses,
		Subcontractors: subs,
	}
	out.Total = materials + labour + equipment + expenses + subs
	return out, nil
}

func sumActualSpend(db *gorm.DB, cond string, arg any) (float64, error) {
	actual, err := rescanActual(db, cond, arg)
	if err != nil {
		return 0, err
	}
	return actual.Total, nil
}

func sumAmount(q *gorm.DB, column string) (float64, error) {
	var total float64
	if err := q.Select("COALESCE(SUM(" + column + "), 0)").Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("aggregate sum failed: %w", err)
	}
	return total, nil
}
