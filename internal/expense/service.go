package expense

import (
	"fmt"
	"time"

	"github.com/Victorkib/kisheka-construction-sub014/internal/apperr"
	"github.com/Victorkib/kisheka-construction-sub014/internal/audit"
	"github.com/Victorkib/kisheka-construction-sub014/internal/database"
	"github.com/Victorkib/kisheka-construction-sub014/internal/finance"
	"github.com/Victorkib/kisheka-construction-sub014/internal/models"
)

type CreateInput struct {
	ProjectID      uint
	PhaseID        *uint
	FloorID        *uint
	Category       models.ExpenseCategory
	Date           time.Time
	Amount         float64
	Description    string
	RecordedBy     uint
	RecordedByName string
}

func Create(in CreateInput) (*models.Expense, error) {
	db := database.DB

	if in.Amount <= 0 {
		return nil, apperr.Validation("amount must be greater than 0")
	}
	if in.Category != models.ExpenseCategoryEquipment && in.Category != models.ExpenseCategoryGeneral {
		return nil, apperr.Validation("category must be equipment or general")
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

	expense := models.Expense{
		ProjectID:   in.ProjectID,
		PhaseID:     in.PhaseID,
		FloorID:     in.FloorID,
		Category:    in.Category,
		Date:        in.Date,
		Amount:      in.Amount,
		Description: in.Description,
		Status:      models.ExpenseStatusPending,
		RecordedBy:  in.RecordedBy,
	}
	if err := db.Create(&expense).Error; err != nil {
		return nil, fmt.Errorf("expense insert failed: %w", err)
	}

	_ = audit.WriteLog(audit.LogOptions{
		ProjectID:   &in.ProjectID,
		UserID:      in.RecordedBy,
		UserName:    in.RecordedByName,
		EntityType:  "expense",
		EntityID:    expense.ID,
		Action:      models.AuditActionCreate,
		Description: fmt.Sprintf("Expense recorded: %.2f KES (%s)", expense.Amount, expense.Category),
		After:       expense,
	})
	return &expense, nil
}

// Approve runs an approved expense through the capital gate, the same as any
// other spend.
func Approve(expenseID uint, approverID uint, approverName string) (*models.Expense, error) {
	db := database.DB

	var expense models.Expense
	if err := db.First(&expense, "id = ? AND deleted_at IS NULL", expenseID).Error; err != nil {
		return nil, apperr.NotFound("expense %d not found", expenseID)
	}
	if expense.Status != models.ExpenseStatusPending {
		return nil, apperr.Conflict("expense %d is %s, expected pending", expense.ID, expense.Status)
	}

	err := finance.WithProjectLock(expense.ProjectID, func() error {
		check, err := finance.ValidateCapitalAvailability(expense.ProjectID, expense.Amount)
		if err != nil {
			return err
		}
		if !check.IsValid {
			return apperr.Validation("%s", check.Message)
		}
		return db.Model(&expense).Update("status", models.ExpenseStatusApproved).Error
	})
	if err != nil {
		return nil, err
	}

	_ = audit.WriteLog(audit.LogOptions{
		ProjectID:   &expense.ProjectID,
		UserID:      approverID,
		UserName:    approverName,
		EntityType:  "expense",
		EntityID:    expense.ID,
		Action:      models.AuditActionApprove,
		Description: fmt.Sprintf("Expense approved: %.2f KES (%s)", expense.Amount, expense.Category),
	})

	finance.RecalcAndLog(expense.ProjectID)
	if expense.PhaseID != nil {
		finance.RecalcPhaseAndLog(*expense.PhaseID)
	}
	if expense.FloorID != nil {
		finance.RecalcFloorAndLog(*expense.FloorID)
	}

	if err := db.First(&expense, "id = ?", expense.ID).Error; err != nil {
		return nil, fmt.Errorf("expense reload failed: %w", err)
	}
	return &expense, nil
}

func Reject(expenseID uint, approverID uint, approverName string) (*models.Expense, error) {
	db := database.DB

	var expense models.Expense
	if err := db.First(&expense, "id = ? AND deleted_at IS NULL", expenseID).Error; err != nil {
		return nil, apperr.NotFound("expense %d not found", expenseID)
	}
	if expense.Status != models.ExpenseStatusPending {
		return nil, apperr.Conflict("expense %d is %s, expected pending", expense.ID, expense.Status)
	}

	if err := db.Model(&expense).Update("status", models.ExpenseStatusRejected).Error; err != nil {
		return nil, fmt.Errorf("expense update failed: %w", err)
	}

	_ = audit.WriteLog(audit.LogOptions{
		ProjectID:   &expense.ProjectID,
		UserID:      approverID,
		UserName:    approverName,
		EntityType:  "expense",
		EntityID:    expense.ID,
		Action:      models.AuditActionReject,
		Description: fmt.Sprintf("Expense rejected: %.2f KES (%s)", expense.Amount, expense.Category),
	})
	return &expense, nil
}
