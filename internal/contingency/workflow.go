package contingency

import (
	"fmt"
	"time"

	"github.com/Victorkib/kisheka-construction-sub014/internal/apperr"
	"github.com/Victorkib/kisheka-construction-sub014/internal/audit"
	"github.com/Victorkib/kisheka-construction-sub014/internal/database"
	"github.com/Victorkib/kisheka-construction-sub014/internal/finance"
	"github.com/Victorkib/kisheka-construction-sub014/internal/models"
	"github.com/Victorkib/kisheka-construction-sub014/internal/notify"
)

// Usage above this share of the reserve attaches a warning to the decision.
const warningThreshold = 0.8

type DrawRequest struct {
	ProjectID       uint
	DrawType        models.ContingencyDrawType
	Amount          float64
	Reason          string
	RequestedBy     uint
	RequestedByName string
}

func validDrawType(t models.ContingencyDrawType) bool {
	switch t {
	case models.DrawTypeDesign, models.DrawTypeConstruction, models.DrawTypeOwnersReserve:
		return true
	}
	return false
}

// checkReserve rejects a draw that would push usage past the budgeted
// contingency reserve, and warns when it crosses the warning threshold.
func checkReserve(project *models.Project, amount float64) (warning string, err error) {
	budgeted := project.Budget.ContingencyReserve
	remaining := budgeted - project.ContingencyUsed

	if amount > remaining {
		return "", apperr.Validation(
			"Contingency draw of %.2f exceeds remaining reserve (budgeted: %.2f, used: %.2f, remaining: %.2f)",
			amount, budgeted, project.ContingencyUsed, remaining)
	}

	if budgeted > 0 {
		usage := (project.ContingencyUsed + amount) / budgeted
		if usage >= warningThreshold {
			warning = fmt.Sprintf("contingency usage will reach %.0f%% of the reserve", usage*100)
		}
	}
	return warning, nil
}

// RequestDraw validates a draw against the remaining reserve and records it
// as pending. The reserve is not debited until approval.
func RequestDraw(in DrawRequest) (*models.ContingencyDraw, string, error) {
	db := database.DB

	if in.Amount <= 0 {
		return nil, "", apperr.Validation("amount must be greater than 0")
	}
	if !validDrawType(in.DrawType) {
		return nil, "", apperr.Validation("draw_type must be design, construction or owners_reserve")
	}

	var project models.Project
	if err := db.First(&project, "id = ? AND deleted_at IS NULL", in.ProjectID).Error; err != nil {
		return nil, "", apperr.NotFound("project %d not found", in.ProjectID)
	}
	if project.Status != models.ProjectStatusActive {
		return nil, "", apperr.Conflict("project %s is archived", project.Name)
	}

	warning, err := checkReserve(&project, in.Amount)
	if err != nil {
		return nil, "", err
	}

	draw := models.ContingencyDraw{
		ProjectID:   in.ProjectID,
		DrawType:    in.DrawType,
		Amount:      in.Amount,
		Reason:      in.Reason,
		Status:      models.ApprovalStatusPending,
		RequestedBy: in.RequestedBy,
	}
	if err := db.Create(&draw).Error; err != nil {
		return nil, "", fmt.Errorf("contingency draw insert failed: %w", err)
	}

	_ = audit.WriteLog(audit.LogOptions{
		ProjectID:   &in.ProjectID,
		UserID:      in.RequestedBy,
		UserName:    in.RequestedByName,
		EntityType:  "contingency_draw",
		EntityID:    draw.ID,
		Action:      models.AuditActionCreate,
		Description: fmt.Sprintf("Contingency draw requested: %.2f KES (%s)", draw.Amount, draw.DrawType),
		After:       draw,
	})
	notify.SendToRole(models.RoleOwner, &in.ProjectID,
		"Contingency draw pending",
		fmt.Sprintf("%s requested a %.2f KES draw on %s", in.RequestedByName, in.Amount, project.Name))

	return &draw, warning, nil
}

// ApproveDraw re-validates the draw against the reserve and runs it through
// the capital gate as both stand at approval time, then debits
// ContingencyUsed and marks the draw approved in one transaction. Approval
// can fail even when the request passed, because other draws or commitments
// may have landed in between.
func ApproveDraw(drawID uint, approverID uint, approverName string) (*models.ContingencyDraw, string, error) {
	db := database.DB

	var draw models.ContingencyDraw
	if err := db.First(&draw, "id = ? AND deleted_at IS NULL", drawID).Error; err != nil {
		return nil, "", apperr.NotFound("contingency draw %d not found", drawID)
	}
	if draw.Status != models.ApprovalStatusPending {
		return nil, "", apperr.Conflict("contingency draw %d is already %s", draw.ID, draw.Status)
	}

	var project models.Project
	if err := db.First(&project, "id = ? AND deleted_at IS NULL", draw.ProjectID).Error; err != nil {
		return nil, "", apperr.NotFound("project %d not found", draw.ProjectID)
	}

	var warning string
	err := finance.WithProjectLock(draw.ProjectID, func() error {
		check, err := finance.ValidateCapitalAvailability(draw.ProjectID, draw.Amount)
		if err != nil {
			return err
		}
		if !check.IsValid {
			return apperr.Validation("%s", check.Message)
		}

		warning, err = checkReserve(&project, draw.Amount)
		if err != nil {
			return err
		}

		now := time.Now()

		tx := db.Begin()
		if tx.Error != nil {
			return apperr.Transaction("could not start transaction", tx.Error)
		}

		decide := tx.Model(&models.ContingencyDraw{}).
			Where("id = ? AND status = ?", draw.ID, models.ApprovalStatusPending).
			Updates(map[string]interface{}{
				"status":      models.ApprovalStatusApproved,
				"approved_by": approverID,
				"decided_at":  now,
			})
		if decide.Error != nil {
			tx.Rollback()
			return apperr.Transaction("draw update failed", decide.Error)
		}
		if decide.RowsAffected == 0 {
			tx.Rollback()
			return apperr.Conflict("contingency draw %d was decided concurrently", draw.ID)
		}

		if err := tx.Model(&models.Project{}).Where("id = ?", project.ID).
			Update("contingency_used", project.ContingencyUsed+draw.Amount).Error; err != nil {
			tx.Rollback()
			return apperr.Transaction("reserve debit failed", err)
		}

		if err := audit.WriteLogTx(tx, audit.LogOptions{
			ProjectID:   &draw.ProjectID,
			UserID:      approverID,
			UserName:    approverName,
			EntityType:  "contingency_draw",
			EntityID:    draw.ID,
			Action:      models.AuditActionApprove,
			Description: fmt.Sprintf("Contingency draw approved: %.2f KES (%s)", draw.Amount, draw.DrawType),
			Before:      draw,
		}); err != nil {
			tx.Rollback()
			return apperr.Transaction("audit write failed", err)
		}

		if err := tx.Commit().Error; err != nil {
			return apperr.Transaction("approval could not be committed", err)
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	if err := db.First(&draw, "id = ?", draw.ID).Error; err != nil {
		return nil, "", fmt.Errorf("draw reload failed: %w", err)
	}
	notify.Send(draw.RequestedBy, &draw.ProjectID,
		"Contingency draw approved",
		fmt.Sprintf("Your %.2f KES draw on %s was approved", draw.Amount, project.Name))

	return &draw, warning, nil
}

// RejectDraw is a pure status transition; nothing was debited at request
// time, so there is nothing to release.
func RejectDraw(drawID uint, approverID uint, approverName string) (*models.ContingencyDraw, error) {
	db := database.DB

	var draw models.ContingencyDraw
	if err := db.First(&draw, "id = ? AND deleted_at IS NULL", drawID).Error; err != nil {
		return nil, apperr.NotFound("contingency draw %d not found", drawID)
	}
	if draw.Status != models.ApprovalStatusPending {
		return nil, apperr.Conflict("contingency draw %d is already %s", draw.ID, draw.Status)
	}

	now := time.Now()
	if err := db.Model(&draw).Updates(map[string]interface{}{
		"status":      models.ApprovalStatusRejected,
		"approved_by": approverID,
		"decided_at":  now,
	}).Error; err != nil {
		return nil, fmt.Errorf("draw update failed: %w", err)
	}

	_ = audit.WriteLog(audit.LogOptions{
		ProjectID:   &draw.ProjectID,
		UserID:      approverID,
		UserName:    approverName,
		EntityType:  "contingency_draw",
		EntityID:    draw.ID,
		Action:      models.AuditActionReject,
		Description: fmt.Sprintf("Contingency draw rejected: %.2f KES (%s)", draw.Amount, draw.DrawType),
	})
	notify.Send(draw.RequestedBy, &draw.ProjectID,
		"Contingency draw rejected",
		fmt.Sprintf("Your %.2f KES draw was rejected", draw.Amount))

	return &draw, nil
}
