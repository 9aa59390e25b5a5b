package labour

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
	PeriodStart    time.Time
	PeriodEnd      time.Time
	WorkerCount    int
	TotalCost      float64
	Description    string
	RecordedBy     uint
	RecordedByName string
}

func Create(in CreateInput) (*models.LabourBatch, error) {
	db := database.DB

	if in.TotalCost <= 0 {
		return nil, apperr.Validation("total_cost must be greater than 0")
	}
	if in.PeriodEnd.Before(in.PeriodStart) {
		return nil, apperr.Validation("period_end cannot be before period_start")
	}

	var project models.Project
	if err := db.First(&project, "id = ? AND deleted_at IS NULL", in.ProjectID).Error; err != nil {
		return nil, apperr.NotFound("project %d not found", in.ProjectID)
	}
	if project.Status != models.ProjectStatusActive {
		return nil, apperr.Conflict("project %s is archived", project.Name)
	}

	batch := models.LabourBatch{
		ProjectID:   in.ProjectID,
		PhaseID:     in.PhaseID,
		FloorID:     in.FloorID,
		PeriodStart: in.PeriodStart,
		PeriodEnd:   in.PeriodEnd,
		WorkerCount: in.WorkerCount,
		TotalCost:   in.TotalCost,
		Description: in.Description,
		Status:      models.LabourStatusPending,
		RecordedBy:  in.RecordedBy,
	}
	if err := db.Create(&batch).Error; err != nil {
		return nil, fmt.Errorf("labour batch insert failed: %w", err)
	}

	_ = audit.WriteLog(audit.LogOptions{
		ProjectID:   &in.ProjectID,
		UserID:      in.RecordedBy,
		UserName:    in.RecordedByName,
		EntityType:  "labour_batch",
		EntityID:    batch.ID,
		Action:      models.AuditActionCreate,
		Description: fmt.Sprintf("Labour batch recorded: %.2f KES for %d workers", batch.TotalCost, batch.WorkerCount),
		After:       batch,
	})
	return &batch, nil
}

// Approve puts the batch through the capital gate; once approved its cost is
// actual labour spending.
func Approve(batchID uint, approverID uint, approverName string) (*models.LabourBatch, error) {
	db := database.DB

	var batch models.LabourBatch
	if err := db.First(&batch, "id = ? AND deleted_at IS NULL", batchID).Error; err != nil {
		return nil, apperr.NotFound("labour batch %d not found", batchID)
	}
	if batch.Status != models.LabourStatusPending {
		return nil, apperr.Conflict("labour batch %d is %s, expected pending", batch.ID, batch.Status)
	}

	err := finance.WithProjectLock(batch.ProjectID, func() error {
		check, err := finance.ValidateCapitalAvailability(batch.ProjectID, batch.TotalCost)
		if err != nil {
			return err
		}
		if !check.IsValid {
			return apperr.Validation("%s", check.Message)
		}
		return db.Model(&batch).Update("status", models.LabourStatusApproved).Error
	})
	if err != nil {
		return nil, err
	}

	_ = audit.WriteLog(audit.LogOptions{
		ProjectID:   &batch.ProjectID,
		UserID:      approverID,
		UserName:    approverName,
		EntityType:  "labour_batch",
		EntityID:    batch.ID,
		Action:      models.AuditActionApprove,
		Description: fmt.Sprintf("Labour batch approved: %.2f KES", batch.TotalCost),
	})

	finance.RecalcAndLog(batch.ProjectID)
	if batch.PhaseID != nil {
		finance.RecalcPhaseAndLog(*batch.PhaseID)
	}
	if batch.FloorID != nil {
		finance.RecalcFloorAndLog(*batch.FloorID)
	}

	if err := db.First(&batch, "id = ?", batch.ID).Error; err != nil {
		return nil, fmt.Errorf("labour batch reload failed: %w", err)
	}
	return &batch, nil
}

// MarkPaid records payment. Approved batches already count as spending, so
// this transition does not move any aggregate.
func MarkPaid(batchID uint, actorID uint, actorName string) (*models.LabourBatch, error) {
	db := database.DB

	var batch models.LabourBatch
	if err := db.First(&batch, "id = ? AND deleted_at IS NULL", batchID).Error; err != nil {
		return nil, apperr.NotFound("labour batch %d not found", batchID)
	}
	if batch.Status != models.LabourStatusApproved {
		return nil, apperr.Conflict("labour batch %d is %s, expected approved", batch.ID, batch.Status)
	}

	if err := db.Model(&batch).Update("status", models.LabourStatusPaid).Error; err != nil {
		return nil, fmt.Errorf("labour batch update failed: %w", err)
	}

	_ = audit.WriteLog(audit.LogOptions{
		ProjectID:   &batch.ProjectID,
		UserID:      actorID,
		UserName:    actorName,
		EntityType:  "labour_batch",
		EntityID:    batch.ID,
		Action:      models.AuditActionUpdate,
		Description: fmt.Sprintf("Labour batch paid: %.2f KES", batch.TotalCost),
	})
	return &batch, nil
}
