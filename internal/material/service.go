package material

import (
	"fmt"
	"strings"
	"time"

	"github.com/Victorkib/kisheka-construction-sub014/internal/apperr"
	"github.com/Victorkib/kisheka-construction-sub014/internal/audit"
	"github.com/Victorkib/kisheka-construction-sub014/internal/database"
	"github.com/Victorkib/kisheka-construction-sub014/internal/finance"
	"github.com/Victorkib/kisheka-construction-sub014/internal/models"
	"github.com/Victorkib/kisheka-construction-sub014/internal/notify"
)

type CreateInput struct {
	ProjectID         uint
	PhaseID           *uint
	FloorID           *uint
	BatchID           *uint
	Name              string
	Unit              string
	QuantityRequested float64
	UnitCost          float64
	RequestedBy       uint
	RequestedByName   string
}

// Create records a pending material request. Pending requests carry no
// financial weight until approval.
func Create(in CreateInput) (*models.MaterialRequest, error) {
	db := database.DB

	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, apperr.Validation("name is required")
	}
	if in.QuantityRequested <= 0 || in.UnitCost < 0 {
		return nil, apperr.Validation("quantity_requested must be positive and unit_cost non-negative")
	}

	var project models.Project
	if err := db.First(&project, "id = ? AND deleted_at IS NULL", in.ProjectID).Error; err != nil {
		return nil, apperr.NotFound("project %d not found", in.ProjectID)
	}
	if project.Status != models.ProjectStatusActive {
		return nil, apperr.Conflict("project %s is archived", project.Name)
	}
	if in.PhaseID != nil {
		var n int64
		if err := db.Model(&models.Phase{}).
			Where("id = ? AND project_id = ? AND deleted_at IS NULL", *in.PhaseID, in.ProjectID).
			Count(&n).Error; err != nil || n == 0 {
			return nil, apperr.NotFound("phase %d not found in project %d", *in.PhaseID, in.ProjectID)
		}
	}
	if in.FloorID != nil {
		var n int64
		if err := db.Model(&models.Floor{}).
			Where("id = ? AND project_id = ? AND deleted_at IS NULL", *in.FloorID, in.ProjectID).
			Count(&n).Error; err != nil || n == 0 {
			return nil, apperr.NotFound("floor %d not found in project %d", *in.FloorID, in.ProjectID)
		}
	}

	material := models.MaterialRequest{
		ProjectID:         in.ProjectID,
		PhaseID:           in.PhaseID,
		FloorID:           in.FloorID,
		BatchID:           in.BatchID,
		Name:              in.Name,
		Unit:              in.Unit,
		QuantityRequested: in.QuantityRequested,
		UnitCost:          in.UnitCost,
		TotalCost:         in.QuantityRequested * in.UnitCost,
		Status:            models.MaterialStatusPending,
		RequestedBy:       in.RequestedBy,
	}
	if err := db.Create(&material).Error; err != nil {
		return nil, fmt.Errorf("material request insert failed: %w", err)
	}

	_ = audit.WriteLog(audit.LogOptions{
		ProjectID:   &in.ProjectID,
		UserID:      in.RequestedBy,
		UserName:    in.RequestedByName,
		EntityType:  "material_request",
		EntityID:    material.ID,
		Action:      models.AuditActionCreate,
		Description: fmt.Sprintf("Material requested: %s - %.2f KES", material.Name, material.TotalCost),
		After:       material,
	})
	return &material, nil
}

// Approve makes the request's cost real spending, so it passes through the
// same capital gate as a purchase order commitment.
func Approve(materialID uint, approverID uint, approverName string) (*models.MaterialRequest, error) {
	db := database.DB

	var material models.MaterialRequest
	if err := db.First(&material, "id = ? AND deleted_at IS NULL", materialID).Error; err != nil {
		return nil, apperr.NotFound("material request %d not found", materialID)
	}
	if material.Status != models.MaterialStatusPending {
		return nil, apperr.Conflict("material request %d is %s, expected pending", material.ID, material.Status)
	}

	err := finance.WithProjectLock(material.ProjectID, func() error {
		check, err := finance.ValidateCapitalAvailability(material.ProjectID, material.TotalCost)
		if err != nil {
			return err
		}
		if !check.IsValid {
			return apperr.Validation("%s", check.Message)
		}

		return db.Model(&material).Updates(map[string]interface{}{
			"status":      models.MaterialStatusApproved,
			"approved_by": approverID,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	_ = audit.WriteLog(audit.LogOptions{
		ProjectID:   &material.ProjectID,
		UserID:      approverID,
		UserName:    approverName,
		EntityType:  "material_request",
		EntityID:    material.ID,
		Action:      models.AuditActionApprove,
		Description: fmt.Sprintf("Material approved: %s - %.2f KES", material.Name, material.TotalCost),
	})

	finance.RecalcAndLog(material.ProjectID)
	if material.PhaseID != nil {
		finance.RecalcPhaseAndLog(*material.PhaseID)
	}
	if material.FloorID != nil {
		finance.RecalcFloorAndLog(*material.FloorID)
	}
	notify.Send(material.RequestedBy, &material.ProjectID,
		"Material request approved",
		fmt.Sprintf("%s was approved for %.2f KES", material.Name, material.TotalCost))

	if err := db.First(&material, "id = ?", material.ID).Error; err != nil {
		return nil, fmt.Errorf("material reload failed: %w", err)
	}
	return &material, nil
}

// Reject declines a pending request.
func Reject(materialID uint, approverID uint, approverName string) (*models.MaterialRequest, error) {
	db := database.DB

	var material models.MaterialRequest
	if err := db.First(&material, "id = ? AND deleted_at IS NULL", materialID).Error; err != nil {
		return nil, apperr.NotFound("material request %d not found", materialID)
	}
	if material.Status != models.MaterialStatusPending {
		return nil, apperr.Conflict("material request %d is %s, expected pending", material.ID, material.Status)
	}

	if err := db.Model(&material).Updates(map[string]interface{}{
		"status":      models.MaterialStatusRejected,
		"approved_by": approverID,
	}).Error; err != nil {
		return nil, fmt.Errorf("material update failed: %w", err)
	}

	_ = audit.WriteLog(audit.LogOptions{
		ProjectID:   &material.ProjectID,
		UserID:      approverID,
		UserName:    approverName,
		EntityType:  "material_request",
		EntityID:    material.ID,
		Action:      models.AuditActionReject,
		Description: fmt.Sprintf("Material rejected: %s", material.Name),
	})
	notify.Send(material.RequestedBy, &material.ProjectID,
		"Material request rejected",
		fmt.Sprintf("%s was rejected", material.Name))
	return &material, nil
}

// CreateBatch opens a batch that bulk ordering can later close out.
func CreateBatch(projectID uint, note string, memberIDs []uint) (*models.MaterialBatch, error) {
	db := database.DB

	var project models.Project
	if err := db.First(&project, "id = ? AND deleted_at IS NULL", projectID).Error; err != nil {
		return nil, apperr.NotFound("project %d not found", projectID)
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperr.Transaction("could not start transaction", tx.Error)
	}

	batch := models.MaterialBatch{ProjectID: projectID, Note: note, Status: models.BatchStatusOpen}
	if err := tx.Create(&batch).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("batch insert failed: %w", err)
	}

	if len(memberIDs) > 0 {
		result := tx.Model(&models.MaterialRequest{}).
			Where("id IN ? AND project_id = ? AND batch_id IS NULL AND deleted_at IS NULL", memberIDs, projectID).
			Updates(map[string]interface{}{"batch_id": batch.ID, "updated_at": time.Now()})
		if result.Error != nil {
			tx.Rollback()
			return nil, fmt.Errorf("batch membership update failed: %w", result.Error)
		}
		// All or nothing: a short claim count means a member is missing,
		// foreign or already batched, and the batch must not exist either.
		if result.RowsAffected != int64(len(memberIDs)) {
			tx.Rollback()
			return nil, apperr.Validation("some material requests were not found, belong to another project or are already batched")
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperr.Transaction("batch could not be committed", err)
	}
	return &batch, nil
}
