package subcontractor

import (
	"fmt"
	"strings"
	"time"

	"github.com/Victorkib/kisheka-construction-sub014/internal/apperr"
	"github.com/Victorkib/kisheka-construction-sub014/internal/audit"
	"github.com/Victorkib/kisheka-construction-sub014/internal/database"
	"github.com/Victorkib/kisheka-construction-sub014/internal/finance"
	"github.com/Victorkib/kisheka-construction-sub014/internal/models"
)

func Create(name, trade, phone string) (*models.Subcontractor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}

	sub := models.Subcontractor{Name: name, Trade: trade, Phone: phone}
	if err := database.DB.Create(&sub).Error; err != nil {
		return nil, fmt.Errorf("subcontractor insert failed: %w", err)
	}
	return &sub, nil
}

type PaymentInput struct {
	ProjectID       uint
	PhaseID         *uint
	FloorID         *uint
	SubcontractorID uint
	Amount          float64
	Date            time.Time
	Description     string
	RecordedBy      uint
	RecordedByName  string
}

func CreatePayment(in PaymentInput) (*models.SubcontractorPayment, error) {
	db := database.DB

	if in.Amount <= 0 {
		return nil, apperr.Validation("amount must be greater than 0")
	}

	var project models.Project
	if err := db.First(&project, "id = ? AND deleted_at IS NULL", in.ProjectID).Error; err != nil {
		return nil, apperr.NotFound("project %d not found", in.ProjectID)
	}
	if project.Status != models.ProjectStatusActive {
		return nil, apperr.Conflict("project %s is archived", project.Name)
	}

	var sub models.Subcontractor
	if err := db.First(&sub, "id = ? AND deleted_at IS NULL", in.SubcontractorID).Error; err != nil {
		return nil, apperr.NotFound("subcontractor %d not found", in.SubcontractorID)
	}

	if in.Date.IsZero() {
		in.Date = time.Now()
	}

	payment := models.SubcontractorPayment{
		ProjectID:       in.ProjectID,
		PhaseID:         in.PhaseID,
		FloorID:         in.FloorID,
		SubcontractorID: in.SubcontractorID,
		Amount:          in.Amount,
		Date:            in.Date,
		Description:     in.Description,
		Status:          models.SubPaymentStatusPending,
		RecordedBy:      in.RecordedBy,
	}
	if err := db.Create(&payment).Error; err != nil {
		return nil, fmt.Errorf("payment insert failed: %w", err)
	}

	_ = audit.WriteLog(audit.LogOptions{
		ProjectID:   &in.ProjectID,
		UserID:      in.RecordedBy,
		UserName:    in.RecordedByName,
		EntityType:  "subcontractor_payment",
		EntityID:    payment.ID,
		Action:      models.AuditActionCreate,
		Description: fmt.Sprintf("Subcontractor payment recorded: %s - %.2f KES", sub.Name, payment.Amount),
		After:       payment,
	})
	return &payment, nil
}

// ApprovePayment runs through the capital gate and makes the amount actual
// subcontractor spending.
func ApprovePayment(paymentID uint, approverID uint, approverName string) (*models.SubcontractorPayment, error) {
	db := database.DB

	var payment models.SubcontractorPayment
	if err := db.First(&payment, "id = ? AND deleted_at IS NULL", paymentID).Error; err != nil {
		return nil, apperr.NotFound("payment %d not found", paymentID)
	}
	if payment.Status != models.SubPaymentStatusPending {
		return nil, apperr.Conflict("payment %d is %s, expected pending", payment.ID, payment.Status)
	}

	err := finance.WithProjectLock(payment.ProjectID, func() error {
		check, err := finance.ValidateCapitalAvailability(payment.ProjectID, payment.Amount)
		if err != nil {
			return err
		}
		if !check.IsValid {
			return apperr.Validation("%s", check.Message)
		}
		return db.Model(&payment).Update("status", models.SubPaymentStatusApproved).Error
	})
	if err != nil {
		return nil, err
	}

	_ = audit.WriteLog(audit.LogOptions{
		ProjectID:   &payment.ProjectID,
		UserID:      approverID,
		UserName:    approverName,
		EntityType:  "subcontractor_payment",
		EntityID:    payment.ID,
		Action:      models.AuditActionApprove,
		Description: fmt.Sprintf("Subcontractor payment approved: %.2f KES", payment.Amount),
	})

	finance.RecalcAndLog(payment.ProjectID)
	if payment.PhaseID != nil {
		finance.RecalcPhaseAndLog(*payment.PhaseID)
	}
	if payment.FloorID != nil {
		finance.RecalcFloorAndLog(*payment.FloorID)
	}

	if err := db.First(&payment, "id = ?", payment.ID).Error; err != nil {
		return nil, fmt.Errorf("payment reload failed: %w", err)
	}
	return &payment, nil
}

// MarkPaymentPaid is bookkeeping only; approved payments already count.
func MarkPaymentPaid(paymentID uint, actorID uint, actorName string) (*models.SubcontractorPayment, error) {
	db := database.DB

	var payment models.SubcontractorPayment
	if err := db.First(&payment, "id = ? AND deleted_at IS NULL", paymentID).Error; err != nil {
		return nil, apperr.NotFound("payment %d not found", paymentID)
	}
	if payment.Status != models.SubPaymentStatusApproved {
		return nil, apperr.Conflict("payment %d is %s, expected approved", payment.ID, payment.Status)
	}

	if err := db.Model(&payment).Update("status", models.SubPaymentStatusPaid).Error; err != nil {
		return nil, fmt.Errorf("payment update failed: %w", err)
	}

	_ = audit.WriteLog(audit.LogOptions{
		ProjectID:   &payment.ProjectID,
		UserID:      actorID,
		UserName:    actorName,
		EntityType:  "subcontractor_payment",
		EntityID:    payment.ID,
		Action:      models.AuditActionUpdate,
		Description: fmt.Sprintf("Subcontractor payment paid: %.2f KES", payment.Amount),
	})
	return &payment, nil
}
