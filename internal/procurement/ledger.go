package procurement

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Victorkib/kisheka-construction-sub014/internal/apperr"
	"github.com/Victorkib/kisheka-construction-sub014/internal/audit"
	"github.com/Victorkib/kisheka-construction-sub014/internal/database"
	"github.com/Victorkib/kisheka-construction-sub014/internal/finance"
	"github.com/Victorkib/kisheka-construction-sub014/internal/models"
	"github.com/Victorkib/kisheka-construction-sub014/internal/notify"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateOrderInput struct {
	MaterialRequestID uint
	SupplierID        uint
	QuantityOrdered   float64
	UnitCost          float64
	DeliveryDate      time.Time
	CreatedBy         uint
	CreatedByName     string
}

type CreateOrderResult struct {
	Order      models.PurchaseOrder
	IsExisting bool
}

// CreateOrder inserts a purchase order exactly once per idempotency key.
// The PO insert, the material request's approved -> converted_to_order
// transition and the audit row commit in one transaction; notifications and
// recalculation happen strictly after commit and never undo the commitment.
func CreateOrder(in CreateOrderInput) (*CreateOrderResult, error) {
	db := database.DB

	if in.QuantityOrdered <= 0 || in.UnitCost <= 0 {
		return nil, apperr.Validation("quantity_ordered and unit_cost must be greater than 0")
	}

	var material models.MaterialRequest
	if err := db.First(&material, "id = ? AND deleted_at IS NULL", in.MaterialRequestID).Error; err != nil {
		return nil, apperr.NotFound("material request %d not found", in.MaterialRequestID)
	}

	var supplier models.Supplier
	if err := db.First(&supplier, "id = ? AND deleted_at IS NULL", in.SupplierID).Error; err != nil {
		return nil, apperr.NotFound("supplier %d not found", in.SupplierID)
	}

	totalCost := in.QuantityOrdered * in.UnitCost
	key := IdempotencyKey(in.MaterialRequestID, in.SupplierID, in.QuantityOrdered, in.UnitCost, in.DeliveryDate)

	// Retried request? Return the already-created order unchanged.
	var existing models.PurchaseOrder
	err := db.Where("idempotency_key = ? AND deleted_at IS NULL", key).
		Order("id desc").First(&existing).Error
	switch {
	case err == nil:
		if material.LinkedPurchaseOrderID != nil && *material.LinkedPurchaseOrderID == existing.ID {
			return &CreateOrderResult{Order: existing, IsExisting: true}, nil
		}
		// Orphaned order: the key matches but the material never got linked.
		// Log the anomaly and fall through to create a fresh record.
		log.Printf("orphaned purchase order %d for idempotency key %s (material %d not linked), creating new order",
			existing.ID, key, material.ID)
	case errors.Is(err, gorm.ErrRecordNotFound):
		// first time through
	default:
		return nil, fmt.Errorf("idempotency lookup failed: %w", err)
	}

	if material.Status != models.MaterialStatusApproved {
		return nil, apperr.Conflict("material request %d is %s, expected approved", material.ID, material.Status)
	}

	var result *CreateOrderResult
	lockErr := finance.WithProjectLock(material.ProjectID, func() error {
		check, err := finance.ValidateCapitalAvailability(material.ProjectID, totalCost)
		if err != nil {
			return err
		}
		if !check.IsValid {
			return apperr.Validation("%s", check.Message)
		}

		order := models.PurchaseOrder{
			ProjectID:         material.ProjectID,
			PhaseID:           material.PhaseID,
			FloorID:           material.FloorID,
			OrderNumber:       newOrderNumber(),
			MaterialRequestID: material.ID,
			SupplierID:        supplier.ID,
			QuantityOrdered:   in.QuantityOrdered,
			UnitCost:          in.UnitCost,
			TotalCost:         totalCost,
			DeliveryDate:      in.DeliveryDate,
			Status:            models.POStatusOrderSent,
			FinancialStatus:   models.POFinanceCommitted,
			IdempotencyKey:    key,
			ResponseToken:     uuid.NewString(),
			CreatedBy:         in.CreatedBy,
		}

		tx := db.Begin()
		if tx.Error != nil {
			return apperr.Transaction("could not start transaction", tx.Error)
		}

		if err := tx.Create(&order).Error; err != nil {
			tx.Rollback()
			return apperr.Transaction("purchase order insert failed", err)
		}

		link := tx.Model(&models.MaterialRequest{}).
			Where("id = ? AND status = ?", material.ID, models.MaterialStatusApproved).
			Updates(map[string]interface{}{
				"status":                   models.MaterialStatusConvertedToOrder,
				"linked_purchase_order_id": order.ID,
			})
		if link.Error != nil {
			tx.Rollback()
			return apperr.Transaction("material request link failed", link.Error)
		}
		if link.RowsAffected == 0 {
			// Someone converted it between our read and this write.
			tx.Rollback()
			return apperr.Conflict("material request %d was already converted", material.ID)
		}

		if err := audit.WriteLogTx(tx, audit.LogOptions{
			ProjectID:   &material.ProjectID,
			UserID:      in.CreatedBy,
			UserName:    in.CreatedByName,
			EntityType:  "purchase_order",
			EntityID:    order.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Purchase order %s created: %s - %.2f KES", order.OrderNumber, supplier.Name, order.TotalCost),
			After:       order,
		}); err != nil {
			tx.Rollback()
			return apperr.Transaction("audit write failed", err)
		}

		if err := tx.Commit().Error; err != nil {
			return apperr.Transaction("commitment could not be committed", err)
		}

		result = &CreateOrderResult{Order: order}
		return nil
	})
	if lockErr != nil {
		return nil, lockErr
	}

	// Post-commit side effects, each independent and best effort.
	finance.RecalcAndLog(material.ProjectID)
	if material.PhaseID != nil {
		finance.RecalcPhaseAndLog(*material.PhaseID)
	}
	if material.FloorID != nil {
		finance.RecalcFloorAndLog(*material.FloorID)
	}
	notify.Send(material.RequestedBy, &material.ProjectID,
		"Purchase order sent",
		fmt.Sprintf("Order %s for %s was sent to %s", result.Order.OrderNumber, material.Name, supplier.Name))

	return result, nil
}

func newOrderNumber() string {
	return "PO-" + strings.ToUpper(uuid.NewString()[:8])
}

type BulkAssignment struct {
	MaterialRequestID uint      `json:"material_request_id"`
	SupplierID        uint      `json:"supplier_id"`
	QuantityOrdered   float64   `json:"quantity_ordered"`
	UnitCost          float64   `json:"unit_cost"`
	DeliveryDate      time.Time `json:"delivery_date"`
}

type AssignmentFailure struct {
	Index             int    `json:"index"`
	MaterialRequestID uint   `json:"material_request_id"`
	Error             string `json:"error"`
}

type BulkResult struct {
	Created  []CreateOrderResult `json:"created"`
	Failures []AssignmentFailure `json:"failures"`
}

// CreateBulkOrders attempts each assignment independently and collects
// per-assignment failures. The batch fails as a whole only when zero
// purchase orders were created.
func CreateBulkOrders(assignments []BulkAssignment, createdBy uint, createdByName string) (*BulkResult, error) {
	if len(assignments) == 0 {
		return nil, apperr.Validation("at least one assignment is required")
	}

	result := &BulkResult{}
	batchIDs := map[uint]bool{}

	for i, a := range assignments {
		res, err := CreateOrder(CreateOrderInput{
			MaterialRequestID: a.MaterialRequestID,
			SupplierID:        a.SupplierID,
			QuantityOrdered:   a.QuantityOrdered,
			UnitCost:          a.UnitCost,
			DeliveryDate:      a.DeliveryDate,
			CreatedBy:         createdBy,
			CreatedByName:     createdByName,
		})
		if err != nil {
			result.Failures = append(result.Failures, AssignmentFailure{
				Index:             i,
				MaterialRequestID: a.MaterialRequestID,
				Error:             err.Error(),
			})
			continue
		}
		result.Created = append(result.Created, *res)

		var material models.MaterialRequest
		if lookupErr := database.DB.First(&material, "id = ?", a.MaterialRequestID).Error; lookupErr == nil && material.BatchID != nil {
			batchIDs[*material.BatchID] = true
		}
	}

	if len(result.Created) == 0 {
		return nil, apperr.Validation("no purchase orders could be created (%d failures)", len(result.Failures))
	}

	for batchID := range batchIDs {
		if err := updateBatchStatus(batchID); err != nil {
			log.Printf("batch status update failed for batch %d: %v", batchID, err)
		}
	}

	return result, nil
}

// updateBatchStatus marks a batch fully_ordered only when every one of its
// material requests has reached converted_to_order.
func updateBatchStatus(batchID uint) error {
	db := database.DB

	var pending int64
	if err := db.Model(&models.MaterialRequest{}).
		Where("batch_id = ? AND status <> ? AND deleted_at IS NULL", batchID, models.MaterialStatusConvertedToOrder).
		Count(&pending).Error; err != nil {
		return err
	}

	status := models.BatchStatusFullyOrdered
	if pending > 0 {
		status = models.BatchStatusPartiallyOrdered
	}

	return db.Model(&models.MaterialBatch{}).Where("id = ?", batchID).
		Update("status", status).Error
}

// RespondToOrder records the supplier's decision, addressed by the response
// token rather than an authenticated account.
func RespondToOrder(token string, accept bool) (*models.PurchaseOrder, error) {
	db := database.DB

	var order models.PurchaseOrder
	if err := db.First(&order, "response_token = ? AND deleted_at IS NULL", token).Error; err != nil {
		return nil, apperr.NotFound("purchase order not found for token")
	}

	if order.Status != models.POStatusOrderSent {
		return nil, apperr.Conflict("purchase order %s is already %s", order.OrderNumber, order.Status)
	}

	if accept {
		if err := db.Model(&order).Update("status", models.POStatusAccepted).Error; err != nil {
			return nil, fmt.Errorf("order update failed: %w", err)
		}
	} else {
		// A rejected order releases its commitment and puts the material
		// back on the approved pile for re-ordering.
		tx := db.Begin()
		if tx.Error != nil {
			return nil, apperr.Transaction("could not start transaction", tx.Error)
		}
		if err := tx.Model(&order).Updates(map[string]interface{}{
			"status":           models.POStatusRejected,
			"financial_status": models.POFinanceNotCommitted,
		}).Error; err != nil {
			tx.Rollback()
			return nil, apperr.Transaction("order update failed", err)
		}
		if err := tx.Model(&models.MaterialRequest{}).
			Where("id = ? AND linked_purchase_order_id = ?", order.MaterialRequestID, order.ID).
			Updates(map[string]interface{}{
				"status":                   models.MaterialStatusApproved,
				"linked_purchase_order_id": nil,
			}).Error; err != nil {
			tx.Rollback()
			return nil, apperr.Transaction("material release failed", err)
		}
		if err := tx.Commit().Error; err != nil {
			return nil, apperr.Transaction("rejection could not be committed", err)
		}
	}

	finance.RecalcAndLog(order.ProjectID)
	if order.PhaseID != nil {
		finance.RecalcPhaseAndLog(*order.PhaseID)
	}

	if err := db.First(&order, "id = ?", order.ID).Error; err != nil {
		return nil, fmt.Errorf("order reload failed: %w", err)
	}
	notify.Send(order.CreatedBy, &order.ProjectID,
		"Supplier responded",
		fmt.Sprintf("Order %s was %s", order.OrderNumber, order.Status))
	return &order, nil
}

// ConvertOrder realizes an accepted order: the material is received and the
// committed amount becomes actual material cost. The commitment is not
// decremented a second time anywhere; recalculation simply stops seeing the
// order as committed and starts seeing the material as received.
func ConvertOrder(orderID uint, actorID uint, actorName string) (*models.PurchaseOrder, error) {
	db := database.DB

	var order models.PurchaseOrder
	if err := db.First(&order, "id = ? AND deleted_at IS NULL", orderID).Error; err != nil {
		return nil, apperr.NotFound("purchase order %d not found", orderID)
	}

	if order.Status == models.POStatusConverted {
		return nil, apperr.Conflict("purchase order %s is already converted", order.OrderNumber)
	}
	if order.Status != models.POStatusAccepted {
		return nil, apperr.Conflict("purchase order %s must be accepted before conversion, is %s", order.OrderNumber, order.Status)
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperr.Transaction("could not start transaction", tx.Error)
	}

	if err := tx.Model(&order).Updates(map[string]interface{}{
		"status":           models.POStatusConverted,
		"financial_status": models.POFinanceRealized,
	}).Error; err != nil {
		tx.Rollback()
		return nil, apperr.Transaction("order conversion failed", err)
	}

	if err := tx.Model(&models.MaterialRequest{}).
		Where("id = ? AND linked_purchase_order_id = ?", order.MaterialRequestID, order.ID).
		Updates(map[string]interface{}{
			"status":     models.MaterialStatusReceived,
			"unit_cost":  order.UnitCost,
			"total_cost": order.TotalCost,
		}).Error; err != nil {
		tx.Rollback()
		return nil, apperr.Transaction("material receipt failed", err)
	}

	if err := audit.WriteLogTx(tx, audit.LogOptions{
		ProjectID:   &order.ProjectID,
		UserID:      actorID,
		UserName:    actorName,
		EntityType:  "purchase_order",
		EntityID:    order.ID,
		Action:      models.AuditActionUpdate,
		Description: fmt.Sprintf("Purchase order %s converted to material cost: %.2f KES", order.OrderNumber, order.TotalCost),
		After:       order,
	}); err != nil {
		tx.Rollback()
		return nil, apperr.Transaction("audit write failed", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperr.Transaction("conversion could not be committed", err)
	}

	finance.RecalcAndLog(order.ProjectID)
	if order.PhaseID != nil {
		finance.RecalcPhaseAndLog(*order.PhaseID)
	}
	if order.FloorID != nil {
		finance.RecalcFloorAndLog(*order.FloorID)
	}

	if err := db.First(&order, "id = ?", order.ID).Error; err != nil {
		return nil, fmt.Errorf("order reload failed: %w", err)
	}
	return &order, nil
}
