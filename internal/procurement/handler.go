package procurement

import (
	"fmt"
	"time"

	"github.com/Victorkib/kisheka-construction-sub014/internal/auth"
	"github.com/Victorkib/kisheka-construction-sub014/internal/database"
	"github.com/Victorkib/kisheka-construction-sub014/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateOrderRequest struct {
	MaterialRequestID uint    `json:"material_request_id"`
	SupplierID        uint    `json:"supplier_id"`
	QuantityOrdered   float64 `json:"quantity_ordered"`
	UnitCost          float64 `json:"unit_cost"`
	DeliveryDate      string  `json:"delivery_date"` // "2026-09-01"
}

type BulkOrderRequest struct {
	Assignments []BulkAssignmentRequest `json:"assignments"`
}

type BulkAssignmentRequest struct {
	MaterialRequestID uint    `json:"material_request_id"`
	SupplierID        uint    `json:"supplier_id"`
	QuantityOrdered   float64 `json:"quantity_ordered"`
	UnitCost          float64 `json:"unit_cost"`
	DeliveryDate      string  `json:"delivery_date"`
}

type SupplierResponseRequest struct {
	Accept bool `json:"accept"`
}

type OrderResponse struct {
	ID                uint    `json:"id"`
	ProjectID         uint    `json:"project_id"`
	OrderNumber       string  `json:"order_number"`
	MaterialRequestID uint    `json:"material_request_id"`
	SupplierID        uint    `json:"supplier_id"`
	QuantityOrdered   float64 `json:"quantity_ordered"`
	UnitCost          float64 `json:"unit_cost"`
	TotalCost         float64 `json:"total_cost"`
	DeliveryDate      string  `json:"delivery_date"`
	Status            string  `json:"status"`
	FinancialStatus   string  `json:"financial_status"`
	IsExisting        bool    `json:"is_existing,omitempty"`
}

func toOrderResponse(po *models.PurchaseOrder, isExisting bool) OrderResponse {
	return OrderResponse{
		ID:                po.ID,
		ProjectID:         po.ProjectID,
		OrderNumber:       po.OrderNumber,
		MaterialRequestID: po.MaterialRequestID,
		SupplierID:        po.SupplierID,
		QuantityOrdered:   po.QuantityOrdered,
		UnitCost:          po.UnitCost,
		TotalCost:         po.TotalCost,
		DeliveryDate:      po.DeliveryDate.Format("2006-01-02"),
		Status:            string(po.Status),
		FinancialStatus:   string(po.FinancialStatus),
		IsExisting:        isExisting,
	}
}

func actorInfo(c *fiber.Ctx) (uint, string, error) {
	userID, err := auth.ActorID(c)
	if err != nil {
		return 0, "", err
	}
	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return 0, "", fiber.NewError(fiber.StatusInternalServerError, "User not found")
	}
	return userID, user.Name, nil
}

// POST /api/purchase-orders
func CreateOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateOrderRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.MaterialRequestID == 0 || body.SupplierID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "material_request_id and supplier_id are required")
		}

		delivery, err := time.Parse("2006-01-02", body.DeliveryDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "delivery_date must be 'YYYY-MM-DD'")
		}

		userID, userName, err := actorInfo(c)
		if err != nil {
			return err
		}

		res, err := CreateOrder(CreateOrderInput{
			MaterialRequestID: body.MaterialRequestID,
			SupplierID:        body.SupplierID,
			QuantityOrdered:   body.QuantityOrdered,
			UnitCost:          body.UnitCost,
			DeliveryDate:      delivery,
			CreatedBy:         userID,
			CreatedByName:     userName,
		})
		if err != nil {
			return err
		}

		status := fiber.StatusCreated
		if res.IsExisting {
			status = fiber.StatusOK
		}
		return c.Status(status).JSON(toOrderResponse(&res.Order, res.IsExisting))
	}
}

// POST /api/purchase-orders/bulk
func CreateBulkOrdersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body BulkOrderRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		userID, userName, err := actorInfo(c)
		if err != nil {
			return err
		}

		assignments := make([]BulkAssignment, 0, len(body.Assignments))
		for i, a := range body.Assignments {
			delivery, err := time.Parse("2006-01-02", a.DeliveryDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest,
					fmt.Sprintf("assignments[%d].delivery_date must be 'YYYY-MM-DD'", i))
			}
			assignments = append(assignments, BulkAssignment{
				MaterialRequestID: a.MaterialRequestID,
				SupplierID:        a.SupplierID,
				QuantityOrdered:   a.QuantityOrdered,
				UnitCost:          a.UnitCost,
				DeliveryDate:      delivery,
			})
		}

		res, err := CreateBulkOrders(assignments, userID, userName)
		if err != nil {
			return err
		}

		created := make([]OrderResponse, 0, len(res.Created))
		for i := range res.Created {
			created = append(created, toOrderResponse(&res.Created[i].Order, res.Created[i].IsExisting))
		}
		failures := res.Failures
		if failures == nil {
			failures = []AssignmentFailure{}
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"created":  created,
			"failures": failures,
		})
	}
}

// GET /api/purchase-orders?project_id=...&status=...
func ListOrdersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		pidStr := c.Query("project_id")
		var pid uint
		if _, err := fmt.Sscan(pidStr, &pid); err != nil || pid == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "project_id is required")
		}

		q := database.DB.Where("project_id = ? AND deleted_at IS NULL", pid)
		if status := c.Query("status"); status != "" {
			q = q.Where("status = ?", status)
		}

		var orders []models.PurchaseOrder
		if err := q.Order("id desc").Find(&orders).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list purchase orders")
		}

		resp := make([]OrderResponse, 0, len(orders))
		for i := range orders {
			resp = append(resp, toOrderResponse(&orders[i], false))
		}
		return c.JSON(resp)
	}
}

// POST /api/supplier/orders/:token/respond
//
// Unauthenticated: the token in the URL is the supplier's credential.
func SupplierRespondHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Params("token")
		if token == "" {
			return fiber.NewError(fiber.StatusBadRequest, "token is required")
		}

		var body SupplierResponseRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		order, err := RespondToOrder(token, body.Accept)
		if err != nil {
			return err
		}
		return c.JSON(toOrderResponse(order, false))
	}
}

// PUT /api/purchase-orders/:id/convert
func ConvertOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var orderID uint
		if _, err := fmt.Sscan(id, &orderID); err != nil || orderID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id is invalid")
		}

		userID, userName, err := actorInfo(c)
		if err != nil {
			return err
		}

		order, err := ConvertOrder(orderID, userID, userName)
		if err != nil {
			return err
		}
		return c.JSON(toOrderResponse(order, false))
	}
}
