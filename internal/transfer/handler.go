package transfer

import (
	"fmt"

	"github.com/Victorkib/kisheka-construction-sub014/internal/auth"
	"github.com/Victorkib/kisheka-construction-sub014/internal/database"
	"github.com/Victorkib/kisheka-construction-sub014/internal/models"

	"github.com/gofiber/fiber/v2"
)

type TransferBody struct {
	ProjectID    uint    `json:"project_id"`
	FromCategory string  `json:"from_category"`
	ToCategory   string  `json:"to_category"`
	Amount       float64 `json:"amount"`
	Reason       string  `json:"reason"`
}

type AdjustmentBody struct {
	ProjectID      uint    `json:"project_id"`
	Category       string  `json:"category"`
	AdjustmentType string  `json:"adjustment_type"`
	Amount         float64 `json:"amount"`
	Reason         string  `json:"reason"`
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

func parseID(c *fiber.Ctx) (uint, error) {
	var id uint
	if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "id is invalid")
	}
	return id, nil
}

// POST /api/budget-transfers
func RequestTransferHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body TransferBody
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.ProjectID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "project_id is required")
		}

		userID, userName, err := actorInfo(c)
		if err != nil {
			return err
		}

		transfer, err := RequestTransfer(TransferRequest{
			ProjectID:       body.ProjectID,
			FromCategory:    models.BudgetCategory(body.FromCategory),
			ToCategory:      models.BudgetCategory(body.ToCategory),
			Amount:          body.Amount,
			Reason:          body.Reason,
			RequestedBy:     userID,
			RequestedByName: userName,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(transfer)
	}
}

// GET /api/budget-transfers?project_id=...
func ListTransfersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var pid uint
		if _, err := fmt.Sscan(c.Query("project_id"), &pid); err != nil || pid == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "project_id is required")
		}

		var transfers []models.BudgetTransfer
		if err := database.DB.Where("project_id = ?", pid).
			Order("id desc").Find(&transfers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list budget transfers")
		}
		return c.JSON(transfers)
	}
}

// PUT /api/budget-transfers/:id/approve
func ApproveTransferHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		userID, userName, err := actorInfo(c)
		if err != nil {
			return err
		}
		transfer, err := ApproveTransfer(id, userID, userName)
		if err != nil {
			return err
		}
		return c.JSON(transfer)
	}
}

// PUT /api/budget-transfers/:id/reject
func RejectTransferHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		userID, userName, err := actorInfo(c)
		if err != nil {
			return err
		}
		transfer, err := RejectTransfer(id, userID, userName)
		if err != nil {
			return err
		}
		return c.JSON(transfer)
	}
}

// POST /api/budget-adjustments
func RequestAdjustmentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body AdjustmentBody
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.ProjectID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "project_id is required")
		}

		userID, userName, err := actorInfo(c)
		if err != nil {
			return err
		}

		adjustment, err := RequestAdjustment(AdjustmentRequest{
			ProjectID:       body.ProjectID,
			Category:        models.BudgetCategory(body.Category),
			AdjustmentType:  models.AdjustmentType(body.AdjustmentType),
			Amount:          body.Amount,
			Reason:          body.Reason,
			RequestedBy:     userID,
			RequestedByName: userName,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(adjustment)
	}
}

// GET /api/budget-adjustments?project_id=...
func ListAdjustmentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var pid uint
		if _, err := fmt.Sscan(c.Query("project_id"), &pid); err != nil || pid == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "project_id is required")
		}

		var adjustments []models.BudgetAdjustment
		if err := database.DB.Where("project_id = ?", pid).
			Order("id desc").Find(&adjustments).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list budget adjustments")
		}
		return c.JSON(adjustments)
	}
}

// PUT /api/budget-adjustments/:id/approve
func ApproveAdjustmentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		userID, userName, err := actorInfo(c)
		if err != nil {
			return err
		}
		adjustment, err := ApproveAdjustment(id, userID, userName)
		if err != nil {
			return err
		}
		return c.JSON(adjustment)
	}
}

// PUT /api/budget-adjustments/:id/reject
func RejectAdjustmentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		userID, userName, err := actorInfo(c)
		if err != nil {
			return err
		}
		adjustment, err := RejectAdjustment(id, userID, userName)
		if err != nil {
			return err
		}
		return c.JSON(adjustment)
	}
}
