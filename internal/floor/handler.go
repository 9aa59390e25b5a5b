package floor

import (
	"fmt"
	"strings"

	"github.com/Victorkib/kisheka-construction-sub014/internal/database"
	"github.com/Victorkib/kisheka-construction-sub014/internal/finance"
	"github.com/Victorkib/kisheka-construction-sub014/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateFloorRequest struct {
	ProjectID uint   `json:"project_id"`
	Number    int    `json:"number"`
	Name      string `json:"name"`
}

// POST /api/floors
func CreateFloorHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateFloorRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.ProjectID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "project_id is required")
		}

		var project models.Project
		if err := database.DB.First(&project, "id = ? AND deleted_at IS NULL", body.ProjectID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Project not found")
		}

		// Floor numbers are unique within a project.
		var clash int64
		if err := database.DB.Model(&models.Floor{}).
			Where("project_id = ? AND number = ? AND deleted_at IS NULL", body.ProjectID, body.Number).
			Count(&clash).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not check floor number")
		}
		if clash > 0 {
			return fiber.NewError(fiber.StatusConflict, fmt.Sprintf("Floor %d already exists for this project", body.Number))
		}

		floor := models.Floor{
			ProjectID: body.ProjectID,
			Number:    body.Number,
			Name:      strings.TrimSpace(body.Name),
		}
		if err := database.DB.Create(&floor).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create floor")
		}
		return c.Status(fiber.StatusCreated).JSON(floor)
	}
}

// GET /api/floors?project_id=...
func ListFloorsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var pid uint
		if _, err := fmt.Sscan(c.Query("project_id"), &pid); err != nil || pid == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "project_id is required")
		}

		var floors []models.Floor
		if err := database.DB.Where("project_id = ? AND deleted_at IS NULL", pid).
			Order("number asc").Find(&floors).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list floors")
		}
		return c.JSON(floors)
	}
}

// GET /api/floors/:id/spending
//
// Refreshes the floor's derived spending before returning it.
func GetFloorSpendingHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id uint
		if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id is invalid")
		}

		if err := finance.RecalculateFloorSpending(id); err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Floor not found")
		}

		var floor models.Floor
		if err := database.DB.First(&floor, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load floor")
		}
		return c.JSON(fiber.Map{
			"id":              floor.ID,
			"project_id":      floor.ProjectID,
			"number":          floor.Number,
			"name":            floor.Name,
			"actual_spending": floor.ActualSpending,
			"committed_cost":  floor.CommittedCost,
		})
	}
}
