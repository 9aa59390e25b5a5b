package material

import (
	"fmt"

	"github.com/Victorkib/kisheka-construction-sub014/internal/auth"
	"github.com/Victorkib/kisheka-construction-sub014/internal/database"
	"github.com/Victorkib/kisheka-construction-sub014/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateMaterialRequest struct {
	ProjectID         uint    `json:"project_id"`
	PhaseID           *uint   `json:"phase_id"`
	FloorID           *uint   `json:"floor_id"`
	BatchID           *uint   `json:"batch_id"`
	Name              string  `json:"name"`
	Unit              string  `json:"unit"`
	QuantityRequested float64 `json:"quantity_requested"`
	UnitCost          float64 `json:"unit_cost"`
}

type CreateBatchRequest struct {
	ProjectID uint   `json:"project_id"`
	Note      string `json:"note"`
	MemberIDs []uint `json:"member_ids"`
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

// POST /api/materials
func CreateMaterialHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateMaterialRequest
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

		material, err := Create(CreateInput{
			ProjectID:         body.ProjectID,
			PhaseID:           body.PhaseID,
			FloorID:           body.FloorID,
			BatchID:           body.BatchID,
			Name:              body.Name,
			Unit:              body.Unit,
			QuantityRequested: body.QuantityRequested,
			UnitCost:          body.UnitCost,
			RequestedBy:       userID,
			RequestedByName:   userName,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(material)
	}
}

// GET /api/materials?project_id=...&status=...
func ListMaterialsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var pid uint
		if _, err := fmt.Sscan(c.Query("project_id"), &pid); err != nil || pid == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "project_id is required")
		}

		q := database.DB.Where("project_id = ? AND deleted_at IS NULL", pid)
		if status := c.Query("status"); status != "" {
			q = q.Where("status = ?", status)
		}

		var materials []models.MaterialRequest
		if err := q.Order("id desc").Find(&materials).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list material requests")
		}
		return c.JSON(materials)
	}
}

// PUT /api/materials/:id/approve
func ApproveMaterialHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		userID, userName, err := actorInfo(c)
		if err != nil {
			return err
		}
		material, err := Approve(id, userID, userName)
		if err != nil {
			return err
		}
		return c.JSON(material)
	}
}

// PUT /api/materials/:id/reject
func RejectMaterialHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		userID, userName, err := actorInfo(c)
		if err != nil {
			return err
		}
		material, err := Reject(id, userID, userName)
		if err != nil {
			return err
		}
		return c.JSON(material)
	}
}

// POST /api/material-batches
func CreateBatchHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateBatchRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.ProjectID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "project_id is required")
		}

		batch, err := CreateBatch(body.ProjectID, body.Note, body.MemberIDs)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(batch)
	}
}
