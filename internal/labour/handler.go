package labour

import (
	"fmt"
	"time"

	"github.com/Victorkib/kisheka-construction-sub014/internal/auth"
	"github.com/Victorkib/kisheka-construction-sub014/internal/database"
	"github.com/Victorkib/kisheka-construction-sub014/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateLabourRequest struct {
	ProjectID   uint    `json:"project_id"`
	PhaseID     *uint   `json:"phase_id"`
	FloorID     *uint   `json:"floor_id"`
	PeriodStart string  `json:"period_start"` // "2026-08-03"
	PeriodEnd   string  `json:"period_end"`
	WorkerCount int     `json:"worker_count"`
	TotalCost   float64 `json:"total_cost"`
	Description string  `json:"description"`
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

// POST /api/labour-batches
func CreateLabourHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateLabourRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.ProjectID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "project_id is required")
		}

		start, err := time.Parse("2006-01-02", body.PeriodStart)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "period_start must be 'YYYY-MM-DD'")
		}
		end, err := time.Parse("2006-01-02", body.PeriodEnd)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "period_end must be 'YYYY-MM-DD'")
		}

		userID, userName, err := actorInfo(c)
		if err != nil {
			return err
		}

		batch, err := Create(CreateInput{
			ProjectID:      body.ProjectID,
			PhaseID:        body.PhaseID,
			FloorID:        body.FloorID,
			PeriodStart:    start,
			PeriodEnd:      end,
			WorkerCount:    body.WorkerCount,
			TotalCost:      body.TotalCost,
			Description:    body.Description,
			RecordedBy:     userID,
			RecordedByName: userName,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(batch)
	}
}

// GET /api/labour-batches?project_id=...
func ListLabourHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var pid uint
		if _, err := fmt.Sscan(c.Query("project_id"), &pid); err != nil || pid == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "project_id is required")
		}

		var batches []models.LabourBatch
		if err := database.DB.Where("project_id = ? AND deleted_at IS NULL", pid).
			Order("period_start desc, id desc").Find(&batches).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list labour batches")
		}
		return c.JSON(batches)
	}
}

// PUT /api/labour-batches/:id/approve
func ApproveLabourHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		userID, userName, err := actorInfo(c)
		if err != nil {
			return err
		}
		batch, err := Approve(id, userID, userName)
		if err != nil {
			return err
		}
		return c.JSON(batch)
	}
}

// PUT /api/labour-batches/:id/pay
func PayLabourHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		userID, userName, err := actorInfo(c)
		if err != nil {
			return err
		}
		batch, err := MarkPaid(id, userID, userName)
		if err != nil {
			return err
		}
		return c.JSON(batch)
	}
}
