package contingency

import (
	"fmt"

	"github.com/Victorkib/kisheka-construction-sub014/internal/auth"
	"github.com/Victorkib/kisheka-construction-sub014/internal/database"
	"github.com/Victorkib/kisheka-construction-sub014/internal/models"

	"github.com/gofiber/fiber/v2"
)

type RequestDrawBody struct {
	ProjectID uint    `json:"project_id"`
	DrawType  string  `json:"draw_type"`
	Amount    float64 `json:"amount"`
	Reason    string  `json:"reason"`
}

type DrawResponse struct {
	ID        uint    `json:"id"`
	ProjectID uint    `json:"project_id"`
	DrawType  string  `json:"draw_type"`
	Amount    float64 `json:"amount"`
	Reason    string  `json:"reason"`
	Status    string  `json:"status"`
	Warning   string  `json:"warning,omitempty"`
}

func toDrawResponse(d *models.ContingencyDraw, warning string) DrawResponse {
	return DrawResponse{
		ID:        d.ID,
		ProjectID: d.ProjectID,
		DrawType:  string(d.DrawType),
		Amount:    d.Amount,
		Reason:    d.Reason,
		Status:    string(d.Status),
		Warning:   warning,
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

// POST /api/contingency-draws
func RequestDrawHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RequestDrawBody
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

		draw, warning, err := RequestDraw(DrawRequest{
			ProjectID:       body.ProjectID,
			DrawType:        models.ContingencyDrawType(body.DrawType),
			Amount:          body.Amount,
			Reason:          body.Reason,
			RequestedBy:     userID,
			RequestedByName: userName,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(toDrawResponse(draw, warning))
	}
}

// GET /api/contingency-draws?project_id=...
func ListDrawsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		pidStr := c.Query("project_id")
		var pid uint
		if _, err := fmt.Sscan(pidStr, &pid); err != nil || pid == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "project_id is required")
		}

		var draws []models.ContingencyDraw
		if err := database.DB.
			Where("project_id = ? AND deleted_at IS NULL", pid).
			Order("id desc").Find(&draws).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list contingency draws")
		}

		resp := make([]DrawResponse, 0, len(draws))
		for i := range draws {
			resp = append(resp, toDrawResponse(&draws[i], ""))
		}
		return c.JSON(resp)
	}
}

// PUT /api/contingency-draws/:id/approve
func ApproveDrawHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var drawID uint
		if _, err := fmt.Sscan(c.Params("id"), &drawID); err != nil || drawID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id is invalid")
		}

		userID, userName, err := actorInfo(c)
		if err != nil {
			return err
		}

		draw, warning, err := ApproveDraw(drawID, userID, userName)
		if err != nil {
			return err
		}
		return c.JSON(toDrawResponse(draw, warning))
	}
}

// PUT /api/contingency-draws/:id/reject
func RejectDrawHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var drawID uint
		if _, err := fmt.Sscan(c.Params("id"), &drawID); err != nil || drawID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id is invalid")
		}

		userID, userName, err := actorInfo(c)
		if err != nil {
			return err
		}

		draw, err := RejectDraw(drawID, userID, userName)
		if err != nil {
			return err
		}
		return c.JSON(toDrawResponse(draw, ""))
	}
}
