package expense

import (
	"fmt"
	"time"

	"github.com/Victorkib/kisheka-construction-sub014/internal/auth"
	"github.com/Victorkib/kisheka-construction-sub014/internal/database"
	"github.com/Victorkib/kisheka-construction-sub014/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateExpenseRequest struct {
	ProjectID   uint    `json:"project_id"`
	PhaseID     *uint   `json:"phase_id"`
	FloorID     *uint   `json:"floor_id"`
	Category    string  `json:"category"`
	Date        string  `json:"date"` // "2026-08-01", defaults to today
	Amount      float64 `json:"amount"`
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

// POST /api/expenses
func CreateExpenseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateExpenseRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.ProjectID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "project_id is required")
		}

		var date time.Time
		if body.Date != "" {
			var err error
			date, err = time.Parse("2006-01-02", body.Date)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "date must be 'YYYY-MM-DD'")
			}
		}

		userID, userName, err := actorInfo(c)
		if err != nil {
			return err
		}

		expense, err := Create(CreateInput{
			ProjectID:      body.ProjectID,
			PhaseID:        body.PhaseID,
			FloorID:        body.FloorID,
			Category:       models.ExpenseCategory(body.Category),
			Date:           date,
			Amount:         body.Amount,
			Description:    body.Description,
			RecordedBy:     userID,
			RecordedByName: userName,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(expense)
	}
}

// GET /api/expenses?project_id=...&status=...
func ListExpensesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var pid uint
		if _, err := fmt.Sscan(c.Query("project_id"), &pid); err != nil || pid == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "project_id is required")
		}

		q := database.DB.Where("project_id = ? AND deleted_at IS NULL", pid)
		if status := c.Query("status"); status != "" {
			q = q.Where("status = ?", status)
		}

		var expenses []models.Expense
		if err := q.Order("date desc, id desc").Find(&expenses).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list expenses")
		}
		return c.JSON(expenses)
	}
}

// PUT /api/expenses/:id/approve
func ApproveExpenseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		userID, userName, err := actorInfo(c)
		if err != nil {
			return err
		}
		expense, err := Approve(id, userID, userName)
		if err != nil {
			return err
		}
		return c.JSON(expense)
	}
}

// PUT /api/expenses/:id/reject
func RejectExpenseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		userID, userName, err := actorInfo(c)
		if err != nil {
			return err
		}
		expense, err := Reject(id, userID, userName)
		if err != nil {
			return err
		}
		return c.JSON(expense)
	}
}
