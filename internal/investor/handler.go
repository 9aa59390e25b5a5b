package investor

import (
	"fmt"
	"time"

	"github.com/Victorkib/kisheka-construction-sub014/internal/auth"
	"github.com/Victorkib/kisheka-construction-sub014/internal/database"
	"github.com/Victorkib/kisheka-construction-sub014/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateInvestorRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type AllocateRequest struct {
	InvestorID uint    `json:"investor_id"`
	ProjectID  uint    `json:"project_id"`
	Amount     float64 `json:"amount"`
	Date       string  `json:"date"` // "2026-08-01", defaults to today
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

// POST /api/investors
func CreateInvestorHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateInvestorRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		userID, userName, err := actorInfo(c)
		if err != nil {
			return err
		}

		investor, err := Create(CreateInput{
			Name: body.Name, Email: body.Email, Phone: body.Phone,
			ActorID: userID, ActorName: userName,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(investor)
	}
}

// GET /api/investors
func ListInvestorsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		investors, err := List()
		if err != nil {
			return err
		}
		return c.JSON(investors)
	}
}

// POST /api/investor-allocations
func AllocateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body AllocateRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.InvestorID == 0 || body.ProjectID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "investor_id and project_id are required")
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

		alloc, err := Allocate(AllocateInput{
			InvestorID: body.InvestorID,
			ProjectID:  body.ProjectID,
			Amount:     body.Amount,
			Date:       date,
			ActorID:    userID,
			ActorName:  userName,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(alloc)
	}
}

// GET /api/investor-allocations?project_id=...
func ListAllocationsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var pid uint
		if _, err := fmt.Sscan(c.Query("project_id"), &pid); err != nil || pid == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "project_id is required")
		}
		allocs, err := ListAllocations(pid)
		if err != nil {
			return err
		}
		return c.JSON(allocs)
	}
}

// DELETE /api/investors/:id
func ArchiveInvestorHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id uint
		if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id is invalid")
		}

		userID, userName, err := actorInfo(c)
		if err != nil {
			return err
		}

		if err := Archive(id, userID, userName); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
