package subcontractor

import (
	"fmt"
	"time"

	"github.com/Victorkib/kisheka-construction-sub014/internal/auth"
	"github.com/Victorkib/kisheka-construction-sub014/internal/database"
	"github.com/Victorkib/kisheka-construction-sub014/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateSubcontractorRequest struct {
	Name  string `json:"name"`
	Trade string `json:"trade"`
	Phone string `json:"phone"`
}

type CreatePaymentRequest struct {
	ProjectID       uint    `json:"project_id"`
	PhaseID         *uint   `json:"phase_id"`
	FloorID         *uint   `json:"floor_id"`
	SubcontractorID uint    `json:"subcontractor_id"`
	Amount          float64 `json:"amount"`
	Date            string  `json:"date"` // "2026-08-01", defaults to today
	Description     string  `json:"description"`
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

// POST /api/subcontractors
func CreateSubcontractorHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateSubcontractorRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		sub, err := Create(body.Name, body.Trade, body.Phone)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(sub)
	}
}

// GET /api/subcontractors
func ListSubcontractorsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var subs []models.Subcontractor
		if err := database.DB.Where("deleted_at IS NULL").Order("name asc").
			Find(&subs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list subcontractors")
		}
		return c.JSON(subs)
	}
}

// POST /api/subcontractor-payments
func CreatePaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreatePaymentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.ProjectID == 0 || body.SubcontractorID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "project_id and subcontractor_id are required")
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

		payment, err := CreatePayment(PaymentInput{
			ProjectID:       body.ProjectID,
			PhaseID:         body.PhaseID,
			FloorID:         body.FloorID,
			SubcontractorID: body.SubcontractorID,
			Amount:          body.Amount,
			Date:            date,
			Description:     body.Description,
			RecordedBy:      userID,
			RecordedByName:  userName,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(payment)
	}
}

// GET /api/subcontractor-payments?project_id=...
func ListPaymentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var pid uint
		if _, err := fmt.Sscan(c.Query("project_id"), &pid); err != nil || pid == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "project_id is required")
		}

		var payments []models.SubcontractorPayment
		if err := database.DB.Where("project_id = ? AND deleted_at IS NULL", pid).
			Order("date desc, id desc").Find(&payments).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list payments")
		}
		return c.JSON(payments)
	}
}

// PUT /api/subcontractor-payments/:id/approve
func ApprovePaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		userID, userName, err := actorInfo(c)
		if err != nil {
			return err
		}
		payment, err := ApprovePayment(id, userID, userName)
		if err != nil {
			return err
		}
		return c.JSON(payment)
	}
}

// PUT /api/subcontractor-payments/:id/pay
func PayPaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		userID, userName, err := actorInfo(c)
		if err != nil {
			return err
		}
		payment, err := MarkPaymentPaid(id, userID, userName)
		if err != nil {
			return err
		}
		return c.JSON(payment)
	}
}
