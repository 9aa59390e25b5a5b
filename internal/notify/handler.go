package notify

import (
	"fmt"

	"github.com/Victorkib/kisheka-construction-sub014/internal/auth"
	"github.com/Victorkib/kisheka-construction-sub014/internal/database"
	"github.com/Victorkib/kisheka-construction-sub014/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GET /api/notifications?unread=true
func ListNotificationsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.ActorID(c)
		if err != nil {
			return err
		}

		q := database.DB.Where("user_id = ?", userID)
		if c.Query("unread") == "true" {
			q = q.Where("read = ?", false)
		}

		var notifications []models.Notification
		if err := q.Order("id desc").Limit(100).Find(&notifications).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list notifications")
		}
		return c.JSON(notifications)
	}
}

// PUT /api/notifications/:id/read
func MarkReadHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.ActorID(c)
		if err != nil {
			return err
		}

		var id uint
		if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id is invalid")
		}

		result := database.DB.Model(&models.Notification{}).
			Where("id = ? AND user_id = ?", id, userID).
			Update("read", true)
		if result.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update notification")
		}
		if result.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusNotFound, "Notification not found")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
