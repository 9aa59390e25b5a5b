package audit

import (
	"fmt"

	"github.com/Victorkib/kisheka-construction-sub014/internal/database"
	"github.com/Victorkib/kisheka-construction-sub014/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GET /api/audit-logs?project_id=...&entity_type=...&limit=...
func ListAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.AuditLog{})

		if pidStr := c.Query("project_id"); pidStr != "" {
			var pid uint
			if _, err := fmt.Sscan(pidStr, &pid); err != nil || pid == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "project_id is invalid")
			}
			dbq = dbq.Where("project_id = ?", pid)
		}

		if et := c.Query("entity_type"); et != "" {
			dbq = dbq.Where("entity_type = ?", et)
		}

		limit := 100
		if lStr := c.Query("limit"); lStr != "" {
			if _, err := fmt.Sscan(lStr, &limit); err != nil || limit < 1 || limit > 500 {
				return fiber.NewError(fiber.StatusBadRequest, "limit must be between 1 and 500")
			}
		}

		var rows []models.AuditLog
		if err := dbq.Order("created_at desc, id desc").Limit(limit).Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list audit logs")
		}

		return c.JSON(rows)
	}
}
