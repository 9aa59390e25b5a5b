package project

import (
	"fmt"

	"github.com/Victorkib/kisheka-construction-sub014/internal/auth"
	"github.com/Victorkib/kisheka-construction-sub014/internal/budget"
	"github.com/Victorkib/kisheka-construction-sub014/internal/database"
	"github.com/Victorkib/kisheka-construction-sub014/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateProjectRequest struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Budget      budget.Input `json:"budget"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type ProjectResponse struct {
	ID              uint          `json:"id"`
	Name            string        `json:"name"`
	Description     string        `json:"description"`
	Budget          models.Budget `json:"budget"`
	ContingencyUsed float64       `json:"contingency_used"`
	Status          string        `json:"status"`
	Warnings        []string      `json:"warnings,omitempty"`
}

func toResponse(p *models.Project, warnings []string) ProjectResponse {
	return ProjectResponse{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		Budget:          p.Budget,
		ContingencyUsed: p.ContingencyUsed,
		Status:          string(p.Status),
		Warnings:        warnings,
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

func parseID(c *fiber.Ctx) (uint, error) {
	var id uint
	if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "id is invalid")
	}
	return id, nil
}

// POST /api/projects
func CreateProjectHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProjectRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		userID, userName, err := actorInfo(c)
		if err != nil {
			return err
		}

		project, warnings, err := Create(CreateInput{
			Name:        body.Name,
			Description: body.Description,
			Budget:      body.Budget,
			ActorID:     userID,
			ActorName:   userName,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(toResponse(project, warnings))
	}
}

// GET /api/projects?status=...
func ListProjectsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		projects, err := List(c.Query("status"))
		if err != nil {
			return err
		}
		resp := make([]ProjectResponse, 0, len(projects))
		for i := range projects {
			resp = append(resp, toResponse(&projects[i], nil))
		}
		return c.JSON(resp)
	}
}

// GET /api/projects/:id
func GetProjectHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		project, err := Get(id)
		if err != nil {
			return err
		}
		return c.JSON(toResponse(project, nil))
	}
}

// PUT /api/projects/:id
func UpdateProjectHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		var body UpdateProjectRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		userID, userName, err := actorInfo(c)
		if err != nil {
			return err
		}

		project, err := Update(id, UpdateInput{
			Name:        body.Name,
			Description: body.Description,
			ActorID:     userID,
			ActorName:   userName,
		})
		if err != nil {
			return err
		}
		return c.JSON(toResponse(project, nil))
	}
}

// GET /api/projects/:id/finances
func GetFinancesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		finances, err := Finances(id)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"project_id":        finances.ProjectID,
			"capital_balance":   finances.CapitalBalance,
			"total_used":        finances.TotalUsed,
			"committed_cost":    finances.CommittedCost,
			"available_capital": finances.AvailableCapital,
			"updated_at":        finances.UpdatedAt,
		})
	}
}

// PUT /api/projects/:id/archive
func ArchiveProjectHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		userID, userName, err := actorInfo(c)
		if err != nil {
			return err
		}
		project, err := Archive(id, userID, userName)
		if err != nil {
			return err
		}
		return c.JSON(toResponse(project, nil))
	}
}

// PUT /api/projects/:id/restore
func RestoreProjectHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		userID, userName, err := actorInfo(c)
		if err != nil {
			return err
		}
		project, err := Restore(id, userID, userName)
		if err != nil {
			return err
		}
		return c.JSON(toResponse(project, nil))
	}
}

// DELETE /api/projects/:id
func DeleteProjectHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		userID, userName, err := actorInfo(c)
		if err != nil {
			return err
		}
		if err := Delete(id, userID, userName); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
