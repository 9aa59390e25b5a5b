package phase

import (
	"fmt"
	"strings"
	"time"

	"github.com/Victorkib/kisheka-construction-sub014/internal/audit"
	"github.com/Victorkib/kisheka-construction-sub014/internal/auth"
	"github.com/Victorkib/kisheka-construction-sub014/internal/database"
	"github.com/Victorkib/kisheka-construction-sub014/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreatePhaseRequest struct {
	ProjectID     uint    `json:"project_id"`
	Name          string  `json:"name"`
	Sequence      int     `json:"sequence"`
	ExpectedStart *string `json:"expected_start"` // "2026-03-01"
	ExpectedEnd   *string `json:"expected_end"`
}

type SetDependenciesRequest struct {
	DependsOn []uint `json:"depends_on"`
}

type PhaseResponse struct {
	ID               uint                    `json:"id"`
	ProjectID        uint                    `json:"project_id"`
	Name             string                  `json:"name"`
	Sequence         int                     `json:"sequence"`
	BudgetAllocation models.BudgetAllocation `json:"budget_allocation"`
	ActualSpending   models.ActualSpending   `json:"actual_spending"`
	FinancialStates  models.FinancialStates  `json:"financial_states"`
	DependsOn        []uint                  `json:"depends_on"`
	CanStartAfter    *string                 `json:"can_start_after"`
}

func toResponse(ph *models.Phase, dependsOn []uint) PhaseResponse {
	resp := PhaseResponse{
		ID:               ph.ID,
		ProjectID:        ph.ProjectID,
		Name:             ph.Name,
		Sequence:         ph.Sequence,
		BudgetAllocation: ph.BudgetAllocation,
		ActualSpending:   ph.ActualSpending,
		FinancialStates:  ph.FinancialStates,
		DependsOn:        dependsOn,
	}
	if ph.CanStartAfter != nil {
		s := ph.CanStartAfter.Format("2006-01-02")
		resp.CanStartAfter = &s
	}
	if resp.DependsOn == nil {
		resp.DependsOn = []uint{}
	}
	return resp
}

func loadDependsOn(phaseID uint) ([]uint, error) {
	var deps []models.PhaseDependency
	if err := database.DB.Where("phase_id = ?", phaseID).Order("predecessor_id asc").Find(&deps).Error; err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(deps))
	for _, d := range deps {
		ids = append(ids, d.PredecessorID)
	}
	return ids, nil
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

// POST /api/phases
func CreatePhaseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreatePhaseRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.ProjectID == 0 || body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "project_id and name are required")
		}

		var project models.Project
		if err := database.DB.First(&project, "id = ? AND deleted_at IS NULL", body.ProjectID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Project not found")
		}

		// Sequence numbers are unique within a project.
		var clash int64
		if err := database.DB.Model(&models.Phase{}).
			Where("project_id = ? AND sequence = ? AND deleted_at IS NULL", body.ProjectID, body.Sequence).
			Count(&clash).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not check phase sequence")
		}
		if clash > 0 {
			return fiber.NewError(fiber.StatusConflict, fmt.Sprintf("Sequence %d is already in use for this project", body.Sequence))
		}

		ph := models.Phase{
			ProjectID: body.ProjectID,
			Name:      body.Name,
			Sequence:  body.Sequence,
		}
		if body.ExpectedStart != nil {
			d, err := time.Parse("2006-01-02", *body.ExpectedStart)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "expected_start must be 'YYYY-MM-DD'")
			}
			ph.ExpectedStart = &d
		}
		if body.ExpectedEnd != nil {
			d, err := time.Parse("2006-01-02", *body.ExpectedEnd)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "expected_end must be 'YYYY-MM-DD'")
			}
			ph.ExpectedEnd = &d
		}

		if err := database.DB.Create(&ph).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create phase")
		}

		userID, userName, err := actorInfo(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				ProjectID:   &ph.ProjectID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "phase",
				EntityID:    ph.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Phase created: %s", ph.Name),
				After:       ph,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(toResponse(&ph, nil))
	}
}

// GET /api/phases?project_id=...
func ListPhasesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		pidStr := c.Query("project_id")
		var pid uint
		if _, err := fmt.Sscan(pidStr, &pid); err != nil || pid == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "project_id is required")
		}

		var phases []models.Phase
		if err := database.DB.
			Where("project_id = ? AND deleted_at IS NULL", pid).
			Order("sequence asc, id asc").
			Find(&phases).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list phases")
		}

		resp := make([]PhaseResponse, 0, len(phases))
		for i := range phases {
			dependsOn, err := loadDependsOn(phases[i].ID)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Could not load phase dependencies")
			}
			resp = append(resp, toResponse(&phases[i], dependsOn))
		}

		return c.JSON(resp)
	}
}

// PUT /api/phases/:id/budget
func AllocateBudgetHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var phaseID uint
		if _, err := fmt.Sscan(id, &phaseID); err != nil || phaseID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id is invalid")
		}

		var body AllocationRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		var before models.Phase
		if err := database.DB.First(&before, "id = ?", phaseID).Error; err == nil {
			c.Locals("phase_before", before.BudgetAllocation)
		}

		ph, err := AllocateBudget(phaseID, body)
		if err != nil {
			return err
		}

		userID, userName, aerr := actorInfo(c)
		if aerr == nil {
			_ = audit.WriteLog(audit.LogOptions{
				ProjectID:   &ph.ProjectID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "phase",
				EntityID:    ph.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Phase budget allocated: %s - %.2f KES", ph.Name, ph.BudgetAllocation.Total),
				Before:      c.Locals("phase_before"),
				After:       ph.BudgetAllocation,
			})
		}

		dependsOn, derr := loadDependsOn(ph.ID)
		if derr != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load phase dependencies")
		}
		return c.JSON(toResponse(ph, dependsOn))
	}
}

// PUT /api/phases/:id/dependencies
func SetDependenciesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var phaseID uint
		if _, err := fmt.Sscan(id, &phaseID); err != nil || phaseID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id is invalid")
		}

		var body SetDependenciesRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		ph, err := SetDependencies(phaseID, body.DependsOn)
		if err != nil {
			return err
		}

		userID, userName, aerr := actorInfo(c)
		if aerr == nil {
			_ = audit.WriteLog(audit.LogOptions{
				ProjectID:   &ph.ProjectID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "phase",
				EntityID:    ph.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Phase dependencies updated: %s (%d predecessors)", ph.Name, len(body.DependsOn)),
				After:       body.DependsOn,
			})
		}

		return c.JSON(toResponse(ph, body.DependsOn))
	}
}
