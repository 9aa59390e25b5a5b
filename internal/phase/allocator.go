package phase

import (
	"fmt"
	"math"
	"time"

	"github.com/Victorkib/kisheka-construction-sub014/internal/apperr"
	"github.com/Victorkib/kisheka-construction-sub014/internal/budget"
	"github.com/Victorkib/kisheka-construction-sub014/internal/database"
	"github.com/Victorkib/kisheka-construction-sub014/internal/models"
)

type AllocationRequest struct {
	Total          float64 `json:"total"`
	Materials      float64 `json:"materials"`
	Labour         float64 `json:"labour"`
	Equipment      float64 `json:"equipment"`
	Subcontractors float64 `json:"subcontractors"`
}

// AllocateBudget writes a phase's allocation out of the project's DCC
// budget, enforcing that the sum across phases never exceeds it.
//
// When the DCC budget is still 0 the cross-phase check is skipped on
// purpose: phases can be budgeted before the project budget is finalized.
func AllocateBudget(phaseID uint, req AllocationRequest) (*models.Phase, error) {
	db := database.DB

	var ph models.Phase
	if err := db.First(&ph, "id = ? AND deleted_at IS NULL", phaseID).Error; err != nil {
		return nil, apperr.NotFound("phase %d not found", phaseID)
	}

	var project models.Project
	if err := db.First(&project, "id = ? AND deleted_at IS NULL", ph.ProjectID).Error; err != nil {
		return nil, apperr.NotFound("project %d not found", ph.ProjectID)
	}

	if req.Total < 0 || req.Materials < 0 || req.Labour < 0 || req.Equipment < 0 || req.Subcontractors < 0 {
		return nil, apperr.Validation("allocation amounts cannot be negative")
	}

	dccBudget := budget.DCCBudget(project.Budget)

	if dccBudget > 0 {
		var allocatedToOthers float64
		if err := db.Model(&models.Phase{}).
			Where("project_id = ? AND id <> ? AND deleted_at IS NULL", ph.ProjectID, ph.ID).
			Select("COALESCE(SUM(alloc_total), 0)").
			Scan(&allocatedToOthers).Error; err != nil {
			return nil, fmt.Errorf("phase allocation sum failed: %w", err)
		}

		availableDCC := dccBudget - allocatedToOthers
		if req.Total > availableDCC+ph.BudgetAllocation.Total ||
			allocatedToOthers+req.Total > dccBudget {
			return nil, apperr.Validation(
				"allocation %.2f exceeds available DCC budget (dcc: %.2f, allocated to other phases: %.2f, available: %.2f)",
				req.Total, dccBudget, allocatedToOthers, availableDCC)
		}
	}

	remaining := math.Max(0, req.Total-ph.ActualSpending.Total-ph.FinancialStates.Committed)

	updates := map[string]interface{}{
		"alloc_total":          req.Total,
		"alloc_materials":      req.Materials,
		"alloc_labour":         req.Labour,
		"alloc_equipment":      req.Equipment,
		"alloc_subcontractors": req.Subcontractors,
		// Contingency is never delegated below project level.
		"alloc_contingency": 0.0,
		"fin_remaining":     remaining,
		"updated_at":        time.Now(),
	}

	if err := db.Model(&models.Phase{}).Where("id = ?", ph.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("phase allocation write failed: %w", err)
	}

	if err := db.First(&ph, "id = ?", ph.ID).Error; err != nil {
		return nil, fmt.Errorf("phase reload failed: %w", err)
	}
	return &ph, nil
}
