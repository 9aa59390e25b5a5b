package phase

import (
	"fmt"
	"time"

	"github.com/Victorkib/kisheka-construction-sub014/internal/apperr"
	"github.com/Victorkib/kisheka-construction-sub014/internal/database"
	"github.com/Victorkib/kisheka-construction-sub014/internal/models"
)

// SetDependencies replaces a phase's dependsOn edges. The project's
// dependency graph must stay acyclic; the write is rejected when the new
// edge set would close a cycle. canStartAfter is derived from the latest
// predecessor end date.
func SetDependencies(phaseID uint, predecessorIDs []uint) (*models.Phase, error) {
	db := database.DB

	var ph models.Phase
	if err := db.First(&ph, "id = ? AND deleted_at IS NULL", phaseID).Error; err != nil {
		return nil, apperr.NotFound("phase %d not found", phaseID)
	}

	seen := map[uint]bool{}
	var predecessors []models.Phase
	for _, predID := range predecessorIDs {
		if predID == phaseID {
			return nil, apperr.Validation("phase cannot depend on itself")
		}
		if seen[predID] {
			return nil, apperr.Validation("duplicate predecessor %d", predID)
		}
		seen[predID] = true

		var pred models.Phase
		if err := db.First(&pred, "id = ? AND deleted_at IS NULL", predID).Error; err != nil {
			return nil, apperr.NotFound("predecessor phase %d not found", predID)
		}
		if pred.ProjectID != ph.ProjectID {
			return nil, apperr.Validation("predecessor %d belongs to a different project", predID)
		}
		predecessors = append(predecessors, pred)
	}

	// Build the project's graph with this phase's edges replaced by the new
	// set, then check for cycles before writing anything.
	var existing []models.PhaseDependency
	if err := db.Joins("JOIN phases ON phases.id = phase_dependencies.phase_id").
		Where("phases.project_id = ? AND phase_dependencies.phase_id <> ?", ph.ProjectID, phaseID).
		Find(&existing).Error; err != nil {
		return nil, fmt.Errorf("dependency load failed: %w", err)
	}

	graph := map[uint][]uint{}
	for _, dep := range existing {
		graph[dep.PredecessorID] = append(graph[dep.PredecessorID], dep.PhaseID)
	}
	for _, predID := range predecessorIDs {
		graph[predID] = append(graph[predID], phaseID)
	}

	if cycle := hasCycle(graph); cycle {
		return nil, apperr.Validation("dependency would create a cycle in the phase graph")
	}

	tx := database.DB.Begin()
	if tx.Error != nil {
		return nil, apperr.Transaction("could not start transaction", tx.Error)
	}

	if err := tx.Where("phase_id = ?", phaseID).Delete(&models.PhaseDependency{}).Error; err != nil {
		tx.Rollback()
		return nil, apperr.Transaction("dependency replace failed", err)
	}
	for _, predID := range predecessorIDs {
		if err := tx.Create(&models.PhaseDependency{PhaseID: phaseID, PredecessorID: predID}).Error; err != nil {
			tx.Rollback()
			return nil, apperr.Transaction("dependency write failed", err)
		}
	}

	// canStartAfter: latest expected end among predecessors, nil when none
	// of them have one.
	var canStartAfter *time.Time
	for _, pred := range predecessors {
		if pred.ExpectedEnd == nil {
			continue
		}
		if canStartAfter == nil || pred.ExpectedEnd.After(*canStartAfter) {
			canStartAfter = pred.ExpectedEnd
		}
	}

	if err := tx.Model(&models.Phase{}).Where("id = ?", phaseID).
		Update("can_start_after", canStartAfter).Error; err != nil {
		tx.Rollback()
		return nil, apperr.Transaction("phase update failed", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperr.Transaction("dependency commit failed", err)
	}

	if err := db.First(&ph, "id = ?", phaseID).Error; err != nil {
		return nil, fmt.Errorf("phase reload failed: %w", err)
	}
	return &ph, nil
}

// hasCycle runs DFS with white/gray/black coloring over the adjacency list.
func hasCycle(graph map[uint][]uint) bool {
	const (
		white = 0 // unvisited
		gray  = 1 // in current path
		black = 2 // fully processed
	)

	color := map[uint]int{}

	var visit func(node uint) bool
	visit = func(node uint) bool {
		color[node] = gray
		for _, neighbor := range graph[node] {
			if color[neighbor] == gray {
				return true
			}
			if color[neighbor] == white {
				if visit(neighbor) {
					return true
				}
			}
		}
		color[node] = black
		return false
	}

	for node := range graph {
		if color[node] == white {
			if visit(node) {
				return true
			}
		}
	}
	return false
}
