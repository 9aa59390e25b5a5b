package phase

import (
	"testing"
	"time"

	"github.com/Victorkib/kisheka-construction-sub014/internal/apperr"
	"github.com/Victorkib/kisheka-construction-sub014/internal/database"
	"github.com/Victorkib/kisheka-construction-sub014/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetDependencies_SimpleChain(t *testing.T) {
	database.OpenTest(t)
	project := seedProjectWithDCC(t, 1000000)
	a := seedPhase(t, project.ID, "A", 1)
	b := seedPhase(t, project.ID, "B", 2)

	got, err := SetDependencies(b.ID, []uint{a.ID})
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	var deps []models.PhaseDependency
	require.NoError(t, database.DB.Where("phase_id = ?", b.ID).Find(&deps).Error)
	require.Len(t, deps, 1)
	assert.Equal(t, a.ID, deps[0].PredecessorID)
}

func TestSetDependencies_RejectsCycle(t *testing.T) {
	database.OpenTest(t)
	project := seedProjectWithDCC(t, 1000000)
	a := seedPhase(t, project.ID, "A", 1)
	b := seedPhase(t, project.ID, "B", 2)
	c := seedPhase(t, project.ID, "C", 3)

	_, err := SetDependencies(b.ID, []uint{a.ID})
	require.NoError(t, err)
	_, err = SetDependencies(c.ID, []uint{b.ID})
	require.NoError(t, err)

	// A depending on C closes A -> B -> C -> A.
	_, err = SetDependencies(a.ID, []uint{c.ID})
	require.Error(t, err)
	kind, ok := apperr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, kind)

	// Nothing was written.
	var count int64
	require.NoError(t, database.DB.Model(&models.PhaseDependency{}).Where("phase_id = ?", a.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSetDependencies_RejectsSelf(t *testing.T) {
	database.OpenTest(t)
	project := seedProjectWithDCC(t, 1000000)
	a := seedPhase(t, project.ID, "A", 1)

	_, err := SetDependencies(a.ID, []uint{a.ID})
	require.Error(t, err)
}

func TestSetDependencies_RejectsCrossProject(t *testing.T) {
	database.OpenTest(t)
	p1 := seedProjectWithDCC(t, 1000000)
	p2 := seedProjectWithDCC(t, 1000000)
	a := seedPhase(t, p1.ID, "A", 1)
	other := seedPhase(t, p2.ID, "Other", 1)

	_, err := SetDependencies(a.ID, []uint{other.ID})
	require.Error(t, err)
}

func TestSetDependencies_DerivesCanStartAfter(t *testing.T) {
	database.OpenTest(t)
	project := seedProjectWithDCC(t, 1000000)

	end1 := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	end2 := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	a := seedPhase(t, project.ID, "A", 1)
	b := seedPhase(t, project.ID, "B", 2)
	require.NoError(t, database.DB.Model(&a).Update("expected_end", end1).Error)
	require.NoError(t, database.DB.Model(&b).Update("expected_end", end2).Error)

	c := seedPhase(t, project.ID, "C", 3)
	got, err := SetDependencies(c.ID, []uint{a.ID, b.ID})
	require.NoError(t, err)
	require.NotNil(t, got.CanStartAfter)
	assert.Equal(t, "2026-09-15", got.CanStartAfter.Format("2006-01-02"))
}

func TestSetDependencies_ReplaceClearsOldEdges(t *testing.T) {
	database.OpenTest(t)
	project := seedProjectWithDCC(t, 1000000)
	a := seedPhase(t, project.ID, "A", 1)
	b := seedPhase(t, project.ID, "B", 2)
	c := seedPhase(t, project.ID, "C", 3)

	_, err := SetDependencies(c.ID, []uint{a.ID, b.ID})
	require.NoError(t, err)
	_, err = SetDependencies(c.ID, []uint{b.ID})
	require.NoError(t, err)

	var deps []models.PhaseDependency
	require.NoError(t, database.DB.Where("phase_id = ?", c.ID).Find(&deps).Error)
	require.Len(t, deps, 1)
	assert.Equal(t, b.ID, deps[0].PredecessorID)
}
