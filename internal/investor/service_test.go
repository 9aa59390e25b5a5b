package investor

import (
	"testing"
	"time"

	"github.com/Victorkib/kisheka-construction-sub014/internal/apperr"
	"github.com/Victorkib/kisheka-construction-sub014/internal/database"
	"github.com/Victorkib/kisheka-construction-sub014/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedActiveProject(t *testing.T, name string) models.Project {
	t.Helper()
	project := models.Project{Name: name, Status: models.ProjectStatusActive}
	require.NoError(t, database.DB.Create(&project).Error)
	return project
}

func loadFinances(t *testing.T, projectID uint) models.ProjectFinances {
	t.Helper()
	var f models.ProjectFinances
	require.NoError(t, database.DB.First(&f, "project_id = ?", projectID).Error)
	return f
}

func TestAllocate_RaisesCapitalBalance(t *testing.T) {
	database.OpenTest(t)
	project := seedActiveProject(t, "Lavington Court")

	investor, err := Create(CreateInput{Name: "Amani Capital", ActorID: 1, ActorName: "Jane Wanjiru"})
	require.NoError(t, err)

	_, err = Allocate(AllocateInput{
		InvestorID: investor.ID, ProjectID: project.ID, Amount: 250000,
		Date: time.Now(), ActorID: 1, ActorName: "Jane Wanjiru",
	})
	require.NoError(t, err)

	f := loadFinances(t, project.ID)
	assert.InDelta(t, 250000, f.CapitalBalance, 0.001)
	assert.InDelta(t, 250000, f.AvailableCapital, 0.001)
}

func TestAllocate_Validation(t *testing.T) {
	database.OpenTest(t)
	project := seedActiveProject(t, "Kitengela Flats")
	investor, err := Create(CreateInput{Name: "Tatu Fund", ActorID: 1})
	require.NoError(t, err)

	_, err = Allocate(AllocateInput{InvestorID: investor.ID, ProjectID: project.ID, Amount: -1})
	require.Error(t, err)
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindValidation, kind)

	_, err = Allocate(AllocateInput{InvestorID: 999, ProjectID: project.ID, Amount: 100})
	require.Error(t, err)
	kind, _ = apperr.KindOf(err)
	assert.Equal(t, apperr.KindNotFound, kind)

	_, err = Allocate(AllocateInput{InvestorID: investor.ID, ProjectID: 999, Amount: 100})
	require.Error(t, err)
	kind, _ = apperr.KindOf(err)
	assert.Equal(t, apperr.KindNotFound, kind)
}

func TestArchive_RecalculatesEveryAllocatedProject(t *testing.T) {
	database.OpenTest(t)
	projectA := seedActiveProject(t, "Site A")
	projectB := seedActiveProject(t, "Site B")

	investor, err := Create(CreateInput{Name: "Harambee Partners", ActorID: 1})
	require.NoError(t, err)
	_, err = Allocate(AllocateInput{InvestorID: investor.ID, ProjectID: projectA.ID, Amount: 100000})
	require.NoError(t, err)
	_, err = Allocate(AllocateInput{InvestorID: investor.ID, ProjectID: projectB.ID, Amount: 50000})
	require.NoError(t, err)

	// A second investor keeps project A partly funded.
	other, err := Create(CreateInput{Name: "Uhuru Holdings", ActorID: 1})
	require.NoError(t, err)
	_, err = Allocate(AllocateInput{InvestorID: other.ID, ProjectID: projectA.ID, Amount: 30000})
	require.NoError(t, err)

	require.NoError(t, Archive(investor.ID, 1, "Jane Wanjiru"))

	assert.InDelta(t, 30000, loadFinances(t, projectA.ID).CapitalBalance, 0.001)
	assert.InDelta(t, 0, loadFinances(t, projectB.ID).CapitalBalance, 0.001)

	investors, err := List()
	require.NoError(t, err)
	require.Len(t, investors, 1)
	assert.Equal(t, "Uhuru Holdings", investors[0].Name)
}
