package project

import (
	"testing"
	"time"

	"github.com/Victorkib/kisheka-construction-sub014/internal/apperr"
	"github.com/Victorkib/kisheka-construction-sub014/internal/budget"
	"github.com/Victorkib/kisheka-construction-sub014/internal/database"
	"github.com/Victorkib/kisheka-construction-sub014/internal/finance"
	"github.com/Victorkib/kisheka-construction-sub014/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func createInput(name string) CreateInput {
	return CreateInput{
		Name: name,
		Budget: budget.Input{
			DirectConstructionCosts: f(850000),
			PreConstructionCosts:    f(50000),
			IndirectCosts:           f(50000),
			ContingencyReserve:      f(50000),
			Total:                   f(1000000),
		},
		ActorID:   1,
		ActorName: "Jane Wanjiru",
	}
}

func TestCreate_EnhancedBudget(t *testing.T) {
	database.OpenTest(t)

	project, warnings, err := Create(createInput("Karen Villas"))
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, models.ProjectStatusActive, project.Status)
	assert.InDelta(t, 1000000, project.Budget.Total, 0.001)

	// The finances snapshot exists immediately, all zeros.
	var finances models.ProjectFinances
	require.NoError(t, database.DB.First(&finances, "project_id = ?", project.ID).Error)
	assert.InDelta(t, 0, finances.CapitalBalance, 0.001)
}

func TestCreate_LegacyBudgetConverted(t *testing.T) {
	database.OpenTest(t)

	project, _, err := Create(CreateInput{
		Name:      "Legacy Estate",
		Budget:    budget.Input{Total: f(1000000)},
		ActorID:   1,
		ActorName: "Jane Wanjiru",
	})
	require.NoError(t, err)
	assert.InDelta(t, 850000, project.Budget.DirectConstructionCosts, 0.001)
	assert.InDelta(t, 50000, project.Budget.PreConstructionCosts, 0.001)
	assert.InDelta(t, 50000, project.Budget.IndirectCosts, 0.001)
	assert.InDelta(t, 50000, project.Budget.ContingencyReserve, 0.001)
	assert.InDelta(t, 1000000, project.Budget.Total, 0.001)
}

func TestCreate_RejectsInvalid(t *testing.T) {
	database.OpenTest(t)

	_, _, err := Create(CreateInput{Name: "  ", Budget: budget.Input{Total: f(1000)}})
	require.Error(t, err)
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindValidation, kind)

	_, _, err = Create(CreateInput{
		Name:   "Bad Budget",
		Budget: budget.Input{Total: f(-5)},
	})
	require.Error(t, err)
	kind, _ = apperr.KindOf(err)
	assert.Equal(t, apperr.KindValidation, kind)
}

func TestUpdate_DescriptiveFieldsOnly(t *testing.T) {
	database.OpenTest(t)
	created, _, err := Create(createInput("Old Name"))
	require.NoError(t, err)

	newName := "New Name"
	updated, err := Update(created.ID, UpdateInput{Name: &newName, ActorID: 1, ActorName: "Jane Wanjiru"})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.InDelta(t, created.Budget.Total, updated.Budget.Total, 0.001)
}

func seedSpending(t *testing.T, projectID uint) {
	t.Helper()
	require.NoError(t, database.DB.Create(&models.InvestorAllocation{
		InvestorID: 1, ProjectID: projectID, Amount: 300000, Date: time.Now(),
	}).Error)
	require.NoError(t, database.DB.Create(&models.MaterialRequest{
		ProjectID: projectID, Name: "Cement", TotalCost: 40000,
		Status: models.MaterialStatusApproved, RequestedBy: 1,
	}).Error)
	require.NoError(t, database.DB.Create(&models.MaterialRequest{
		ProjectID: projectID, Name: "Steel", TotalCost: 25000,
		Status: models.MaterialStatusReceived, RequestedBy: 1,
	}).Error)
	require.NoError(t, database.DB.Create(&models.Expense{
		ProjectID: projectID, Amount: 12000, Date: time.Now(),
		Status: models.ExpenseStatusApproved, RecordedBy: 1,
	}).Error)
	require.NoError(t, finance.RecalculateProjectFinances(projectID))
}

func TestArchiveRestore_FinancesRoundTrip(t *testing.T) {
	database.OpenTest(t)
	created, _, err := Create(createInput("Thika Greens"))
	require.NoError(t, err)
	seedSpending(t, created.ID)

	var before models.ProjectFinances
	require.NoError(t, database.DB.First(&before, "project_id = ?", created.ID).Error)
	assert.InDelta(t, 77000, before.TotalUsed, 0.001)

	archived, err := Archive(created.ID, 1, "Jane Wanjiru")
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusArchived, archived.Status)

	// Archived leaf records drop out of the sums.
	var during models.ProjectFinances
	require.NoError(t, database.DB.First(&during, "project_id = ?", created.ID).Error)
	assert.InDelta(t, 0, during.TotalUsed, 0.001)
	assert.InDelta(t, 300000, during.CapitalBalance, 0.001)

	restored, err := Restore(created.ID, 1, "Jane Wanjiru")
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusActive, restored.Status)

	// Every status came back, so the recalculated finances match exactly.
	var after models.ProjectFinances
	require.NoError(t, database.DB.First(&after, "project_id = ?", created.ID).Error)
	assert.Equal(t, before.CapitalBalance, after.CapitalBalance)
	assert.Equal(t, before.TotalUsed, after.TotalUsed)
	assert.Equal(t, before.CommittedCost, after.CommittedCost)
	assert.Equal(t, before.AvailableCapital, after.AvailableCapital)

	var materials []models.MaterialRequest
	require.NoError(t, database.DB.Where("project_id = ?", created.ID).Order("id asc").Find(&materials).Error)
	assert.Equal(t, models.MaterialStatusApproved, materials[0].Status)
	assert.Equal(t, models.MaterialStatusReceived, materials[1].Status)
	assert.Empty(t, materials[0].PreviousStatus)
}

func TestArchive_Twice(t *testing.T) {
	database.OpenTest(t)
	created, _, err := Create(createInput("Mombasa Quay"))
	require.NoError(t, err)

	_, err = Archive(created.ID, 1, "Jane Wanjiru")
	require.NoError(t, err)
	_, err = Archive(created.ID, 1, "Jane Wanjiru")
	require.Error(t, err)
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindConflict, kind)

	_, err = Restore(created.ID, 1, "Jane Wanjiru")
	require.NoError(t, err)
	_, err = Restore(created.ID, 1, "Jane Wanjiru")
	require.Error(t, err)
	kind, _ = apperr.KindOf(err)
	assert.Equal(t, apperr.KindConflict, kind)
}

func TestDelete_BlockedByDependents(t *testing.T) {
	database.OpenTest(t)
	created, _, err := Create(createInput("Naivasha Lodge"))
	require.NoError(t, err)

	require.NoError(t, database.DB.Create(&models.Phase{
		ProjectID: created.ID, Name: "Groundworks", Sequence: 1,
	}).Error)

	err = Delete(created.ID, 1, "Jane Wanjiru")
	require.Error(t, err)
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindConflict, kind)
	assert.Contains(t, err.Error(), "phases")

	// Still listed.
	projects, err := List("")
	require.NoError(t, err)
	assert.Len(t, projects, 1)
}

func TestDelete_EmptyProject(t *testing.T) {
	database.OpenTest(t)
	created, _, err := Create(createInput("Short-lived"))
	require.NoError(t, err)

	require.NoError(t, Delete(created.ID, 1, "Jane Wanjiru"))

	_, err = Get(created.ID)
	require.Error(t, err)
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindNotFound, kind)
}

func TestFinances_ComputesWhenMissing(t *testing.T) {
	database.OpenTest(t)
	project := models.Project{Name: "Raw Row", Status: models.ProjectStatusActive}
	require.NoError(t, database.DB.Create(&project).Error)

	finances, err := Finances(project.ID)
	require.NoError(t, err)
	assert.Equal(t, project.ID, finances.ProjectID)

	_, err = Finances(4242)
	require.Error(t, err)
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindNotFound, kind)
}
