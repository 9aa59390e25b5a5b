package labour

import (
	"testing"
	"time"

	"github.com/Victorkib/kisheka-construction-sub014/internal/apperr"
	"github.com/Victorkib/kisheka-construction-sub014/internal/database"
	"github.com/Victorkib/kisheka-construction-sub014/internal/finance"
	"github.com/Victorkib/kisheka-construction-sub014/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedFundedProject(t *testing.T, capital float64) models.Project {
	t.Helper()
	project := models.Project{Name: "Ruiru Maisonettes", Status: models.ProjectStatusActive}
	require.NoError(t, database.DB.Create(&project).Error)
	require.NoError(t, database.DB.Create(&models.InvestorAllocation{
		InvestorID: 1, ProjectID: project.ID, Amount: capital, Date: time.Now(),
	}).Error)
	require.NoError(t, finance.RecalculateProjectFinances(project.ID))
	return project
}

func weekInput(projectID uint, cost float64) CreateInput {
	start := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	return CreateInput{
		ProjectID:      projectID,
		PeriodStart:    start,
		PeriodEnd:      start.AddDate(0, 0, 6),
		WorkerCount:    12,
		TotalCost:      cost,
		Description:    "Weekly wages",
		RecordedBy:     1,
		RecordedByName: "Jane Wanjiru",
	}
}

func TestApprove_ThenPay_CountsOnce(t *testing.T) {
	database.OpenTest(t)
	project := seedFundedProject(t, 100000)

	batch, err := Create(weekInput(project.ID, 30000))
	require.NoError(t, err)
	assert.Equal(t, models.LabourStatusPending, batch.Status)

	approved, err := Approve(batch.ID, 2, "Peter Otieno")
	require.NoError(t, err)
	assert.Equal(t, models.LabourStatusApproved, approved.Status)

	var f models.ProjectFinances
	require.NoError(t, database.DB.First(&f, "project_id = ?", project.ID).Error)
	assert.InDelta(t, 30000, f.TotalUsed, 0.001)

	// Paying an approved batch does not change the spending totals.
	paid, err := MarkPaid(batch.ID, 2, "Peter Otieno")
	require.NoError(t, err)
	assert.Equal(t, models.LabourStatusPaid, paid.Status)

	require.NoError(t, finance.RecalculateProjectFinances(project.ID))
	require.NoError(t, database.DB.First(&f, "project_id = ?", project.ID).Error)
	assert.InDelta(t, 30000, f.TotalUsed, 0.001)
}

func TestApprove_GatedByCapital(t *testing.T) {
	database.OpenTest(t)
	project := seedFundedProject(t, 20000)

	batch, err := Create(weekInput(project.ID, 45000))
	require.NoError(t, err)

	_, err = Approve(batch.ID, 2, "Peter Otieno")
	require.Error(t, err)
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindValidation, kind)
}

func TestTransitionsAndValidation(t *testing.T) {
	database.OpenTest(t)
	project := seedFundedProject(t, 50000)

	batch, err := Create(weekInput(project.ID, 10000))
	require.NoError(t, err)

	// Paying before approval is a conflict.
	_, err = MarkPaid(batch.ID, 2, "Peter Otieno")
	require.Error(t, err)
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindConflict, kind)

	in := weekInput(project.ID, 5000)
	in.PeriodEnd = in.PeriodStart.AddDate(0, 0, -1)
	_, err = Create(in)
	require.Error(t, err)
	kind, _ = apperr.KindOf(err)
	assert.Equal(t, apperr.KindValidation, kind)
}
