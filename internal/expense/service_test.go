package expense

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
	project := models.Project{Name: "Athi River Godowns", Status: models.ProjectStatusActive}
	require.NoError(t, database.DB.Create(&project).Error)
	if capital > 0 {
		require.NoError(t, database.DB.Create(&models.InvestorAllocation{
			InvestorID: 1, ProjectID: project.ID, Amount: capital, Date: time.Now(),
		}).Error)
	}
	require.NoError(t, finance.RecalculateProjectFinances(project.ID))
	return project
}

func createInput(projectID uint, category models.ExpenseCategory, amount float64) CreateInput {
	return CreateInput{
		ProjectID:      projectID,
		Category:       category,
		Amount:         amount,
		Description:    "Crane hire",
		RecordedBy:     1,
		RecordedByName: "Jane Wanjiru",
	}
}

func TestApprove_EquipmentLandsInEquipmentBucket(t *testing.T) {
	database.OpenTest(t)
	project := seedFundedProject(t, 100000)

	phase := models.Phase{ProjectID: project.ID, Name: "Superstructure", Sequence: 1,
		BudgetAllocation: models.BudgetAllocation{Total: 80000}}
	require.NoError(t, database.DB.Create(&phase).Error)

	in := createInput(project.ID, models.ExpenseCategoryEquipment, 15000)
	in.PhaseID = &phase.ID
	expense, err := Create(in)
	require.NoError(t, err)

	_, err = Approve(expense.ID, 2, "Peter Otieno")
	require.NoError(t, err)

	var got models.Phase
	require.NoError(t, database.DB.First(&got, "id = ?", phase.ID).Error)
	assert.InDelta(t, 15000, got.ActualSpending.Equipment, 0.001)
	assert.InDelta(t, 0, got.ActualSpending.Expenses, 0.001)

	var f models.ProjectFinances
	require.NoError(t, database.DB.First(&f, "project_id = ?", project.ID).Error)
	assert.InDelta(t, 15000, f.TotalUsed, 0.001)
}

func TestApprove_GatedByCapital(t *testing.T) {
	database.OpenTest(t)
	project := seedFundedProject(t, 10000)

	expense, err := Create(createInput(project.ID, models.ExpenseCategoryGeneral, 25000))
	require.NoError(t, err)

	_, err = Approve(expense.ID, 2, "Peter Otieno")
	require.Error(t, err)
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindValidation, kind)

	var got models.Expense
	require.NoError(t, database.DB.First(&got, "id = ?", expense.ID).Error)
	assert.Equal(t, models.ExpenseStatusPending, got.Status)
}

func TestRejectAndInvalidInput(t *testing.T) {
	database.OpenTest(t)
	project := seedFundedProject(t, 50000)

	expense, err := Create(createInput(project.ID, models.ExpenseCategoryGeneral, 5000))
	require.NoError(t, err)

	rejected, err := Reject(expense.ID, 2, "Peter Otieno")
	require.NoError(t, err)
	assert.Equal(t, models.ExpenseStatusRejected, rejected.Status)

	_, err = Approve(expense.ID, 2, "Peter Otieno")
	require.Error(t, err)
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindConflict, kind)

	_, err = Create(createInput(project.ID, "entertainment", 100))
	require.Error(t, err)
	kind, _ = apperr.KindOf(err)
	assert.Equal(t, apperr.KindValidation, kind)

	_, err = Create(createInput(project.ID, models.ExpenseCategoryGeneral, 0))
	require.Error(t, err)
	kind, _ = apperr.KindOf(err)
	assert.Equal(t, apperr.KindValidation, kind)
}
