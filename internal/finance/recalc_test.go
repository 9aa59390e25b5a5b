package finance

import (
	"testing"
	"time"

	"github.com/Victorkib/kisheka-construction-sub014/internal/database"
	"github.com/Victorkib/kisheka-construction-sub014/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProject(t *testing.T) models.Project {
	t.Helper()
	project := models.Project{
		Name:   "Riverside Apartments",
		Status: models.ProjectStatusActive,
		Budget: models.Budget{
			DirectConstructionCosts: 850000,
			PreConstructionCosts:    50000,
			IndirectCosts:           50000,
			ContingencyReserve:      50000,
			Total:                   1000000,
		},
	}
	require.NoError(t, database.DB.Create(&project).Error)
	return project
}

func seedAllocation(t *testing.T, projectID uint, amount float64) {
	t.Helper()
	alloc := models.InvestorAllocation{InvestorID: 1, ProjectID: projectID, Amount: amount, Date: time.Now()}
	require.NoError(t, database.DB.Create(&alloc).Error)
}

func loadFinances(t *testing.T, projectID uint) models.ProjectFinances {
	t.Helper()
	var f models.ProjectFinances
	require.NoError(t, database.DB.First(&f, "project_id = ?", projectID).Error)
	return f
}

func TestRecalculateProjectFinances_CapitalConservation(t *testing.T) {
	database.OpenTest(t)
	project := seedProject(t)
	seedAllocation(t, project.ID, 100000)

	require.NoError(t, database.DB.Create(&models.MaterialRequest{
		ProjectID: project.ID, Name: "Cement", TotalCost: 20000,
		Status: models.MaterialStatusApproved, RequestedBy: 1,
	}).Error)
	require.NoError(t, database.DB.Create(&models.Expense{
		ProjectID: project.ID, Amount: 5000, Date: time.Now(),
		Status: models.ExpenseStatusApproved, RecordedBy: 1,
	}).Error)
	require.NoError(t, database.DB.Create(&models.LabourBatch{
		ProjectID: project.ID, TotalCost: 10000, PeriodStart: time.Now(), PeriodEnd: time.Now(),
		Status: models.LabourStatusApproved, RecordedBy: 1,
	}).Error)
	require.NoError(t, database.DB.Create(&models.PurchaseOrder{
		ProjectID: project.ID, OrderNumber: "PO-1", MaterialRequestID: 99, SupplierID: 1,
		TotalCost: 15000, Status: models.POStatusOrderSent, FinancialStatus: models.POFinanceCommitted,
		IdempotencyKey: "k1", ResponseToken: "t1", CreatedBy: 1,
	}).Error)

	require.NoError(t, RecalculateProjectFinances(project.ID))

	f := loadFinances(t, project.ID)
	assert.InDelta(t, 100000, f.CapitalBalance, 0.001)
	assert.InDelta(t, 35000, f.TotalUsed, 0.001)
	assert.InDelta(t, 15000, f.CommittedCost, 0.001)
	assert.InDelta(t, f.CapitalBalance-f.TotalUsed-f.CommittedCost, f.AvailableCapital, 0.001)
}

func TestRecalculateProjectFinances_Idempotent(t *testing.T) {
	database.OpenTest(t)
	project := seedProject(t)
	seedAllocation(t, project.ID, 250000)
	require.NoError(t, database.DB.Create(&models.MaterialRequest{
		ProjectID: project.ID, Name: "Steel", TotalCost: 42000,
		Status: models.MaterialStatusReceived, RequestedBy: 1,
	}).Error)

	require.NoError(t, RecalculateProjectFinances(project.ID))
	first := loadFinances(t, project.ID)

	require.NoError(t, RecalculateProjectFinances(project.ID))
	second := loadFinances(t, project.ID)

	assert.Equal(t, first.CapitalBalance, second.CapitalBalance)
	assert.Equal(t, first.TotalUsed, second.TotalUsed)
	assert.Equal(t, first.CommittedCost, second.CommittedCost)
	assert.Equal(t, first.AvailableCapital, second.AvailableCapital)
	assert.Equal(t, first.ID, second.ID, "recalculation must replace the row, not insert a new one")
}

func TestRecalculateProjectFinances_NoDoubleCount(t *testing.T) {
	database.OpenTest(t)
	project := seedProject(t)
	seedAllocation(t, project.ID, 500000)

	// Material converted to an order: the money lives in the PO's committed
	// cost, not in actual spending.
	material := models.MaterialRequest{
		ProjectID: project.ID, Name: "Rebar", TotalCost: 30000,
		Status: models.MaterialStatusConvertedToOrder, RequestedBy: 1,
	}
	require.NoError(t, database.DB.Create(&material).Error)
	po := models.PurchaseOrder{
		ProjectID: project.ID, OrderNumber: "PO-7", MaterialRequestID: material.ID, SupplierID: 1,
		TotalCost: 30000, Status: models.POStatusAccepted, FinancialStatus: models.POFinanceCommitted,
		IdempotencyKey: "k7", ResponseToken: "t7", CreatedBy: 1,
	}
	require.NoError(t, database.DB.Create(&po).Error)

	require.NoError(t, RecalculateProjectFinances(project.ID))
	f := loadFinances(t, project.ID)
	assert.InDelta(t, 0, f.TotalUsed, 0.001)
	assert.InDelta(t, 30000, f.CommittedCost, 0.001)

	// Realize the order: the cost moves to actual spending exactly once.
	require.NoError(t, database.DB.Model(&material).Update("status", models.MaterialStatusReceived).Error)
	require.NoError(t, database.DB.Model(&po).Updates(map[string]interface{}{
		"status": models.POStatusConverted, "financial_status": models.POFinanceRealized,
	}).Error)

	require.NoError(t, RecalculateProjectFinances(project.ID))
	f = loadFinances(t, project.ID)
	assert.InDelta(t, 30000, f.TotalUsed, 0.001)
	assert.InDelta(t, 0, f.CommittedCost, 0.001)
}

func TestRecalculateProjectFinances_IgnoresSoftDeleted(t *testing.T) {
	database.OpenTest(t)
	project := seedProject(t)
	seedAllocation(t, project.ID, 80000)

	now := time.Now()
	require.NoError(t, database.DB.Create(&models.MaterialRequest{
		ProjectID: project.ID, Name: "Sand", TotalCost: 9000,
		Status: models.MaterialStatusApproved, RequestedBy: 1, DeletedAt: &now,
	}).Error)
	require.NoError(t, database.DB.Create(&models.InvestorAllocation{
		InvestorID: 2, ProjectID: project.ID, Amount: 70000, Date: now, DeletedAt: &now,
	}).Error)

	require.NoError(t, RecalculateProjectFinances(project.ID))
	f := loadFinances(t, project.ID)
	assert.InDelta(t, 80000, f.CapitalBalance, 0.001)
	assert.InDelta(t, 0, f.TotalUsed, 0.001)
}

func TestRecalculatePhaseSpending_CategoriesAndRemaining(t *testing.T) {
	database.OpenTest(t)
	project := seedProject(t)

	phase := models.Phase{
		ProjectID: project.ID, Name: "Substructure",
		BudgetAllocation: models.BudgetAllocation{Total: 100000, Materials: 60000, Labour: 40000},
	}
	require.NoError(t, database.DB.Create(&phase).Error)

	require.NoError(t, database.DB.Create(&models.MaterialRequest{
		ProjectID: project.ID, PhaseID: &phase.ID, Name: "Blocks", TotalCost: 25000,
		Status: models.MaterialStatusApproved, RequestedBy: 1,
	}).Error)
	require.NoError(t, database.DB.Create(&models.Expense{
		ProjectID: project.ID, PhaseID: &phase.ID, Amount: 8000, Date: time.Now(),
		Category: models.ExpenseCategoryEquipment, Status: models.ExpenseStatusApproved, RecordedBy: 1,
	}).Error)
	require.NoError(t, database.DB.Create(&models.PurchaseOrder{
		ProjectID: project.ID, PhaseID: &phase.ID, OrderNumber: "PO-9", MaterialRequestID: 5, SupplierID: 1,
		TotalCost: 12000, FinancialStatus: models.POFinanceCommitted,
		Status: models.POStatusOrderSent, IdempotencyKey: "k9", ResponseToken: "t9", CreatedBy: 1,
	}).Error)

	require.NoError(t, RecalculatePhaseSpending(phase.ID))

	var got models.Phase
	require.NoError(t, database.DB.First(&got, "id = ?", phase.ID).Error)
	assert.InDelta(t, 25000, got.ActualSpending.Materials, 0.001)
	assert.InDelta(t, 8000, got.ActualSpending.Equipment, 0.001)
	assert.InDelta(t, 33000, got.ActualSpending.Total, 0.001)
	assert.InDelta(t, 12000, got.FinancialStates.Committed, 0.001)
	assert.InDelta(t, 100000-33000-12000, got.FinancialStates.Remaining, 0.001)
}

func TestRecalculatePhaseSpending_RemainingClampedAtZero(t *testing.T) {
	database.OpenTest(t)
	project := seedProject(t)

	phase := models.Phase{
		ProjectID: project.ID, Name: "Roofing",
		BudgetAllocation: models.BudgetAllocation{Total: 10000},
	}
	require.NoError(t, database.DB.Create(&phase).Error)
	require.NoError(t, database.DB.Create(&models.LabourBatch{
		ProjectID: project.ID, PhaseID: &phase.ID, TotalCost: 25000,
		PeriodStart: time.Now(), PeriodEnd: time.Now(),
		Status: models.LabourStatusPaid, RecordedBy: 1,
	}).Error)

	require.NoError(t, RecalculatePhaseSpending(phase.ID))

	var got models.Phase
	require.NoError(t, database.DB.First(&got, "id = ?", phase.ID).Error)
	assert.Equal(t, 0.0, got.FinancialStates.Remaining)
}

func TestRecalculateFloorSpending(t *testing.T) {
	database.OpenTest(t)
	project := seedProject(t)

	floor := models.Floor{ProjectID: project.ID, Number: 3, Name: "Third floor"}
	require.NoError(t, database.DB.Create(&floor).Error)

	require.NoError(t, database.DB.Create(&models.SubcontractorPayment{
		ProjectID: project.ID, FloorID: &floor.ID, SubcontractorID: 1,
		Amount: 18000, Date: time.Now(),
		Status: models.SubPaymentStatusPaid, RecordedBy: 1,
	}).Error)

	require.NoError(t, RecalculateFloorSpending(floor.ID))

	var got models.Floor
	require.NoError(t, database.DB.First(&got, "id = ?", floor.ID).Error)
	assert.InDelta(t, 18000, got.ActualSpending.Subcontractors, 0.001)
	assert.InDelta(t, 18000, got.ActualSpending.Total, 0.001)
}

func TestRecalculateProjectFinances_UnknownProject(t *testing.T) {
	database.OpenTest(t)
	err := RecalculateProjectFinances(4242)
	require.Error(t, err)
}
