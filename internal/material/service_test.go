package material

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
	project := models.Project{Name: "Syokimau Warehouses", Status: models.ProjectStatusActive}
	require.NoError(t, database.DB.Create(&project).Error)
	if capital > 0 {
		require.NoError(t, database.DB.Create(&models.InvestorAllocation{
			InvestorID: 1, ProjectID: project.ID, Amount: capital, Date: time.Now(),
		}).Error)
	}
	require.NoError(t, finance.RecalculateProjectFinances(project.ID))
	return project
}

func createInput(projectID uint, name string, qty, unitCost float64) CreateInput {
	return CreateInput{
		ProjectID:         projectID,
		Name:              name,
		Unit:              "bags",
		QuantityRequested: qty,
		UnitCost:          unitCost,
		RequestedBy:       1,
		RequestedByName:   "Jane Wanjiru",
	}
}

func TestCreate_PendingCarriesNoSpending(t *testing.T) {
	database.OpenTest(t)
	project := seedFundedProject(t, 100000)

	material, err := Create(createInput(project.ID, "Cement", 100, 800))
	require.NoError(t, err)
	assert.Equal(t, models.MaterialStatusPending, material.Status)
	assert.InDelta(t, 80000, material.TotalCost, 0.001)

	require.NoError(t, finance.RecalculateProjectFinances(project.ID))
	var f models.ProjectFinances
	require.NoError(t, database.DB.First(&f, "project_id = ?", project.ID).Error)
	assert.InDelta(t, 0, f.TotalUsed, 0.001)
}

func TestApprove_GatedByCapital(t *testing.T) {
	database.OpenTest(t)
	project := seedFundedProject(t, 30000)

	material, err := Create(createInput(project.ID, "Roofing sheets", 100, 500))
	require.NoError(t, err)

	_, err = Approve(material.ID, 2, "Peter Otieno")
	require.Error(t, err)
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindValidation, kind)
	assert.Contains(t, err.Error(), "available: 30000")

	var got models.MaterialRequest
	require.NoError(t, database.DB.First(&got, "id = ?", material.ID).Error)
	assert.Equal(t, models.MaterialStatusPending, got.Status)
}

func TestApprove_CountsIntoSpending(t *testing.T) {
	database.OpenTest(t)
	project := seedFundedProject(t, 100000)

	material, err := Create(createInput(project.ID, "Cement", 50, 800))
	require.NoError(t, err)

	approved, err := Approve(material.ID, 2, "Peter Otieno")
	require.NoError(t, err)
	assert.Equal(t, models.MaterialStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, uint(2), *approved.ApprovedBy)

	var f models.ProjectFinances
	require.NoError(t, database.DB.First(&f, "project_id = ?", project.ID).Error)
	assert.InDelta(t, 40000, f.TotalUsed, 0.001)
	assert.InDelta(t, 60000, f.AvailableCapital, 0.001)

	// Approval is single-shot.
	_, err = Approve(material.ID, 2, "Peter Otieno")
	require.Error(t, err)
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindConflict, kind)
}

func TestReject_PendingOnly(t *testing.T) {
	database.OpenTest(t)
	project := seedFundedProject(t, 100000)

	material, err := Create(createInput(project.ID, "Paint", 10, 300))
	require.NoError(t, err)

	rejected, err := Reject(material.ID, 2, "Peter Otieno")
	require.NoError(t, err)
	assert.Equal(t, models.MaterialStatusRejected, rejected.Status)

	_, err = Reject(material.ID, 2, "Peter Otieno")
	require.Error(t, err)
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindConflict, kind)
}

func TestCreate_Validation(t *testing.T) {
	database.OpenTest(t)
	project := seedFundedProject(t, 100000)

	_, err := Create(createInput(project.ID, "  ", 1, 1))
	require.Error(t, err)
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindValidation, kind)

	_, err = Create(createInput(project.ID, "Sand", 0, 1))
	require.Error(t, err)
	kind, _ = apperr.KindOf(err)
	assert.Equal(t, apperr.KindValidation, kind)

	_, err = Create(createInput(4242, "Sand", 1, 1))
	require.Error(t, err)
	kind, _ = apperr.KindOf(err)
	assert.Equal(t, apperr.KindNotFound, kind)

	badPhase := uint(777)
	in := createInput(project.ID, "Sand", 1, 1)
	in.PhaseID = &badPhase
	_, err = Create(in)
	require.Error(t, err)
	kind, _ = apperr.KindOf(err)
	assert.Equal(t, apperr.KindNotFound, kind)
}

func TestCreateBatch_Membership(t *testing.T) {
	database.OpenTest(t)
	project := seedFundedProject(t, 100000)

	a, err := Create(createInput(project.ID, "Tiles", 10, 100))
	require.NoError(t, err)
	b, err := Create(createInput(project.ID, "Grout", 5, 100))
	require.NoError(t, err)

	batch, err := CreateBatch(project.ID, "Finishing order", []uint{a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, models.BatchStatusOpen, batch.Status)

	var members int64
	require.NoError(t, database.DB.Model(&models.MaterialRequest{}).
		Where("batch_id = ?", batch.ID).Count(&members).Error)
	assert.Equal(t, int64(2), members)

	// Already-batched members cannot be claimed by a second batch.
	_, err = CreateBatch(project.ID, "Duplicate", []uint{a.ID})
	require.Error(t, err)
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindValidation, kind)
}

func TestCreateBatch_RejectionLeavesNoState(t *testing.T) {
	database.OpenTest(t)
	project := seedFundedProject(t, 100000)

	claimed, err := Create(createInput(project.ID, "Tiles", 10, 100))
	require.NoError(t, err)
	free, err := Create(createInput(project.ID, "Grout", 5, 100))
	require.NoError(t, err)

	first, err := CreateBatch(project.ID, "Finishing order", []uint{claimed.ID})
	require.NoError(t, err)

	// One member is already claimed, so the whole batch is rejected and
	// nothing of it persists: no batch row, no claimed free member.
	_, err = CreateBatch(project.ID, "Overlapping", []uint{claimed.ID, free.ID})
	require.Error(t, err)
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindValidation, kind)

	var batches int64
	require.NoError(t, database.DB.Model(&models.MaterialBatch{}).Count(&batches).Error)
	assert.Equal(t, int64(1), batches)

	var got models.MaterialRequest
	require.NoError(t, database.DB.First(&got, "id = ?", free.ID).Error)
	assert.Nil(t, got.BatchID)

	var still models.MaterialRequest
	require.NoError(t, database.DB.First(&still, "id = ?", claimed.ID).Error)
	require.NotNil(t, still.BatchID)
	assert.Equal(t, first.ID, *still.BatchID)
}
