package contingency

import (
	"testing"

	"github.com/Victorkib/kisheka-construction-sub014/internal/apperr"
	"github.com/Victorkib/kisheka-construction-sub014/internal/database"
	"github.com/Victorkib/kisheka-construction-sub014/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProject(t *testing.T, reserve, used float64) models.Project {
	t.Helper()
	project := models.Project{
		Name:   "Westlands Plaza",
		Status: models.ProjectStatusActive,
		Budget: models.Budget{
			DirectConstructionCosts: 1500000,
			ContingencyReserve:      reserve,
			Total:                   1500000 + reserve,
		},
		ContingencyUsed: used,
	}
	require.NoError(t, database.DB.Create(&project).Error)
	require.NoError(t, database.DB.Create(&models.ProjectFinances{
		ProjectID:        project.ID,
		CapitalBalance:   1000000,
		AvailableCapital: 1000000,
	}).Error)
	return project
}

func setCapital(t *testing.T, projectID uint, balance float64) {
	t.Helper()
	require.NoError(t, database.DB.Model(&models.ProjectFinances{}).
		Where("project_id = ?", projectID).
		Update("capital_balance", balance).Error)
}

func drawRequest(projectID uint, amount float64) DrawRequest {
	return DrawRequest{
		ProjectID:       projectID,
		DrawType:        models.DrawTypeConstruction,
		Amount:          amount,
		Reason:          "Unexpected rock excavation",
		RequestedBy:     1,
		RequestedByName: "Jane Wanjiru",
	}
}

func TestRequestDraw_WithinReserve(t *testing.T) {
	database.OpenTest(t)
	project := seedProject(t, 200000, 0)

	draw, warning, err := RequestDraw(drawRequest(project.ID, 50000))
	require.NoError(t, err)
	assert.Empty(t, warning)
	assert.Equal(t, models.ApprovalStatusPending, draw.Status)

	// Requesting does not debit the reserve.
	var got models.Project
	require.NoError(t, database.DB.First(&got, "id = ?", project.ID).Error)
	assert.InDelta(t, 0, got.ContingencyUsed, 0.001)
}

func TestRequestDraw_ExceedsRemainingReserve(t *testing.T) {
	database.OpenTest(t)
	// 200,000 budgeted, 100,000 already used: only 100,000 remains.
	project := seedProject(t, 200000, 100000)

	_, _, err := RequestDraw(drawRequest(project.ID, 150000))
	require.Error(t, err)
	kind, ok := apperr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, kind)
	assert.Contains(t, err.Error(), "remaining: 100000.00")

	var count int64
	require.NoError(t, database.DB.Model(&models.ContingencyDraw{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestRequestDraw_WarnsNearExhaustion(t *testing.T) {
	database.OpenTest(t)
	project := seedProject(t, 100000, 50000)

	// 50,000 used + 35,000 requested = 85% of the reserve.
	draw, warning, err := RequestDraw(drawRequest(project.ID, 35000))
	require.NoError(t, err)
	assert.Contains(t, warning, "85%")
	assert.Equal(t, models.ApprovalStatusPending, draw.Status)
}

func TestRequestDraw_InvalidInput(t *testing.T) {
	database.OpenTest(t)
	project := seedProject(t, 100000, 0)

	_, _, err := RequestDraw(drawRequest(project.ID, -5))
	require.Error(t, err)
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindValidation, kind)

	in := drawRequest(project.ID, 1000)
	in.DrawType = "slush_fund"
	_, _, err = RequestDraw(in)
	require.Error(t, err)
	kind, _ = apperr.KindOf(err)
	assert.Equal(t, apperr.KindValidation, kind)

	_, _, err = RequestDraw(drawRequest(4242, 1000))
	require.Error(t, err)
	kind, _ = apperr.KindOf(err)
	assert.Equal(t, apperr.KindNotFound, kind)
}

func TestApproveDraw_DebitsReserve(t *testing.T) {
	database.OpenTest(t)
	project := seedProject(t, 200000, 0)

	draw, _, err := RequestDraw(drawRequest(project.ID, 60000))
	require.NoError(t, err)

	approved, warning, err := ApproveDraw(draw.ID, 2, "Peter Otieno")
	require.NoError(t, err)
	assert.Empty(t, warning)
	assert.Equal(t, models.ApprovalStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, uint(2), *approved.ApprovedBy)
	assert.NotNil(t, approved.DecidedAt)

	var got models.Project
	require.NoError(t, database.DB.First(&got, "id = ?", project.ID).Error)
	assert.InDelta(t, 60000, got.ContingencyUsed, 0.001)
}

func TestApproveDraw_RevalidatesAtApprovalTime(t *testing.T) {
	database.OpenTest(t)
	project := seedProject(t, 100000, 0)

	first, _, err := RequestDraw(drawRequest(project.ID, 70000))
	require.NoError(t, err)
	second, _, err := RequestDraw(drawRequest(project.ID, 70000))
	require.NoError(t, err)

	// Both passed at request time; only one fits once the first is approved.
	_, _, err = ApproveDraw(first.ID, 2, "Peter Otieno")
	require.NoError(t, err)

	_, _, err = ApproveDraw(second.ID, 2, "Peter Otieno")
	require.Error(t, err)
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindValidation, kind)

	// The failed approval left the draw pending and the reserve untouched.
	var got models.ContingencyDraw
	require.NoError(t, database.DB.First(&got, "id = ?", second.ID).Error)
	assert.Equal(t, models.ApprovalStatusPending, got.Status)

	var p models.Project
	require.NoError(t, database.DB.First(&p, "id = ?", project.ID).Error)
	assert.InDelta(t, 70000, p.ContingencyUsed, 0.001)
}

func TestApproveDraw_GatedByCapital(t *testing.T) {
	database.OpenTest(t)
	// The reserve fits the draw, but the project only has 10,000 capital.
	project := seedProject(t, 200000, 0)
	setCapital(t, project.ID, 10000)

	draw, _, err := RequestDraw(drawRequest(project.ID, 50000))
	require.NoError(t, err)

	_, _, err = ApproveDraw(draw.ID, 2, "Peter Otieno")
	require.Error(t, err)
	kind, ok := apperr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, kind)
	assert.Contains(t, err.Error(), "available: 10000")
	assert.Contains(t, err.Error(), "required: 50000")

	// The draw is still pending and the reserve was not debited.
	var got models.ContingencyDraw
	require.NoError(t, database.DB.First(&got, "id = ?", draw.ID).Error)
	assert.Equal(t, models.ApprovalStatusPending, got.Status)

	var p models.Project
	require.NoError(t, database.DB.First(&p, "id = ?", project.ID).Error)
	assert.InDelta(t, 0, p.ContingencyUsed, 0.001)
}

func TestApproveDraw_AlreadyDecided(t *testing.T) {
	database.OpenTest(t)
	project := seedProject(t, 100000, 0)

	draw, _, err := RequestDraw(drawRequest(project.ID, 10000))
	require.NoError(t, err)
	_, _, err = ApproveDraw(draw.ID, 2, "Peter Otieno")
	require.NoError(t, err)

	_, _, err = ApproveDraw(draw.ID, 2, "Peter Otieno")
	require.Error(t, err)
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindConflict, kind)
}

func TestRejectDraw_LeavesReserveUntouched(t *testing.T) {
	database.OpenTest(t)
	project := seedProject(t, 100000, 20000)

	draw, _, err := RequestDraw(drawRequest(project.ID, 30000))
	require.NoError(t, err)

	rejected, err := RejectDraw(draw.ID, 2, "Peter Otieno")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalStatusRejected, rejected.Status)

	var got models.Project
	require.NoError(t, database.DB.First(&got, "id = ?", project.ID).Error)
	assert.InDelta(t, 20000, got.ContingencyUsed, 0.001)

	_, err = RejectDraw(draw.ID, 2, "Peter Otieno")
	require.Error(t, err)
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindConflict, kind)
}
