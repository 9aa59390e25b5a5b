package budget

import (
	"testing"

	"github.com/Victorkib/kisheka-construction-sub014/internal/apperr"
	"github.com/Victorkib/kisheka-construction-sub014/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestInput_IsEnhanced(t *testing.T) {
	enhanced := Input{
		DirectConstructionCosts: f(850000),
		PreConstructionCosts:    f(50000),
		IndirectCosts:           f(50000),
		ContingencyReserve:      f(50000),
	}
	assert.True(t, enhanced.IsEnhanced())

	legacy := Input{Total: f(1000000), Materials: f(600000), Labour: f(300000), Contingency: f(100000)}
	assert.False(t, legacy.IsEnhanced())
}

func TestConvertLegacy_EstimatesCategories(t *testing.T) {
	b := ConvertLegacy(1000000, nil)

	assert.InDelta(t, 50000, b.PreConstructionCosts, 0.001)
	assert.InDelta(t, 50000, b.IndirectCosts, 0.001)
	assert.InDelta(t, 50000, b.ContingencyReserve, 0.001)
	assert.InDelta(t, 850000, b.DirectConstructionCosts, 0.001)
	assert.InDelta(t, 1000000, b.Total, 0.001)
}

func TestConvertLegacy_ExplicitContingency(t *testing.T) {
	b := ConvertLegacy(1000000, f(200000))

	assert.InDelta(t, 200000, b.ContingencyReserve, 0.001)
	assert.InDelta(t, 700000, b.DirectConstructionCosts, 0.001)
}

func TestConvertLegacy_DCCFlooredAtZero(t *testing.T) {
	// Contingency larger than the whole budget: remainder would be negative.
	b := ConvertLegacy(100000, f(500000))

	assert.Equal(t, 0.0, b.DirectConstructionCosts)
}

func TestValidate_NegativeCategoryFails(t *testing.T) {
	_, err := Validate(models.Budget{DirectConstructionCosts: -1, Total: 100})
	require.Error(t, err)
	kind, ok := apperr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, kind)
}

func TestValidate_SumDivergenceWarnsOnly(t *testing.T) {
	warnings, err := Validate(models.Budget{
		DirectConstructionCosts: 500000,
		PreConstructionCosts:    50000,
		IndirectCosts:           50000,
		ContingencyReserve:      50000,
		Total:                   1000000, // categories sum to 650000
	})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "650000.00")
}

func TestNew_FillsTotal(t *testing.T) {
	b := New(models.Budget{
		DirectConstructionCosts: 800000,
		PreConstructionCosts:    50000,
		IndirectCosts:           50000,
		ContingencyReserve:      100000,
	})
	assert.InDelta(t, 1000000, b.Total, 0.001)
}

func TestResolve_LegacyPayload(t *testing.T) {
	b, warnings, err := Resolve(Input{Total: f(1000000), Materials: f(600000), Labour: f(400000)})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.InDelta(t, 850000, b.DirectConstructionCosts, 0.001)
}

func TestResolve_LegacyWithoutTotalFails(t *testing.T) {
	_, _, err := Resolve(Input{Materials: f(600000)})
	require.Error(t, err)
}

func TestTotal_FallsBackToCategorySum(t *testing.T) {
	b := models.Budget{DirectConstructionCosts: 10, PreConstructionCosts: 5, IndirectCosts: 5, ContingencyReserve: 5}
	assert.InDelta(t, 25, Total(b), 0.001)
}
