package budget

import (
	"fmt"
	"math"

	"github.com/Victorkib/kisheka-construction-sub014/internal/apperr"
	"github.com/Victorkib/kisheka-construction-sub014/internal/models"
)

// Estimation rates used when a legacy budget does not break out the
// non-construction categories.
const (
	preConstructionRate = 0.05
	indirectRate        = 0.05
	contingencyRate     = 0.05
)

// Tolerance for the category-sum vs total divergence warning. Money is
// float64 KES throughout, so exact equality is too strict.
const sumTolerance = 0.01

// Input is the raw budget payload accepted at the API boundary. It may carry
// the four enhanced category fields or the legacy
// {total, materials, labour, contingency} shape. Resolve turns either into
// the canonical models.Budget exactly once; nothing deeper in the call graph
// branches on shape.
type Input struct {
	DirectConstructionCosts *float64 `json:"direct_construction_costs"`
	PreConstructionCosts    *float64 `json:"pre_construction_costs"`
	IndirectCosts           *float64 `json:"indirect_costs"`
	ContingencyReserve      *float64 `json:"contingency_reserve"`
	Total                   *float64 `json:"total"`

	// Legacy shape
	Materials   *float64 `json:"materials"`
	Labour      *float64 `json:"labour"`
	Contingency *float64 `json:"contingency"`
}

// IsEnhanced reports whether the payload carries all four named category
// fields.
func (in Input) IsEnhanced() bool {
	return in.DirectConstructionCosts != nil &&
		in.PreConstructionCosts != nil &&
		in.IndirectCosts != nil &&
		in.ContingencyReserve != nil
}

// Resolve converts a raw payload into the canonical enhanced budget,
// validating it. Non-fatal warnings are returned alongside.
func Resolve(in Input) (models.Budget, []string, error) {
	var b models.Budget

	if in.IsEnhanced() {
		b = New(models.Budget{
			DirectConstructionCosts: *in.DirectConstructionCosts,
			PreConstructionCosts:    *in.PreConstructionCosts,
			IndirectCosts:           *in.IndirectCosts,
			ContingencyReserve:      *in.ContingencyReserve,
			Total:                   deref(in.Total),
		})
	} else {
		if in.Total == nil {
			return models.Budget{}, nil, apperr.Validation("budget requires either the four category fields or a legacy total")
		}
		b = ConvertLegacy(*in.Total, in.Contingency)
	}

	warnings, err := Validate(b)
	if err != nil {
		return models.Budget{}, nil, err
	}
	return b, warnings, nil
}

// ConvertLegacy estimates the enhanced categories from a legacy budget:
// pre-construction and indirect at 5% of total each, contingency explicit or
// 5%, and direct construction as the remainder floored at 0.
func ConvertLegacy(total float64, contingency *float64) models.Budget {
	pre := total * preConstructionRate
	indirect := total * indirectRate

	cont := total * contingencyRate
	if contingency != nil {
		cont = *contingency
	}

	dcc := math.Max(0, total-pre-indirect-cont)

	return models.Budget{
		DirectConstructionCosts: dcc,
		PreConstructionCosts:    pre,
		IndirectCosts:           indirect,
		ContingencyReserve:      cont,
		Total:                   total,
	}
}

// New fills in the total when the caller left it at zero.
func New(partial models.Budget) models.Budget {
	b := partial
	if b.Total == 0 {
		b.Total = b.DirectConstructionCosts + b.PreConstructionCosts + b.IndirectCosts + b.ContingencyReserve
	}
	return b
}

// Validate rejects negative categories and warns (without failing) when the
// category sum diverges from the stated total.
func Validate(b models.Budget) ([]string, error) {
	categories := []struct {
		name  string
		value float64
	}{
		{"direct_construction_costs", b.DirectConstructionCosts},
		{"pre_construction_costs", b.PreConstructionCosts},
		{"indirect_costs", b.IndirectCosts},
		{"contingency_reserve", b.ContingencyReserve},
		{"total", b.Total},
	}
	for _, cat := range categories {
		if cat.value < 0 {
			return nil, apperr.Validation("budget category %s cannot be negative", cat.name)
		}
	}

	var warnings []string
	sum := b.DirectConstructionCosts + b.PreConstructionCosts + b.IndirectCosts + b.ContingencyReserve
	if b.Total > 0 && math.Abs(sum-b.Total) > sumTolerance {
		warnings = append(warnings, fmt.Sprintf("budget categories sum to %.2f but total is %.2f", sum, b.Total))
	}

	return warnings, nil
}

// Total returns the budget total, falling back to the category sum when the
// total was never set.
func Total(b models.Budget) float64 {
	if b.Total > 0 {
		return b.Total
	}
	return b.DirectConstructionCosts + b.PreConstructionCosts + b.IndirectCosts + b.ContingencyReserve
}

// DCCBudget is the ceiling phases may draw allocation from.
func DCCBudget(b models.Budget) float64 {
	return b.DirectConstructionCosts
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
