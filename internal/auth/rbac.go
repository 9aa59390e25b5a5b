package auth

import "github.com/Victorkib/kisheka-construction-sub014/internal/models"

// Action enumerates every state-changing operation the API exposes. The
// policy table below replaces the ad hoc string role checks the old system
// scattered across call sites.
type Action string

const (
	ActionManageProjects     Action = "manage_projects"
	ActionArchiveProjects    Action = "archive_projects"
	ActionManagePhases       Action = "manage_phases"
	ActionAllocateBudget     Action = "allocate_budget"
	ActionRecordCosts        Action = "record_costs"
	ActionApproveCosts       Action = "approve_costs"
	ActionCreateOrders       Action = "create_orders"
	ActionRequestContingency Action = "request_contingency"
	ActionApproveContingency Action = "approve_contingency"
	ActionRequestTransfer    Action = "request_transfer"
	ActionApproveTransfer    Action = "approve_transfer"
	ActionManageInvestors    Action = "manage_investors"
	ActionViewFinances       Action = "view_finances"
)

var policy = map[models.UserRole]map[Action]bool{
	models.RoleOwner: {
		ActionManageProjects:     true,
		ActionArchiveProjects:    true,
		ActionManagePhases:       true,
		ActionAllocateBudget:     true,
		ActionRecordCosts:        true,
		ActionApproveCosts:       true,
		ActionCreateOrders:       true,
		ActionRequestContingency: true,
		ActionApproveContingency: true,
		ActionRequestTransfer:    true,
		ActionApproveTransfer:    true,
		ActionManageInvestors:    true,
		ActionViewFinances:       true,
	},
	models.RoleProjectManager: {
		ActionManagePhases:       true,
		ActionAllocateBudget:     true,
		ActionRecordCosts:        true,
		ActionApproveCosts:       true,
		ActionCreateOrders:       true,
		ActionRequestContingency: true,
		ActionRequestTransfer:    true,
		ActionViewFinances:       true,
	},
	models.RoleFinance: {
		ActionRecordCosts:     true,
		ActionApproveCosts:    true,
		ActionManageInvestors: true,
		ActionViewFinances:    true,
	},
	models.RoleInvestorViewer: {
		ActionViewFinances: true,
	},
}

// Allowed is the single authorization gate: hasPermission(actor, action).
func Allowed(role models.UserRole, action Action) bool {
	perms, ok := policy[role]
	if !ok {
		return false
	}
	return perms[action]
}
