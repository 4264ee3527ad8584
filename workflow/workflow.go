// Package workflow holds the intervention lifecycle rules: the transition
// table, the role guards for each transition, the multi-party confirmation
// aggregation and the attention-badge derivation. Everything here is pure;
// persistence stays in the service layer.
package workflow

import (
	"github.com/aumugisha-umu/seido-backend/model"
	"github.com/aumugisha-umu/seido-backend/pkg/apperr"
)

// Action is a lifecycle operation requested against an intervention.
type Action string

const (
	ActionApprove         Action = "approve"
	ActionReject          Action = "reject"
	ActionRequestQuote    Action = "request_quote"
	ActionStartScheduling Action = "start_scheduling"
	ActionSchedule        Action = "schedule" // system-only, via aggregation
	ActionStart           Action = "start"
	ActionCompleteWork    Action = "complete_work"
	ActionValidate        Action = "validate"
	ActionFinalize        Action = "finalize"
	ActionCancel          Action = "cancel"
)

// Actor is the resolved identity performing an action.
type Actor struct {
	UserID string
	Role   model.Role
	TeamID string
}

// Transition is one row of the lifecycle table: from the keying status,
// Action leads to Next when the guard passes.
type Transition struct {
	Action Action
	Next   model.InterventionStatus
	// Roles that may trigger the transition. Empty means system-only.
	Roles []model.Role
}

// transitions is the full legal-transition surface, in one place.
var transitions = map[model.InterventionStatus][]Transition{
	model.StatusRequested: {
		{Action: ActionApprove, Next: model.StatusApproved, Roles: []model.Role{model.RoleManager, model.RoleAdmin}},
		{Action: ActionReject, Next: model.StatusRejected, Roles: []model.Role{model.RoleManager, model.RoleAdmin}},
	},
	model.StatusApproved: {
		{Action: ActionRequestQuote, Next: model.StatusQuoteRequested, Roles: []model.Role{model.RoleManager, model.RoleAdmin}},
		{Action: ActionStartScheduling, Next: model.StatusSchedulingInProgress, Roles: []model.Role{model.RoleManager, model.RoleProvider, model.RoleAdmin}},
	},
	model.StatusQuoteRequested: {
		{Action: ActionStartScheduling, Next: model.StatusSchedulingInProgress, Roles: []model.Role{model.RoleManager, model.RoleProvider, model.RoleAdmin}},
	},
	model.StatusSchedulingInProgress: {
		{Action: ActionSchedule, Next: model.StatusScheduled}, // aggregation rule only
	},
	model.StatusScheduled: {
		{Action: ActionStart, Next: model.StatusInProgress, Roles: []model.Role{model.RoleProvider, model.RoleManager, model.RoleAdmin}},
	},
	model.StatusInProgress: {
		{Action: ActionCompleteWork, Next: model.StatusClosedByProvider, Roles: []model.Role{model.RoleProvider}},
	},
	model.StatusClosedByProvider: {
		{Action: ActionValidate, Next: model.StatusClosedByTenant, Roles: []model.Role{model.RoleTenant}},
		{Action: ActionFinalize, Next: model.StatusClosedByManager, Roles: []model.Role{model.RoleManager, model.RoleAdmin}},
	},
	model.StatusClosedByTenant: {
		{Action: ActionFinalize, Next: model.StatusClosedByManager, Roles: []model.Role{model.RoleManager, model.RoleAdmin}},
	},
}

func init() {
	// Cancellation is legal from every non-terminal state.
	for status := range transitions {
		transitions[status] = append(transitions[status], Transition{
			Action: ActionCancel,
			Next:   model.StatusCancelled,
			Roles:  []model.Role{model.RoleManager, model.RoleAdmin},
		})
	}
}

// Next returns the successor status for (current, action), if the table
// permits it.
func Next(current model.InterventionStatus, action Action) (model.InterventionStatus, bool) {
	for _, tr := range transitions[current] {
		if tr.Action == action {
			return tr.Next, true
		}
	}
	return "", false
}

// Transitions returns the table rows leaving the given status.
func Transitions(current model.InterventionStatus) []Transition {
	return transitions[current]
}

// Request carries everything a guard decision needs. Assignments, quotes and
// slots are the intervention's own, freshly read by the caller.
type Request struct {
	Actor        Actor
	Action       Action
	Intervention *model.Intervention
	Assignments  []model.Assignment
	Quotes       []model.Quote
	Slots        []model.TimeSlot
}

// Authorize checks the transition table and its guard for the request and
// returns the successor status. It never mutates anything: callers apply the
// returned status only after Authorize succeeds.
func Authorize(req Request) (model.InterventionStatus, error) {
	iv := req.Intervention

	var match *Transition
	for i, tr := range transitions[iv.Status] {
		if tr.Action == req.Action {
			match = &transitions[iv.Status][i]
			break
		}
	}
	if match == nil {
		return "", apperr.New(apperr.InvalidTransition,
			"action %q is not allowed from status %q", req.Action, iv.Status)
	}

	if len(match.Roles) == 0 {
		// System-only transition: no direct user action may trigger it.
		return "", apperr.New(apperr.Forbidden,
			"action %q is system-triggered and cannot be requested directly", req.Action)
	}

	if !roleAllowed(match.Roles, req.Actor.Role) {
		return "", apperr.New(apperr.Forbidden,
			"role %q may not perform action %q", req.Actor.Role, req.Action)
	}

	if err := checkParty(req); err != nil {
		return "", err
	}

	if err := checkConditions(req); err != nil {
		return "", err
	}

	return match.Next, nil
}

func roleAllowed(roles []model.Role, role model.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// checkParty verifies the actor is actually a party to the intervention:
// admins always are, managers through the owning team, tenants and providers
// through an assignment with the matching role.
func checkParty(req Request) error {
	switch req.Actor.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleManager:
		if req.Actor.TeamID != req.Intervention.TeamID {
			return apperr.New(apperr.Forbidden, "manager does not belong to the owning team")
		}
		return nil
	default:
		if AssignmentFor(req.Assignments, req.Actor.UserID, req.Actor.Role) == nil {
			return apperr.New(apperr.Forbidden, "user is not assigned to this intervention")
		}
		return nil
	}
}

// checkConditions applies the per-action refinements beyond role and party.
func checkConditions(req Request) error {
	switch req.Action {
	case ActionRequestQuote:
		if !req.Intervention.RequiresQuote {
			return apperr.New(apperr.ValidationFailed,
				"intervention does not require cost estimation")
		}
	case ActionStartScheduling:
		if len(req.Slots) == 0 {
			return apperr.New(apperr.ValidationFailed,
				"at least one time slot is required to start scheduling")
		}
		if req.Intervention.Status == model.StatusQuoteRequested && !hasAcceptedQuote(req.Quotes) {
			return apperr.New(apperr.InvalidTransition,
				"action %q requires an accepted quote from status %q", req.Action, req.Intervention.Status)
		}
	case ActionStart, ActionCompleteWork:
		// Managers start through team ownership; providers must be the
		// assigned provider.
		if req.Actor.Role == model.RoleProvider &&
			AssignmentFor(req.Assignments, req.Actor.UserID, model.RoleProvider) == nil {
			return apperr.New(apperr.Forbidden, "provider is not assigned to this intervention")
		}
	}
	return nil
}

func hasAcceptedQuote(quotes []model.Quote) bool {
	for _, q := range quotes {
		if q.Status == model.QuoteAccepted {
			return true
		}
	}
	return false
}

// AssignmentFor returns the assignment linking the user to the intervention
// with the given role, or nil.
func AssignmentFor(assignments []model.Assignment, userID string, role model.Role) *model.Assignment {
	for i := range assignments {
		if assignments[i].UserID == userID && assignments[i].Role == role {
			return &assignments[i]
		}
	}
	return nil
}
