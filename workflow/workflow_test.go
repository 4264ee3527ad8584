package workflow

import (
	"testing"

	"github.com/aumugisha-umu/seido-backend/model"
	"github.com/aumugisha-umu/seido-backend/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []model.InterventionStatus{
	model.StatusRequested,
	model.StatusApproved,
	model.StatusRejected,
	model.StatusQuoteRequested,
	model.StatusSchedulingInProgress,
	model.StatusScheduled,
	model.StatusInProgress,
	model.StatusClosedByProvider,
	model.StatusClosedByTenant,
	model.StatusClosedByManager,
	model.StatusCancelled,
}

var allActions = []Action{
	ActionApprove,
	ActionReject,
	ActionRequestQuote,
	ActionStartScheduling,
	ActionSchedule,
	ActionStart,
	ActionCompleteWork,
	ActionValidate,
	ActionFinalize,
	ActionCancel,
}

// expectedNext is the documented successor for every legal (status, action)
// pair. Everything absent must be refused.
var expectedNext = map[model.InterventionStatus]map[Action]model.InterventionStatus{
	model.StatusRequested: {
		ActionApprove: model.StatusApproved,
		ActionReject:  model.StatusRejected,
		ActionCancel:  model.StatusCancelled,
	},
	model.StatusApproved: {
		ActionRequestQuote:    model.StatusQuoteRequested,
		ActionStartScheduling: model.StatusSchedulingInProgress,
		ActionCancel:          model.StatusCancelled,
	},
	model.StatusQuoteRequested: {
		ActionStartScheduling: model.StatusSchedulingInProgress,
		ActionCancel:          model.StatusCancelled,
	},
	model.StatusSchedulingInProgress: {
		ActionSchedule: model.StatusScheduled,
		ActionCancel:   model.StatusCancelled,
	},
	model.StatusScheduled: {
		ActionStart:  model.StatusInProgress,
		ActionCancel: model.StatusCancelled,
	},
	model.StatusInProgress: {
		ActionCompleteWork: model.StatusClosedByProvider,
		ActionCancel:       model.StatusCancelled,
	},
	model.StatusClosedByProvider: {
		ActionValidate: model.StatusClosedByTenant,
		ActionFinalize: model.StatusClosedByManager,
		ActionCancel:   model.StatusCancelled,
	},
	model.StatusClosedByTenant: {
		ActionFinalize: model.StatusClosedByManager,
		ActionCancel:   model.StatusCancelled,
	},
}

// TestTransitionTableComplete sweeps every (status, action) pair: either the
// table yields exactly the documented successor, or the pair is refused.
func TestTransitionTableComplete(t *testing.T) {
	for _, status := range allStatuses {
		for _, action := range allActions {
			next, ok := Next(status, action)
			want, legal := expectedNext[status][action]
			if legal {
				require.True(t, ok, "expected %s/%s to be legal", status, action)
				assert.Equal(t, want, next, "%s/%s", status, action)
			} else {
				assert.False(t, ok, "expected %s/%s to be refused", status, action)
			}
		}
	}
}

func TestTerminalStatesHaveNoTransitions(t *testing.T) {
	for _, status := range allStatuses {
		if !status.Terminal() {
			continue
		}
		assert.Empty(t, Transitions(status), "terminal status %s must have no transitions", status)
	}
}

func fixture() (*model.Intervention, []model.Assignment) {
	iv := &model.Intervention{
		ID:     "iv-1",
		Title:  "Fuite d'eau salle de bain",
		Status: model.StatusRequested,
		TeamID: "team-1",
	}
	assignments := []model.Assignment{
		{ID: "a-t", InterventionID: "iv-1", UserID: "tenant-1", Role: model.RoleTenant},
		{ID: "a-p", InterventionID: "iv-1", UserID: "provider-1", Role: model.RoleProvider},
	}
	return iv, assignments
}

func TestAuthorizeManagerApprove(t *testing.T) {
	iv, assignments := fixture()

	next, err := Authorize(Request{
		Actor:        Actor{UserID: "mgr-1", Role: model.RoleManager, TeamID: "team-1"},
		Action:       ActionApprove,
		Intervention: iv,
		Assignments:  assignments,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, next)
}

func TestAuthorizeWrongTeamManager(t *testing.T) {
	iv, assignments := fixture()

	_, err := Authorize(Request{
		Actor:        Actor{UserID: "mgr-2", Role: model.RoleManager, TeamID: "team-other"},
		Action:       ActionApprove,
		Intervention: iv,
		Assignments:  assignments,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Forbidden))
}

func TestAuthorizeTenantCannotApprove(t *testing.T) {
	iv, assignments := fixture()

	_, err := Authorize(Request{
		Actor:        Actor{UserID: "tenant-1", Role: model.RoleTenant},
		Action:       ActionApprove,
		Intervention: iv,
		Assignments:  assignments,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Forbidden))
}

func TestAuthorizeInvalidTransition(t *testing.T) {
	iv, assignments := fixture()
	iv.Status = model.StatusScheduled

	_, err := Authorize(Request{
		Actor:        Actor{UserID: "mgr-1", Role: model.RoleManager, TeamID: "team-1"},
		Action:       ActionApprove,
		Intervention: iv,
		Assignments:  assignments,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.InvalidTransition))
}

func TestAuthorizeScheduleIsSystemOnly(t *testing.T) {
	iv, assignments := fixture()
	iv.Status = model.StatusSchedulingInProgress

	for _, role := range []model.Role{model.RoleTenant, model.RoleManager, model.RoleProvider, model.RoleAdmin} {
		_, err := Authorize(Request{
			Actor:        Actor{UserID: "u", Role: role, TeamID: "team-1"},
			Action:       ActionSchedule,
			Intervention: iv,
			Assignments:  assignments,
		})
		require.Error(t, err, "role %s", role)
		assert.True(t, apperr.IsKind(err, apperr.Forbidden), "role %s", role)
	}
}

func TestAuthorizeStartByAssignedProvider(t *testing.T) {
	iv, assignments := fixture()
	iv.Status = model.StatusScheduled

	next, err := Authorize(Request{
		Actor:        Actor{UserID: "provider-1", Role: model.RoleProvider},
		Action:       ActionStart,
		Intervention: iv,
		Assignments:  assignments,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, next)
}

func TestAuthorizeStartByUnassignedProvider(t *testing.T) {
	iv, assignments := fixture()
	iv.Status = model.StatusScheduled

	_, err := Authorize(Request{
		Actor:        Actor{UserID: "provider-other", Role: model.RoleProvider},
		Action:       ActionStart,
		Intervention: iv,
		Assignments:  assignments,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Forbidden))
}

func TestAuthorizeCompleteWorkManagerForbidden(t *testing.T) {
	iv, assignments := fixture()
	iv.Status = model.StatusInProgress

	_, err := Authorize(Request{
		Actor:        Actor{UserID: "mgr-1", Role: model.RoleManager, TeamID: "team-1"},
		Action:       ActionCompleteWork,
		Intervention: iv,
		Assignments:  assignments,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Forbidden))
}

func TestAuthorizeRequestQuoteNeedsFlag(t *testing.T) {
	iv, assignments := fixture()
	iv.Status = model.StatusApproved
	iv.RequiresQuote = false

	_, err := Authorize(Request{
		Actor:        Actor{UserID: "mgr-1", Role: model.RoleManager, TeamID: "team-1"},
		Action:       ActionRequestQuote,
		Intervention: iv,
		Assignments:  assignments,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.ValidationFailed))

	iv.RequiresQuote = true
	next, err := Authorize(Request{
		Actor:        Actor{UserID: "mgr-1", Role: model.RoleManager, TeamID: "team-1"},
		Action:       ActionRequestQuote,
		Intervention: iv,
		Assignments:  assignments,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusQuoteRequested, next)
}

func TestAuthorizeStartSchedulingNeedsSlot(t *testing.T) {
	iv, assignments := fixture()
	iv.Status = model.StatusApproved

	actor := Actor{UserID: "mgr-1", Role: model.RoleManager, TeamID: "team-1"}

	_, err := Authorize(Request{
		Actor: actor, Action: ActionStartScheduling,
		Intervention: iv, Assignments: assignments,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.ValidationFailed))

	next, err := Authorize(Request{
		Actor: actor, Action: ActionStartScheduling,
		Intervention: iv, Assignments: assignments,
		Slots: []model.TimeSlot{{ID: "s-1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusSchedulingInProgress, next)
}

func TestAuthorizeStartSchedulingFromQuoteRequestedNeedsAcceptedQuote(t *testing.T) {
	iv, assignments := fixture()
	iv.Status = model.StatusQuoteRequested

	actor := Actor{UserID: "mgr-1", Role: model.RoleManager, TeamID: "team-1"}
	slots := []model.TimeSlot{{ID: "s-1"}}

	_, err := Authorize(Request{
		Actor: actor, Action: ActionStartScheduling,
		Intervention: iv, Assignments: assignments, Slots: slots,
		Quotes: []model.Quote{{ID: "q-1", Status: model.QuoteSent}},
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.InvalidTransition))

	next, err := Authorize(Request{
		Actor: actor, Action: ActionStartScheduling,
		Intervention: iv, Assignments: assignments, Slots: slots,
		Quotes: []model.Quote{{ID: "q-1", Status: model.QuoteAccepted}},
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusSchedulingInProgress, next)
}

func TestAuthorizeCancelFromEveryNonTerminalState(t *testing.T) {
	iv, assignments := fixture()
	actor := Actor{UserID: "mgr-1", Role: model.RoleManager, TeamID: "team-1"}

	for _, status := range allStatuses {
		iv.Status = status
		next, err := Authorize(Request{
			Actor: actor, Action: ActionCancel,
			Intervention: iv, Assignments: assignments,
		})
		if status.Terminal() {
			require.Error(t, err, "status %s", status)
			assert.True(t, apperr.IsKind(err, apperr.InvalidTransition), "status %s", status)
		} else {
			require.NoError(t, err, "status %s", status)
			assert.Equal(t, model.StatusCancelled, next)
		}
	}
}

func TestAuthorizeTenantCannotCancel(t *testing.T) {
	iv, assignments := fixture()

	_, err := Authorize(Request{
		Actor:        Actor{UserID: "tenant-1", Role: model.RoleTenant},
		Action:       ActionCancel,
		Intervention: iv,
		Assignments:  assignments,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Forbidden))
}

func TestAuthorizeAdminBypassesTeamCheck(t *testing.T) {
	iv, assignments := fixture()

	next, err := Authorize(Request{
		Actor:        Actor{UserID: "admin-1", Role: model.RoleAdmin},
		Action:       ActionApprove,
		Intervention: iv,
		Assignments:  assignments,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, next)
}
