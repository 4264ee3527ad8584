package workflow

import (
	"time"

	"github.com/aumugisha-umu/seido-backend/model"
)

// providerLookahead is how far before the scheduled start a provider's
// dashboard badge lights up.
const providerLookahead = 24 * time.Hour

// attentionTable maps (role, status) to "this status needs the role's
// attention". Refinements for quotes and the provider lookahead window are
// applied in NeedsAttention.
var attentionTable = map[model.Role]map[model.InterventionStatus]bool{
	model.RoleTenant: {
		model.StatusSchedulingInProgress: true, // confirm participation
		model.StatusClosedByProvider:     true, // validate the work
	},
	model.RoleManager: {
		model.StatusRequested:            true, // approve or reject
		model.StatusQuoteRequested:       true, // review quotes (refined below)
		model.StatusSchedulingInProgress: true, // select a slot, chase confirmations
		model.StatusClosedByProvider:     true, // finalize directly
		model.StatusClosedByTenant:       true, // finalize
	},
	model.RoleProvider: {
		model.StatusQuoteRequested:       true, // submit a quote
		model.StatusSchedulingInProgress: true, // propose slots, confirm
		model.StatusScheduled:            true, // upcoming work (refined below)
		model.StatusInProgress:           true, // report completion
	},
}

// NeedsAttention derives the "requires your attention" indicator for the
// given caller. Pure lookup, no side effects.
func NeedsAttention(role model.Role, iv *model.Intervention, quotes []model.Quote, now time.Time) bool {
	statuses, ok := attentionTable[role]
	if !ok || !statuses[iv.Status] {
		return false
	}

	switch {
	case role == model.RoleManager && iv.Status == model.StatusQuoteRequested:
		// Only alert once there is something to review.
		for _, q := range quotes {
			if q.Status.Active() {
				return true
			}
		}
		return false
	case role == model.RoleProvider && iv.Status == model.StatusScheduled:
		if iv.ScheduledStart == nil {
			return false
		}
		start := *iv.ScheduledStart
		return !now.After(start) && start.Sub(now) <= providerLookahead
	}

	return true
}
