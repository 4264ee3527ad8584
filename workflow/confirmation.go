package workflow

import (
	"github.com/aumugisha-umu/seido-backend/model"
)

// AllConfirmed reports whether every assignment requiring confirmation has
// been confirmed. Vacuously true when none requires confirmation, so slot
// selection alone can schedule interventions without required participants.
//
// Callers must pass the full, freshly re-read sibling set: the rule is
// evaluated over the whole set rather than a counter, so two participants
// confirming at the same moment cannot double-advance the intervention.
func AllConfirmed(assignments []model.Assignment) bool {
	for _, a := range assignments {
		if a.RequiresConfirmation && a.Confirmation != model.ConfirmationConfirmed {
			return false
		}
	}
	return true
}

// PendingConfirmations returns the assignments still awaiting an answer.
func PendingConfirmations(assignments []model.Assignment) []model.Assignment {
	var pending []model.Assignment
	for _, a := range assignments {
		if a.RequiresConfirmation && a.Confirmation == model.ConfirmationPending {
			pending = append(pending, a)
		}
	}
	return pending
}

// ManagerSelectedSlot returns the single slot the manager picked for the
// scheduled window, or nil when zero or several are flagged. The ambiguity
// case blocks the advance rather than guessing.
func ManagerSelectedSlot(slots []model.TimeSlot) *model.TimeSlot {
	var selected *model.TimeSlot
	for i := range slots {
		if slots[i].SelectedByManager {
			if selected != nil {
				return nil
			}
			selected = &slots[i]
		}
	}
	return selected
}
