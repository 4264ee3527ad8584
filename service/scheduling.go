package service

import (
	"context"
	"errors"
	"time"

	"github.com/aumugisha-umu/seido-backend/model"
	"github.com/aumugisha-umu/seido-backend/pkg/apperr"
	"github.com/aumugisha-umu/seido-backend/pkg/logger"
	"github.com/aumugisha-umu/seido-backend/workflow"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SlotInput is a proposed scheduling window.
type SlotInput struct {
	Date      time.Time
	StartTime time.Time
	EndTime   time.Time
}

// ProposeSlots records candidate windows. Proposing the first slot moves an
// approved (or quote-accepted) intervention into scheduling_in_progress.
func (s *InterventionService) ProposeSlots(ctx context.Context, actor workflow.Actor, id string, inputs []SlotInput) ([]model.TimeSlot, error) {
	if len(inputs) == 0 {
		return nil, apperr.New(apperr.ValidationFailed, "at least one time slot is required")
	}

	iv, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	candidate := make([]model.TimeSlot, 0, len(inputs))
	for _, in := range inputs {
		if !in.EndTime.After(in.StartTime) {
			return nil, apperr.New(apperr.ValidationFailed, "slot end must be after start")
		}
		candidate = append(candidate, model.TimeSlot{
			ID:             uuid.New().String(),
			InterventionID: id,
			Date:           in.Date,
			StartTime:      in.StartTime,
			EndTime:        in.EndTime,
			Status:         model.SlotPending,
			ProposedBy:     actor.UserID,
		})
	}

	// Entering scheduling is the slot proposal itself, guarded by the table.
	// When already scheduling, proposing more slots only needs party status.
	entering := iv.Status == model.StatusApproved || iv.Status == model.StatusQuoteRequested
	if entering {
		next, err := workflow.Authorize(workflow.Request{
			Actor:        actor,
			Action:       workflow.ActionStartScheduling,
			Intervention: iv,
			Assignments:  iv.Assignments,
			Quotes:       iv.Quotes,
			Slots:        candidate,
		})
		if err != nil {
			return nil, err
		}
		applied, err := s.setStatus(ctx, id, iv.Status, next, nil)
		if err != nil {
			return nil, err
		}
		if !applied {
			return nil, apperr.New(apperr.InvalidTransition,
				"action %q is not allowed from status %q", workflow.ActionStartScheduling, iv.Status)
		}
		iv.Status = next
	} else if iv.Status != model.StatusSchedulingInProgress {
		return nil, apperr.New(apperr.InvalidTransition,
			"action %q is not allowed from status %q", workflow.ActionStartScheduling, iv.Status)
	} else if !s.visibleTo(actor, iv) {
		return nil, apperr.New(apperr.Forbidden, "user is not a party to this intervention")
	}

	if err := s.db.WithContext(ctx).Create(&candidate).Error; err != nil {
		return nil, apperr.Wrap(apperr.DependencyFailure, err, "failed to create time slots")
	}

	logger.Info(ctx, "time slots proposed",
		"intervention_id", id,
		"count", len(candidate),
	)
	s.notifyParticipants(ctx, iv, "New time slots were proposed for "+iv.Title)
	return candidate, nil
}

// SelectSlot lets the manager flag the window the intervention should be
// scheduled on. The flag takes effect when every required confirmation is in.
func (s *InterventionService) SelectSlot(ctx context.Context, actor workflow.Actor, id, slotID string) error {
	iv, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireManager(actor, iv); err != nil {
		return err
	}
	if iv.Status != model.StatusSchedulingInProgress {
		return apperr.New(apperr.InvalidTransition,
			"action %q is not allowed from status %q", "select_slot", iv.Status)
	}

	var slot model.TimeSlot
	if err := s.db.WithContext(ctx).First(&slot, "id = ? AND intervention_id = ?", slotID, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.NotFound, "time slot not found")
		}
		return apperr.Wrap(apperr.DependencyFailure, err, "failed to load time slot")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.TimeSlot{}).
			Where("intervention_id = ?", id).
			Update("selected_by_manager", false).Error; err != nil {
			return err
		}
		return tx.Model(&model.TimeSlot{}).
			Where("id = ?", slotID).
			Update("selected_by_manager", true).Error
	})
	if err != nil {
		return apperr.Wrap(apperr.DependencyFailure, err, "failed to select time slot")
	}

	return s.evaluateScheduling(ctx, id)
}

// ConfirmInput is a participant's one-shot confirm-or-reject answer.
type ConfirmInput struct {
	Confirmed bool
	Reason    string
}

// ConfirmParticipation resolves the actor's required confirmation exactly
// once, then re-evaluates the aggregate condition. A rejection records the
// reason and notifies the managers; the intervention status is untouched.
func (s *InterventionService) ConfirmParticipation(ctx context.Context, actor workflow.Actor, id string, in ConfirmInput) error {
	iv, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	assignment := workflow.AssignmentFor(iv.Assignments, actor.UserID, actor.Role)
	if assignment == nil {
		return apperr.New(apperr.Forbidden, "user is not assigned to this intervention")
	}
	if !assignment.RequiresConfirmation {
		return apperr.New(apperr.ValidationFailed, "this assignment does not require confirmation")
	}
	if assignment.Confirmation.Resolved() {
		return apperr.New(apperr.AlreadyProcessed,
			"participation already %s", assignment.Confirmation)
	}

	target := model.ConfirmationRejected
	if in.Confirmed {
		target = model.ConfirmationConfirmed
	}
	now := time.Now()

	// Conditional write: only the first answer lands, a concurrent repeat
	// sees zero rows affected.
	res := s.db.WithContext(ctx).
		Model(&model.Assignment{}).
		Where("id = ? AND confirmation = ?", assignment.ID, model.ConfirmationPending).
		Updates(map[string]any{
			"confirmation": target,
			"confirmed_at": now,
			"reason":       in.Reason,
		})
	if res.Error != nil {
		return apperr.Wrap(apperr.DependencyFailure, res.Error, "failed to record confirmation")
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.AlreadyProcessed, "participation already resolved")
	}

	logger.Info(ctx, "participation recorded",
		"intervention_id", id,
		"confirmed", in.Confirmed,
	)

	if !in.Confirmed {
		// Rejection never cancels the intervention; the manager follows up
		// manually (new slots or cancellation).
		s.notifyManagers(ctx, iv, "A participant declined the proposed schedule for "+iv.Title)
		return nil
	}

	return s.evaluateScheduling(ctx, id)
}

// evaluateScheduling re-reads the full sibling set and advances the
// intervention to scheduled when every required confirmation is in and the
// manager picked exactly one slot. The advance is a conditional update, so
// concurrent evaluations apply it at most once.
func (s *InterventionService) evaluateScheduling(ctx context.Context, id string) error {
	var assignments []model.Assignment
	if err := s.db.WithContext(ctx).Find(&assignments, "intervention_id = ?", id).Error; err != nil {
		return apperr.Wrap(apperr.DependencyFailure, err, "failed to load assignments")
	}
	if !workflow.AllConfirmed(assignments) {
		return nil
	}

	var slots []model.TimeSlot
	if err := s.db.WithContext(ctx).Find(&slots, "intervention_id = ?", id).Error; err != nil {
		return apperr.Wrap(apperr.DependencyFailure, err, "failed to load time slots")
	}
	slot := workflow.ManagerSelectedSlot(slots)
	if slot == nil {
		return nil
	}

	applied, err := s.setStatus(ctx, id, model.StatusSchedulingInProgress, model.StatusScheduled, map[string]any{
		"scheduled_start": slot.StartTime,
		"scheduled_end":   slot.EndTime,
	})
	if err != nil {
		return err
	}
	if !applied {
		// Already advanced by a concurrent confirmation; nothing to do.
		return nil
	}

	if err := s.db.WithContext(ctx).Model(&model.TimeSlot{}).
		Where("id = ?", slot.ID).
		Update("status", model.SlotSelected).Error; err != nil {
		return apperr.Wrap(apperr.DependencyFailure, err, "failed to mark slot selected")
	}

	iv, err := s.load(ctx, id)
	if err == nil {
		logger.Info(ctx, "intervention scheduled",
			"intervention_id", id,
			"slot_id", slot.ID,
		)
		s.notifyParticipants(ctx, iv, "Intervention "+iv.Title+" is scheduled")
	}
	return nil
}

func (s *InterventionService) notifyManagers(ctx context.Context, iv *model.Intervention, message string) {
	var managers []model.User
	if err := s.db.WithContext(ctx).
		Where("role = ? AND team_id = ?", model.RoleManager, iv.TeamID).
		Find(&managers).Error; err != nil {
		logger.Warn(ctx, "failed to resolve managers for notification", "error", err)
		return
	}
	ids := make([]string, 0, len(managers))
	for _, m := range managers {
		ids = append(ids, m.ID)
	}
	s.notifier.Notify(ctx, ids, message, map[string]any{"intervention_id": iv.ID})
}
