package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aumugisha-umu/seido-backend/model"
	"github.com/aumugisha-umu/seido-backend/pkg/apperr"
	"github.com/aumugisha-umu/seido-backend/pkg/logger"
	"github.com/aumugisha-umu/seido-backend/workflow"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InterventionService applies the lifecycle rules against the database.
// Guards and validation run before any write; status writes are conditional
// on the expected previous status so concurrent requests cannot double-apply
// a transition.
type InterventionService struct {
	db       *gorm.DB
	notifier *Notifier
}

func NewInterventionService(db *gorm.DB, notifier *Notifier) *InterventionService {
	return &InterventionService{db: db, notifier: notifier}
}

// CreateInput describes a new maintenance request.
type CreateInput struct {
	Title         string
	Description   string
	Type          string
	Urgency       model.Urgency
	UnitID        string
	RequiresQuote bool
}

// Create opens an intervention in the requested status. Tenants create for
// their own unit; managers for any unit of their team's buildings.
func (s *InterventionService) Create(ctx context.Context, actor workflow.Actor, in CreateInput) (*model.Intervention, error) {
	if in.Title == "" {
		return nil, apperr.New(apperr.ValidationFailed, "title is required")
	}
	if actor.Role != model.RoleTenant && actor.Role != model.RoleManager && actor.Role != model.RoleAdmin {
		return nil, apperr.New(apperr.Forbidden, "role %q may not create interventions", actor.Role)
	}

	var unit model.Unit
	if err := s.db.WithContext(ctx).First(&unit, "id = ?", in.UnitID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "unit not found")
		}
		return nil, apperr.Wrap(apperr.DependencyFailure, err, "failed to load unit")
	}
	var building model.Building
	if err := s.db.WithContext(ctx).First(&building, "id = ?", unit.BuildingID).Error; err != nil {
		return nil, apperr.Wrap(apperr.DependencyFailure, err, "failed to load building")
	}

	switch actor.Role {
	case model.RoleTenant:
		if unit.TenantID != actor.UserID {
			return nil, apperr.New(apperr.Forbidden, "tenant does not occupy this unit")
		}
	case model.RoleManager:
		if building.TeamID != actor.TeamID {
			return nil, apperr.New(apperr.Forbidden, "manager does not belong to the owning team")
		}
	}

	urgency := in.Urgency
	if urgency == "" {
		urgency = model.UrgencyNormal
	}

	iv := &model.Intervention{
		ID:            uuid.New().String(),
		Title:         in.Title,
		Description:   in.Description,
		Type:          in.Type,
		Urgency:       urgency,
		Status:        model.StatusRequested,
		RequiresQuote: in.RequiresQuote,
		UnitID:        unit.ID,
		BuildingID:    building.ID,
		TeamID:        building.TeamID,
		CreatedBy:     actor.UserID,
	}

	if err := s.db.WithContext(ctx).Create(iv).Error; err != nil {
		return nil, apperr.Wrap(apperr.DependencyFailure, err, "failed to create intervention")
	}

	logger.Info(ctx, "intervention created",
		"intervention_id", iv.ID,
		"urgency", string(iv.Urgency),
	)
	return iv, nil
}

// load reads the intervention with its assignments, quotes and slots.
func (s *InterventionService) load(ctx context.Context, id string) (*model.Intervention, error) {
	var iv model.Intervention
	err := s.db.WithContext(ctx).
		Preload("Assignments").
		Preload("Quotes").
		Preload("TimeSlots").
		First(&iv, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "intervention not found")
		}
		return nil, apperr.Wrap(apperr.DependencyFailure, err, "failed to load intervention")
	}
	return &iv, nil
}

// Get returns an intervention visible to the actor.
func (s *InterventionService) Get(ctx context.Context, actor workflow.Actor, id string) (*model.Intervention, error) {
	iv, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.visibleTo(actor, iv) {
		return nil, apperr.New(apperr.Forbidden, "user is not a party to this intervention")
	}
	return iv, nil
}

func (s *InterventionService) visibleTo(actor workflow.Actor, iv *model.Intervention) bool {
	switch actor.Role {
	case model.RoleAdmin:
		return true
	case model.RoleManager:
		return actor.TeamID == iv.TeamID
	default:
		if iv.CreatedBy == actor.UserID {
			return true
		}
		return workflow.AssignmentFor(iv.Assignments, actor.UserID, actor.Role) != nil
	}
}

// List returns the interventions the actor is a party to, newest first.
func (s *InterventionService) List(ctx context.Context, actor workflow.Actor) ([]model.Intervention, error) {
	q := s.db.WithContext(ctx).
		Preload("Assignments").
		Preload("Quotes").
		Preload("TimeSlots").
		Order("created_at DESC")

	switch actor.Role {
	case model.RoleAdmin:
		// no scoping
	case model.RoleManager:
		q = q.Where("team_id = ?", actor.TeamID)
	default:
		q = q.Where(
			"created_by = ? OR id IN (?)",
			actor.UserID,
			s.db.Model(&model.Assignment{}).Select("intervention_id").Where("user_id = ?", actor.UserID),
		)
	}

	var ivs []model.Intervention
	if err := q.Find(&ivs).Error; err != nil {
		return nil, apperr.Wrap(apperr.DependencyFailure, err, "failed to list interventions")
	}
	return ivs, nil
}

// transition runs the table lookup and guard for the action, then applies
// the status change conditionally on the status it was authorized from.
func (s *InterventionService) transition(ctx context.Context, actor workflow.Actor, id string, action workflow.Action, extra map[string]any) (*model.Intervention, error) {
	iv, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := workflow.Authorize(workflow.Request{
		Actor:        actor,
		Action:       action,
		Intervention: iv,
		Assignments:  iv.Assignments,
		Quotes:       iv.Quotes,
		Slots:        iv.TimeSlots,
	})
	if err != nil {
		return nil, err
	}

	applied, err := s.setStatus(ctx, id, iv.Status, next, extra)
	if err != nil {
		return nil, err
	}
	if !applied {
		// Someone else moved the intervention between our read and write.
		return nil, apperr.New(apperr.InvalidTransition,
			"action %q is not allowed from status %q", action, iv.Status)
	}

	iv.Status = next
	logger.Info(ctx, "intervention transition",
		"intervention_id", id,
		"action", string(action),
		"status", string(next),
	)

	s.notifyParticipants(ctx, iv, fmt.Sprintf("Intervention %q is now %s", iv.Title, next))
	return iv, nil
}

// setStatus performs a conditional status write: it only applies when the
// row still holds the expected previous status. Returns whether it applied.
func (s *InterventionService) setStatus(ctx context.Context, id string, from, to model.InterventionStatus, extra map[string]any) (bool, error) {
	updates := map[string]any{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	res := s.db.WithContext(ctx).
		Model(&model.Intervention{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, apperr.Wrap(apperr.DependencyFailure, res.Error, "failed to update status")
	}
	return res.RowsAffected == 1, nil
}

func (s *InterventionService) notifyParticipants(ctx context.Context, iv *model.Intervention, message string) {
	seen := map[string]bool{iv.CreatedBy: true}
	recipients := []string{iv.CreatedBy}
	for _, a := range iv.Assignments {
		if !seen[a.UserID] {
			seen[a.UserID] = true
			recipients = append(recipients, a.UserID)
		}
	}
	s.notifier.Notify(ctx, recipients, message, map[string]any{
		"intervention_id": iv.ID,
		"status":          string(iv.Status),
	})
}

// Approve moves a requested intervention to approved.
func (s *InterventionService) Approve(ctx context.Context, actor workflow.Actor, id string) (*model.Intervention, error) {
	return s.transition(ctx, actor, id, workflow.ActionApprove, nil)
}

// Reject terminally refuses a requested intervention.
func (s *InterventionService) Reject(ctx context.Context, actor workflow.Actor, id string) (*model.Intervention, error) {
	return s.transition(ctx, actor, id, workflow.ActionReject, nil)
}

// RequestQuote asks providers for cost estimation.
func (s *InterventionService) RequestQuote(ctx context.Context, actor workflow.Actor, id string) (*model.Intervention, error) {
	return s.transition(ctx, actor, id, workflow.ActionRequestQuote, nil)
}

// Cancel terminally cancels a non-terminal intervention.
func (s *InterventionService) Cancel(ctx context.Context, actor workflow.Actor, id string) (*model.Intervention, error) {
	return s.transition(ctx, actor, id, workflow.ActionCancel, nil)
}

// Start marks the execution as begun.
func (s *InterventionService) Start(ctx context.Context, actor workflow.Actor, id string, startedAt time.Time) (*model.Intervention, error) {
	extra := map[string]any{}
	if !startedAt.IsZero() {
		extra["scheduled_start"] = startedAt
	}
	return s.transition(ctx, actor, id, workflow.ActionStart, extra)
}

// CompleteWork closes the provider side with a structured report. The report
// is validated before any mutation.
func (s *InterventionService) CompleteWork(ctx context.Context, actor workflow.Actor, id string, report workflow.CompletionReport) (*model.Intervention, error) {
	if err := report.Validate(); err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, id, workflow.ActionCompleteWork, nil)
}

// Validate lets the tenant sign off the completed work.
func (s *InterventionService) Validate(ctx context.Context, actor workflow.Actor, id string) (*model.Intervention, error) {
	return s.transition(ctx, actor, id, workflow.ActionValidate, nil)
}

// Finalize lets the manager close the intervention for good.
func (s *InterventionService) Finalize(ctx context.Context, actor workflow.Actor, id string) (*model.Intervention, error) {
	return s.transition(ctx, actor, id, workflow.ActionFinalize, nil)
}

// AssignInput attaches a participant to an intervention.
type AssignInput struct {
	UserID               string
	Role                 model.Role
	Primary              bool
	RequiresConfirmation bool
}

// Assign attaches participants. Only the owning team's managers or admins
// may do so.
func (s *InterventionService) Assign(ctx context.Context, actor workflow.Actor, id string, inputs []AssignInput) ([]model.Assignment, error) {
	iv, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireManager(actor, iv); err != nil {
		return nil, err
	}
	if iv.Status.Terminal() {
		return nil, apperr.New(apperr.InvalidTransition,
			"action %q is not allowed from status %q", "assign", iv.Status)
	}

	var created []model.Assignment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, in := range inputs {
			if !in.Role.Valid() {
				return apperr.New(apperr.ValidationFailed, "unknown role %q", in.Role)
			}
			a := model.Assignment{
				ID:                   uuid.New().String(),
				InterventionID:       id,
				UserID:               in.UserID,
				Role:                 in.Role,
				Primary:              in.Primary,
				RequiresConfirmation: in.RequiresConfirmation,
				Confirmation:         model.ConfirmationPending,
			}
			if err := tx.Create(&a).Error; err != nil {
				return err
			}
			created = append(created, a)
		}
		return nil
	})
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.DependencyFailure, err, "failed to create assignments")
	}
	return created, nil
}

func (s *InterventionService) requireManager(actor workflow.Actor, iv *model.Intervention) error {
	switch actor.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleManager:
		if actor.TeamID != iv.TeamID {
			return apperr.New(apperr.Forbidden, "manager does not belong to the owning team")
		}
		return nil
	}
	return apperr.New(apperr.Forbidden, "role %q may not perform this action", actor.Role)
}
