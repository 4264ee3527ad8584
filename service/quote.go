package service

import (
	"context"
	"errors"

	"github.com/aumugisha-umu/seido-backend/model"
	"github.com/aumugisha-umu/seido-backend/pkg/apperr"
	"github.com/aumugisha-umu/seido-backend/pkg/logger"
	"github.com/aumugisha-umu/seido-backend/workflow"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QuoteInput is a provider cost proposal.
type QuoteInput struct {
	LaborAmount    float64
	MaterialAmount float64
	Description    string
}

// SubmitQuote records a provider quote for an intervention awaiting
// estimation.
func (s *InterventionService) SubmitQuote(ctx context.Context, actor workflow.Actor, interventionID string, in QuoteInput) (*model.Quote, error) {
	if actor.Role != model.RoleProvider {
		return nil, apperr.New(apperr.Forbidden, "only providers submit quotes")
	}

	iv, err := s.load(ctx, interventionID)
	if err != nil {
		return nil, err
	}
	if iv.Status != model.StatusQuoteRequested {
		return nil, apperr.New(apperr.InvalidTransition,
			"action %q is not allowed from status %q", "submit_quote", iv.Status)
	}

	total := in.LaborAmount + in.MaterialAmount
	if total <= 0 {
		return nil, apperr.New(apperr.ValidationFailed, "quote total must be positive")
	}

	quote := &model.Quote{
		ID:             uuid.New().String(),
		InterventionID: interventionID,
		ProviderID:     actor.UserID,
		LaborAmount:    in.LaborAmount,
		MaterialAmount: in.MaterialAmount,
		TotalAmount:    total,
		Description:    in.Description,
		Status:         model.QuoteSent,
	}
	if err := s.db.WithContext(ctx).Create(quote).Error; err != nil {
		return nil, apperr.Wrap(apperr.DependencyFailure, err, "failed to create quote")
	}

	logger.Info(ctx, "quote submitted",
		"intervention_id", interventionID,
		"quote_id", quote.ID,
		"total", total,
	)
	s.notifyManagers(ctx, iv, "A quote was submitted for "+iv.Title)
	return quote, nil
}

// AcceptQuote accepts one quote and rejects every other active quote of the
// same intervention in a single update, so no two quotes can end up
// accepted.
func (s *InterventionService) AcceptQuote(ctx context.Context, actor workflow.Actor, quoteID string) (*model.Quote, error) {
	quote, iv, err := s.loadQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if err := s.requireManager(actor, iv); err != nil {
		return nil, err
	}
	if !quote.Status.Active() {
		return nil, apperr.New(apperr.AlreadyProcessed, "quote is already %s", quote.Status)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Quote{}).
			Where("id = ? AND status IN ?", quoteID, []model.QuoteStatus{model.QuotePending, model.QuoteSent}).
			Update("status", model.QuoteAccepted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.AlreadyProcessed, "quote is no longer active")
		}
		return tx.Model(&model.Quote{}).
			Where("intervention_id = ? AND id <> ? AND status IN ?",
				quote.InterventionID, quoteID,
				[]model.QuoteStatus{model.QuotePending, model.QuoteSent}).
			Update("status", model.QuoteRejected).Error
	})
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.DependencyFailure, err, "failed to accept quote")
	}

	quote.Status = model.QuoteAccepted
	logger.Info(ctx, "quote accepted",
		"intervention_id", quote.InterventionID,
		"quote_id", quoteID,
	)
	s.notifier.Notify(ctx, []string{quote.ProviderID},
		"Your quote for "+iv.Title+" was accepted",
		map[string]any{"quote_id": quoteID})
	return quote, nil
}

// RejectQuote declines a single quote without touching its siblings.
func (s *InterventionService) RejectQuote(ctx context.Context, actor workflow.Actor, quoteID string) (*model.Quote, error) {
	quote, iv, err := s.loadQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if err := s.requireManager(actor, iv); err != nil {
		return nil, err
	}
	if !quote.Status.Active() {
		return nil, apperr.New(apperr.AlreadyProcessed, "quote is already %s", quote.Status)
	}

	if err := s.db.WithContext(ctx).Model(&model.Quote{}).
		Where("id = ?", quoteID).
		Update("status", model.QuoteRejected).Error; err != nil {
		return nil, apperr.Wrap(apperr.DependencyFailure, err, "failed to reject quote")
	}

	quote.Status = model.QuoteRejected
	s.notifier.Notify(ctx, []string{quote.ProviderID},
		"Your quote for "+iv.Title+" was rejected",
		map[string]any{"quote_id": quoteID})
	return quote, nil
}

func (s *InterventionService) loadQuote(ctx context.Context, quoteID string) (*model.Quote, *model.Intervention, error) {
	var quote model.Quote
	if err := s.db.WithContext(ctx).First(&quote, "id = ?", quoteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.New(apperr.NotFound, "quote not found")
		}
		return nil, nil, apperr.Wrap(apperr.DependencyFailure, err, "failed to load quote")
	}
	iv, err := s.load(ctx, quote.InterventionID)
	if err != nil {
		return nil, nil, err
	}
	return &quote, iv, nil
}
