package workflow

import (
	"strings"

	"github.com/aumugisha-umu/seido-backend/pkg/apperr"
)

// QAItem is one entry of the quality-assurance checklist a provider fills in
// when closing their part of the work.
type QAItem struct {
	Label   string `json:"label"`
	Checked bool   `json:"checked"`
}

// CompletionReport is the structured report required for the
// in_progress -> closed_by_provider transition.
type CompletionReport struct {
	Summary          string   `json:"work_summary"`
	DurationMinutes  int      `json:"duration_minutes"`
	QualityAssurance []QAItem `json:"quality_assurance"`
}

// Validate rejects incomplete reports before any mutation. Every checklist
// item must be checked.
func (r *CompletionReport) Validate() error {
	if strings.TrimSpace(r.Summary) == "" {
		return apperr.New(apperr.ValidationFailed, "work summary is required")
	}
	if r.DurationMinutes <= 0 {
		return apperr.New(apperr.ValidationFailed, "duration must be positive")
	}
	for _, item := range r.QualityAssurance {
		if !item.Checked {
			return apperr.New(apperr.ValidationFailed,
				"quality assurance item %q is not checked", item.Label)
		}
	}
	return nil
}
