package workflow

import (
	"testing"

	"github.com/aumugisha-umu/seido-backend/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletionReportValidate(t *testing.T) {
	valid := CompletionReport{
		Summary:         "Remplacement du joint et contrôle d'étanchéité",
		DurationMinutes: 90,
		QualityAssurance: []QAItem{
			{Label: "Zone nettoyée", Checked: true},
			{Label: "Test d'étanchéité effectué", Checked: true},
		},
	}
	require.NoError(t, valid.Validate())

	t.Run("missing summary", func(t *testing.T) {
		r := valid
		r.Summary = "   "
		err := r.Validate()
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.ValidationFailed))
	})

	t.Run("non-positive duration", func(t *testing.T) {
		r := valid
		r.DurationMinutes = 0
		err := r.Validate()
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.ValidationFailed))
	})

	t.Run("unchecked QA item", func(t *testing.T) {
		r := valid
		r.QualityAssurance = []QAItem{
			{Label: "Zone nettoyée", Checked: true},
			{Label: "Test d'étanchéité effectué", Checked: false},
		}
		err := r.Validate()
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.ValidationFailed))
	})

	t.Run("empty checklist is acceptable", func(t *testing.T) {
		r := valid
		r.QualityAssurance = nil
		require.NoError(t, r.Validate())
	})
}
