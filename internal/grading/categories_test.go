package grading

import (
	"gradebook_backend/internal/model"
	"gradebook_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTemplate(t *testing.T) {
	tpl := DefaultTemplate()
	assert.Equal(t, DefaultTemplateID, tpl.ID)
	assert.True(t, tpl.IsDefault)
	require.Len(t, tpl.Categories, 8)
	assert.Equal(t, "presentation", tpl.Categories[0].ID)

	// 返回的是副本
	tpl.Categories[0].ID = "changed"
	assert.Equal(t, "presentation", DefaultTemplate().Categories[0].ID)
}

func TestResolveTemplate(t *testing.T) {
	custom := model.AssessmentTemplate{ID: "short", Name: "Short", Categories: []model.Category{{ID: "a", Weight: 1}}}
	templates := []model.AssessmentTemplate{DefaultTemplate(), custom}

	assert.Equal(t, "short", ResolveTemplate(templates, "short").ID)
	assert.Equal(t, DefaultTemplateID, ResolveTemplate(templates, "missing").ID)
	assert.Equal(t, DefaultTemplateID, ResolveTemplate(templates, "").ID)
	assert.Equal(t, DefaultTemplateID, ResolveTemplate(nil, "short").ID)
	assert.Len(t, ListCategories(templates, "short"), 1)
}

func TestValidateTemplate(t *testing.T) {
	tests := []struct {
		name  string
		tpl   model.AssessmentTemplate
		field string
	}{
		{"ok", model.AssessmentTemplate{Name: "x", Categories: []model.Category{{ID: "a", Weight: 1}}}, ""},
		{"no name", model.AssessmentTemplate{Categories: []model.Category{{ID: "a", Weight: 1}}}, "name"},
		{"no categories", model.AssessmentTemplate{Name: "x"}, "categories"},
		{"duplicate", model.AssessmentTemplate{Name: "x", Categories: []model.Category{{ID: "a", Weight: 1}, {ID: "a", Weight: 1}}}, "categories"},
		{"reserved id", model.AssessmentTemplate{Name: "x", Categories: []model.Category{{ID: "infoText", Weight: 1}}}, "categories"},
		{"zero weight", model.AssessmentTemplate{Name: "x", Categories: []model.Category{{ID: "a", Weight: 0}}}, "categories"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTemplate(tt.tpl)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr *util.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}
