package grading

import (
	"gradebook_backend/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveStatus(t *testing.T) {
	final := 2.0
	zero := 0.0
	tests := []struct {
		name string
		rec  *model.AssessmentRecord
		want model.Status
	}{
		{"nil", nil, model.StatusNotStarted},
		{"empty", &model.AssessmentRecord{Grades: map[string]float64{"a": 0}}, model.StatusNotStarted},
		{"whitespace info only", &model.AssessmentRecord{InfoText: "  "}, model.StatusNotStarted},
		{"one grade", &model.AssessmentRecord{Grades: map[string]float64{"a": 3}}, model.StatusInProgress},
		{"info text", &model.AssessmentRecord{InfoText: "late"}, model.StatusInProgress},
		{"final grade", &model.AssessmentRecord{FinalGrade: &final}, model.StatusCompleted},
		{"zero final grade is unset", &model.AssessmentRecord{FinalGrade: &zero, Grades: map[string]float64{"a": 2}}, model.StatusInProgress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.rec))
		})
	}
}

func TestDeriveStatusMonotonic(t *testing.T) {
	rec := NewRecord(DefaultTemplate(), fixedNow)
	assert.Equal(t, model.StatusNotStarted, DeriveStatus(rec))

	rec.Grades["presentation"] = 5
	assert.Equal(t, model.StatusInProgress, DeriveStatus(rec))

	rec.Grades["content"] = 3
	assert.Equal(t, model.StatusInProgress, DeriveStatus(rec))

	fg := 4.0
	rec.FinalGrade = &fg
	assert.Equal(t, model.StatusCompleted, DeriveStatus(rec))

	rec.Grades["language"] = 1
	assert.Equal(t, model.StatusCompleted, DeriveStatus(rec))
}
