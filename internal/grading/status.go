package grading

import (
	"gradebook_backend/internal/model"
	"strings"
)

// DeriveStatus 只根据记录本身的字段计算状态，存储中的旧状态一律不可信
func DeriveStatus(rec *model.AssessmentRecord) model.Status {
	if rec == nil {
		return model.StatusNotStarted
	}
	if rec.HasFinalGrade() {
		return model.StatusCompleted
	}
	for _, v := range rec.Grades {
		if v != Ungraded {
			return model.StatusInProgress
		}
	}
	if strings.TrimSpace(rec.InfoText) != "" {
		return model.StatusInProgress
	}
	return model.StatusNotStarted
}
