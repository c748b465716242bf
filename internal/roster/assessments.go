package roster

import (
	"gradebook_backend/internal/grading"
	"gradebook_backend/internal/model"
	"gradebook_backend/internal/util"
)

func (r *Roster) assessable(studentID string) (*model.Student, *model.AssessmentRecord, model.AssessmentTemplate, error) {
	_, st := r.doc.FindStudent(studentID)
	if st == nil {
		return nil, nil, model.AssessmentTemplate{}, util.ErrStudentNotFound
	}
	if !r.CanAssess(st) {
		return nil, nil, model.AssessmentTemplate{}, util.ErrPermissionDenied
	}
	rec := r.record(st)
	tpl := grading.ResolveTemplate(r.doc.AssessmentTemplates, st.TemplateID)
	return st, rec, tpl, nil
}

// Record 返回学生记录的副本。组的负责人和被指派的教师都可以查看
func (r *Roster) Record(studentID string) (*model.AssessmentRecord, error) {
	g, st := r.doc.FindStudent(studentID)
	if st == nil {
		return nil, util.ErrStudentNotFound
	}
	if !r.CanEdit(g) && !r.CanAssess(st) {
		return nil, util.ErrPermissionDenied
	}
	return r.record(st).Clone(), nil
}

// SetCategoryGrade value 为 0 表示清除该类别的分数
func (r *Roster) SetCategoryGrade(studentID, categoryID string, value float64) (*model.AssessmentRecord, error) {
	st, rec, tpl, err := r.assessable(studentID)
	if err != nil {
		return nil, err
	}
	if !grading.HasCategory(tpl, categoryID) {
		return nil, util.ErrCategoryNotFound
	}
	if value != grading.Ungraded && !grading.ValidGrade(value) {
		return nil, util.NewValidationError("value", "grade must be between 1 and 6 in steps of 0.5, or 0 to clear")
	}
	rec.Grades[categoryID] = value
	r.touch(st, rec)
	return rec.Clone(), nil
}

func (r *Roster) SetInfoText(studentID, text string) (*model.AssessmentRecord, error) {
	st, rec, _, err := r.assessable(studentID)
	if err != nil {
		return nil, err
	}
	rec.InfoText = text
	r.touch(st, rec)
	return rec.Clone(), nil
}

// SetFinalGrade 手动设置最终成绩，nil 或 0 清除
func (r *Roster) SetFinalGrade(studentID string, value *float64) (*model.AssessmentRecord, error) {
	st, rec, _, err := r.assessable(studentID)
	if err != nil {
		return nil, err
	}
	if value == nil || *value == grading.Ungraded {
		rec.FinalGrade = nil
	} else {
		if *value < grading.MinGrade || *value > grading.MaxGrade {
			return nil, util.NewValidationError("finalGrade", "final grade must be between 1 and 6")
		}
		fg := grading.RoundGrade(*value)
		rec.FinalGrade = &fg
	}
	r.touch(st, rec)
	return rec.Clone(), nil
}

// ApplyAverageAsFinal 把平均分写入最终成绩。已有最终成绩时必须显式 replace 才会覆盖
func (r *Roster) ApplyAverageAsFinal(studentID string, replace bool) (*model.AssessmentRecord, error) {
	st, rec, tpl, err := r.assessable(studentID)
	if err != nil {
		return nil, err
	}
	avg, ok := grading.Average(rec, tpl)
	if !ok {
		return nil, util.ErrInsufficientGrades
	}
	if rec.HasFinalGrade() && !replace {
		return nil, util.ErrFinalGradeExists
	}
	rec.FinalGrade = &avg
	r.touch(st, rec)
	return rec.Clone(), nil
}

// StudentAverage 第二个返回值为 false 表示数据不足
func (r *Roster) StudentAverage(studentID string) (float64, bool, error) {
	g, st := r.doc.FindStudent(studentID)
	if st == nil {
		return 0, false, util.ErrStudentNotFound
	}
	if !r.CanEdit(g) && !r.CanAssess(st) {
		return 0, false, util.ErrPermissionDenied
	}
	avg, ok := grading.Average(r.record(st), grading.ResolveTemplate(r.doc.AssessmentTemplates, st.TemplateID))
	return avg, ok, nil
}
