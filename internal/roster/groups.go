package roster

import (
	"gradebook_backend/internal/grading"
	"gradebook_backend/internal/model"
	"gradebook_backend/internal/util"
	"strings"
)

type GroupInput struct {
	Theme              string `json:"theme" binding:"required"`
	ResponsibleTeacher string `json:"responsibleTeacher"`
	SchoolYear         string `json:"schoolYear"`
	ExamDate           string `json:"examDate"`
}

type StudentInput struct {
	Name            string `json:"name" binding:"required"`
	AssignedTeacher string `json:"assignedTeacher"`
	TemplateID      string `json:"templateId"`
}

func (r *Roster) Groups() []model.Group {
	return r.Snapshot().Groups
}

func (r *Roster) CreateGroup(in GroupInput) (model.Group, error) {
	if !r.tenant.CanCreateGroups {
		return model.Group{}, util.ErrPermissionDenied
	}
	theme, err := required("theme", in.Theme)
	if err != nil {
		return model.Group{}, err
	}
	if err := validDate("examDate", in.ExamDate); err != nil {
		return model.Group{}, err
	}

	g := model.Group{
		ID:                 model.GenerateUUID(),
		Theme:              theme,
		ResponsibleTeacher: strings.TrimSpace(in.ResponsibleTeacher),
		CreatedBy:          r.tenant.Code,
		CreatedAt:          r.timestamp(),
		SchoolYear:         strings.TrimSpace(in.SchoolYear),
		ExamDate:           in.ExamDate,
		Students:           []model.Student{},
	}
	if g.ResponsibleTeacher == "" {
		g.ResponsibleTeacher = r.tenant.Code
	}
	if g.SchoolYear == "" {
		g.SchoolYear = r.doc.Settings.CurrentSchoolYear
	}
	r.doc.Groups = append(r.doc.Groups, g)
	return g, nil
}

func (r *Roster) UpdateGroup(id string, in GroupInput) (model.Group, error) {
	g, err := r.editableGroup(id)
	if err != nil {
		return model.Group{}, err
	}
	theme, err := required("theme", in.Theme)
	if err != nil {
		return model.Group{}, err
	}
	if err := validDate("examDate", in.ExamDate); err != nil {
		return model.Group{}, err
	}

	g.Theme = theme
	g.ExamDate = in.ExamDate
	if v := strings.TrimSpace(in.ResponsibleTeacher); v != "" {
		g.ResponsibleTeacher = v
	}
	if v := strings.TrimSpace(in.SchoolYear); v != "" {
		g.SchoolYear = v
	}
	return *g, nil
}

// DeleteGroup 同时删除组内所有学生的评估记录
func (r *Roster) DeleteGroup(id string) error {
	g, err := r.editableGroup(id)
	if err != nil {
		return err
	}
	for _, st := range g.Students {
		delete(r.doc.Assessments, st.ID)
	}
	idx, _ := r.doc.FindGroup(id)
	r.doc.Groups = append(r.doc.Groups[:idx], r.doc.Groups[idx+1:]...)
	return nil
}

// AddStudent 组满时返回 ErrCapacityExceeded，学生列表保持不变
func (r *Roster) AddStudent(groupID string, in StudentInput) (model.Student, error) {
	g, err := r.editableGroup(groupID)
	if err != nil {
		return model.Student{}, err
	}
	name, err := required("name", in.Name)
	if err != nil {
		return model.Student{}, err
	}
	if len(g.Students) >= r.limits.MaxPerGroup {
		return model.Student{}, util.ErrCapacityExceeded
	}
	tpl, err := r.template(in.TemplateID)
	if err != nil {
		return model.Student{}, err
	}

	st := model.Student{
		ID:              model.GenerateUUID(),
		Name:            name,
		AssignedTeacher: strings.TrimSpace(in.AssignedTeacher),
		TemplateID:      tpl.ID,
	}
	if st.AssignedTeacher == "" {
		st.AssignedTeacher = g.ResponsibleTeacher
	}
	rec := grading.NewRecord(tpl, r.timestamp())
	st.Status = rec.Status

	g.Students = append(g.Students, st)
	r.doc.Assessments[st.ID] = rec
	return st, nil
}

func (r *Roster) UpdateStudent(groupID, studentID string, in StudentInput) (model.Student, error) {
	g, err := r.editableGroup(groupID)
	if err != nil {
		return model.Student{}, err
	}
	st := findStudent(g, studentID)
	if st == nil {
		return model.Student{}, util.ErrStudentNotFound
	}
	name, err := required("name", in.Name)
	if err != nil {
		return model.Student{}, err
	}
	st.Name = name
	if v := strings.TrimSpace(in.AssignedTeacher); v != "" {
		st.AssignedTeacher = v
	}
	if in.TemplateID != "" && in.TemplateID != st.TemplateID {
		if err := r.applyTemplate(st, in.TemplateID); err != nil {
			return model.Student{}, err
		}
	}
	return *st, nil
}

func (r *Roster) RemoveStudent(groupID, studentID string) error {
	g, err := r.editableGroup(groupID)
	if err != nil {
		return err
	}
	for i := range g.Students {
		if g.Students[i].ID == studentID {
			g.Students = append(g.Students[:i], g.Students[i+1:]...)
			delete(r.doc.Assessments, studentID)
			return nil
		}
	}
	return util.ErrStudentNotFound
}

// SetStudentTemplate 切换模板后记录会与新模板对齐，旧模板独有的类别分数被丢弃
func (r *Roster) SetStudentTemplate(studentID, templateID string) (model.Student, error) {
	g, st := r.doc.FindStudent(studentID)
	if st == nil {
		return model.Student{}, util.ErrStudentNotFound
	}
	if !r.CanEdit(g) && !r.CanAssess(st) {
		return model.Student{}, util.ErrPermissionDenied
	}
	if err := r.applyTemplate(st, templateID); err != nil {
		return model.Student{}, err
	}
	return *st, nil
}

func (r *Roster) applyTemplate(st *model.Student, templateID string) error {
	tpl, err := r.template(templateID)
	if err != nil {
		return err
	}
	st.TemplateID = tpl.ID
	rec := r.record(st)
	grading.ConformRecord(rec, tpl)
	r.touch(st, rec)
	return nil
}

func findStudent(g *model.Group, id string) *model.Student {
	for i := range g.Students {
		if g.Students[i].ID == id {
			return &g.Students[i]
		}
	}
	return nil
}
