package roster

import (
	"gradebook_backend/internal/grading"
	"gradebook_backend/internal/model"
	"gradebook_backend/internal/util"
	"strings"
)

type TemplateInput struct {
	Name        string           `json:"name" binding:"required"`
	Description string           `json:"description"`
	Categories  []model.Category `json:"categories" binding:"required"`
}

type SettingsInput struct {
	CurrentSchoolYear *string        `json:"currentSchoolYear"`
	PreferredSorting  *string        `json:"preferredSorting"`
	ThemeSortOrder    map[string]int `json:"themeSortOrder"`
}

func (r *Roster) Templates() []model.AssessmentTemplate {
	return r.Snapshot().AssessmentTemplates
}

func (r *Roster) Categories(templateID string) []model.Category {
	return grading.ListCategories(r.doc.AssessmentTemplates, templateID)
}

func (r *Roster) tenantTemplateCount() int {
	n := 0
	for _, t := range r.doc.AssessmentTemplates {
		if !grading.IsDefaultTemplate(t.ID) {
			n++
		}
	}
	return n
}

func normalizeCategories(in []model.Category) []model.Category {
	out := make([]model.Category, len(in))
	for i, c := range in {
		c.ID = strings.TrimSpace(c.ID)
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			c.Name = c.ID
		}
		out[i] = c
	}
	return out
}

func (r *Roster) CreateTemplate(in TemplateInput) (model.AssessmentTemplate, error) {
	if r.tenantTemplateCount() >= r.limits.MaxTemplatesPerTenant {
		return model.AssessmentTemplate{}, util.ErrTemplateLimit
	}
	t := model.AssessmentTemplate{
		ID:          model.GenerateUUID(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Categories:  normalizeCategories(in.Categories),
		CreatedBy:   r.tenant.Code,
	}
	if err := grading.ValidateTemplate(t); err != nil {
		return model.AssessmentTemplate{}, err
	}
	r.doc.AssessmentTemplates = append(r.doc.AssessmentTemplates, t)
	return t, nil
}

// UpdateTemplate 修改类别后，所有引用该模板的记录都会重新对齐
func (r *Roster) UpdateTemplate(id string, in TemplateInput) (model.AssessmentTemplate, error) {
	if grading.IsDefaultTemplate(id) {
		return model.AssessmentTemplate{}, util.ErrDefaultTemplateLocked
	}
	_, t := r.doc.FindTemplate(id)
	if t == nil {
		return model.AssessmentTemplate{}, util.ErrTemplateNotFound
	}
	if t.CreatedBy != "" && t.CreatedBy != r.tenant.Code {
		return model.AssessmentTemplate{}, util.ErrPermissionDenied
	}
	updated := *t
	updated.Name = strings.TrimSpace(in.Name)
	updated.Description = in.Description
	updated.Categories = normalizeCategories(in.Categories)
	if err := grading.ValidateTemplate(updated); err != nil {
		return model.AssessmentTemplate{}, err
	}
	*t = updated

	for gi := range r.doc.Groups {
		g := &r.doc.Groups[gi]
		for si := range g.Students {
			st := &g.Students[si]
			if st.TemplateID != id {
				continue
			}
			rec := r.record(st)
			grading.ConformRecord(rec, updated)
			r.touch(st, rec)
		}
	}
	return updated, nil
}

// DeleteTemplate 仍被学生或记录引用的模板不能删除
func (r *Roster) DeleteTemplate(id string) error {
	if grading.IsDefaultTemplate(id) {
		return util.ErrDefaultTemplateLocked
	}
	idx, t := r.doc.FindTemplate(id)
	if t == nil {
		return util.ErrTemplateNotFound
	}
	if t.CreatedBy != "" && t.CreatedBy != r.tenant.Code {
		return util.ErrPermissionDenied
	}
	for _, g := range r.doc.Groups {
		for _, st := range g.Students {
			if st.TemplateID == id {
				return util.ErrTemplateInUse
			}
		}
	}
	for _, rec := range r.doc.Assessments {
		if rec != nil && rec.TemplateID == id {
			return util.ErrTemplateInUse
		}
	}
	r.doc.AssessmentTemplates = append(r.doc.AssessmentTemplates[:idx], r.doc.AssessmentTemplates[idx+1:]...)
	return nil
}

func (r *Roster) Settings() model.Settings {
	return r.Snapshot().Settings
}

func (r *Roster) UpdateSettings(in SettingsInput) (model.Settings, error) {
	s := &r.doc.Settings
	if in.PreferredSorting != nil {
		switch *in.PreferredSorting {
		case util.SortByName, util.SortByStatus, util.SortByTheme:
		default:
			return model.Settings{}, util.NewValidationError("preferredSorting", "must be one of name, status, theme")
		}
	}
	if in.CurrentSchoolYear != nil {
		v, err := required("currentSchoolYear", *in.CurrentSchoolYear)
		if err != nil {
			return model.Settings{}, err
		}
		s.CurrentSchoolYear = v
	}
	if in.PreferredSorting != nil {
		s.PreferredSorting = *in.PreferredSorting
	}
	if in.ThemeSortOrder != nil {
		s.ThemeSortOrder = make(map[string]int, len(in.ThemeSortOrder))
		for k, v := range in.ThemeSortOrder {
			s.ThemeSortOrder[k] = v
		}
	}
	return r.Settings(), nil
}
