package model

import "time"

// TenantDocument 是一个教师（租户）全部数据的持久化单元，整体读写
// swagger:model TenantDocument
type TenantDocument struct {
	Settings            Settings                     `json:"settings"`
	Groups              []Group                      `json:"groups"`
	Assessments         map[string]*AssessmentRecord `json:"assessments"`
	AssessmentTemplates []AssessmentTemplate         `json:"assessmentTemplates"`
}

type Settings struct {
	CurrentSchoolYear string         `json:"currentSchoolYear"`
	PreferredSorting  string         `json:"preferredSorting"`
	ThemeSortOrder    map[string]int `json:"themeSortOrder"`
}

// Group 即“主题”，一次评估的上下文
// swagger:model Group
type Group struct {
	ID                 string    `json:"id"`
	Theme              string    `json:"theme"`
	ResponsibleTeacher string    `json:"responsibleTeacher"`
	CreatedBy          string    `json:"createdBy"`
	CreatedAt          time.Time `json:"createdAt"`
	SchoolYear         string    `json:"schoolYear"`
	ExamDate           string    `json:"examDate,omitempty"`
	Students           []Student `json:"students"`
}

// swagger:model Student
type Student struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	AssignedTeacher string `json:"assignedTeacher"`
	TemplateID      string `json:"templateId"`
	Status          Status `json:"status"`
}

// swagger:model AssessmentTemplate
type AssessmentTemplate struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Categories  []Category `json:"categories"`
	CreatedBy   string     `json:"createdBy"`
	IsDefault   bool       `json:"isDefault"`
}

type Category struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

func (d *TenantDocument) FindGroup(id string) (int, *Group) {
	for i := range d.Groups {
		if d.Groups[i].ID == id {
			return i, &d.Groups[i]
		}
	}
	return -1, nil
}

func (d *TenantDocument) FindStudent(id string) (*Group, *Student) {
	for i := range d.Groups {
		g := &d.Groups[i]
		for j := range g.Students {
			if g.Students[j].ID == id {
				return g, &g.Students[j]
			}
		}
	}
	return nil, nil
}

func (d *TenantDocument) FindTemplate(id string) (int, *AssessmentTemplate) {
	for i := range d.AssessmentTemplates {
		if d.AssessmentTemplates[i].ID == id {
			return i, &d.AssessmentTemplates[i]
		}
	}
	return -1, nil
}

// Clone 深拷贝，保存和导出都基于快照进行
func (d *TenantDocument) Clone() *TenantDocument {
	if d == nil {
		return nil
	}
	out := &TenantDocument{
		Settings: Settings{
			CurrentSchoolYear: d.Settings.CurrentSchoolYear,
			PreferredSorting:  d.Settings.PreferredSorting,
			ThemeSortOrder:    make(map[string]int, len(d.Settings.ThemeSortOrder)),
		},
		Groups:              make([]Group, len(d.Groups)),
		Assessments:         make(map[string]*AssessmentRecord, len(d.Assessments)),
		AssessmentTemplates: make([]AssessmentTemplate, len(d.AssessmentTemplates)),
	}
	for k, v := range d.Settings.ThemeSortOrder {
		out.Settings.ThemeSortOrder[k] = v
	}
	for i, g := range d.Groups {
		g.Students = append([]Student(nil), g.Students...)
		if g.Students == nil {
			g.Students = []Student{}
		}
		out.Groups[i] = g
	}
	for id, rec := range d.Assessments {
		out.Assessments[id] = rec.Clone()
	}
	for i, t := range d.AssessmentTemplates {
		t.Categories = append([]Category(nil), t.Categories...)
		out.AssessmentTemplates[i] = t
	}
	return out
}
