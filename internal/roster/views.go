package roster

import (
	"gradebook_backend/internal/grading"
	"gradebook_backend/internal/model"
	"gradebook_backend/internal/util"
	"sort"
	"strings"
)

// StudentView 供列表和导出使用的只读视图
type StudentView struct {
	GroupID   string                  `json:"groupId"`
	Theme     string                  `json:"theme"`
	ExamDate  string                  `json:"examDate,omitempty"`
	Student   model.Student           `json:"student"`
	Record    *model.AssessmentRecord `json:"record"`
	Average   *float64                `json:"average"`
	CanEdit   bool                    `json:"canEdit"`
	CanAssess bool                    `json:"canAssess"`
}

type DashboardStats struct {
	Groups     int `json:"groups"`
	Students   int `json:"students"`
	NotStarted int `json:"notStarted"`
	InProgress int `json:"inProgress"`
	Completed  int `json:"completed"`
}

// VisibleStudents 当前教师可见的学生：自己负责的组中的全部学生，加上指派给自己的学生。
// 排序遵循设置中的 preferredSorting。
func (r *Roster) VisibleStudents() []StudentView {
	views := []StudentView{}
	for gi := range r.doc.Groups {
		g := &r.doc.Groups[gi]
		editable := r.CanEdit(g)
		for si := range g.Students {
			st := &g.Students[si]
			assess := r.CanAssess(st)
			if !editable && !assess {
				continue
			}
			rec := r.record(st)
			v := StudentView{
				GroupID:   g.ID,
				Theme:     g.Theme,
				ExamDate:  g.ExamDate,
				Student:   *st,
				Record:    rec.Clone(),
				CanEdit:   editable,
				CanAssess: assess,
			}
			v.Student.Status = rec.Status
			if avg, ok := grading.Average(rec, grading.ResolveTemplate(r.doc.AssessmentTemplates, st.TemplateID)); ok {
				v.Average = &avg
			}
			views = append(views, v)
		}
	}
	r.sortViews(views)
	return views
}

var statusRank = map[model.Status]int{
	model.StatusNotStarted: 0,
	model.StatusInProgress: 1,
	model.StatusCompleted:  2,
}

func (r *Roster) sortViews(views []StudentView) {
	order := r.doc.Settings.ThemeSortOrder
	byName := func(a, b StudentView) bool {
		return strings.ToLower(a.Student.Name) < strings.ToLower(b.Student.Name)
	}

	switch r.doc.Settings.PreferredSorting {
	case util.SortByStatus:
		sort.SliceStable(views, func(i, j int) bool {
			ri, rj := statusRank[views[i].Student.Status], statusRank[views[j].Student.Status]
			if ri != rj {
				return ri < rj
			}
			return byName(views[i], views[j])
		})
	case util.SortByTheme:
		sort.SliceStable(views, func(i, j int) bool {
			oi, iok := order[views[i].Theme]
			oj, jok := order[views[j].Theme]
			if iok != jok {
				return iok
			}
			if oi != oj {
				return oi < oj
			}
			if views[i].Theme != views[j].Theme {
				return views[i].Theme < views[j].Theme
			}
			return byName(views[i], views[j])
		})
	default:
		sort.SliceStable(views, func(i, j int) bool {
			return byName(views[i], views[j])
		})
	}
}

// DashboardStats 按状态统计可见学生
func (r *Roster) DashboardStats() DashboardStats {
	stats := DashboardStats{}
	for gi := range r.doc.Groups {
		if r.CanEdit(&r.doc.Groups[gi]) {
			stats.Groups++
		}
	}
	for _, v := range r.VisibleStudents() {
		stats.Students++
		switch v.Student.Status {
		case model.StatusCompleted:
			stats.Completed++
		case model.StatusInProgress:
			stats.InProgress++
		default:
			stats.NotStarted++
		}
	}
	return stats
}
