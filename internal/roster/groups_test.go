package roster

import (
	"gradebook_backend/internal/grading"
	"gradebook_backend/internal/model"
	"gradebook_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateGroup(t *testing.T) {
	r := newRoster(t, kre)

	g, err := r.CreateGroup(GroupInput{Theme: "  Projekt A ", ExamDate: "2026-06-01"})
	require.NoError(t, err)
	assert.NotEmpty(t, g.ID)
	assert.Equal(t, "Projekt A", g.Theme)
	assert.Equal(t, "KRE", g.CreatedBy)
	assert.Equal(t, "KRE", g.ResponsibleTeacher)
	assert.Equal(t, "2026/27", g.SchoolYear)
	assert.Equal(t, testNow, g.CreatedAt)
	assert.Len(t, r.Groups(), 1)

	tests := []struct {
		name string
		in   GroupInput
	}{
		{"empty theme", GroupInput{Theme: "   "}},
		{"bad date", GroupInput{Theme: "X", ExamDate: "01.06.2026"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.CreateGroup(tt.in)
			var verr *util.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
	assert.Len(t, r.Groups(), 1)
}

func TestCreateGroupRequiresPermission(t *testing.T) {
	r := newRoster(t, sch)
	_, err := r.CreateGroup(GroupInput{Theme: "Projekt A"})
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
	assert.Empty(t, r.Groups())
}

func TestAddStudentCapacity(t *testing.T) {
	r := newRoster(t, kre)
	g := seedGroup(t, r, "Projekt A", "Alice", "Bob", "Carla", "David")
	before := r.Groups()[0].Students

	_, err := r.AddStudent(g.ID, StudentInput{Name: "Eva"})
	assert.ErrorIs(t, err, util.ErrCapacityExceeded)
	assert.Equal(t, before, r.Groups()[0].Students)
	assert.Len(t, r.doc.Assessments, 4)
}

func TestAddStudentCreatesRecord(t *testing.T) {
	r := newRoster(t, kre)
	g := seedGroup(t, r, "Projekt A")

	st, err := r.AddStudent(g.ID, StudentInput{Name: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, "KRE", st.AssignedTeacher)
	assert.Equal(t, grading.DefaultTemplateID, st.TemplateID)
	assert.Equal(t, model.StatusNotStarted, st.Status)

	rec, err := r.Record(st.ID)
	require.NoError(t, err)
	assert.Len(t, rec.Grades, len(grading.DefaultTemplate().Categories))

	_, err = r.AddStudent(g.ID, StudentInput{Name: "Bob", TemplateID: "missing"})
	assert.ErrorIs(t, err, util.ErrTemplateNotFound)
}

func TestGroupPermissions(t *testing.T) {
	r := newRoster(t, kre)
	g := seedGroup(t, r, "Projekt A", "Alice")
	other := as(r, mue)

	_, err := other.UpdateGroup(g.ID, GroupInput{Theme: "Neu"})
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
	_, err = other.AddStudent(g.ID, StudentInput{Name: "Bob"})
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
	assert.ErrorIs(t, other.DeleteGroup(g.ID), util.ErrPermissionDenied)
	assert.ErrorIs(t, other.RemoveStudent(g.ID, g.Students[0].ID), util.ErrPermissionDenied)

	_, err = r.UpdateGroup(g.ID, GroupInput{Theme: "Neu", ResponsibleTeacher: "MUE"})
	require.NoError(t, err)

	// 转交后新负责人可以编辑
	_, err = other.UpdateGroup(g.ID, GroupInput{Theme: "Neuer"})
	assert.NoError(t, err)
	assert.ErrorIs(t, r.DeleteGroup("nope"), util.ErrGroupNotFound)
}

func TestDeleteGroupRemovesRecords(t *testing.T) {
	r := newRoster(t, kre)
	g := seedGroup(t, r, "Projekt A", "Alice", "Bob")
	keep := seedGroup(t, r, "Projekt B", "Carla")

	require.NoError(t, r.DeleteGroup(g.ID))
	assert.Len(t, r.Groups(), 1)
	assert.Len(t, r.doc.Assessments, 1)
	assert.Contains(t, r.doc.Assessments, keep.Students[0].ID)
}

func TestUpdateAndRemoveStudent(t *testing.T) {
	r := newRoster(t, kre)
	g := seedGroup(t, r, "Projekt A", "Alice", "Bob")
	alice := g.Students[0]

	st, err := r.UpdateStudent(g.ID, alice.ID, StudentInput{Name: "Alice B.", AssignedTeacher: "MUE"})
	require.NoError(t, err)
	assert.Equal(t, "Alice B.", st.Name)
	assert.Equal(t, "MUE", st.AssignedTeacher)

	_, err = r.UpdateStudent(g.ID, "ghost", StudentInput{Name: "X"})
	assert.ErrorIs(t, err, util.ErrStudentNotFound)

	require.NoError(t, r.RemoveStudent(g.ID, alice.ID))
	assert.NotContains(t, r.doc.Assessments, alice.ID)
	assert.Len(t, r.Groups()[0].Students, 1)
	assert.ErrorIs(t, r.RemoveStudent(g.ID, alice.ID), util.ErrStudentNotFound)
}

func TestSetStudentTemplateConformsRecord(t *testing.T) {
	r := newRoster(t, kre)
	g := seedGroup(t, r, "Projekt A", "Alice")
	alice := g.Students[0].ID
	_, err := r.SetCategoryGrade(alice, "presentation", 2)
	require.NoError(t, err)

	tpl, err := r.CreateTemplate(TemplateInput{Name: "Kurz", Categories: []model.Category{
		{ID: "presentation", Weight: 2},
		{ID: "poster", Weight: 1},
	}})
	require.NoError(t, err)

	st, err := r.SetStudentTemplate(alice, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, tpl.ID, st.TemplateID)

	rec, err := r.Record(alice)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"presentation": 2, "poster": 0}, rec.Grades)
	assert.Equal(t, tpl.ID, rec.TemplateID)
}
