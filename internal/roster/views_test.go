package roster

import (
	"gradebook_backend/internal/model"
	"gradebook_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(views []StudentView) []string {
	out := make([]string, len(views))
	for i, v := range views {
		out[i] = v.Student.Name
	}
	return out
}

func TestVisibleStudents(t *testing.T) {
	r := newRoster(t, kre)
	g := seedGroup(t, r, "Projekt A", "carla", "Alice")
	_, err := r.AddStudent(g.ID, StudentInput{Name: "Bob", AssignedTeacher: "MUE"})
	require.NoError(t, err)

	other := as(r, mue)
	og, err := other.CreateGroup(GroupInput{Theme: "Projekt B"})
	require.NoError(t, err)
	_, err = other.AddStudent(og.ID, StudentInput{Name: "Zoe"})
	require.NoError(t, err)
	_, err = other.AddStudent(og.ID, StudentInput{Name: "Dora", AssignedTeacher: "KRE"})
	require.NoError(t, err)

	views := r.VisibleStudents()
	assert.Equal(t, []string{"Alice", "Bob", "carla", "Dora"}, names(views))
	for _, v := range views {
		switch v.Student.Name {
		case "Bob":
			assert.True(t, v.CanEdit)
			assert.False(t, v.CanAssess)
		case "Dora":
			assert.False(t, v.CanEdit)
			assert.True(t, v.CanAssess)
		}
	}

	assert.Equal(t, []string{"Bob", "Dora", "Zoe"}, names(other.VisibleStudents()))
}

func TestVisibleStudentsSorting(t *testing.T) {
	r := newRoster(t, kre)
	a := seedGroup(t, r, "Projekt A", "Anna", "Ben")
	seedGroup(t, r, "Projekt B", "Aaron")
	seedGroup(t, r, "Projekt C", "Cleo")

	_, err := r.SetCategoryGrade(a.Students[1].ID, "presentation", 3)
	require.NoError(t, err)
	fg := 2.0
	_, err = r.SetFinalGrade(a.Students[0].ID, &fg)
	require.NoError(t, err)

	status := util.SortByStatus
	_, err = r.UpdateSettings(SettingsInput{PreferredSorting: &status})
	require.NoError(t, err)
	assert.Equal(t, []string{"Aaron", "Cleo", "Ben", "Anna"}, names(r.VisibleStudents()))

	theme := util.SortByTheme
	_, err = r.UpdateSettings(SettingsInput{PreferredSorting: &theme, ThemeSortOrder: map[string]int{"Projekt C": 0, "Projekt A": 1}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Cleo", "Anna", "Ben", "Aaron"}, names(r.VisibleStudents()))
}

func TestVisibleStudentsAverage(t *testing.T) {
	r := newRoster(t, kre)
	alice := seedGroup(t, r, "Projekt A", "Alice").Students[0].ID

	views := r.VisibleStudents()
	require.Len(t, views, 1)
	assert.Nil(t, views[0].Average)

	_, err := r.SetCategoryGrade(alice, "presentation", 2)
	require.NoError(t, err)
	views = r.VisibleStudents()
	require.NotNil(t, views[0].Average)
	assert.Equal(t, 2.0, *views[0].Average)
	assert.Equal(t, model.StatusInProgress, views[0].Student.Status)
}

func TestDashboardStats(t *testing.T) {
	r := newRoster(t, kre)
	g := seedGroup(t, r, "Projekt A", "Alice", "Bob", "Carla")
	seedGroup(t, r, "Projekt B")

	_, err := r.SetInfoText(g.Students[0].ID, "notiz")
	require.NoError(t, err)
	fg := 1.5
	_, err = r.SetFinalGrade(g.Students[1].ID, &fg)
	require.NoError(t, err)

	assert.Equal(t, DashboardStats{Groups: 2, Students: 3, NotStarted: 1, InProgress: 1, Completed: 1}, r.DashboardStats())
}
