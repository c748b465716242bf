package roster

import (
	"gradebook_backend/internal/model"
	"gradebook_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetCategoryGrade(t *testing.T) {
	r := newRoster(t, kre)
	alice := seedGroup(t, r, "Projekt A", "Alice").Students[0].ID

	rec, err := r.SetCategoryGrade(alice, "presentation", 2.5)
	require.NoError(t, err)
	assert.Equal(t, 2.5, rec.Grades["presentation"])
	assert.Equal(t, model.StatusInProgress, rec.Status)
	assert.Equal(t, testNow, rec.LastModified)

	rec, err = r.SetCategoryGrade(alice, "presentation", 0)
	require.NoError(t, err)
	assert.Equal(t, model.StatusNotStarted, rec.Status)

	for _, v := range []float64{0.5, 6.5, 2.25, -1} {
		_, err := r.SetCategoryGrade(alice, "presentation", v)
		var verr *util.ValidationError
		assert.ErrorAs(t, err, &verr, "value %v", v)
	}

	_, err = r.SetCategoryGrade(alice, "poster", 2)
	assert.ErrorIs(t, err, util.ErrCategoryNotFound)
	_, err = r.SetCategoryGrade("ghost", "presentation", 2)
	assert.ErrorIs(t, err, util.ErrStudentNotFound)
}

func TestOnlyAssignedTeacherAssesses(t *testing.T) {
	r := newRoster(t, kre)
	g := seedGroup(t, r, "Projekt A")
	st, err := r.AddStudent(g.ID, StudentInput{Name: "Bob", AssignedTeacher: "MUE"})
	require.NoError(t, err)

	_, err = r.SetCategoryGrade(st.ID, "presentation", 2)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	// 组负责人仍可查看
	_, err = r.Record(st.ID)
	assert.NoError(t, err)

	_, err = as(r, mue).SetCategoryGrade(st.ID, "presentation", 2)
	assert.NoError(t, err)

	_, err = as(r, sch).Record(st.ID)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
}

func TestSetInfoTextAndFinalGrade(t *testing.T) {
	r := newRoster(t, kre)
	alice := seedGroup(t, r, "Projekt A", "Alice").Students[0].ID

	rec, err := r.SetInfoText(alice, "krank gemeldet")
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, rec.Status)

	fg := 2.34
	rec, err = r.SetFinalGrade(alice, &fg)
	require.NoError(t, err)
	require.NotNil(t, rec.FinalGrade)
	assert.Equal(t, 2.3, *rec.FinalGrade)
	assert.Equal(t, model.StatusCompleted, rec.Status)

	bad := 7.0
	_, err = r.SetFinalGrade(alice, &bad)
	var verr *util.ValidationError
	assert.ErrorAs(t, err, &verr)

	rec, err = r.SetFinalGrade(alice, nil)
	require.NoError(t, err)
	assert.Nil(t, rec.FinalGrade)
	assert.Equal(t, model.StatusInProgress, rec.Status)
}

func TestApplyAverageAsFinal(t *testing.T) {
	r := newRoster(t, kre)
	alice := seedGroup(t, r, "Projekt A", "Alice").Students[0].ID

	_, err := r.ApplyAverageAsFinal(alice, false)
	assert.ErrorIs(t, err, util.ErrInsufficientGrades)

	_, err = r.SetCategoryGrade(alice, "presentation", 5)
	require.NoError(t, err)
	_, err = r.SetCategoryGrade(alice, "content", 3)
	require.NoError(t, err)

	avg, ok, err := r.StudentAverage(alice)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4.0, avg)

	rec, err := r.ApplyAverageAsFinal(alice, false)
	require.NoError(t, err)
	assert.Equal(t, 4.0, *rec.FinalGrade)
	assert.Equal(t, model.StatusCompleted, rec.Status)

	_, err = r.SetCategoryGrade(alice, "content", 1)
	require.NoError(t, err)

	_, err = r.ApplyAverageAsFinal(alice, false)
	assert.ErrorIs(t, err, util.ErrFinalGradeExists)
	stored, _ := r.Record(alice)
	assert.Equal(t, 4.0, *stored.FinalGrade)

	rec, err = r.ApplyAverageAsFinal(alice, true)
	require.NoError(t, err)
	assert.Equal(t, 3.0, *rec.FinalGrade)
}

func TestRecordIsCopy(t *testing.T) {
	r := newRoster(t, kre)
	alice := seedGroup(t, r, "Projekt A", "Alice").Students[0].ID

	rec, err := r.Record(alice)
	require.NoError(t, err)
	rec.Grades["presentation"] = 1

	again, _ := r.Record(alice)
	assert.Equal(t, 0.0, again.Grades["presentation"])
}
