package roster

import (
	"gradebook_backend/internal/grading"
	"gradebook_backend/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.October, 19, 9, 30, 0, 0, time.UTC)

var (
	kre = model.Tenant{Code: "KRE", Name: "Krebs", CanCreateGroups: true}
	mue = model.Tenant{Code: "MUE", Name: "Müller", CanCreateGroups: true}
	sch = model.Tenant{Code: "SCH", Name: "Schmidt"}
)

func newRoster(t *testing.T, tenant model.Tenant) *Roster {
	t.Helper()
	return New(grading.NewDocument(testNow), tenant, DefaultLimits(), WithClock(func() time.Time { return testNow }))
}

// 同一文档换一个租户视角
func as(r *Roster, tenant model.Tenant) *Roster {
	return New(r.doc, tenant, r.limits, WithClock(r.now))
}

func seedGroup(t *testing.T, r *Roster, theme string, students ...string) model.Group {
	t.Helper()
	g, err := r.CreateGroup(GroupInput{Theme: theme, ExamDate: "2026-06-01"})
	require.NoError(t, err)
	for _, name := range students {
		_, err := r.AddStudent(g.ID, StudentInput{Name: name})
		require.NoError(t, err)
	}
	_, gp := r.doc.FindGroup(g.ID)
	return *gp
}
