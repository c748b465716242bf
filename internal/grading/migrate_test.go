package grading

import (
	"encoding/json"
	"gradebook_backend/internal/model"
	"gradebook_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, time.October, 19, 9, 30, 0, 0, time.UTC)

func opts() MigrateOptions {
	return MigrateOptions{Tenant: "KRE", Now: fixedNow}
}

func decode(t *testing.T, s string) interface{} {
	t.Helper()
	var raw interface{}
	require.NoError(t, json.Unmarshal([]byte(s), &raw))
	return raw
}

const legacyDocument = `{
	"settings": {"preferredSorting": "theme", "themeSortOrder": {"Projekt A": 2}},
	"students": [
		{"id": "s1", "name": "Alice", "theme": "Projekt A", "examDate": "2024-06-01", "assessment": {"vortrag": 4, "inhalt": 3}},
		{"id": "s2", "name": "Bob", "theme": "Projekt A", "examDate": "2024-06-01"},
		{"id": "s3", "name": "Carla", "theme": "", "teacher": "MUE", "grades": {"sprache": 2.5, "infoText": "krank"}}
	],
	"assessments": {
		"s2": {"presentation": 5, "vortrag": 2, "finalGrade": 9, "lastModified": 1700000000000},
		"ghost": {"presentation": 1}
	}
}`

func TestMigrateLegacyUpgrade(t *testing.T) {
	doc, rep, err := Migrate(decode(t, legacyDocument), opts())
	require.NoError(t, err)

	assert.True(t, rep.Upgraded)
	assert.True(t, rep.Changed)
	assert.Equal(t, []string{"ghost"}, rep.DroppedOrphans)

	require.Len(t, doc.Groups, 2)
	projekt := doc.Groups[0]
	assert.Equal(t, "Projekt A", projekt.Theme)
	assert.Equal(t, "2024-06-01", projekt.ExamDate)
	assert.Equal(t, "KRE", projekt.CreatedBy)
	assert.Equal(t, model.DeterministicUUID("legacy-group", "Projekt A", "2024-06-01"), projekt.ID)
	require.Len(t, projekt.Students, 2)
	assert.Equal(t, "s1", projekt.Students[0].ID)
	assert.Equal(t, "KRE", projekt.Students[0].AssignedTeacher)

	noTheme := doc.Groups[1]
	assert.Equal(t, "Ohne Thema", noTheme.Theme)
	require.Len(t, noTheme.Students, 1)
	assert.Equal(t, "MUE", noTheme.Students[0].AssignedTeacher)

	alice := doc.Assessments["s1"]
	require.NotNil(t, alice)
	assert.Equal(t, 4.0, alice.Grades["presentation"])
	assert.Equal(t, 3.0, alice.Grades["content"])
	assert.NotContains(t, alice.Grades, "vortrag")
	assert.Len(t, alice.Grades, 8)
	assert.Equal(t, model.StatusInProgress, alice.Status)
	assert.Equal(t, DefaultTemplateID, alice.TemplateID)

	carla := doc.Assessments["s3"]
	require.NotNil(t, carla)
	assert.Equal(t, 2.5, carla.Grades["language"])
	assert.Equal(t, "krank", carla.InfoText)

	assert.Equal(t, "theme", doc.Settings.PreferredSorting)
	assert.Equal(t, 2, doc.Settings.ThemeSortOrder["Projekt A"])
	assert.Equal(t, "2026/27", doc.Settings.CurrentSchoolYear)
}

func TestMigrateNoClobberRename(t *testing.T) {
	doc, _, err := Migrate(decode(t, legacyDocument), opts())
	require.NoError(t, err)

	bob := doc.Assessments["s2"]
	require.NotNil(t, bob)
	assert.Equal(t, 5.0, bob.Grades["presentation"], "existing value must win over legacy key")
	assert.NotContains(t, bob.Grades, "vortrag")
	assert.Nil(t, bob.FinalGrade, "out-of-range final grade is dropped")
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), bob.LastModified)
}

func TestMigrateNoClobberSentinel(t *testing.T) {
	raw := decode(t, `{"groups": [{"id": "g1", "theme": "X", "students": [{"id": "s1", "name": "A"}]}],
		"assessments": {"s1": {"presentation": 0, "vortrag": 4}}}`)
	doc, rep, err := Migrate(raw, opts())
	require.NoError(t, err)
	assert.Equal(t, 0.0, doc.Assessments["s1"].Grades["presentation"])
	assert.NotContains(t, doc.Assessments["s1"].Grades, "vortrag")
	assert.Equal(t, 0, rep.Renamed)
}

func TestMigrateIdempotent(t *testing.T) {
	inputs := map[string]string{
		"legacy": legacyDocument,
		"empty":  `{}`,
		"current": `{
			"settings": {"currentSchoolYear": "2025/26", "preferredSorting": "name", "themeSortOrder": {}},
			"groups": [{"id": "g1", "theme": "Projekt A", "responsibleTeacher": "KRE", "createdBy": "KRE",
				"createdAt": "2025-09-01T08:00:00Z", "schoolYear": "2025/26",
				"students": [{"id": "s1", "name": "Alice", "assignedTeacher": "KRE", "templateId": "short"}]}],
			"assessments": {"s1": {"a": 4, "infoText": "", "templateId": "short", "lastModified": "2025-09-02T10:00:00Z"}},
			"assessmentTemplates": [{"id": "short", "name": "Kurz", "categories": [{"id": "a", "name": "A", "weight": 2}]}]
		}`,
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			first, _, err := MigrateJSON([]byte(input), opts())
			require.NoError(t, err)

			data, err := json.Marshal(first)
			require.NoError(t, err)

			second, rep, err := MigrateJSON(data, MigrateOptions{Tenant: "KRE", Now: fixedNow.Add(time.Hour)})
			require.NoError(t, err)
			assert.Equal(t, first, second)
			assert.False(t, rep.Changed)
			assert.Zero(t, rep.CreatedRecords)
			assert.Zero(t, rep.Renamed)
		})
	}
}

func TestMigratePreservesIDs(t *testing.T) {
	raw := decode(t, `{"groups": [
		{"id": "g-1", "theme": "A", "students": [{"id": "st-1", "name": "X"}, {"id": "st-2", "name": "Y"}]},
		{"id": "g-2", "theme": "B", "students": [{"id": "st-3", "name": "Z"}]}
	]}`)
	doc, rep, err := Migrate(raw, opts())
	require.NoError(t, err)

	var groupIDs, studentIDs []string
	for _, g := range doc.Groups {
		groupIDs = append(groupIDs, g.ID)
		for _, s := range g.Students {
			studentIDs = append(studentIDs, s.ID)
			assert.Contains(t, doc.Assessments, s.ID)
		}
	}
	assert.Equal(t, []string{"g-1", "g-2"}, groupIDs)
	assert.Equal(t, []string{"st-1", "st-2", "st-3"}, studentIDs)
	assert.Equal(t, 3, rep.CreatedRecords)
}

func TestMigrateNumericIDs(t *testing.T) {
	raw := decode(t, `{
		"students": [{"id": 1700000000000, "name": "Alice", "theme": "Projekt A"}],
		"groups": [{"id": 7, "theme": "B", "students": [{"id": 42, "name": "Bob"}]}],
		"assessments": {
			"1700000000000": {"presentation": 5, "infoText": "gut"},
			"42": {"content": 3}
		}
	}`)
	doc, rep, err := Migrate(raw, opts())
	require.NoError(t, err)
	assert.Empty(t, rep.DroppedOrphans)

	require.Len(t, doc.Groups, 2)
	assert.Equal(t, "7", doc.Groups[0].ID)
	assert.Equal(t, "42", doc.Groups[0].Students[0].ID)
	assert.Equal(t, "1700000000000", doc.Groups[1].Students[0].ID)

	alice := doc.Assessments["1700000000000"]
	require.NotNil(t, alice)
	assert.Equal(t, 5.0, alice.Grades["presentation"])
	assert.Equal(t, "gut", alice.InfoText)
	assert.Equal(t, 3.0, doc.Assessments["42"].Grades["content"])

	again, rep2, err := Migrate(roundTrip(t, doc), opts())
	require.NoError(t, err)
	assert.False(t, rep2.Changed)
	assert.Equal(t, doc, again)
}

func TestMigrateKeepsIDsVerbatim(t *testing.T) {
	raw := decode(t, `{
		"groups": [{"id": " g1", "theme": "A", "students": [{"id": "s1 ", "name": "X"}, {"id": "   ", "name": "Y"}]}],
		"assessments": {"s1 ": {"presentation": 5}}
	}`)
	doc, rep, err := Migrate(raw, opts())
	require.NoError(t, err)
	assert.Empty(t, rep.DroppedOrphans)

	g := doc.Groups[0]
	assert.Equal(t, " g1", g.ID)
	require.Len(t, g.Students, 2)
	assert.Equal(t, "s1 ", g.Students[0].ID)
	assert.Equal(t, 5.0, doc.Assessments["s1 "].Grades["presentation"])
	assert.NotEqual(t, "   ", g.Students[1].ID, "blank id counts as missing")
	assert.NotEmpty(t, g.Students[1].ID)
}

func roundTrip(t *testing.T, doc *model.TenantDocument) interface{} {
	t.Helper()
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	return decode(t, string(data))
}

func TestMigrateUnknownTemplateFallsBack(t *testing.T) {
	raw := decode(t, `{"groups": [{"id": "g1", "theme": "A", "students": [{"id": "s1", "name": "X", "templateId": "gone"}]}],
		"assessments": {"s1": {"presentation": 2, "custom": 5}}}`)
	doc, _, err := Migrate(raw, opts())
	require.NoError(t, err)

	st := doc.Groups[0].Students[0]
	assert.Equal(t, DefaultTemplateID, st.TemplateID)
	rec := doc.Assessments["s1"]
	assert.Equal(t, 2.0, rec.Grades["presentation"])
	assert.NotContains(t, rec.Grades, "custom")
}

func TestMigrateCorrupt(t *testing.T) {
	for _, input := range []string{`[1, 2]`, `null`, `"text"`, `{not json`} {
		_, _, err := MigrateJSON([]byte(input), opts())
		assert.ErrorIs(t, err, util.ErrCorruptDocument, input)
	}
}

func TestMigrateRepairsMalformedFields(t *testing.T) {
	raw := decode(t, `{"settings": "oops", "groups": [
		"not a group",
		{"theme": "No id", "students": [{"name": "Anon"}, 42]}
	], "assessmentTemplates": [{"id": "empty", "categories": []}]}`)
	doc, _, err := Migrate(raw, opts())
	require.NoError(t, err)

	require.Len(t, doc.Groups, 1)
	require.Len(t, doc.Groups[0].Students, 1)
	assert.NotEmpty(t, doc.Groups[0].ID)
	assert.NotEmpty(t, doc.Groups[0].Students[0].ID)
	assert.Equal(t, DefaultSorting, doc.Settings.PreferredSorting)
	require.Len(t, doc.AssessmentTemplates, 1, "template without categories is dropped")
	assert.Equal(t, DefaultTemplateID, doc.AssessmentTemplates[0].ID)
}

func TestSchoolYearFor(t *testing.T) {
	assert.Equal(t, "2025/26", SchoolYearFor(time.Date(2026, time.July, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2026/27", SchoolYearFor(time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2099/00", SchoolYearFor(time.Date(2099, time.September, 1, 0, 0, 0, 0, time.UTC)))
}
