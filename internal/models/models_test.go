package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGradeValueJSON(t *testing.T) {
	var course EnrolledCourse
	require.NoError(t, json.Unmarshal([]byte(`{"subjectId":"M101","semester":"1/2567","grade":3.5}`), &course))
	n, ok := course.Grade.Number()
	assert.True(t, ok)
	assert.Equal(t, 3.5, n)
	assert.True(t, course.Grade.Graded())

	require.NoError(t, json.Unmarshal([]byte(`{"subjectId":"M101","semester":"1/2567","grade":"ม"}`), &course))
	_, ok = course.Grade.Number()
	assert.False(t, ok)
	assert.Equal(t, GradeSymbolNoResult, course.Grade.Symbol())
	assert.False(t, course.Grade.Graded())

	out, err := json.Marshal(EnrolledCourse{SubjectID: "M101", Semester: "1/2567", Grade: NumericGrade(4)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"subjectId":"M101","semester":"1/2567","grade":4}`, string(out))
}

func TestGradeValueNumericStringStaysSymbol(t *testing.T) {
	var g GradeValue
	require.NoError(t, json.Unmarshal([]byte(`"4"`), &g))
	assert.False(t, g.Graded())
	assert.Equal(t, "4", g.String())
}

func TestGradeValueKeepsNull(t *testing.T) {
	var course EnrolledCourse
	require.NoError(t, json.Unmarshal([]byte(`{"subjectId":"M101","semester":"1/2567","grade":null}`), &course))
	assert.True(t, course.Grade.IsNull())
	assert.False(t, course.Grade.Graded())

	out, err := json.Marshal(course)
	require.NoError(t, err)
	assert.JSONEq(t, `{"subjectId":"M101","semester":"1/2567","grade":null}`, string(out))

	require.NoError(t, json.Unmarshal([]byte(`{"subjectId":"M101","semester":"1/2567"}`), &course))
	out, err = json.Marshal(course)
	require.NoError(t, err)
	assert.JSONEq(t, `{"subjectId":"M101","semester":"1/2567","grade":null}`, string(out))

	require.NoError(t, json.Unmarshal([]byte(`""`), &course.Grade))
	assert.False(t, course.Grade.IsNull())
	out, err = json.Marshal(course.Grade)
	require.NoError(t, err)
	assert.Equal(t, `""`, string(out))
}

func TestGradeValueRejectsGarbage(t *testing.T) {
	var g GradeValue
	assert.Error(t, json.Unmarshal([]byte(`true`), &g))
}

func TestGradedExcludesZeroAndNegative(t *testing.T) {
	assert.False(t, NumericGrade(0).Graded())
	assert.False(t, NumericGrade(-1).Graded())
	assert.True(t, NumericGrade(1).Graded())
}

func TestParseImportKind(t *testing.T) {
	kind, ok := ParseImportKind(" grade ")
	assert.True(t, ok)
	assert.Equal(t, ImportGrade, kind)

	_, ok = ParseImportKind("teacher")
	assert.False(t, ok)

	assert.Equal(t, "reg_students", ImportStudent.NavigateTo())
	assert.Equal(t, "reg_grades", ImportGrade.NavigateTo())
	assert.Equal(t, "reg_kpch", ImportActivity.NavigateTo())
	assert.Equal(t, "reg_students", ImportAdvisor.NavigateTo())
}

func TestDecodeImportRecords(t *testing.T) {
	raws := []json.RawMessage{
		json.RawMessage(`{"studentId":"S1","enrolledCourse":{"subjectId":"M101","semester":"1/2567","grade":"ข"}}`),
	}
	records, err := DecodeImportRecords(ImportGrade, raws)
	require.NoError(t, err)
	require.Len(t, records, 1)
	grade, ok := records[0].(GradeRecord)
	require.True(t, ok)
	assert.Equal(t, "S1", grade.TargetID())
	assert.Equal(t, GradeSymbolAbsent, grade.EnrolledCourse.Grade.Symbol())

	students, err := DecodeImportRecords(ImportStudent, []json.RawMessage{json.RawMessage(`{"id":"671001","firstName":"Somchai"}`)})
	require.NoError(t, err)
	assert.Equal(t, "671001", students[0].TargetID())
	assert.Equal(t, ImportStudent, students[0].Kind())

	_, err = DecodeImportRecords(ImportAdvisor, []json.RawMessage{json.RawMessage(`[1,2]`)})
	assert.ErrorContains(t, err, "record 0")
}

func TestSemesterHelpers(t *testing.T) {
	assert.Equal(t, "1/2567", SemesterFromID("6712345"))
	assert.Equal(t, "", SemesterFromID("67"))
	assert.Equal(t, LevelPrimary, LevelFromID("6711001"))
	assert.Equal(t, LevelLowerSecondary, LevelFromID("6712001"))
	assert.Equal(t, LevelUpperSecondary, LevelFromID("6713001"))
	assert.Equal(t, LevelUnknown, LevelFromID("6719001"))
	assert.Equal(t, LevelUnknown, LevelFromID("671"))

	assert.True(t, ValidSemester("2/2567"))
	assert.False(t, ValidSemester("4/2567"))
	assert.False(t, ValidSemester("1-2567"))
}

func TestSubjectCatalogCredit(t *testing.T) {
	catalog := NewSubjectCatalog([]Subject{{ID: "M101", Credit: 3}})
	assert.Equal(t, 3.0, catalog.Credit("M101"))
	assert.Equal(t, 0.0, catalog.Credit("missing"))
}

func TestRoleIsStaff(t *testing.T) {
	assert.True(t, RoleRegistrar.IsStaff())
	assert.True(t, RoleAdminVIP.IsStaff())
	assert.False(t, RoleTeacher.IsStaff())
	assert.False(t, RoleStudent.IsStaff())
}
