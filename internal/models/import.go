package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ImportKind identifies the shape of a batch import.
type ImportKind string

const (
	ImportStudent  ImportKind = "STUDENT"
	ImportGrade    ImportKind = "GRADE"
	ImportActivity ImportKind = "ACTIVITY"
	ImportAdvisor  ImportKind = "ADVISOR"
)

// ImportKinds lists every supported kind.
var ImportKinds = []ImportKind{ImportStudent, ImportGrade, ImportActivity, ImportAdvisor}

// ParseImportKind normalises raw input into a known kind.
func ParseImportKind(raw string) (ImportKind, bool) {
	kind := ImportKind(strings.ToUpper(strings.TrimSpace(raw)))
	switch kind {
	case ImportStudent, ImportGrade, ImportActivity, ImportAdvisor:
		return kind, true
	}
	return "", false
}

// NavigateTo returns the menu the portal should open after the import.
func (k ImportKind) NavigateTo() string {
	switch k {
	case ImportStudent, ImportAdvisor:
		return "reg_students"
	case ImportGrade:
		return "reg_grades"
	case ImportActivity:
		return "reg_kpch"
	}
	return ""
}

// ImportRecord is one row of a batch import. The set of implementations is
// closed: StudentRecord, GradeRecord, ActivityImport and AdvisorRecord.
type ImportRecord interface {
	Kind() ImportKind
	// TargetID is the id of the student the record applies to.
	TargetID() string
	importRecord()
}

// StudentRecord replaces (or inserts) a whole student.
type StudentRecord struct {
	Student
}

// GradeRecord merges one course result into a student's enrollments.
type GradeRecord struct {
	StudentID      string         `json:"studentId" validate:"required"`
	EnrolledCourse EnrolledCourse `json:"enrolledCourse"`
}

// ActivityImport appends one activity to a student's activity log.
type ActivityImport struct {
	StudentID string         `json:"studentId" validate:"required"`
	Activity  ActivityRecord `json:"activity"`
}

// AdvisorRecord assigns an advisor to a student for a semester.
type AdvisorRecord struct {
	StudentID   string `json:"studentId" validate:"required"`
	Semester    string `json:"semester" validate:"required"`
	TeacherID   string `json:"teacherId" validate:"required"`
	TeacherName string `json:"teacherName,omitempty"`
}

func (StudentRecord) Kind() ImportKind  { return ImportStudent }
func (GradeRecord) Kind() ImportKind    { return ImportGrade }
func (ActivityImport) Kind() ImportKind { return ImportActivity }
func (AdvisorRecord) Kind() ImportKind  { return ImportAdvisor }

func (r StudentRecord) TargetID() string  { return r.ID }
func (r GradeRecord) TargetID() string    { return r.StudentID }
func (r ActivityImport) TargetID() string { return r.StudentID }
func (r AdvisorRecord) TargetID() string  { return r.StudentID }

func (StudentRecord) importRecord()  {}
func (GradeRecord) importRecord()    {}
func (ActivityImport) importRecord() {}
func (AdvisorRecord) importRecord()  {}

// DecodeImportRecords decodes raw JSON rows into typed records of the given
// kind. The row index is reported on failure.
func DecodeImportRecords(kind ImportKind, raws []json.RawMessage) ([]ImportRecord, error) {
	records := make([]ImportRecord, 0, len(raws))
	for i, raw := range raws {
		rec, err := decodeImportRecord(kind, raw)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func decodeImportRecord(kind ImportKind, raw json.RawMessage) (ImportRecord, error) {
	switch kind {
	case ImportStudent:
		var r StudentRecord
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		return r, nil
	case ImportGrade:
		var r GradeRecord
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		return r, nil
	case ImportActivity:
		var r ActivityImport
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		return r, nil
	case ImportAdvisor:
		var r AdvisorRecord
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		return r, nil
	}
	return nil, fmt.Errorf("unsupported import kind %q", kind)
}
