// Package reconcile merges batch imports into a student collection.
//
// Reconcile is pure: it reads the current students and the subject catalog,
// never mutates them, performs no I/O and returns replacement students for
// the ids the batch touched. Callers persist the result and overlay it onto
// their own collection, and must not run two passes concurrently against the
// same unresolved collection.
package reconcile

import "github.com/noah-isme/bbsmart-api/internal/models"

// Skip reasons reported in Result.Skipped.
const (
	SkipStudentNotFound = "student_not_found"
	SkipKindMismatch    = "kind_mismatch"
	SkipMissingID       = "missing_id"
)

// Skip describes a record that did not change anything.
type Skip struct {
	Index     int    `json:"index"`
	StudentID string `json:"studentId"`
	Reason    string `json:"reason"`
}

// Result is the outcome of one reconciliation pass.
type Result struct {
	// Students holds only the students that were inserted or changed.
	Students map[string]models.Student
	Skipped  []Skip
}

// Reconcile applies records of the given kind in input order. Later records
// for the same key win. Unknown student ids are skipped and unknown subjects
// contribute zero credit; neither is an error.
func Reconcile(kind models.ImportKind, records []models.ImportRecord, current map[string]models.Student, catalog models.SubjectCatalog, activeSemester string) Result {
	if kind == models.ImportStudent {
		return replaceStudents(records)
	}

	p := pass{
		current: current,
		working: make(map[string]*models.Student),
		catalog: catalog,
		active:  activeSemester,
	}
	var skipped []Skip
	for i, rec := range records {
		if rec == nil || rec.Kind() != kind {
			skipped = append(skipped, Skip{Index: i, StudentID: targetOf(rec), Reason: SkipKindMismatch})
			continue
		}
		student := p.resolve(rec.TargetID())
		if student == nil {
			skipped = append(skipped, Skip{Index: i, StudentID: rec.TargetID(), Reason: SkipStudentNotFound})
			continue
		}
		p.apply(student, rec)
	}

	out := make(map[string]models.Student, len(p.working))
	for id, s := range p.working {
		out[id] = *s
	}
	return Result{Students: out, Skipped: skipped}
}

// replaceStudents handles STUDENT batches: the incoming record wins entirely,
// including derived fields, and unknown ids are inserted.
func replaceStudents(records []models.ImportRecord) Result {
	out := make(map[string]models.Student, len(records))
	var skipped []Skip
	for i, rec := range records {
		sr, ok := rec.(models.StudentRecord)
		if !ok {
			skipped = append(skipped, Skip{Index: i, StudentID: targetOf(rec), Reason: SkipKindMismatch})
			continue
		}
		if sr.ID == "" {
			skipped = append(skipped, Skip{Index: i, Reason: SkipMissingID})
			continue
		}
		out[sr.ID] = cloneStudent(sr.Student)
	}
	return Result{Students: out, Skipped: skipped}
}

type pass struct {
	current map[string]models.Student
	working map[string]*models.Student
	catalog models.SubjectCatalog
	active  string
}

// resolve returns the working copy for id, cloning it from the current
// collection on first use. It returns nil for unknown ids.
func (p *pass) resolve(id string) *models.Student {
	if s, ok := p.working[id]; ok {
		return s
	}
	found, ok := p.current[id]
	if !ok {
		return nil
	}
	clone := cloneStudent(found)
	p.working[id] = &clone
	return &clone
}

func (p *pass) apply(s *models.Student, rec models.ImportRecord) {
	switch r := rec.(type) {
	case models.GradeRecord:
		s.EnrolledCourses = upsertCourse(s.EnrolledCourses, r.EnrolledCourse)
		s.GPA = ComputeGPA(s.EnrolledCourses, p.catalog)
	case models.ActivityImport:
		s.Activities = append(s.Activities, r.Activity)
	case models.AdvisorRecord:
		s.AdvisorHistory = append(s.AdvisorHistory, models.AdvisorHistory{
			Semester:    r.Semester,
			TeacherID:   r.TeacherID,
			TeacherName: r.TeacherName,
		})
		if r.Semester == p.active {
			s.TeacherID = r.TeacherID
			if r.TeacherName != "" {
				s.TeacherName = r.TeacherName
			}
		}
	case models.StudentRecord:
		// handled by replaceStudents
	}
}

// upsertCourse replaces the entry with the same (subject, semester) key in
// place, or appends a new one.
func upsertCourse(courses []models.EnrolledCourse, c models.EnrolledCourse) []models.EnrolledCourse {
	for i := range courses {
		if courses[i].SubjectID == c.SubjectID && courses[i].Semester == c.Semester {
			courses[i] = c
			return courses
		}
	}
	return append(courses, c)
}

// cloneStudent copies s with independent mutable sub-collections so edits to
// the copy never reach the caller's collection.
func cloneStudent(s models.Student) models.Student {
	s.EnrolledCourses = append(make([]models.EnrolledCourse, 0, len(s.EnrolledCourses)), s.EnrolledCourses...)
	s.Activities = append(make([]models.ActivityRecord, 0, len(s.Activities)), s.Activities...)
	s.AdvisorHistory = append(make([]models.AdvisorHistory, 0, len(s.AdvisorHistory)), s.AdvisorHistory...)
	return s
}

func targetOf(rec models.ImportRecord) string {
	if rec == nil {
		return ""
	}
	return rec.TargetID()
}
