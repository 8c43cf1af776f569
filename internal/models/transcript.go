package models

// TranscriptRow is one course line of a student's grade report.
type TranscriptRow struct {
	Semester    string      `json:"semester"`
	SubjectID   string      `json:"subjectId"`
	SubjectCode string      `json:"subjectCode"`
	SubjectName string      `json:"subjectName"`
	SubjectType SubjectType `json:"subjectType,omitempty"`
	Credit      float64     `json:"credit"`
	Grade       GradeValue  `json:"grade"`
}

// Transcript is the grade report of one student, optionally scoped to a
// semester.
type Transcript struct {
	StudentID   string             `json:"studentId"`
	StudentName string             `json:"studentName"`
	Semester    string             `json:"semester,omitempty"`
	GPA         float64            `json:"gpa"`
	Rows        []TranscriptRow    `json:"rows"`
	Progress    GraduationProgress `json:"progress"`
}
