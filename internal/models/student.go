package models

// StudentStatus tracks where a learner is in the programme.
type StudentStatus string

const (
	StudentStatusActive    StudentStatus = "Active"
	StudentStatusInactive  StudentStatus = "Inactive"
	StudentStatusGraduated StudentStatus = "Graduated"
)

// Student represents a learner registered at the centre. The record is stored
// as a JSON document in the students resource.
type Student struct {
	ID          string `json:"id" validate:"required"`
	CitizenID   string `json:"citizenId,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`

	Title      string `json:"title"`
	FirstName  string `json:"firstName"`
	MiddleName string `json:"middleName,omitempty"`
	LastName   string `json:"lastName"`
	Gender     int    `json:"gender" validate:"omitempty,oneof=1 2 3"`
	Age        int    `json:"age"`
	BirthDate  string `json:"birthDate"`

	Grade         string        `json:"grade"`
	Status        StudentStatus `json:"status" validate:"omitempty,oneof=Active Inactive Graduated"`
	GPA           float64       `json:"gpa"`
	TeacherID     string        `json:"teacherId,omitempty"`
	TeacherName   string        `json:"teacherName,omitempty"`
	MidtermScore  *float64      `json:"midtermScore,omitempty"`
	FinalScore    *float64      `json:"finalScore,omitempty"`
	BehaviorScore *float64      `json:"behaviorScore,omitempty"`
	Semester      string        `json:"semester"`

	EnrolledCourses []EnrolledCourse `json:"enrolledCourses"`
	Activities      []ActivityRecord `json:"activities"`
	AdvisorHistory  []AdvisorHistory `json:"advisorHistory"`
}

// FullName joins the name parts the way rosters print them.
func (s Student) FullName() string {
	name := s.Title + s.FirstName
	if s.MiddleName != "" {
		name += " " + s.MiddleName
	}
	if s.LastName != "" {
		name += " " + s.LastName
	}
	return name
}

// EnrolledCourse is one subject taken in one semester. A student holds at most
// one entry per (SubjectID, Semester).
type EnrolledCourse struct {
	SubjectID string     `json:"subjectId" validate:"required"`
	Semester  string     `json:"semester" validate:"required"`
	Grade     GradeValue `json:"grade"`
}

// ActivityRecord logs hours of life-skill development activity (กพช.).
type ActivityRecord struct {
	ID                 string  `json:"id"`
	ActivityName       string  `json:"activityName" validate:"required"`
	Semester           string  `json:"semester" validate:"required"`
	Hours              float64 `json:"hours" validate:"gte=0"`
	ResponsibleTeacher string  `json:"responsibleTeacher,omitempty"`
}

// AdvisorHistory records which teacher advised the student in a semester.
type AdvisorHistory struct {
	Semester    string `json:"semester"`
	TeacherID   string `json:"teacherId"`
	TeacherName string `json:"teacherName,omitempty"`
}
