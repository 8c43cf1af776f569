package models

import "regexp"

// Education levels used by subjects, students and graduation criteria.
const (
	LevelPrimary        = "ประถม"
	LevelLowerSecondary = "ม.ต้น"
	LevelUpperSecondary = "ม.ปลาย"
	LevelUnknown        = "ไม่ระบุ"
)

var semesterPattern = regexp.MustCompile(`^[1-3]/[0-9]{4}$`)

// ValidSemester checks the "term/Buddhist-year" format, e.g. "1/2567".
func ValidSemester(s string) bool {
	return semesterPattern.MatchString(s)
}

// SemesterFromID derives the entry semester encoded in a student id: the
// first two digits are the Buddhist year and the third the term, so
// "6710001" maps to "1/2567".
func SemesterFromID(id string) string {
	if len(id) < 3 {
		return ""
	}
	return id[2:3] + "/25" + id[:2]
}

// LevelFromID derives the education level from the fourth digit of a
// student id.
func LevelFromID(id string) string {
	if len(id) < 4 {
		return LevelUnknown
	}
	switch id[3] {
	case '1':
		return LevelPrimary
	case '2':
		return LevelLowerSecondary
	case '3':
		return LevelUpperSecondary
	}
	return LevelUnknown
}

// KnownLevel reports whether level names one of the three programme levels.
func KnownLevel(level string) bool {
	switch level {
	case LevelPrimary, LevelLowerSecondary, LevelUpperSecondary:
		return true
	}
	return false
}
