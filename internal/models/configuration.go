package models

// Setting keys persisted in the settings resource.
const (
	SettingSchoolName      = "schoolName"
	SettingLogoURL         = "logoUrl"
	SettingCurrentSemester = "currentSemester"
	SettingSemesterList    = "semesterList"
)

// Setting is one key/value entry of the settings resource. The key doubles as
// the record id.
type Setting struct {
	ID    string      `json:"id" validate:"required,oneof=schoolName logoUrl currentSemester semesterList"`
	Value interface{} `json:"value"`
}

// Settings is the aggregated view served to the portal.
type Settings struct {
	SchoolName      string   `json:"schoolName"`
	LogoURL         string   `json:"logoUrl,omitempty"`
	CurrentSemester string   `json:"currentSemester"`
	SemesterList    []string `json:"semesterList"`
}

// DefaultSemesters is the semester list used until one is configured.
func DefaultSemesters() []string {
	return []string{"1/2568", "2/2568", "1/2567", "2/2566", "1/2566"}
}
