package models

// GraduationCriteria holds the minimum credits and activity hours per level.
type GraduationCriteria struct {
	Level                string  `json:"level"`
	MinTotalCredits      float64 `json:"minTotalCredits"`
	MinCompulsoryCredits float64 `json:"minCompulsoryCredits"`
	MinElectiveCredits   float64 `json:"minElectiveCredits"`
	MinActivityHours     float64 `json:"minActivityHours"`
}

// DefaultGraduationCriteria returns the curriculum defaults.
func DefaultGraduationCriteria() []GraduationCriteria {
	return []GraduationCriteria{
		{Level: LevelPrimary, MinTotalCredits: 48, MinCompulsoryCredits: 36, MinElectiveCredits: 12, MinActivityHours: 200},
		{Level: LevelLowerSecondary, MinTotalCredits: 56, MinCompulsoryCredits: 40, MinElectiveCredits: 16, MinActivityHours: 200},
		{Level: LevelUpperSecondary, MinTotalCredits: 76, MinCompulsoryCredits: 44, MinElectiveCredits: 32, MinActivityHours: 200},
	}
}

// GraduationProgress compares what a student has earned with the criteria of
// their level.
type GraduationProgress struct {
	Level             string              `json:"level"`
	Criteria          *GraduationCriteria `json:"criteria,omitempty"`
	TotalCredits      float64             `json:"totalCredits"`
	CompulsoryCredits float64             `json:"compulsoryCredits"`
	ElectiveCredits   float64             `json:"electiveCredits"`
	ActivityHours     float64             `json:"activityHours"`
	Eligible          bool                `json:"eligible"`
}
