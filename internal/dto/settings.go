package dto

import "encoding/json"

// UpdateSettingRequest changes one settings key.
type UpdateSettingRequest struct {
	Key   string          `json:"key" validate:"required,oneof=schoolName logoUrl currentSemester semesterList"`
	Value json.RawMessage `json:"value" validate:"required"`
}

// AddSemesterRequest adds a semester to the semester list.
type AddSemesterRequest struct {
	Semester string `json:"semester" binding:"required"`
}
