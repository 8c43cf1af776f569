package models

// SubjectType distinguishes compulsory from elective subjects.
type SubjectType string

const (
	SubjectCompulsory SubjectType = "COMPULSORY"
	SubjectElective   SubjectType = "ELECTIVE"
)

// Subject represents an academic subject in the curriculum catalog.
type Subject struct {
	ID     string      `json:"id" validate:"required"`
	Code   string      `json:"code" validate:"required"`
	Name   string      `json:"name" validate:"required"`
	Type   SubjectType `json:"type" validate:"required,oneof=COMPULSORY ELECTIVE"`
	Credit float64     `json:"credit" validate:"gt=0"`
	Level  string      `json:"level"`
}

// SubjectCatalog indexes subjects by id.
type SubjectCatalog map[string]Subject

// NewSubjectCatalog builds a catalog from a subject list; later duplicates win.
func NewSubjectCatalog(subjects []Subject) SubjectCatalog {
	catalog := make(SubjectCatalog, len(subjects))
	for _, s := range subjects {
		catalog[s.ID] = s
	}
	return catalog
}

// Credit returns the subject's credit, or 0 when the subject is unknown.
func (c SubjectCatalog) Credit(subjectID string) float64 {
	if s, ok := c[subjectID]; ok {
		return s.Credit
	}
	return 0
}
