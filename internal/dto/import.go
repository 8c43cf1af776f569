package dto

import (
	"encoding/json"

	"github.com/noah-isme/bbsmart-api/internal/models"
)

// ImportRequest is the body of POST /imports/{kind}.
type ImportRequest struct {
	Records []json.RawMessage `json:"records" binding:"required"`
	// ActiveSemester overrides the configured current semester for this pass.
	ActiveSemester string `json:"activeSemester,omitempty"`
	// Redirect asks for the menu the portal should open afterwards.
	Redirect bool `json:"redirect,omitempty"`
}

// ImportSkip reports a record that changed nothing.
type ImportSkip struct {
	Index     int    `json:"index"`
	StudentID string `json:"studentId,omitempty"`
	Reason    string `json:"reason"`
}

// ImportResult is returned after an import has been applied and persisted.
type ImportResult struct {
	Kind           models.ImportKind `json:"kind"`
	ActiveSemester string            `json:"activeSemester"`
	UpdatedCount   int               `json:"updatedCount"`
	UpdatedIDs     []string          `json:"updatedIds"`
	Skipped        []ImportSkip      `json:"skipped"`
	// Students is the whole collection after the import.
	Students   []models.Student `json:"students"`
	NavigateTo string           `json:"navigateTo,omitempty"`
	DryRun     bool             `json:"dryRun,omitempty"`
}
