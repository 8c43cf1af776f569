package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/bbsmart-api/internal/models"
	appErrors "github.com/noah-isme/bbsmart-api/pkg/errors"
)

// StudentService serves the student collection filtered by who is asking.
type StudentService struct {
	records *RecordService
	logger  *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(records *RecordService, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{records: records, logger: logger}
}

// List returns the students visible to actor: staff see everyone, a teacher
// sees their advisees and a student sees only themselves.
func (s *StudentService) List(ctx context.Context, actor *models.JWTClaims) ([]models.Student, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	students, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	if actor.Role.IsStaff() {
		return students, nil
	}
	visible := make([]models.Student, 0)
	for _, st := range students {
		if canView(actor, st) {
			visible = append(visible, st)
		}
	}
	return visible, nil
}

// Get returns one student if actor may see it.
func (s *StudentService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.Student, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	students, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	for i := range students {
		if students[i].ID != id {
			continue
		}
		if !canView(actor, students[i]) {
			return nil, appErrors.ErrForbidden
		}
		return &students[i], nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student %s not found", id))
}

func (s *StudentService) all(ctx context.Context) ([]models.Student, error) {
	raws, err := s.records.fetch(ctx, ResourceStudents)
	if err != nil {
		return nil, err
	}
	return decodeRecords[models.Student](ResourceStudents, raws)
}

func canView(actor *models.JWTClaims, st models.Student) bool {
	switch {
	case actor.Role.IsStaff():
		return true
	case actor.Role == models.RoleTeacher:
		return st.TeacherID != "" && st.TeacherID == actor.UserID
	case actor.Role == models.RoleStudent:
		return st.ID == actor.UserID
	}
	return false
}
