package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/buzz-code/event-management-nra-sub001/internal/models"
	"github.com/buzz-code/event-management-nra-sub001/internal/repository"
	appErrors "github.com/buzz-code/event-management-nra-sub001/pkg/errors"
)

// AssignmentHistory is the read model for one family's teacher assignment:
// the current pointer plus the full append-only trail.
type AssignmentHistory struct {
	Assignment     *models.FamilyTeacherAssignment `json:"assignment"`
	CurrentTeacher *models.Teacher                 `json:"current_teacher,omitempty"`
	Entries        []models.AssignmentHistoryEntry `json:"history"`
}

// AssignmentService serves the family-teacher assignment read side. Writes
// happen only inside the event save transaction.
type AssignmentService struct {
	assignments *repository.AssignmentRepository
	students    *repository.StudentRepository
	logger      *zap.Logger
}

// NewAssignmentService constructs the assignment read service.
func NewAssignmentService(assignments *repository.AssignmentRepository, students *repository.StudentRepository, logger *zap.Logger) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{assignments: assignments, students: students, logger: logger}
}

// History returns the assignment aggregate for (user scope, year, family)
// with its trail, or nil when the family has no assignment for the year.
func (s *AssignmentService) History(ctx context.Context, userID string, year int, familyKey string) (*AssignmentHistory, error) {
	assignment, err := s.assignments.Find(ctx, userID, year, familyKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.WrapAs(appErrors.ErrInternal, err, "failed to load assignment")
	}

	entries, err := s.assignments.History(ctx, assignment.ID)
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrInternal, err, "failed to load assignment history")
	}

	result := &AssignmentHistory{Assignment: assignment, Entries: entries}

	// Teacher detail is decoration; a missing staff record must not fail
	// the read.
	teacher, err := s.students.FindTeacher(ctx, assignment.CurrentTeacherID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("teacher lookup failed", zap.String("teacher_id", assignment.CurrentTeacherID), zap.Error(err))
		}
	} else {
		result.CurrentTeacher = teacher
	}

	return result, nil
}
