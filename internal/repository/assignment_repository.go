package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/buzz-code/event-management-nra-sub001/internal/models"
)

// AssignmentRepository persists the family-teacher assignment aggregate and
// its append-only history.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs an AssignmentRepository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// FindForUpdate loads the (user scope, year, family) aggregate inside a
// transaction, taking a row lock so concurrent appends serialize.
func (r *AssignmentRepository) FindForUpdate(ctx context.Context, q sqlx.ExtContext, userID string, year int, familyKey string) (*models.FamilyTeacherAssignment, error) {
	const query = `SELECT id, user_id, year, family_key, current_teacher_id, created_at, updated_at
FROM family_teacher_assignments
WHERE user_id = $1 AND year = $2 AND family_key = $3
FOR UPDATE`
	var assignment models.FamilyTeacherAssignment
	if err := sqlx.GetContext(ctx, q, &assignment, query, userID, year, familyKey); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// Find loads the aggregate without locking, for read paths.
func (r *AssignmentRepository) Find(ctx context.Context, userID string, year int, familyKey string) (*models.FamilyTeacherAssignment, error) {
	const query = `SELECT id, user_id, year, family_key, current_teacher_id, created_at, updated_at
FROM family_teacher_assignments
WHERE user_id = $1 AND year = $2 AND family_key = $3`
	var assignment models.FamilyTeacherAssignment
	if err := r.db.GetContext(ctx, &assignment, query, userID, year, familyKey); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// Insert creates the aggregate lazily on the family's first event in a year.
func (r *AssignmentRepository) Insert(ctx context.Context, q sqlx.ExtContext, assignment *models.FamilyTeacherAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = now
	}
	assignment.UpdatedAt = now
	const query = `INSERT INTO family_teacher_assignments (id, user_id, year, family_key, current_teacher_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := q.ExecContext(ctx, query,
		assignment.ID, assignment.UserID, assignment.Year, assignment.FamilyKey,
		assignment.CurrentTeacherID, assignment.CreatedAt, assignment.UpdatedAt); err != nil {
		return fmt.Errorf("insert assignment: %w", err)
	}
	return nil
}

// SetCurrentTeacher overwrites the aggregate's current pointer. The pointer
// is the only field ever overwritten on the aggregate.
func (r *AssignmentRepository) SetCurrentTeacher(ctx context.Context, q sqlx.ExtContext, assignmentID, teacherID string) error {
	const query = `UPDATE family_teacher_assignments SET current_teacher_id = $2, updated_at = $3 WHERE id = $1`
	if _, err := q.ExecContext(ctx, query, assignmentID, teacherID, time.Now().UTC()); err != nil {
		return fmt.Errorf("set current teacher: %w", err)
	}
	return nil
}

// AppendHistory appends one audit entry. History rows are never updated or
// deleted.
func (r *AssignmentRepository) AppendHistory(ctx context.Context, q sqlx.ExtContext, entry *models.AssignmentHistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.AssignedAt.IsZero() {
		entry.AssignedAt = time.Now().UTC()
	}
	const query = `INSERT INTO family_teacher_assignment_history (id, assignment_id, event_id, teacher_id, source, assigned_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := q.ExecContext(ctx, query,
		entry.ID, entry.AssignmentID, entry.EventID, entry.TeacherID, entry.Source, entry.AssignedAt); err != nil {
		return fmt.Errorf("append assignment history: %w", err)
	}
	return nil
}

// History returns the aggregate's entries ordered by append time.
func (r *AssignmentRepository) History(ctx context.Context, assignmentID string) ([]models.AssignmentHistoryEntry, error) {
	const query = `SELECT id, assignment_id, event_id, teacher_id, source, assigned_at
FROM family_teacher_assignment_history
WHERE assignment_id = $1
ORDER BY assigned_at ASC, id ASC`
	var entries []models.AssignmentHistoryEntry
	if err := r.db.SelectContext(ctx, &entries, query, assignmentID); err != nil {
		return nil, fmt.Errorf("list assignment history: %w", err)
	}
	return entries, nil
}
