package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/buzz-code/event-management-nra-sub001/internal/models"
)

// StudentRepository reads student identity records. The call core never
// writes students; they are owned by the administrative system.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentDetailColumns = `s.id, s.user_id, s.tz, s.full_name, s.phone, s.family_key, s.active, s.created_at, s.updated_at,
       cm.class_id AS class_id, c.name AS class_name, cm.year AS class_year, c.teacher_id AS class_teacher_id, cm.is_representative`

// FindByTZ fetches a student by national ID together with the class
// membership for the given year.
func (r *StudentRepository) FindByTZ(ctx context.Context, userID, tz string, year int) (*models.StudentDetail, error) {
	query := fmt.Sprintf(`SELECT %s
FROM students s
LEFT JOIN class_memberships cm ON cm.student_id = s.id AND cm.year = $3
LEFT JOIN classes c ON c.id = cm.class_id AND c.active
WHERE s.user_id = $1 AND s.tz = $2 AND s.active`, studentDetailColumns)

	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, userID, tz, year); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindClassmateByTZ fetches a student by national ID restricted to members of
// the given class for the year. Used by proxy reports so a representative can
// only act for her own class.
func (r *StudentRepository) FindClassmateByTZ(ctx context.Context, userID, tz, classID string, year int) (*models.StudentDetail, error) {
	query := fmt.Sprintf(`SELECT %s
FROM students s
JOIN class_memberships cm ON cm.student_id = s.id AND cm.year = $4 AND cm.class_id = $3
LEFT JOIN classes c ON c.id = cm.class_id AND c.active
WHERE s.user_id = $1 AND s.tz = $2 AND s.active`, studentDetailColumns)

	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, userID, tz, classID, year); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindTeacher loads a teacher record.
func (r *StudentRepository) FindTeacher(ctx context.Context, id string) (*models.Teacher, error) {
	const query = `SELECT id, user_id, full_name, phone FROM teachers WHERE id = $1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}
