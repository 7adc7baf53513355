package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/buzz-code/event-management-nra-sub001/internal/models"
	"github.com/buzz-code/event-management-nra-sub001/pkg/database"
)

// SurveyRepository persists track enrollments and fulfillment answers.
type SurveyRepository struct {
	db *sqlx.DB
}

// NewSurveyRepository constructs a SurveyRepository.
func NewSurveyRepository(db *sqlx.DB) *SurveyRepository {
	return &SurveyRepository{db: db}
}

// UpsertEnrollment records a lottery entry or voucher choice, replacing the
// student's previous choice of the same kind for the year.
func (r *SurveyRepository) UpsertEnrollment(ctx context.Context, enrollment *models.TrackEnrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = now
	}
	enrollment.UpdatedAt = now
	const query = `INSERT INTO track_enrollments (id, user_id, student_id, track_id, kind, year, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (user_id, student_id, kind, year)
DO UPDATE SET track_id = EXCLUDED.track_id, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query,
		enrollment.ID, enrollment.UserID, enrollment.StudentID, enrollment.TrackID,
		enrollment.Kind, enrollment.Year, enrollment.CreatedAt, enrollment.UpdatedAt); err != nil {
		return fmt.Errorf("upsert track enrollment: %w", err)
	}
	return nil
}

// ReplaceAnswers swaps the fulfillment answer set for an event. Delete and
// re-insert run in one transaction so a failure never strips an event of its
// answers.
func (r *SurveyRepository) ReplaceAnswers(ctx context.Context, userID, eventID string, answers []models.FulfillmentAnswer) error {
	return database.Transact(ctx, r.db, func(tx *sqlx.Tx) error {
		return r.replaceAnswers(ctx, tx, userID, eventID, answers)
	})
}

func (r *SurveyRepository) replaceAnswers(ctx context.Context, q sqlx.ExtContext, userID, eventID string, answers []models.FulfillmentAnswer) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM fulfillment_answers WHERE user_id = $1 AND event_id = $2`, userID, eventID); err != nil {
		return fmt.Errorf("delete fulfillment answers: %w", err)
	}
	const insert = `INSERT INTO fulfillment_answers (id, user_id, event_id, question_key, rating, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	now := time.Now().UTC()
	for i := range answers {
		a := &answers[i]
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if _, err := q.ExecContext(ctx, insert, a.ID, userID, eventID, a.QuestionKey, a.Rating, a.CreatedAt); err != nil {
			return fmt.Errorf("insert fulfillment answer: %w", err)
		}
	}
	return nil
}
