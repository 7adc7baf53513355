package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/buzz-code/event-management-nra-sub001/internal/models"
)

// EventRepository persists reported events and their gift selections.
// Write methods take an ExtContext so the service can scope them to one
// transaction together with the assignment append.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// DB returns the underlying handle for non-transactional reads.
func (r *EventRepository) DB() sqlx.ExtContext {
	return r.db
}

// FindByTriple resolves the authoritative event for (student, type, date).
// Exact match on the triple; returns sql.ErrNoRows when absent.
func (r *EventRepository) FindByTriple(ctx context.Context, q sqlx.ExtContext, userID, studentID, eventTypeID string, date time.Time) (*models.Event, error) {
	const query = `SELECT id, user_id, student_id, event_type_id, event_date, level_type_id, reporter_student_id, report_origin, created_at, updated_at
FROM events
WHERE user_id = $1 AND student_id = $2 AND event_type_id = $3 AND event_date = $4`
	var event models.Event
	if err := sqlx.GetContext(ctx, q, &event, query, userID, studentID, eventTypeID, date); err != nil {
		return nil, err
	}
	return &event, nil
}

// Insert creates a new event row.
func (r *EventRepository) Insert(ctx context.Context, q sqlx.ExtContext, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now
	const query = `INSERT INTO events (id, user_id, student_id, event_type_id, event_date, level_type_id, reporter_student_id, report_origin, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if _, err := q.ExecContext(ctx, query,
		event.ID, event.UserID, event.StudentID, event.EventTypeID, event.EventDate,
		event.LevelTypeID, event.ReporterStudentID, event.ReportOrigin, event.CreatedAt, event.UpdatedAt); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Update overwrites the scalar fields of an existing event.
func (r *EventRepository) Update(ctx context.Context, q sqlx.ExtContext, event *models.Event) error {
	event.UpdatedAt = time.Now().UTC()
	const query = `UPDATE events SET event_date = $2, level_type_id = $3, reporter_student_id = $4, report_origin = $5, updated_at = $6 WHERE id = $1`
	if _, err := q.ExecContext(ctx, query,
		event.ID, event.EventDate, event.LevelTypeID, event.ReporterStudentID, event.ReportOrigin, event.UpdatedAt); err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return nil
}

// ReplaceGifts swaps the whole gift set for an event: delete then insert.
// Must run inside the same transaction as the event upsert so a crash never
// leaves a stale or empty set from a prior save.
func (r *EventRepository) ReplaceGifts(ctx context.Context, q sqlx.ExtContext, eventID string, giftIDs []string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM event_gifts WHERE event_id = $1`, eventID); err != nil {
		return fmt.Errorf("delete event gifts: %w", err)
	}
	const insert = `INSERT INTO event_gifts (id, event_id, gift_id) VALUES ($1, $2, $3)`
	for _, giftID := range giftIDs {
		if _, err := q.ExecContext(ctx, insert, uuid.NewString(), eventID, giftID); err != nil {
			return fmt.Errorf("insert event gift: %w", err)
		}
	}
	return nil
}

// GiftIDs returns the gift ids currently linked to an event.
func (r *EventRepository) GiftIDs(ctx context.Context, eventID string) ([]string, error) {
	const query = `SELECT gift_id FROM event_gifts WHERE event_id = $1 ORDER BY gift_id ASC`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, eventID); err != nil {
		return nil, fmt.Errorf("list event gifts: %w", err)
	}
	return ids, nil
}

// CountByStudent returns how many events the student has reported in total.
func (r *EventRepository) CountByStudent(ctx context.Context, userID, studentID string) (int, error) {
	const query = `SELECT COUNT(*) FROM events WHERE user_id = $1 AND student_id = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID, studentID); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}

// CountPastByStudent returns events dated strictly before the given instant.
func (r *EventRepository) CountPastByStudent(ctx context.Context, userID, studentID string, before time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM events WHERE user_id = $1 AND student_id = $2 AND event_date < $3`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID, studentID, before); err != nil {
		return 0, fmt.Errorf("count past events: %w", err)
	}
	return count, nil
}

// FindLatestPast returns the student's most recent past event with catalog
// names, for the fulfillment survey.
func (r *EventRepository) FindLatestPast(ctx context.Context, userID, studentID string, before time.Time) (*models.EventDetail, error) {
	const query = `SELECT e.id, e.user_id, e.student_id, e.event_type_id, e.event_date, e.level_type_id, e.reporter_student_id, e.report_origin, e.created_at, e.updated_at,
       et.name AS event_type_name, s.full_name AS student_name, lt.name AS level_type_name
FROM events e
JOIN event_types et ON et.id = e.event_type_id
JOIN students s ON s.id = e.student_id
LEFT JOIN level_types lt ON lt.id = e.level_type_id
WHERE e.user_id = $1 AND e.student_id = $2 AND e.event_date < $3
ORDER BY e.event_date DESC
LIMIT 1`
	var detail models.EventDetail
	if err := r.db.GetContext(ctx, &detail, query, userID, studentID, before); err != nil {
		return nil, err
	}
	return &detail, nil
}
