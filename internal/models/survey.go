package models

import "time"

// TrackEnrollment records a caller's lottery entry or voucher choice for a
// year. One row per (user scope, student, track kind, year); re-entry updates
// the existing row.
type TrackEnrollment struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	TrackID   string    `db:"track_id" json:"track_id"`
	Kind      string    `db:"kind" json:"kind"`
	Year      int       `db:"year" json:"year"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// FulfillmentAnswer stores one keypad rating from the post-event survey.
// The set for an event is replaced when the survey is retaken.
type FulfillmentAnswer struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	EventID     string    `db:"event_id" json:"event_id"`
	QuestionKey string    `db:"question_key" json:"question_key"`
	Rating      int       `db:"rating" json:"rating"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
