package models

import "time"

// Report origin tags record who phoned the event in first.
const (
	ReportOriginStudent = "student"
	ReportOriginProxy   = "proxy"
	ReportOriginBoth    = "both"
)

// Event is a durable record of a reported celebration. At most one
// authoritative event exists per (student, event type, date) triple; repeat
// reports resolve to edits of the same row.
type Event struct {
	ID                string    `db:"id" json:"id"`
	UserID            string    `db:"user_id" json:"user_id"`
	StudentID         string    `db:"student_id" json:"student_id"`
	EventTypeID       string    `db:"event_type_id" json:"event_type_id"`
	EventDate         time.Time `db:"event_date" json:"event_date"`
	LevelTypeID       *string   `db:"level_type_id" json:"level_type_id,omitempty"`
	ReporterStudentID *string   `db:"reporter_student_id" json:"reporter_student_id,omitempty"`
	ReportOrigin      string    `db:"report_origin" json:"report_origin"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// EventDetail enriches an event with catalog names for confirmation prompts.
type EventDetail struct {
	Event
	EventTypeName string  `db:"event_type_name" json:"event_type_name"`
	StudentName   string  `db:"student_name" json:"student_name"`
	LevelTypeName *string `db:"level_type_name" json:"level_type_name,omitempty"`
}

// EventGift links an event to one selected gift. The whole set for an event
// is replaced on every save.
type EventGift struct {
	ID      string `db:"id" json:"id"`
	EventID string `db:"event_id" json:"event_id"`
	GiftID  string `db:"gift_id" json:"gift_id"`
}

// MergeOrigin returns the report-origin tag after a save by reporterKind.
// A second reporter of the other kind flips the tag to both.
func MergeOrigin(existing string, reporterKind string) string {
	if existing == "" {
		return reporterKind
	}
	if existing == reporterKind || existing == ReportOriginBoth {
		return existing
	}
	return ReportOriginBoth
}
