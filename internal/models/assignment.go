package models

import "time"

// Assignment history sources.
const (
	AssignmentSourceReport = "event_report"
	AssignmentSourceEdit   = "event_edit"
)

// FamilyTeacherAssignment is the per (user scope, year, family) aggregate.
// CurrentTeacherID always equals the teacher of the most recently appended
// history entry; it is the only field ever overwritten.
type FamilyTeacherAssignment struct {
	ID               string    `db:"id" json:"id"`
	UserID           string    `db:"user_id" json:"user_id"`
	Year             int       `db:"year" json:"year"`
	FamilyKey        string    `db:"family_key" json:"family_key"`
	CurrentTeacherID string    `db:"current_teacher_id" json:"current_teacher_id"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// AssignmentHistoryEntry is one append-only audit row. Entries are never
// removed or reordered; an edit appends a correction.
type AssignmentHistoryEntry struct {
	ID           string    `db:"id" json:"id"`
	AssignmentID string    `db:"assignment_id" json:"assignment_id"`
	EventID      string    `db:"event_id" json:"event_id"`
	TeacherID    string    `db:"teacher_id" json:"teacher_id"`
	Source       string    `db:"source" json:"source"`
	AssignedAt   time.Time `db:"assigned_at" json:"assigned_at"`
}
