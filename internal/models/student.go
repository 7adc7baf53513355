package models

import "time"

// Student is an identity record owned by the administrative system; the call
// core reads it and never writes it.
type Student struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	TZ        string    `db:"tz" json:"tz"`
	FullName  string    `db:"full_name" json:"full_name"`
	Phone     string    `db:"phone" json:"phone"`
	FamilyKey string    `db:"family_key" json:"family_key"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// StudentDetail enriches a student with the class membership for a year.
type StudentDetail struct {
	Student
	ClassID          *string `db:"class_id" json:"class_id,omitempty"`
	ClassName        *string `db:"class_name" json:"class_name,omitempty"`
	ClassYear        *int    `db:"class_year" json:"class_year,omitempty"`
	ClassTeacherID   *string `db:"class_teacher_id" json:"class_teacher_id,omitempty"`
	IsRepresentative *bool   `db:"is_representative" json:"is_representative,omitempty"`
}

// HasActiveClass reports whether the student belongs to a class for the year.
func (d StudentDetail) HasActiveClass(year int) bool {
	return d.ClassID != nil && d.ClassYear != nil && *d.ClassYear == year
}

// Teacher is a staff record referenced by classes and assignment history.
type Teacher struct {
	ID       string `db:"id" json:"id"`
	UserID   string `db:"user_id" json:"user_id"`
	FullName string `db:"full_name" json:"full_name"`
	Phone    string `db:"phone" json:"phone"`
}
