package models

// Text is one operator-editable caller-facing string, looked up by symbolic
// name (e.g. EVENT.CONFIRM_TYPE) with {placeholder} substitution.
type Text struct {
	ID     string `db:"id" json:"id"`
	UserID string `db:"user_id" json:"user_id"`
	Name   string `db:"name" json:"name"`
	Value  string `db:"value" json:"value"`
}
